package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/core"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]core.User
	groups   map[uuid.UUID]core.Group
	expenses map[uuid.UUID]core.Expense
	deleted  map[uuid.UUID]bool
	txns     map[uuid.UUID][]core.WalletTransaction
	exports  map[uuid.UUID]core.ExportJob
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]core.User),
		groups:   make(map[uuid.UUID]core.Group),
		expenses: make(map[uuid.UUID]core.Expense),
		deleted:  make(map[uuid.UUID]bool),
		txns:     make(map[uuid.UUID][]core.WalletTransaction),
		exports:  make(map[uuid.UUID]core.ExportJob),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrEmailExists
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, ErrNotFound
}

func (s *MemoryStore) UpdateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && other.Email == u.Email {
			return ErrEmailExists
		}
	}
	existing.Name = u.Name
	existing.Email = u.Email
	s.users[u.ID] = existing
	return nil
}

func (s *MemoryStore) CreateGroup(_ context.Context, g core.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = g
	return nil
}

func (s *MemoryStore) GetGroup(_ context.Context, id uuid.UUID) (core.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return core.Group{}, ErrNotFound
	}
	return g, nil
}

func (s *MemoryStore) GetGroupByInviteCode(_ context.Context, code string) (core.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.InviteCode == code {
			return g, nil
		}
	}
	return core.Group{}, ErrNotFound
}

func (s *MemoryStore) ListGroups(_ context.Context, userID uuid.UUID) ([]core.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var groups []core.Group
	for _, g := range s.groups {
		for _, m := range g.Members {
			if m.UserID == userID {
				groups = append(groups, g)
				break
			}
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt.Before(groups[j].CreatedAt) })
	return groups, nil
}

func (s *MemoryStore) AddMember(_ context.Context, groupID uuid.UUID, m core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range g.Members {
		if existing.UserID == m.UserID {
			return ErrAlreadyMember
		}
	}
	g.Members = append(g.Members, m)
	s.groups[groupID] = g
	return nil
}

func (s *MemoryStore) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = e
	return nil
}

func (s *MemoryStore) GetExpense(_ context.Context, id uuid.UUID) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok || s.deleted[id] {
		return core.Expense{}, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.expenses[e.ID]
	if !ok || s.deleted[e.ID] {
		return ErrNotFound
	}
	existing.Date = e.Date
	existing.Description = e.Description
	existing.Amount = e.Amount
	existing.Category = e.Category
	s.expenses[e.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteExpense(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok || s.deleted[id] {
		return ErrNotFound
	}
	s.deleted[id] = true
	return nil
}

func (s *MemoryStore) ListExpenses(_ context.Context, f ExpenseFilter) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for id, e := range s.expenses {
		if s.deleted[id] || e.OwnerID != f.OwnerID || e.GroupID != uuid.Nil {
			continue
		}
		if f.Year != 0 && e.Date.Year() != f.Year {
			continue
		}
		if f.Month != 0 && e.Date.Month() != f.Month {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, e)
	}
	sortExpenses(out)
	return out, nil
}

func (s *MemoryStore) ListGroupExpenses(_ context.Context, groupID uuid.UUID) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for id, e := range s.expenses {
		if s.deleted[id] || e.GroupID != groupID {
			continue
		}
		out = append(out, e)
	}
	sortExpenses(out)
	return out, nil
}

func sortExpenses(out []core.Expense) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}

func (s *MemoryStore) WalletBalance(_ context.Context, userID uuid.UUID) (core.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cents int64
	for _, t := range s.txns[userID] {
		if t.Kind == core.TxnCredit {
			cents += t.Amount.Cents
		} else {
			cents -= t.Amount.Cents
		}
	}
	return core.Money{Cents: cents}, nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, userID uuid.UUID) ([]core.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.WalletTransaction, len(s.txns[userID]))
	copy(out, s.txns[userID])
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) AddTransaction(_ context.Context, t core.WalletTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns[t.UserID] = append(s.txns[t.UserID], t)
	return nil
}

func (s *MemoryStore) CreateExportJob(_ context.Context, j core.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports[j.ID] = j
	return nil
}

func (s *MemoryStore) GetExportJob(_ context.Context, id uuid.UUID) (core.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.exports[id]
	if !ok {
		return core.ExportJob{}, ErrNotFound
	}
	return j, nil
}

func (s *MemoryStore) UpdateExportJob(_ context.Context, j core.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exports[j.ID]; !ok {
		return ErrNotFound
	}
	s.exports[j.ID] = j
	return nil
}
