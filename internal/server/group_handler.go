package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	"github.com/tejaperfect/expensiver1-sub002/internal/core"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
)

// generateInviteCode creates the short code members use to join a group.
func generateInviteCode() string {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:8]
	}
	return hex.EncodeToString(bytes)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req api.CreateGroupRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	creator, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	now := time.Now().UTC()
	group := core.Group{
		ID:         uuid.New(),
		Name:       sanitizeInput(req.Name),
		Currency:   strings.ToUpper(req.Currency),
		InviteCode: generateInviteCode(),
		CreatedBy:  userID,
		CreatedAt:  now,
		Members:    []core.Member{{UserID: userID, Name: creator.Name, JoinedAt: now}},
	}
	if err := group.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		respondStoreError(w, err)
		return
	}

	s.log.InfoContext(r.Context(), "Group created",
		applog.FieldUserID, userID,
		applog.FieldGroupID, group.ID)
	respondJSON(w, http.StatusCreated, toGroupPayload(group))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	groups, err := s.store.ListGroups(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	resp := api.GroupListResponse{Groups: make([]api.GroupPayload, 0, len(groups))}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, toGroupPayload(g))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, ok := s.memberGroup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toGroupPayload(group))
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req api.JoinGroupRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	group, err := s.store.GetGroupByInviteCode(r.Context(), strings.TrimSpace(req.InviteCode))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	member := core.Member{UserID: userID, Name: user.Name, JoinedAt: time.Now().UTC()}
	if err := s.store.AddMember(r.Context(), group.ID, member); err != nil {
		respondStoreError(w, err)
		return
	}
	group.Members = append(group.Members, member)

	s.log.InfoContext(r.Context(), "Member joined group",
		applog.FieldUserID, userID,
		applog.FieldGroupID, group.ID)
	respondJSON(w, http.StatusOK, toGroupPayload(group))
}

func (s *Server) handleCreateGroupExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	group, ok := s.memberGroup(w, r)
	if !ok {
		return
	}

	var req api.CreateGroupExpenseRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, core.ErrInvalidDate.Error())
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount := core.Money{Cents: cents}

	memberIDs := make(map[uuid.UUID]bool, len(group.Members))
	ids := make([]uuid.UUID, 0, len(group.Members))
	for _, m := range group.Members {
		memberIDs[m.UserID] = true
		ids = append(ids, m.UserID)
	}

	var shares []core.Share
	if len(req.Splits) == 0 {
		shares, err = core.SplitEqually(amount, ids)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		seen := make(map[uuid.UUID]bool, len(req.Splits))
		for _, sp := range req.Splits {
			if !memberIDs[sp.UserID] {
				respondError(w, http.StatusBadRequest, "split references a non-member")
				return
			}
			if seen[sp.UserID] {
				respondError(w, http.StatusBadRequest, "split lists a member twice")
				return
			}
			seen[sp.UserID] = true
			shares = append(shares, core.Share{UserID: sp.UserID, Amount: core.Money{Cents: sp.AmountCents}})
		}
	}

	expense := core.Expense{
		ID:          uuid.New(),
		OwnerID:     userID,
		GroupID:     group.ID,
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		Shares:      shares,
		CreatedAt:   time.Now().UTC(),
	}
	if err := expense.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateExpense(r.Context(), expense); err != nil {
		respondStoreError(w, err)
		return
	}

	s.log.InfoContext(r.Context(), "Group expense created",
		applog.FieldUserID, userID,
		applog.FieldGroupID, group.ID,
		applog.FieldExpenseID, expense.ID,
		applog.FieldAmount, expense.Amount.Cents)
	respondJSON(w, http.StatusCreated, toExpensePayload(expense))
}

func (s *Server) handleListGroupExpenses(w http.ResponseWriter, r *http.Request) {
	group, ok := s.memberGroup(w, r)
	if !ok {
		return
	}

	expenses, err := s.store.ListGroupExpenses(r.Context(), group.ID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseList(expenses))
}

func (s *Server) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	balances, ok := s.groupBalances(w, r)
	if !ok {
		return
	}

	resp := api.BalancesResponse{Balances: make([]api.BalancePayload, 0, len(balances))}
	for _, b := range balances {
		resp.Balances = append(resp.Balances, api.BalancePayload{UserID: b.UserID, NetCents: b.Net.Cents})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGroupSettlements(w http.ResponseWriter, r *http.Request) {
	balances, ok := s.groupBalances(w, r)
	if !ok {
		return
	}

	transfers := core.SettlementPlan(balances)
	resp := api.SettlementsResponse{Transfers: make([]api.TransferPayload, 0, len(transfers))}
	for _, t := range transfers {
		resp.Transfers = append(resp.Transfers, api.TransferPayload{
			From:        t.From,
			To:          t.To,
			AmountCents: t.Amount.Cents,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// memberGroup loads the {id} group and enforces that the caller belongs
// to it. Non-members get a 404 rather than a 403 to avoid leaking IDs.
func (s *Server) memberGroup(w http.ResponseWriter, r *http.Request) (core.Group, bool) {
	userID, _ := UserIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid group id")
		return core.Group{}, false
	}

	group, err := s.store.GetGroup(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return core.Group{}, false
	}

	for _, m := range group.Members {
		if m.UserID == userID {
			return group, true
		}
	}
	respondError(w, http.StatusNotFound, "not found")
	return core.Group{}, false
}

func (s *Server) groupBalances(w http.ResponseWriter, r *http.Request) ([]core.Balance, bool) {
	group, ok := s.memberGroup(w, r)
	if !ok {
		return nil, false
	}

	expenses, err := s.store.ListGroupExpenses(r.Context(), group.ID)
	if err != nil {
		respondStoreError(w, err)
		return nil, false
	}
	return core.ComputeBalances(group.Members, expenses), true
}
