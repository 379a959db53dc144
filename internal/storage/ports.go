// Package storage persists the Expensiver domain in SQLite and defines the
// ports the HTTP layer and workers program against.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/core"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrEmailExists   = errors.New("email already registered")
	ErrAlreadyMember = errors.New("already a group member")
)

// ExpenseFilter narrows ListExpenses. Zero values mean "no constraint",
// except OwnerID which is always required for personal listings.
type ExpenseFilter struct {
	OwnerID  uuid.UUID
	Year     int
	Month    int
	Category string
}

type (
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) error
		GetUser(ctx context.Context, id uuid.UUID) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) error
	}

	GroupStore interface {
		CreateGroup(ctx context.Context, g core.Group) error
		GetGroup(ctx context.Context, id uuid.UUID) (core.Group, error)
		GetGroupByInviteCode(ctx context.Context, code string) (core.Group, error)
		ListGroups(ctx context.Context, userID uuid.UUID) ([]core.Group, error)
		AddMember(ctx context.Context, groupID uuid.UUID, m core.Member) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) error
		GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) error
		// DeleteExpense soft deletes; the row stays for audit.
		DeleteExpense(ctx context.Context, id uuid.UUID) error
		ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error)
		ListGroupExpenses(ctx context.Context, groupID uuid.UUID) ([]core.Expense, error)
	}

	WalletStore interface {
		WalletBalance(ctx context.Context, userID uuid.UUID) (core.Money, error)
		ListTransactions(ctx context.Context, userID uuid.UUID) ([]core.WalletTransaction, error)
		AddTransaction(ctx context.Context, t core.WalletTransaction) error
	}

	ExportStore interface {
		CreateExportJob(ctx context.Context, j core.ExportJob) error
		GetExportJob(ctx context.Context, id uuid.UUID) (core.ExportJob, error)
		UpdateExportJob(ctx context.Context, j core.ExportJob) error
	}
)

// Store is the full persistence surface the server wires up.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	WalletStore
	ExportStore
	Close() error
}
