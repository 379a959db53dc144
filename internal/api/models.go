// Package api defines the JSON payloads exchanged between the Expensiver
// server and its clients. Amounts travel as integer cents except where a
// human types them, in which case they are decimal strings ("12.34").
package api

import (
	"time"

	"github.com/google/uuid"
)

// ---- auth ----

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type AuthResponse struct {
	User         UserPayload `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// ---- users ----

type UserPayload struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateUserRequest struct {
	Name  string `json:"name"  validate:"omitempty,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
}

// ---- expenses ----

type CreateExpenseRequest struct {
	Date        string `json:"date"        validate:"required,datetime=2006-01-02"`
	Description string `json:"description" validate:"required,max=200"`
	Amount      string `json:"amount"      validate:"required"`
	Category    string `json:"category"    validate:"required,max=50"`
}

type ExpensePayload struct {
	ID          uuid.UUID      `json:"id"`
	OwnerID     uuid.UUID      `json:"ownerId"`
	GroupID     uuid.UUID      `json:"groupId"`
	Date        string         `json:"date"`
	Description string         `json:"description"`
	AmountCents int64          `json:"amountCents"`
	Category    string         `json:"category"`
	Shares      []SharePayload `json:"shares,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type SharePayload struct {
	UserID      uuid.UUID `json:"userId"`
	AmountCents int64     `json:"amountCents"`
}

type ExpenseListResponse struct {
	Expenses []ExpensePayload `json:"expenses"`
}

type CategoryAmountPayload struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amountCents"`
}

type SummaryResponse struct {
	Year       int                     `json:"year"`
	Month      int                     `json:"month"`
	TotalCents int64                   `json:"totalCents"`
	Count      int                     `json:"count"`
	Categories []CategoryAmountPayload `json:"categories"`
}

// ---- groups ----

type CreateGroupRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Currency string `json:"currency" validate:"required,len=3,alpha"`
}

type JoinGroupRequest struct {
	InviteCode string `json:"inviteCode" validate:"required"`
}

// CreateGroupExpenseRequest adds an expense paid by the caller inside a
// group. With no explicit splits the amount is divided equally between all
// members.
type CreateGroupExpenseRequest struct {
	Date        string         `json:"date"        validate:"required,datetime=2006-01-02"`
	Description string         `json:"description" validate:"required,max=200"`
	Amount      string         `json:"amount"      validate:"required"`
	Category    string         `json:"category"    validate:"required,max=50"`
	Splits      []SharePayload `json:"splits,omitempty"`
}

type MemberPayload struct {
	UserID   uuid.UUID `json:"userId"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

type GroupPayload struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Currency   string          `json:"currency"`
	InviteCode string          `json:"inviteCode"`
	CreatedBy  uuid.UUID       `json:"createdBy"`
	CreatedAt  time.Time       `json:"createdAt"`
	Members    []MemberPayload `json:"members"`
}

type GroupListResponse struct {
	Groups []GroupPayload `json:"groups"`
}

type BalancePayload struct {
	UserID   uuid.UUID `json:"userId"`
	NetCents int64     `json:"netCents"`
}

type BalancesResponse struct {
	Balances []BalancePayload `json:"balances"`
}

type TransferPayload struct {
	From        uuid.UUID `json:"from"`
	To          uuid.UUID `json:"to"`
	AmountCents int64     `json:"amountCents"`
}

type SettlementsResponse struct {
	Transfers []TransferPayload `json:"transfers"`
}

// ---- wallet ----

type WalletResponse struct {
	BalanceCents int64 `json:"balanceCents"`
}

type TopUpRequest struct {
	Amount      string `json:"amount"      validate:"required"`
	Description string `json:"description" validate:"required,max=200"`
}

type TransactionPayload struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amountCents"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type TransactionListResponse struct {
	Transactions []TransactionPayload `json:"transactions"`
}

// ---- exports ----

type CreateExportRequest struct {
	Year  int `json:"year"  validate:"required,min=1970,max=9999"`
	Month int `json:"month" validate:"omitempty,min=1,max=12"`
}

type ExportJobPayload struct {
	ID          uuid.UUID  `json:"id"`
	Status      string     `json:"status"`
	Year        int        `json:"year"`
	Month       int        `json:"month,omitempty"`
	FileName    string     `json:"fileName,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ErrorResponse is the error envelope for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
