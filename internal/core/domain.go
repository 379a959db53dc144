package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CategoryGeneral = "General"

	TxnCredit TxnKind = "credit"
	TxnDebit  TxnKind = "debit"

	ExportPending    ExportStatus = "pending"
	ExportProcessing ExportStatus = "processing"
	ExportDone       ExportStatus = "done"
	ExportFailed     ExportStatus = "failed"
)

type (
	TxnKind      string
	ExportStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           uuid.UUID
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	Member struct {
		UserID   uuid.UUID
		Name     string
		JoinedAt time.Time
	}

	Group struct {
		ID         uuid.UUID
		Name       string
		Currency   string
		InviteCode string
		CreatedBy  uuid.UUID
		CreatedAt  time.Time
		Members    []Member
	}

	// Share is one member's portion of a group expense.
	Share struct {
		UserID uuid.UUID
		Amount Money
	}

	Expense struct {
		ID          uuid.UUID
		OwnerID     uuid.UUID // the member who paid
		GroupID     uuid.UUID // zero for personal expenses
		Date        Date
		Description string
		Amount      Money
		Category    string
		Shares      []Share // populated only for group expenses
		CreatedAt   time.Time
	}

	WalletTransaction struct {
		ID          uuid.UUID
		UserID      uuid.UUID
		Kind        TxnKind
		Amount      Money
		Description string
		CreatedAt   time.Time
	}

	ExportJob struct {
		ID          uuid.UUID
		OwnerID     uuid.UUID
		Status      ExportStatus
		Year        int
		Month       int // 0 means whole year
		FileName    string
		Error       string
		CreatedAt   time.Time
		CompletedAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidDate      = errors.New("invalid date")
	ErrSharesMismatch   = errors.New("shares do not sum to expense amount")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	year := d.Time.Year()
	if year < 1970 || year > 9999 {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (u User) Validate() error {
	if len(strings.TrimSpace(u.Name)) == 0 {
		return ErrEmptyName
	}
	if len(u.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	email := strings.TrimSpace(u.Email)
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return ErrInvalidEmail
	}
	return nil
}

func (g Group) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if len(g.Name) > 100 {
		return errors.New("group name too long (max 100 characters)")
	}
	if len(g.Currency) != 3 {
		return errors.New("currency must be a 3-letter code")
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Shares) > 0 {
		var sum int64
		for _, s := range e.Shares {
			if s.Amount.Cents < 0 {
				return ErrInvalidAmount
			}
			sum += s.Amount.Cents
		}
		if sum != e.Amount.Cents {
			return ErrSharesMismatch
		}
	}
	return nil
}

func (t WalletTransaction) Validate() error {
	switch t.Kind {
	case TxnCredit, TxnDebit:
	default:
		return errors.New("invalid transaction kind")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	return nil
}

// SplitEqually divides amount into n shares that sum exactly to the amount.
// The remainder cents go to the earliest shares, so shares differ by at
// most one cent.
func SplitEqually(amount Money, userIDs []uuid.UUID) ([]Share, error) {
	n := int64(len(userIDs))
	if n == 0 {
		return nil, errors.New("no members to split between")
	}
	if err := amount.Validate(); err != nil {
		return nil, err
	}
	base := amount.Cents / n
	rem := amount.Cents % n
	shares := make([]Share, len(userIDs))
	for i, id := range userIDs {
		c := base
		if int64(i) < rem {
			c++
		}
		shares[i] = Share{UserID: id, Amount: Money{Cents: c}}
	}
	return shares, nil
}
