package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tejaperfect/expensiver1-sub002/internal/core"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ---- users ----

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID.String(), u.Name, u.Email, u.PasswordHash, u.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User saved", "user_id", u.ID, "email", u.Email)
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id uuid.UUID) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id.String()))
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ? WHERE id = ?`,
		u.Name, u.Email, u.ID.String())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrEmailExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var (
		u           core.User
		id, created string
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, ErrNotFound
		}
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.ID, _ = uuid.Parse(id)
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return u, nil
}

// ---- groups ----

func (r *SQLiteRepository) CreateGroup(ctx context.Context, g core.Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, currency, invite_code, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.Name, g.Currency, g.InviteCode, g.CreatedBy.String(), g.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	for _, m := range g.Members {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
			g.ID.String(), m.UserID.String(), m.JoinedAt.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("add founding member: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit group: %w", err)
	}
	slog.InfoContext(ctx, "Group saved", "group_id", g.ID, "name", g.Name)
	return nil
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, id uuid.UUID) (core.Group, error) {
	return r.getGroupWhere(ctx, "id = ?", id.String())
}

func (r *SQLiteRepository) GetGroupByInviteCode(ctx context.Context, code string) (core.Group, error) {
	return r.getGroupWhere(ctx, "invite_code = ?", code)
}

func (r *SQLiteRepository) getGroupWhere(ctx context.Context, where string, arg any) (core.Group, error) {
	var (
		g                      core.Group
		id, createdBy, created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, currency, invite_code, created_by, created_at FROM groups WHERE `+where, arg).
		Scan(&id, &g.Name, &g.Currency, &g.InviteCode, &createdBy, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Group{}, ErrNotFound
		}
		return core.Group{}, fmt.Errorf("get group: %w", err)
	}
	g.ID, _ = uuid.Parse(id)
	g.CreatedBy, _ = uuid.Parse(createdBy)
	g.CreatedAt, _ = time.Parse(timeLayout, created)

	members, err := r.listMembers(ctx, g.ID)
	if err != nil {
		return core.Group{}, err
	}
	g.Members = members
	return g, nil
}

func (r *SQLiteRepository) listMembers(ctx context.Context, groupID uuid.UUID) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT gm.user_id, u.name, gm.joined_at
		   FROM group_members gm JOIN users u ON u.id = gm.user_id
		  WHERE gm.group_id = ? ORDER BY gm.joined_at, gm.user_id`, groupID.String())
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		var (
			m          core.Member
			id, joined string
		)
		if err := rows.Scan(&id, &m.Name, &joined); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.UserID, _ = uuid.Parse(id)
		m.JoinedAt, _ = time.Parse(timeLayout, joined)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *SQLiteRepository) ListGroups(ctx context.Context, userID uuid.UUID) ([]core.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id FROM groups g JOIN group_members gm ON gm.group_id = g.id
		  WHERE gm.user_id = ? ORDER BY g.created_at`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		gid, _ := uuid.Parse(id)
		ids = append(ids, gid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	groups := make([]core.Group, 0, len(ids))
	for _, id := range ids {
		g, err := r.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (r *SQLiteRepository) AddMember(ctx context.Context, groupID uuid.UUID, m core.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
		groupID.String(), m.UserID.String(), m.JoinedAt.UTC().Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY") {
			return ErrAlreadyMember
		}
		return fmt.Errorf("add member: %w", err)
	}
	slog.InfoContext(ctx, "Member joined group", "group_id", groupID, "user_id", m.UserID)
	return nil
}

// ---- expenses ----

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var groupID any
	if e.GroupID != uuid.Nil {
		groupID = e.GroupID.String()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, owner_id, group_id, date, description, amount_cents, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.OwnerID.String(), groupID, e.Date.Format(dateLayout),
		e.Description, e.Amount.Cents, e.Category, e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	for _, s := range e.Shares {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_shares (expense_id, user_id, amount_cents) VALUES (?, ?, ?)`,
			e.ID.String(), s.UserID.String(), s.Amount.Cents)
		if err != nil {
			return fmt.Errorf("create expense share: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, group_id, date, description, amount_cents, category, created_at
		   FROM expenses WHERE id = ? AND deleted_at IS NULL`, id.String())
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, err
	}
	shares, err := r.listShares(ctx, e.ID)
	if err != nil {
		return core.Expense{}, err
	}
	e.Shares = shares
	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, description = ?, amount_cents = ?, category = ?
		  WHERE id = ? AND deleted_at IS NULL`,
		e.Date.Format(dateLayout), e.Description, e.Amount.Cents, e.Category, e.ID.String())
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(timeLayout), id.String())
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense soft deleted", "expense_id", id)
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error) {
	query := `SELECT id, owner_id, group_id, date, description, amount_cents, category, created_at
	            FROM expenses WHERE deleted_at IS NULL AND owner_id = ? AND group_id IS NULL`
	args := []any{f.OwnerID.String()}
	if f.Year != 0 {
		query += ` AND date >= ? AND date < ?`
		from := time.Date(f.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(1, 0, 0)
		if f.Month != 0 {
			from = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
			to = from.AddDate(0, 1, 0)
		}
		args = append(args, from.Format(dateLayout), to.Format(dateLayout))
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	return r.queryExpenses(ctx, query, args...)
}

func (r *SQLiteRepository) ListGroupExpenses(ctx context.Context, groupID uuid.UUID) ([]core.Expense, error) {
	expenses, err := r.queryExpenses(ctx,
		`SELECT id, owner_id, group_id, date, description, amount_cents, category, created_at
		   FROM expenses WHERE deleted_at IS NULL AND group_id = ?
		  ORDER BY date DESC, created_at DESC`, groupID.String())
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		shares, err := r.listShares(ctx, expenses[i].ID)
		if err != nil {
			return nil, err
		}
		expenses[i].Shares = shares
	}
	return expenses, nil
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) listShares(ctx context.Context, expenseID uuid.UUID) ([]core.Share, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, amount_cents FROM expense_shares WHERE expense_id = ? ORDER BY user_id`,
		expenseID.String())
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	var shares []core.Share
	for rows.Next() {
		var (
			s  core.Share
			id string
		)
		if err := rows.Scan(&id, &s.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		s.UserID, _ = uuid.Parse(id)
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                     core.Expense
		id, owner, date, crtd string
		groupID               sql.NullString
	)
	err := row.Scan(&id, &owner, &groupID, &date, &e.Description, &e.Amount.Cents, &e.Category, &crtd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.ID, _ = uuid.Parse(id)
	e.OwnerID, _ = uuid.Parse(owner)
	if groupID.Valid {
		e.GroupID, _ = uuid.Parse(groupID.String)
	}
	t, _ := time.Parse(dateLayout, date)
	e.Date = core.Date{Time: t}
	e.CreatedAt, _ = time.Parse(timeLayout, crtd)
	return e, nil
}

// ---- wallet ----

func (r *SQLiteRepository) WalletBalance(ctx context.Context, userID uuid.UUID) (core.Money, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(CASE WHEN kind = 'credit' THEN amount_cents ELSE -amount_cents END)
		   FROM wallet_transactions WHERE user_id = ?`, userID.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("wallet balance: %w", err)
	}
	return core.Money{Cents: cents.Int64}, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID uuid.UUID) ([]core.WalletTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, amount_cents, description, created_at
		   FROM wallet_transactions WHERE user_id = ? ORDER BY created_at DESC`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.WalletTransaction
	for rows.Next() {
		var (
			t             core.WalletTransaction
			id, uid, crtd string
			kind          string
		)
		if err := rows.Scan(&id, &uid, &kind, &t.Amount.Cents, &t.Description, &crtd); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.ID, _ = uuid.Parse(id)
		t.UserID, _ = uuid.Parse(uid)
		t.Kind = core.TxnKind(kind)
		t.CreatedAt, _ = time.Parse(timeLayout, crtd)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.WalletTransaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallet_transactions (id, user_id, kind, amount_cents, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.UserID.String(), string(t.Kind), t.Amount.Cents,
		t.Description, t.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("add transaction: %w", err)
	}
	slog.InfoContext(ctx, "Wallet transaction saved",
		"user_id", t.UserID, "kind", t.Kind, "amount_cents", t.Amount.Cents)
	return nil
}

// ---- export jobs ----

func (r *SQLiteRepository) CreateExportJob(ctx context.Context, j core.ExportJob) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO export_jobs (id, owner_id, status, year, month, file_name, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID.String(), j.OwnerID.String(), string(j.Status), j.Year, j.Month,
		j.FileName, j.Error, j.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetExportJob(ctx context.Context, id uuid.UUID) (core.ExportJob, error) {
	var (
		j                core.ExportJob
		jid, owner, crtd string
		status           string
		completed        sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, status, year, month, file_name, error, created_at, completed_at
		   FROM export_jobs WHERE id = ?`, id.String()).
		Scan(&jid, &owner, &status, &j.Year, &j.Month, &j.FileName, &j.Error, &crtd, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ExportJob{}, ErrNotFound
		}
		return core.ExportJob{}, fmt.Errorf("get export job: %w", err)
	}
	j.ID, _ = uuid.Parse(jid)
	j.OwnerID, _ = uuid.Parse(owner)
	j.Status = core.ExportStatus(status)
	j.CreatedAt, _ = time.Parse(timeLayout, crtd)
	if completed.Valid {
		j.CompletedAt, _ = time.Parse(timeLayout, completed.String)
	}
	return j, nil
}

func (r *SQLiteRepository) UpdateExportJob(ctx context.Context, j core.ExportJob) error {
	var completed any
	if !j.CompletedAt.IsZero() {
		completed = j.CompletedAt.UTC().Format(timeLayout)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE export_jobs SET status = ?, file_name = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(j.Status), j.FileName, j.Error, completed, j.ID.String())
	if err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
