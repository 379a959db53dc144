package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	"github.com/tejaperfect/expensiver1-sub002/internal/core"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
	"github.com/tejaperfect/expensiver1-sub002/internal/storage"
)

func summaryCacheKey(ownerID uuid.UUID, year, month int) string {
	return fmt.Sprintf("%s|%d|%d", ownerID, year, month)
}

// invalidateSummaries drops the cached summaries a mutation on date touches:
// the month itself and the whole-year aggregate.
func (s *Server) invalidateSummaries(ownerID uuid.UUID, date core.Date) {
	s.summaryCache.Delete(summaryCacheKey(ownerID, date.Year(), date.Month()))
	s.summaryCache.Delete(summaryCacheKey(ownerID, date.Year(), 0))
}

// expenseFromRequest builds a validated personal expense for the owner.
func expenseFromRequest(ownerID uuid.UUID, req api.CreateExpenseRequest) (core.Expense, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Expense{}, core.ErrInvalidDate
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(req.Category),
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req api.CreateExpenseRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := expenseFromRequest(userID, req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateExpense(r.Context(), expense); err != nil {
		respondStoreError(w, err)
		return
	}

	// Personal spending comes out of the wallet.
	txn := core.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        core.TxnDebit,
		Amount:      expense.Amount,
		Description: expense.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AddTransaction(r.Context(), txn); err != nil {
		s.log.WarnContext(r.Context(), "Wallet debit not recorded",
			applog.FieldExpenseID, expense.ID,
			applog.FieldError, err)
	}

	s.invalidateSummaries(userID, expense.Date)

	s.log.InfoContext(r.Context(), "Expense created",
		applog.FieldUserID, userID,
		applog.FieldExpenseID, expense.ID,
		applog.FieldAmount, expense.Amount.Cents,
		applog.FieldCategory, expense.Category)
	respondJSON(w, http.StatusCreated, toExpensePayload(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	filter := storage.ExpenseFilter{OwnerID: userID}
	filter.Year, filter.Month = parseYearMonth(r)
	filter.Category = strings.TrimSpace(r.URL.Query().Get("category"))

	expenses, err := s.store.ListExpenses(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseList(expenses))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, ok := s.ownedExpense(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toExpensePayload(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	expense, ok := s.ownedExpense(w, r)
	if !ok {
		return
	}
	if expense.GroupID != uuid.Nil {
		respondError(w, http.StatusConflict, "group expenses cannot be edited")
		return
	}

	var req api.CreateExpenseRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	oldDate := expense.Date

	updated, err := expenseFromRequest(userID, req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated.ID = expense.ID
	updated.CreatedAt = expense.CreatedAt

	if err := s.store.UpdateExpense(r.Context(), updated); err != nil {
		respondStoreError(w, err)
		return
	}

	s.invalidateSummaries(userID, oldDate)
	s.invalidateSummaries(userID, updated.Date)

	s.log.InfoContext(r.Context(), "Expense updated",
		applog.FieldUserID, userID,
		applog.FieldExpenseID, updated.ID)
	respondJSON(w, http.StatusOK, toExpensePayload(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	expense, ok := s.ownedExpense(w, r)
	if !ok {
		return
	}
	if expense.GroupID != uuid.Nil {
		respondError(w, http.StatusConflict, "group expenses cannot be deleted")
		return
	}

	if err := s.store.DeleteExpense(r.Context(), expense.ID); err != nil {
		respondStoreError(w, err)
		return
	}

	s.invalidateSummaries(userID, expense.Date)

	s.log.InfoContext(r.Context(), "Expense deleted",
		applog.FieldUserID, userID,
		applog.FieldExpenseID, expense.ID,
		applog.FieldOperation, applog.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	year, month := parseYearMonth(r)
	// Nothing supplied means the current month; a year alone covers the
	// whole year.
	if year == 0 && month == 0 {
		now := time.Now()
		year, month = now.Year(), int(now.Month())
	}
	if year == 0 {
		year = time.Now().Year()
	}
	if year < 1970 || year > 9999 {
		respondError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	key := summaryCacheKey(userID, year, month)
	if cached, hit := s.summaryCache.Get(key); hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	expenses, err := s.store.ListExpenses(r.Context(), storage.ExpenseFilter{
		OwnerID: userID,
		Year:    year,
		Month:   month,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	resp := toSummaryResponse(core.Summarize(year, month, expenses))
	s.summaryCache.Set(key, resp)
	respondJSON(w, http.StatusOK, resp)
}

// ownedExpense loads the {id} expense and enforces ownership. A foreign
// expense answers 404 rather than 403 to avoid leaking IDs.
func (s *Server) ownedExpense(w http.ResponseWriter, r *http.Request) (core.Expense, bool) {
	userID, _ := UserIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid expense id")
		return core.Expense{}, false
	}

	expense, err := s.store.GetExpense(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return core.Expense{}, false
	}
	if expense.OwnerID != userID {
		respondError(w, http.StatusNotFound, "not found")
		return core.Expense{}, false
	}
	return expense, true
}
