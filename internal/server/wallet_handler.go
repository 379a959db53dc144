package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	"github.com/tejaperfect/expensiver1-sub002/internal/core"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
)

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	balance, err := s.store.WalletBalance(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, api.WalletResponse{BalanceCents: balance.Cents})
}

func (s *Server) handleWalletTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	txns, err := s.store.ListTransactions(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	resp := api.TransactionListResponse{Transactions: make([]api.TransactionPayload, 0, len(txns))}
	for _, t := range txns {
		resp.Transactions = append(resp.Transactions, toTransactionPayload(t))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWalletTopUp(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req api.TopUpRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn := core.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        core.TxnCredit,
		Amount:      core.Money{Cents: cents},
		Description: sanitizeInput(req.Description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := txn.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.AddTransaction(r.Context(), txn); err != nil {
		respondStoreError(w, err)
		return
	}

	s.log.InfoContext(r.Context(), "Wallet topped up",
		applog.FieldUserID, userID,
		applog.FieldAmount, txn.Amount.Cents)
	respondJSON(w, http.StatusCreated, toTransactionPayload(txn))
}
