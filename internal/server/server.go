// Package server exposes the Expensiver REST API.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/amqp"
	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	"github.com/tejaperfect/expensiver1-sub002/internal/auth"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
	"github.com/tejaperfect/expensiver1-sub002/internal/storage"
)

// ExportPublisher enqueues export jobs for the worker. A nil publisher
// means exports are disabled and the endpoint answers 503.
type ExportPublisher interface {
	PublishExportJob(ctx context.Context, msg *amqp.ExportJobMessage) error
}

type Server struct {
	http.Server

	store     storage.Store
	jwt       *auth.JWTService
	publisher ExportPublisher
	exportDir string

	log      *applog.Logger
	validate *validator.Validate

	rateLimiter  *rateLimiter
	summaryCache *lruCache[api.SummaryResponse]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store storage.Store, jwtSvc *auth.JWTService, publisher ExportPublisher, exportDir string, logger *applog.Logger) *Server {
	s := &Server{
		store:            store,
		jwt:              jwtSvc,
		publisher:        publisher,
		exportDir:        exportDir,
		log:              logger.WithComponent(applog.ComponentHTTP),
		validate:         validator.New(validator.WithRequiredStructEnabled()),
		rateLimiter:      newRateLimiter(60),
		summaryCache:     newLRUCache[api.SummaryResponse](200, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	r := chi.NewRouter()
	r.Use(s.withObservability)
	r.Use(s.withRateLimit)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			r.Get("/users/me", s.handleMe)
			r.Patch("/users/me", s.handleUpdateMe)

			r.Post("/expenses", s.handleCreateExpense)
			r.Get("/expenses", s.handleListExpenses)
			r.Get("/expenses/summary", s.handleExpenseSummary)
			r.Get("/expenses/{id}", s.handleGetExpense)
			r.Put("/expenses/{id}", s.handleUpdateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)

			r.Post("/groups", s.handleCreateGroup)
			r.Get("/groups", s.handleListGroups)
			r.Post("/groups/join", s.handleJoinGroup)
			r.Get("/groups/{id}", s.handleGetGroup)
			r.Post("/groups/{id}/expenses", s.handleCreateGroupExpense)
			r.Get("/groups/{id}/expenses", s.handleListGroupExpenses)
			r.Get("/groups/{id}/balances", s.handleGroupBalances)
			r.Get("/groups/{id}/settlements", s.handleGroupSettlements)

			r.Get("/wallet", s.handleWallet)
			r.Get("/wallet/transactions", s.handleWalletTransactions)
			r.Post("/wallet/topup", s.handleWalletTopUp)

			r.Post("/exports", s.handleCreateExport)
			r.Get("/exports/{id}", s.handleGetExport)
			r.Get("/exports/{id}/download", s.handleDownloadExport)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// startCacheCleanup runs periodic cleanup for the summary cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.CleanExpired(); cleaned > 0 {
				s.log.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the HTTP server and background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness means the store answers; a cheap lookup against a key that
	// cannot exist exercises the connection.
	if _, err := s.store.GetUser(r.Context(), uuid.Nil); err != nil && !errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
