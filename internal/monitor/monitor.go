// Package monitor exposes per-account sync status and operator controls
package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/baely/banksync/internal/common/errors"
	commonHttp "github.com/baely/banksync/internal/common/http"
	"github.com/baely/banksync/internal/txsync"
)

// Service serves the sync-status read model and the manual sync and
// account-link admin surface.
type Service struct {
	coordinator *txsync.Coordinator
	scheduler   *txsync.Scheduler
	router      chi.Router
	logger      *slog.Logger
	adminCode   string
}

// Config contains configuration for the monitor Service
type Config struct {
	Coordinator *txsync.Coordinator
	Scheduler   *txsync.Scheduler
	Logger      *slog.Logger
	// AdminCode guards the mutating endpoints. Empty disables them.
	AdminCode string
}

// New creates a monitor service
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		coordinator: cfg.Coordinator,
		scheduler:   cfg.Scheduler,
		logger:      logger,
		adminCode:   cfg.AdminCode,
	}

	// Setup router with standard middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Register routes
	r.Get("/status", s.handleStatus)
	r.Get("/status/{accountID}", s.handleAccountStatus)
	r.Post("/sync", s.handleSyncNow)
	r.Post("/accounts", s.handleRegisterAccount)
	r.Delete("/accounts/{accountID}", s.handleUnlinkAccount)

	s.router = r

	return s
}

// Chi returns the router for this service
func (s *Service) Chi() chi.Router {
	return s.router
}

// handleStatus returns every account's sync status plus the aggregate view
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	registry := s.coordinator.Registry()
	commonHttp.Success(w, map[string]interface{}{
		"accounts": registry.All(),
		"summary":  registry.Summary(),
	})
}

// handleAccountStatus returns one account's sync status
func (s *Service) handleAccountStatus(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	status, ok := s.coordinator.Registry().Get(accountID)
	if !ok {
		commonHttp.HandleError(w, errors.Wrap(errors.ErrNotFound, "account %s", accountID))
		return
	}
	commonHttp.Success(w, status)
}

// authorized checks the admin code header on mutating requests
func (s *Service) authorized(r *http.Request) bool {
	if s.adminCode == "" {
		return false
	}
	return r.Header.Get("X-Admin-Code") == s.adminCode
}

// handleSyncNow triggers an immediate sync of every linked account
func (s *Service) handleSyncNow(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		commonHttp.Error(w, errors.ErrUnauthorized, http.StatusUnauthorized)
		return
	}

	s.logger.Info("Manual sync triggered")
	s.scheduler.RunSyncNow(context.Background())

	commonHttp.Success(w, map[string]interface{}{
		"synced":  true,
		"summary": s.coordinator.Registry().Summary(),
	})
}

type registerAccountRequest struct {
	AccountID   string `json:"account_id"`
	AccessToken string `json:"access_token"`
	// Relink resets the sync cursor, forcing a full resync.
	Relink bool `json:"relink,omitempty"`
}

// handleRegisterAccount links a newly connected account for syncing
func (s *Service) handleRegisterAccount(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		commonHttp.Error(w, errors.ErrUnauthorized, http.StatusUnauthorized)
		return
	}

	var req registerAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		commonHttp.HandleError(w, errors.Wrap(errors.ErrInvalidInput, "invalid request body"))
		return
	}
	if req.AccountID == "" || req.AccessToken == "" {
		commonHttp.HandleError(w, errors.Wrap(errors.ErrInvalidInput, "account_id and access_token are required"))
		return
	}

	if req.Relink {
		s.coordinator.RelinkAccount(req.AccountID, req.AccessToken)
	} else {
		s.coordinator.RegisterAccount(req.AccountID, req.AccessToken)
	}

	commonHttp.Success(w, map[string]string{"account_id": req.AccountID})
}

// handleUnlinkAccount removes an account from syncing
func (s *Service) handleUnlinkAccount(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		commonHttp.Error(w, errors.ErrUnauthorized, http.StatusUnauthorized)
		return
	}

	accountID := chi.URLParam(r, "accountID")
	s.coordinator.UnlinkAccount(accountID)

	commonHttp.Success(w, map[string]string{"account_id": accountID})
}
