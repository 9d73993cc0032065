// Package webhook receives and verifies transaction webhooks from the
// bank-aggregation provider
package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/baely/banksync/internal/common/errors"
	commonHttp "github.com/baely/banksync/internal/common/http"
	"github.com/baely/banksync/internal/queue"
	"github.com/baely/banksync/pkg/model"
)

// SignatureHeader carries the provider's hex-encoded HMAC of the body.
const SignatureHeader = "X-Provider-Signature"

// PendingCounter reports events dequeued but not yet fully processed.
type PendingCounter interface {
	InFlight() int
}

// Service is the webhook HTTP entry point. It verifies and enqueues; all
// processing is asynchronous so the provider's response deadline is never
// at risk.
type Service struct {
	secret  string
	queue   *queue.Queue
	pending PendingCounter
	router  chi.Router
	logger  *slog.Logger
}

// Config contains configuration for the webhook Service
type Config struct {
	// Secret is the shared webhook secret. When empty the endpoint fails
	// closed with a server error.
	Secret  string
	Queue   *queue.Queue
	Pending PendingCounter
	Logger  *slog.Logger
}

// New creates a webhook service
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		secret:  cfg.Secret,
		queue:   cfg.Queue,
		pending: cfg.Pending,
		logger:  logger,
	}

	// Setup router with standard middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Register routes
	r.Post("/webhook", s.handleWebhook)
	r.Get("/webhook", s.handleHealth)

	s.router = r

	return s
}

// Chi returns the router for this service
func (s *Service) Chi() chi.Router {
	return s.router
}

// handleWebhook verifies and enqueues one webhook delivery
func (s *Service) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.secret == "" {
		s.logger.Error("Webhook secret not configured, rejecting delivery")
		commonHttp.Error(w, errors.Wrap(errors.ErrInternal, "webhook secret not configured"), http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("Failed to read request body", "error", err)
		commonHttp.Error(w, errors.Wrap(err, "failed to read request body"), http.StatusInternalServerError)
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if !VerifySignature(body, signature, s.secret) {
		s.logger.Warn("Invalid webhook signature", "signature", signature)
		commonHttp.Error(w, errors.ErrUnauthorized, http.StatusUnauthorized)
		return
	}

	var payload model.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Warn("Failed to parse webhook body", "error", err)
		commonHttp.Error(w, errors.Wrap(errors.ErrInvalidInput, "invalid webhook body"), http.StatusBadRequest)
		return
	}

	ev := &queue.Event{
		ID:         uuid.NewString(),
		AccountID:  payload.ItemID,
		Payload:    body,
		EnqueuedAt: time.Now(),
	}
	if !s.queue.TryEnqueue(ev) {
		s.logger.Error("Event queue full, dropping delivery",
			"account", payload.ItemID, "type", payload.WebhookType, "code", payload.WebhookCode)
		commonHttp.Error(w, errors.ErrUnavailable, http.StatusServiceUnavailable)
		return
	}

	s.logger.Info("Accepted webhook",
		"event", ev.ID, "account", payload.ItemID,
		"type", payload.WebhookType, "code", payload.WebhookCode)

	// Acknowledge immediately; processing happens off the request path.
	commonHttp.JSON(w, http.StatusOK, map[string]bool{"received": true})
}

// handleHealth reports queue depth for operational visibility
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	depth := s.queue.Depth()
	pending := depth
	if s.pending != nil {
		pending += s.pending.InFlight()
	}

	commonHttp.JSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"queueSize":     depth,
		"pendingEvents": pending,
	})
}
