package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"member-ledger/internal/auth"
	"member-ledger/internal/models"
	"member-ledger/internal/session"
)

// Context key type to avoid collisions.
type contextKey string

// UserContextKey is the context key for the authenticated session user.
const UserContextKey contextKey = "user"

// Store is the persistence capability the handlers depend on. Both the
// SQLite and the PostgreSQL backends of storage.DB satisfy it.
type Store interface {
	GetActiveUserByUsername(ctx context.Context, username string) (*models.User, error)

	ListMembers(ctx context.Context) ([]models.Member, error)
	CreateMember(ctx context.Context, m *models.Member) (int64, error)
	UpdateMember(ctx context.Context, m *models.Member) (int64, error)
	DeleteMember(ctx context.Context, id int64) (int64, error)

	ListContributions(ctx context.Context) ([]models.Contribution, error)
	CreateContribution(ctx context.Context, c *models.Contribution) (int64, error)
	DeleteContribution(ctx context.Context, id int64) (int64, error)

	Summary(ctx context.Context, now time.Time) (*models.Summary, error)
	Ping(ctx context.Context) error
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store    Store
	sessions *session.Manager
	logger   *slog.Logger
	now      func() time.Time

	checkPassword func(password, hash string) bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store Store, sessions *session.Manager, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:         store,
		sessions:      sessions,
		logger:        logger,
		now:           time.Now,
		checkPassword: auth.CheckPassword,
	}
}

// SetClock replaces the time source used for the dashboard's current month.
func (h *Handlers) SetClock(now func() time.Time) {
	h.now = now
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.SessionUser {
	if user, ok := r.Context().Value(UserContextKey).(*models.SessionUser); ok {
		return user
	}
	return nil
}

// auditDelete records who removed a row.
func (h *Handlers) auditDelete(r *http.Request, kind string, id int64) {
	var username string
	if user := GetUserFromContext(r); user != nil {
		username = user.Username
	}
	h.logger.Info("row deleted", "kind", kind, "id", id, "username", username)
}

// Health reports whether the store is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
