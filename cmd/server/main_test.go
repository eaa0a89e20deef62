package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"member-ledger/internal/auth"
	"member-ledger/internal/config"
	"member-ledger/internal/handlers"
	"member-ledger/internal/session"
	"member-ledger/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRouter(t *testing.T) {
	// Setup dependencies
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create database")
	defer db.Close()

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>membros</html>"), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := session.NewManager(db.Sessions(), session.Options{Secret: []byte("test-secret-test-secret-test-sec")})
	h := handlers.NewHandlers(db, manager, logger)

	// Create router - this triggers the panic if routing conflict exists
	mux := setupRouter(h, logger, staticDir, []string{"*"})

	// Verify routes
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "Root serves the front-end",
			method:     "GET",
			path:       "/",
			wantStatus: http.StatusOK,
			wantBody:   "<html>membros</html>",
		},
		{
			name:       "Client-side route falls back to index",
			method:     "GET",
			path:       "/contribuicoes/nova",
			wantStatus: http.StatusOK,
			wantBody:   "<html>membros</html>",
		},
		{
			name:       "Members require auth",
			method:     "GET",
			path:       "/api/membros",
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Não autenticado",
		},
		{
			name:       "Summary requires auth",
			method:     "GET",
			path:       "/api/resumo",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Me is public",
			method:     "GET",
			path:       "/api/me",
			wantStatus: http.StatusOK,
			wantBody:   `"user":null`,
		},
		{
			name:       "Unknown API route",
			method:     "GET",
			path:       "/api/nada",
			wantStatus: http.StatusNotFound,
			wantBody:   "Rota não encontrada",
		},
		{
			name:       "Health check",
			method:     "GET",
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Metrics endpoint",
			method:     "GET",
			path:       "/metrics",
			wantStatus: http.StatusOK,
			wantBody:   "membros_api_requests_total",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code,
				"%s %s returned unexpected status", tt.method, tt.path)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRouterSetsRequestID(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := handlers.NewHandlers(db, session.NewManager(session.NewMemoryStore(), session.Options{Secret: []byte("k")}), logger)
	mux := setupRouter(h, logger, t.TempDir(), nil)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/me", http.NoBody))

	assert.Contains(t, buf.String(), `"msg":"request"`)
	assert.Contains(t, buf.String(), `"path":"/api/me"`)
	assert.Contains(t, buf.String(), `"request_id":"`)
}

func TestBootstrapAdmin(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("creates configured admin on empty database", func(t *testing.T) {
		db, err := storage.NewDB(":memory:")
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, bootstrapAdmin(ctx, db, config.AdminConfig{User: "admin", Password: "troque-me"}, logger))

		user, err := db.GetActiveUserByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, "admin", user.Perfil)
		assert.True(t, auth.CheckPassword("troque-me", user.PasswordHash))
	})

	t.Run("leaves existing users alone", func(t *testing.T) {
		db, err := storage.NewDB(":memory:")
		require.NoError(t, err)
		defer db.Close()

		hash, err := auth.HashPassword("antiga")
		require.NoError(t, err)
		_, err = db.CreateUser(ctx, "tesoureiro", hash, "admin")
		require.NoError(t, err)

		require.NoError(t, bootstrapAdmin(ctx, db, config.AdminConfig{User: "admin", Password: "nova"}, logger))

		_, err = db.GetUserByUsername(ctx, "admin")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("warns when nothing is configured", func(t *testing.T) {
		db, err := storage.NewDB(":memory:")
		require.NoError(t, err)
		defer db.Close()

		var buf bytes.Buffer
		require.NoError(t, bootstrapAdmin(ctx, db, config.AdminConfig{}, slog.New(slog.NewTextHandler(&buf, nil))))

		assert.Contains(t, buf.String(), "adduser")
		n, err := db.UserCount(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestNewSessionStore(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	cfg := config.Default()

	store, cleanup, err := newSessionStore(context.Background(), cfg, db)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &storage.SessionTable{}, store)

	cfg.Session.Store = "memory"
	store, cleanup, err = newSessionStore(context.Background(), cfg, db)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &session.MemoryStore{}, store)
}

func TestSessionSecret(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	assert.Equal(t, []byte("configurado"), sessionSecret("configurado", logger))
	assert.Empty(t, buf.String())

	random := sessionSecret("", logger)
	assert.Len(t, random, 32)
	assert.True(t, strings.Contains(buf.String(), "SESSION_SECRET"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(&buf, "verbose")
	assert.Error(t, err)
}

func TestOpenStoreCreatesDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "nested", "membros.db")

	db, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(cfg.Database.Path))
	assert.NoError(t, err)
}
