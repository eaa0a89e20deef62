package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"member-ledger/internal/auth"
	"member-ledger/internal/config"
	"member-ledger/internal/handlers"
	"member-ledger/internal/metrics"
	"member-ledger/internal/session"
	"member-ledger/internal/storage"
)

const configPath = "config/app.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = configPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, cfg.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx := context.Background()
	db, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database ready", "driver", db.Driver())

	if err := bootstrapAdmin(ctx, db, cfg.Admin, logger); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	store, closeStore, err := newSessionStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeStore()

	janitor, err := session.StartJanitor(store, cfg.Session.PurgeSchedule, logger)
	if err != nil {
		return err
	}
	defer janitor.Stop()

	manager := session.NewManager(store, session.Options{
		Secret: sessionSecret(cfg.Session.Secret, logger),
		Secure: cfg.Session.SecureCookie,
	})
	h := handlers.NewHandlers(db, manager, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h, logger, cfg.StaticDir, cfg.Origins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "static_dir", cfg.StaticDir, "session_store", cfg.Session.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func openStore(ctx context.Context, cfg *config.Config) (*storage.DB, error) {
	if cfg.Database.Driver == string(storage.DriverSQLite) && cfg.Database.Path != ":memory:" {
		if err := ensureDir(cfg.Database.Path); err != nil {
			return nil, err
		}
	}
	return storage.Open(ctx, storage.Options{
		Driver:          storage.Driver(cfg.Database.Driver),
		Path:            cfg.Database.Path,
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

// newSessionStore returns the configured session store and its cleanup.
func newSessionStore(ctx context.Context, cfg *config.Config, db *storage.DB) (session.Store, func(), error) {
	switch cfg.Session.Store {
	case "redis":
		rs, err := session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { rs.Close() }, nil
	case "memory":
		return session.NewMemoryStore(), func() {}, nil
	default:
		return db.Sessions(), func() {}, nil
	}
}

// sessionSecret returns the configured cookie signing key. Without one, a
// random key is used and sessions do not survive a restart.
func sessionSecret(secret string, logger *slog.Logger) []byte {
	if secret != "" {
		return []byte(secret)
	}
	logger.Warn("SESSION_SECRET not set, using a random key; sessions will not survive a restart")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return key
}

// bootstrapAdmin creates the configured admin when no user exists yet.
func bootstrapAdmin(ctx context.Context, db *storage.DB, admin config.AdminConfig, logger *slog.Logger) error {
	if admin.User == "" {
		n, err := db.UserCount(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			logger.Warn("no users exist; create one with the adduser command or set ADMIN_USER and ADMIN_PASSWORD")
		}
		return nil
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	created, err := db.EnsureAdmin(ctx, admin.User, hash)
	if err != nil {
		return err
	}
	if created {
		logger.Info("created initial admin user", "username", admin.User)
	}
	return nil
}

// setupRouter configures all routes.
func setupRouter(h *handlers.Handlers, logger *slog.Logger, staticDir string, origins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handlers.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(handlers.CORS(origins))

	r.NotFound(h.Static(staticDir))
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/api", h.RegisterAPI)

	return r
}
