package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	api "github.com/mind-engage/courseflow/internal/api/http"
	auth "github.com/mind-engage/courseflow/internal/auth/middleware"
	"github.com/mind-engage/courseflow/internal/config"
	"github.com/mind-engage/courseflow/internal/course"
	"github.com/mind-engage/courseflow/internal/db"
	"github.com/mind-engage/courseflow/internal/learning"
	"github.com/mind-engage/courseflow/internal/logger"
	"github.com/mind-engage/courseflow/internal/postgrest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("learnd stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	remote, closeStore, err := openRemote(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.SeedFile != "" {
		if err := seedCatalog(ctx, remote, cfg.SeedFile, log); err != nil {
			return err
		}
	}

	svc := learning.NewService(remote, log, learning.WithRemoteTimeout(cfg.RemoteTimeout))
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.RouterConfig{
			Service:     svc,
			Auth:        auth.NewAuthService(cfg.Auth.HMACSecret),
			Log:         log,
			CORSOrigins: cfg.CORS.Origins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env), zap.String("driver", cfg.DB.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openRemote picks the completion and catalog backend for cfg.DB.Driver.
func openRemote(ctx context.Context, cfg *config.Config) (course.Remote, func(), error) {
	switch cfg.DB.Driver {
	case config.DriverMemory:
		return course.NewMemoryStore(), func() {}, nil
	case config.DriverPostgREST:
		return postgrest.New(cfg.PostgREST.URL, cfg.PostgREST.APIKey, postgrest.WithRetries(2, 200*time.Millisecond)), func() {}, nil
	default:
		h, err := db.Open(ctx, db.Driver(cfg.DB.Driver), cfg.DB.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		return course.NewSQLStore(h), func() { _ = h.Close() }, nil
	}
}

func seedCatalog(ctx context.Context, remote course.Remote, path string, log *zap.Logger) error {
	cat, ok := remote.(course.Catalog)
	if !ok {
		return fmt.Errorf("seed: driver does not accept catalog writes")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer f.Close()

	b, err := db.Seed(ctx, cat, f)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	log.Info("catalog seeded", zap.String("file", path), zap.Int("courses", len(b.Courses)))
	return nil
}
