// Command server runs the verification backend: the kiosk-facing QR
// verification API and the admin surface for organizations, users, reports
// and audit logs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	adminservice "visleg/internal/admin/service"
	"visleg/internal/admin/store/organization"
	"visleg/internal/admin/store/session"
	"visleg/internal/admin/store/user"
	"visleg/internal/audit"
	"visleg/internal/platform/config"
	"visleg/internal/platform/httpserver"
	"visleg/internal/platform/logger"
	"visleg/internal/platform/metrics"
	"visleg/internal/platform/postgres"
	"visleg/internal/platform/redis"
	"visleg/internal/report"
	"visleg/internal/stoe"
	httptransport "visleg/internal/transport/http"
	"visleg/internal/verification"
	"visleg/migrations"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	m := metrics.New()

	// Stores: Postgres when DATABASE_URL is set, otherwise in-memory.
	var (
		orgStore   organization.Store
		userStore  user.Store
		scanStore  verification.Store
		repStore   report.Store
		auditStore audit.Store
		tokenStore stoe.TokenStore
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL, cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		if err := migrations.Apply(context.Background(), db); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		orgStore = organization.NewPostgres(db)
		userStore = user.NewPostgres(db)
		scanStore = verification.NewPostgres(db)
		repStore = report.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		tokenStore = stoe.NewPostgresTokenStore(db)
		log.Info("using postgres stores")
	} else {
		users := user.NewInMemory()
		orgStore = organization.NewInMemory()
		userStore = users
		scanStore = verification.NewInMemory()
		repStore = report.NewInMemory()
		auditStore = audit.NewInMemory(func(ctx context.Context, entry *audit.Entry) string {
			if entry.UserID == nil {
				return ""
			}
			u, err := users.FindByID(ctx, *entry.UserID)
			if err != nil {
				return ""
			}
			return u.Username
		})
		tokenStore = stoe.NewInMemoryTokenStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	sessionStore, closeRedis, err := newSessionStore(cfg, log)
	if err != nil {
		return err
	}
	if closeRedis != nil {
		defer closeRedis()
	}

	// Services.
	recorder := audit.NewRecorder(auditStore, log, m)
	tokens := stoe.NewTokenCache(tokenStore, cfg.Provider, log, m)
	verifier := stoe.NewClient(cfg.Provider, tokens, log)
	verifySvc := verification.NewService(scanStore, verifier, log, m, cfg.AllowFallbackOnProviderError)
	authSvc := adminservice.NewAuthService(userStore, sessionStore, cfg.Session.TTL, log, m)
	adminSvc := adminservice.NewAdminService(orgStore, userStore, recorder, log)
	reportSvc := report.NewService(repStore, scanStore, orgStore, log)

	router := httptransport.NewRouter(httptransport.Handlers{
		Verify:  httptransport.NewVerifyHandler(verifySvc, authSvc),
		Auth:    httptransport.NewAuthHandler(authSvc),
		Admin:   httptransport.NewAdminHandler(adminSvc),
		Reports: httptransport.NewReportHandler(reportSvc),
		Audit:   httptransport.NewAuditHandler(recorder),
	}, authSvc, log, m)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	startWorker(ctx, &wg, log, "token-purge", cfg.TokenPurgeInterval, func(ctx context.Context) {
		if n, err := tokens.PurgeExpired(ctx); err != nil {
			log.Warn("token purge failed", "error", err)
		} else if n > 0 {
			log.Debug("purged expired provider tokens", "count", n)
		}
	})
	startWorker(ctx, &wg, log, "session-sweep", cfg.Session.SweepInterval, func(ctx context.Context) {
		if n, err := authSvc.SweepExpired(ctx); err != nil {
			log.Warn("session sweep failed", "error", err)
		} else if n > 0 {
			log.Info("swept expired admin sessions", "count", n)
		}
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stop()
		wg.Wait()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	wg.Wait()
	return nil
}

func newSessionStore(cfg config.Config, log *slog.Logger) (session.Store, func() error, error) {
	switch cfg.Session.Store {
	case "redis":
		client, err := redis.New(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		if client == nil {
			return nil, nil, fmt.Errorf("session store is redis but REDIS_URL is not set")
		}
		log.Info("using redis session store")
		return session.NewRedis(client.Client), client.Close, nil
	case "memory":
		return session.NewInMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// startWorker runs fn on a ticker until ctx is cancelled. A panicking tick is
// logged and the worker keeps running.
func startWorker(ctx context.Context, wg *sync.WaitGroup, log *slog.Logger, name string, interval time.Duration, fn func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runTick(ctx, log, name, fn)
			}
		}
	}()
}

func runTick(ctx context.Context, log *slog.Logger, name string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("background worker panicked", "worker", name, "panic", r)
		}
	}()
	fn(ctx)
}
