package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/cashflowguard/reminders/internal/api"
	"github.com/cashflowguard/reminders/internal/cache"
	"github.com/cashflowguard/reminders/internal/client"
	"github.com/cashflowguard/reminders/internal/config"
	"github.com/cashflowguard/reminders/internal/dispatch"
	"github.com/cashflowguard/reminders/internal/reminder"
	"github.com/cashflowguard/reminders/internal/repo"
	"github.com/cashflowguard/reminders/internal/rules"
	"github.com/cashflowguard/reminders/internal/scheduler"
	"github.com/cashflowguard/reminders/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		fatal("invalid configuration", err)
	}

	tbl, err := rules.Load(cfg.Rules.File)
	if err != nil {
		fatal("failed to load reminder rules", err)
	}

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		fatal("failed to open database", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		fatal("failed to reach database", err)
	}

	store := repo.NewPostgresRepo(db)
	if cfg.Database.Migrate {
		if err := store.EnsureSchema(ctx); err != nil {
			fatal("failed to apply schema", err)
		}
	}

	guard, closeGuard := newSendGuard(cfg.Redis)
	defer closeGuard()

	// No relay configured means email goes out as a compose link.
	var sender dispatch.EmailSender
	if cfg.Email.RelayURL != "" {
		sender = client.NewRelayClient(cfg.Email.RelayURL, cfg.Email.Timeout)
	}
	coord := dispatch.NewCoordinator(sender, cfg.Email.Timeout)

	engine := reminder.NewEngine(tbl, reminder.DefaultComposer())
	svc := service.NewReminders(engine, service.Stores{Invoices: store, History: store, Payments: store}, coord, guard)

	sched, err := scheduler.New("reminder-alerts", cfg.Alerts.Interval, svc.AlertTick(time.Now))
	if err != nil {
		fatal("failed to create scheduler", err)
	}
	if cfg.Alerts.Enabled {
		sched.Start()
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      loggingMiddleware(api.Router(api.NewHandler(svc, sched), cfg.Server.AllowedOrigins)),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Email.Timeout + 10*time.Second,
	}

	slog.Info("reminders app starting",
		"addr", cfg.Server.Address,
		"alerts", cfg.Alerts.Enabled,
		"alert_interval", cfg.Alerts.Interval.String(),
		"email_relay", cfg.Email.RelayURL != "",
		"redis", cfg.Redis.Enabled,
		"cooldown_policy", tbl.Cooldown.Policy,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown requested")
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}

func newSendGuard(cfg config.RedisConfig) (cache.SendGuard, func()) {
	if !cfg.Enabled {
		return cache.NewMemoryGuard(cfg.GuardTTL), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return cache.NewRedisGuard(rdb, cfg.GuardTTL), func() {
		if err := rdb.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
