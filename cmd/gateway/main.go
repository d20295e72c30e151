package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/mindtype-hq/mindtype/internal/api/http"
	"github.com/mindtype-hq/mindtype/internal/auth"
	authmw "github.com/mindtype-hq/mindtype/internal/auth/middleware"
	"github.com/mindtype-hq/mindtype/internal/config"
	"github.com/mindtype-hq/mindtype/internal/db"
	"github.com/mindtype-hq/mindtype/internal/events"
	"github.com/mindtype-hq/mindtype/internal/rbac"
	"github.com/mindtype-hq/mindtype/internal/store"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Mode)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("gateway exited", zap.Error(err))
	}
}

func newLogger(mode config.Mode) (*zap.Logger, error) {
	if mode == config.ModeOnline {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		return err
	}
	defer dbh.Close()

	// Storage tiers, most durable first.
	fileTier, err := store.NewFileTier(cfg.FileTierPath)
	if err != nil {
		return err
	}
	fb := store.NewFallback(logger,
		store.NewSQLTier(dbh),
		fileTier,
		store.NewMemoryTier(),
	)

	eventLog := events.NewLog(dbh, logger)
	sessions := store.NewSessionStore(fb, eventLog, logger)
	saver := store.NewAutosaver(store.TimerScheduler{}, sessions.Save, logger)
	cache := store.NewCalcCache(cfg.CalcCacheSize)

	authSvc := authmw.NewAuthService(cfg.AuthHMACSecret)
	h := api.NewHandlers(sessions, saver, cache, fb, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(api.RequestLogger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/guest", auth.GuestLoginHandler(authSvc))
	r.Post("/auth/admin", authmw.AdminLoginHandler(authSvc, cfg.AdminUser, cfg.AdminPassHash))
	r.Get("/healthz", h.Healthz)

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		pr.With(rbac.Require("assessment:score")).
			Post("/api/assessment/score", h.Score)

		pr.Route("/api/sessions/{sessionID}", func(sr chi.Router) {
			sr.With(rbac.Require("session:persist")).Post("/", h.PersistSession)
			sr.With(rbac.Require("session:recover")).Get("/", h.RecoverSession)
			sr.With(rbac.Require("session:delete")).Delete("/", h.DeleteSession)
			sr.With(rbac.Require("session:activity")).Post("/activity", h.TouchSession)
		})

		pr.Route("/admin/sessions/expired", func(ar chi.Router) {
			ar.With(rbac.Require("admin:sessions")).Get("/", h.ListExpiredSessions)
			ar.With(rbac.Require("admin:sessions")).Delete("/", h.PurgeExpiredSessions)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Periodic purge keeps the tiers from accumulating expired sessions.
	// Correctness does not depend on it: recovery checks expiry itself.
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	go purgeLoop(purgeCtx, sessions, cfg.KeepAliveInterval, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DBDriver))
		errCh <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		stopPurge()
		return err
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	}
	stopPurge()

	saver.Flush()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func purgeLoop(ctx context.Context, sessions *store.SessionStore, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("expired session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("swept expired sessions", zap.Int("count", n))
			}
		}
	}
}
