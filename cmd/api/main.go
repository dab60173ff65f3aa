package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moneypot-backend/internal/admission"
	"moneypot-backend/internal/api"
	"moneypot-backend/internal/auth"
	"moneypot-backend/internal/cache"
	"moneypot-backend/internal/config"
	"moneypot-backend/internal/db"
	"moneypot-backend/internal/gateway"
	"moneypot-backend/internal/logger"
	"moneypot-backend/internal/metrics"
	"moneypot-backend/internal/repository/postgres"
	"moneypot-backend/internal/services"
	"moneypot-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	var cacheStore cache.Store
	if cfg.RedisAddr != "" {
		cacheStore, err = cache.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Error("redis connect", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}
	} else {
		log.Warn("REDIS_ADDR not set, using in-process cache")
		cacheStore = cache.NewMemory()
	}

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	gate := admission.New(cfg.AdmissionCapacity, cfg.AdmissionTimeout)
	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, 15*time.Minute, 7*24*time.Hour)

	userSvc := services.NewUserService(repos.Users, tm, cacheStore, cfg.CacheTTL)
	groupSvc := services.NewGroupService(repos.Groups)
	dirSvc := services.NewDirectoryService(repos.Users, repos.Groups)
	contribSvc := services.NewContributionService(repos.Contributions, repos.Groups, gate, wp, cacheStore, cfg.CacheTTL, log)

	gw := gateway.New(dirSvc, contribSvc, log)

	metrics.Init()
	r := api.NewRouter(cfg, userSvc, groupSvc, contribSvc, dirSvc, gw, gate, tm)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort,
			"admission_capacity", cfg.AdmissionCapacity,
			"admission_timeout", cfg.AdmissionTimeout.String(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
