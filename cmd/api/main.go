package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agruezo/userhub/internal/auth"
	"github.com/agruezo/userhub/internal/cache"
	"github.com/agruezo/userhub/internal/config"
	"github.com/agruezo/userhub/internal/db"
	httpx "github.com/agruezo/userhub/internal/http"
	"github.com/agruezo/userhub/internal/jobs"
	"github.com/agruezo/userhub/internal/observability"
	"github.com/agruezo/userhub/internal/repo/postgres"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// tracing (exports to the OTLP endpoint; spans drop when no collector is up)
	shutdownTracer, err := observability.InitTracer(ctx, "userhub-api", cfg.OTLPEndpoint)

	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		shCtx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()

		if err := shutdownTracer(shCtx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	// database
	pool, err := db.NewPool(ctx, cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// metrics
	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	// repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	if cfg.SeedDemoUsers {
		if err := db.SeedDemoUsers(ctx, usersRepo, log); err != nil {
			log.Error("demo seed failed", "err", err)
			os.Exit(1)
		}
	}

	// shared cache when Redis is configured, in-process otherwise
	var userCache cache.Cache = cache.NewMemory()

	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

		if err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}
		defer redisCache.Close()

		userCache = redisCache
		log.Info("using redis cache", "addr", cfg.RedisAddr)
	}

	// auth wiring
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	welcome := jobs.NewEnqueuer(jobsRepo)
	authSvc := auth.NewService(usersRepo, tokens, welcome, log)

	router := httpx.NewRouter(httpx.Deps{
		Cfg:      cfg,
		Log:      log,
		Pool:     pool,
		Store:    usersRepo,
		AuthSvc:  authSvc,
		Cache:    userCache,
		Prom:     prom,
		Registry: registry,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		shCtx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(shCtx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
