package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agruezo/userhub/internal/config"
	"github.com/agruezo/userhub/internal/db"
	"github.com/agruezo/userhub/internal/notifications"
	"github.com/agruezo/userhub/internal/observability"
	"github.com/agruezo/userhub/internal/queue/worker"
	"github.com/agruezo/userhub/internal/repo/postgres"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	jobsRepo := postgres.NewJobsRepo(pool, prom)

	// welcome sender behind a circuit breaker so a flapping provider does
	// not burn every job attempt
	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{},
	)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval:  500 * time.Millisecond,
		WorkerID:      workerID,
		ShutdownGrace: 10 * time.Second,
	}, jobsRepo, notifier, prom, log)

	// health probes on a side port
	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port+1),
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "workerId", workerID)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	if err := healthSrv.Shutdown(shCtx); err != nil {
		log.Error("health server shutdown failed", "err", err)
	}

	log.Info("worker shutdown complete")
}
