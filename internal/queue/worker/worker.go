package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/agruezo/userhub/internal/domain/job"
	"github.com/agruezo/userhub/internal/notifications"
	"github.com/agruezo/userhub/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, lastError string) error
}

type Config struct {
	PollInterval time.Duration
	WorkerID     string
	// ShutdownGrace bounds how long a claimed job may keep running (and
	// updating its row) once the worker context is cancelled.
	ShutdownGrace time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, notifier notifications.Notifier, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.WorkerID == "" {
		host, _ := os.Hostname()
		cfg.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		prom:     prom,
		log:      log,
	}
}

// Run polls for due jobs until the context is cancelled. After each
// processed job it immediately tries again, so a backlog drains faster
// than one job per tick.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.log.Info("worker started", "workerId", w.cfg.WorkerID, "pollInterval", w.cfg.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil

		case <-ticker.C:
			for {
				processed, err := w.ProcessOne(ctx)

				if err != nil {
					w.log.Error("process job", "error", err)
					break
				}
				if !processed {
					break
				}
				if ctx.Err() != nil {
					return nil
				}
			}
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
