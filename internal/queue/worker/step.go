package worker

import (
	"context"
	"errors"
	"time"

	"github.com/agruezo/userhub/internal/domain/job"
	"github.com/agruezo/userhub/internal/jobs"
	"github.com/agruezo/userhub/internal/notifications"
)

// ProcessOne claims and executes a single due job. It reports whether a
// job was processed; an execution failure is handled (retry or fail) and
// is not surfaced as an error.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	// A claimed job must not be killed mid-flight by shutdown: detach from
	// cancellation and bound the whole execute+bookkeeping by ShutdownGrace,
	// so the row never lingers in processing.
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.ShutdownGrace)
	defer cancel()

	w.observeInFlight(1)
	start := time.Now()

	err = w.execute(jobCtx, j)

	w.observeResult(j.Type, start, err)
	w.observeInFlight(-1)

	if err != nil {
		w.handleFailure(jobCtx, j, err)
		return true, nil
	}

	if err := w.repo.MarkDone(jobCtx, j.ID); err != nil {
		_ = w.repo.MarkFailed(jobCtx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	jt := jobs.JobType(j.Type)

	decoded, err := jobs.DecodePayload(jt, j.Payload)

	if err != nil {
		return err
	}

	switch p := decoded.(type) {
	case jobs.WelcomePayload:
		return w.notifier.SendWelcome(ctx, notifications.SendWelcomeInput{
			UserID:   p.UserID,
			Email:    p.Email,
			Username: p.Username,
		})
	default:
		return jobs.ErrInvalidJobType
	}
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error) {
	// Attempts was already incremented by the claim.
	if j.Attempts >= j.MaxAttempts {
		w.log.Error("job failed permanently",
			"jobId", j.ID, "type", j.Type, "attempts", j.Attempts, "error", execErr)

		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark failed", "jobId", j.ID, "error", err)
		}
		return
	}

	delay := ExponentialBackoff(j.Attempts)
	runAt := time.Now().UTC().Add(delay)

	w.log.Warn("job failed, rescheduling",
		"jobId", j.ID, "type", j.Type, "attempts", j.Attempts,
		"retryIn", delay.String(), "error", execErr)

	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule", "jobId", j.ID, "error", err)
	}
}

func (w *Worker) observeInFlight(delta float64) {
	if w.prom == nil {
		return
	}
	w.prom.JobsInFlight.Add(delta)
}

func (w *Worker) observeResult(jobType string, start time.Time, err error) {
	if w.prom == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	w.prom.JobResults.WithLabelValues(jobType, result).Inc()
	w.prom.JobDuration.WithLabelValues(jobType, result).Observe(time.Since(start).Seconds())
}
