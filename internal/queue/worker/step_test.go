package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/agruezo/userhub/internal/domain/job"
	"github.com/agruezo/userhub/internal/jobs"
	"github.com/agruezo/userhub/internal/notifications"
)

type fakeJobsRepo struct {
	claimNext  func(ctx context.Context, workerID string) (job.Job, error)
	markDone   func(ctx context.Context, id string) error
	markFailed func(ctx context.Context, id string, lastError string) error
	reschedule func(ctx context.Context, id string, runAt time.Time, lastError string) error
}

func (f *fakeJobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	return f.claimNext(ctx, workerID)
}

func (f *fakeJobsRepo) MarkDone(ctx context.Context, id string) error {
	return f.markDone(ctx, id)
}

func (f *fakeJobsRepo) MarkFailed(ctx context.Context, id string, lastError string) error {
	return f.markFailed(ctx, id, lastError)
}

func (f *fakeJobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, lastError string) error {
	return f.reschedule(ctx, id, runAt, lastError)
}

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) SendWelcome(ctx context.Context, in notifications.SendWelcomeInput) error {
	f.calls++
	return f.err
}

func welcomeJob(t *testing.T, attempts, maxAttempts int) job.Job {
	t.Helper()

	raw, err := json.Marshal(jobs.WelcomePayload{UserID: 1, Email: "a@x.com", Username: "a"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	return job.Job{
		ID:          "job-1",
		Type:        string(jobs.JobSendWelcome),
		Payload:     raw,
		Status:      job.StatusProcessing,
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
	}
}

func TestProcessOne_Success(t *testing.T) {
	n := &fakeNotifier{}
	doneIDs := []string{}

	repo := &fakeJobsRepo{
		claimNext: func(ctx context.Context, workerID string) (job.Job, error) {
			return welcomeJob(t, 1, 5), nil
		},
		markDone: func(ctx context.Context, id string) error {
			doneIDs = append(doneIDs, id)
			return nil
		},
		markFailed: func(ctx context.Context, id, lastError string) error {
			t.Fatalf("unexpected MarkFailed")
			return nil
		},
		reschedule: func(ctx context.Context, id string, runAt time.Time, lastError string) error {
			t.Fatalf("unexpected Reschedule")
			return nil
		},
	}

	w := New(Config{WorkerID: "test"}, repo, n, nil, nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne error: %v", err)
	}
	if !processed {
		t.Fatalf("expected a job to be processed")
	}
	if n.calls != 1 {
		t.Fatalf("notifier calls: got %d, want 1", n.calls)
	}
	if len(doneIDs) != 1 || doneIDs[0] != "job-1" {
		t.Fatalf("MarkDone ids: got %v", doneIDs)
	}
}

func TestProcessOne_NoJob(t *testing.T) {
	repo := &fakeJobsRepo{
		claimNext: func(ctx context.Context, workerID string) (job.Job, error) {
			return job.Job{}, job.ErrJobNotFound
		},
	}

	w := New(Config{WorkerID: "test"}, repo, &fakeNotifier{}, nil, nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne error: %v", err)
	}
	if processed {
		t.Fatalf("expected no job to be processed")
	}
}

func TestProcessOne_FailureReschedules(t *testing.T) {
	n := &fakeNotifier{err: errors.New("provider down")}
	rescheduled := 0

	repo := &fakeJobsRepo{
		claimNext: func(ctx context.Context, workerID string) (job.Job, error) {
			return welcomeJob(t, 2, 5), nil
		},
		markDone: func(ctx context.Context, id string) error {
			t.Fatalf("unexpected MarkDone")
			return nil
		},
		markFailed: func(ctx context.Context, id, lastError string) error {
			t.Fatalf("unexpected MarkFailed")
			return nil
		},
		reschedule: func(ctx context.Context, id string, runAt time.Time, lastError string) error {
			rescheduled++
			if !runAt.After(time.Now()) {
				t.Fatalf("runAt should be in the future, got %v", runAt)
			}
			return nil
		},
	}

	w := New(Config{WorkerID: "test"}, repo, n, nil, nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne error: %v", err)
	}
	if !processed {
		t.Fatalf("expected a job to be processed")
	}
	if rescheduled != 1 {
		t.Fatalf("reschedules: got %d, want 1", rescheduled)
	}
}

func TestProcessOne_ExhaustedAttemptsFails(t *testing.T) {
	n := &fakeNotifier{err: errors.New("provider down")}
	failed := 0

	repo := &fakeJobsRepo{
		claimNext: func(ctx context.Context, workerID string) (job.Job, error) {
			return welcomeJob(t, 5, 5), nil
		},
		markFailed: func(ctx context.Context, id, lastError string) error {
			failed++
			return nil
		},
		reschedule: func(ctx context.Context, id string, runAt time.Time, lastError string) error {
			t.Fatalf("unexpected Reschedule")
			return nil
		},
	}

	w := New(Config{WorkerID: "test"}, repo, n, nil, nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne error: %v", err)
	}
	if !processed {
		t.Fatalf("expected a job to be processed")
	}
	if failed != 1 {
		t.Fatalf("MarkFailed calls: got %d, want 1", failed)
	}
}

func TestProcessOne_FinishesClaimedJobAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	n := &fakeNotifier{}
	doneIDs := []string{}

	repo := &fakeJobsRepo{
		claimNext: func(_ context.Context, workerID string) (job.Job, error) {
			// shutdown arrives right after the claim
			cancel()
			return welcomeJob(t, 1, 5), nil
		},
		markDone: func(c context.Context, id string) error {
			if c.Err() != nil {
				t.Fatalf("MarkDone context already dead: %v", c.Err())
			}
			doneIDs = append(doneIDs, id)
			return nil
		},
	}

	w := New(Config{WorkerID: "test", ShutdownGrace: 5 * time.Second}, repo, n, nil, nil)

	processed, err := w.ProcessOne(ctx)
	if err != nil {
		t.Fatalf("ProcessOne error: %v", err)
	}
	if !processed {
		t.Fatalf("expected the claimed job to be processed")
	}
	if n.calls != 1 {
		t.Fatalf("notifier calls: got %d, want 1", n.calls)
	}
	if len(doneIDs) != 1 {
		t.Fatalf("MarkDone ids: got %v, want one entry", doneIDs)
	}
}

func TestProcessOne_BadPayloadRetries(t *testing.T) {
	rescheduled := 0

	repo := &fakeJobsRepo{
		claimNext: func(ctx context.Context, workerID string) (job.Job, error) {
			j := welcomeJob(t, 1, 5)
			j.Payload = nil
			return j, nil
		},
		reschedule: func(ctx context.Context, id string, runAt time.Time, lastError string) error {
			rescheduled++
			return nil
		},
	}

	n := &fakeNotifier{}
	w := New(Config{WorkerID: "test"}, repo, n, nil, nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne error: %v", err)
	}
	if !processed {
		t.Fatalf("expected a job to be processed")
	}
	if n.calls != 0 {
		t.Fatalf("notifier should not be called for a bad payload")
	}
	if rescheduled != 1 {
		t.Fatalf("reschedules: got %d, want 1", rescheduled)
	}
}
