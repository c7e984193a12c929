package jobs

import (
	"context"
	"time"

	"github.com/agruezo/userhub/internal/domain/job"
	"github.com/agruezo/userhub/internal/domain/user"
)

// JobCreator is the slice of the jobs repo the enqueuer needs.
type JobCreator interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

// Enqueuer turns domain events into queued jobs. It satisfies
// auth.WelcomeEnqueuer.
type Enqueuer struct {
	repo JobCreator
}

func NewEnqueuer(repo JobCreator) *Enqueuer {
	return &Enqueuer{repo: repo}
}

func (e *Enqueuer) EnqueueWelcome(ctx context.Context, u user.User) error {
	p := WelcomePayload{
		UserID:      u.ID,
		Email:       u.Email,
		Username:    u.Username,
		RequestedAt: time.Now().UTC(),
	}

	if err := ValidatePayload(JobSendWelcome, p); err != nil {
		return err
	}

	raw, err := EncodePayload(JobSendWelcome, p)

	if err != nil {
		return err
	}

	_, err = e.repo.Create(ctx, job.CreateRequest{
		Type:    string(JobSendWelcome),
		Payload: raw,
	})

	return err
}
