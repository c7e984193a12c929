package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agruezo/userhub/internal/domain/job"
	"github.com/agruezo/userhub/internal/observability"
)

// JobsRepo persists queued jobs in Postgres. The schema:
//
//	CREATE TABLE jobs (
//	    id           UUID PRIMARY KEY,
//	    type         TEXT NOT NULL,
//	    payload      JSONB NOT NULL,
//	    status       TEXT NOT NULL,
//	    attempts     INT NOT NULL DEFAULT 0,
//	    max_attempts INT NOT NULL DEFAULT 5,
//	    run_at       TIMESTAMPTZ NOT NULL,
//	    locked_at    TIMESTAMPTZ,
//	    locked_by    TEXT,
//	    last_error   TEXT,
//	    created_at   TIMESTAMPTZ NOT NULL,
//	    updated_at   TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX jobs_claim_idx ON jobs (status, run_at);
type JobsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{pool: pool, prom: prom}
}

func (r *JobsRepo) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	err := r.prom.ObserveDB("jobs.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO jobs (id, type, payload, status, attempts, max_attempts,
			                   run_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			j.ID, j.Type, j.Payload, j.Status, j.Attempts, j.MaxAttempts,
			j.RunAt, j.CreatedAt, j.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return job.Job{}, err
	}

	return j, nil
}

// ClaimNext locks one due pending job for the given worker. FOR UPDATE
// SKIP LOCKED lets concurrent workers claim without contending.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	var j job.Job

	err := r.prom.ObserveDB("jobs.claim_next", func() error {
		row := r.pool.QueryRow(ctx,
			`UPDATE jobs SET
			     status = 'processing',
			     attempts = attempts + 1,
			     locked_at = now(),
			     locked_by = $1,
			     updated_at = now()
			 WHERE id = (
			     SELECT id FROM jobs
			     WHERE status = 'pending' AND run_at <= now()
			     ORDER BY run_at
			     LIMIT 1
			     FOR UPDATE SKIP LOCKED
			 )
			 RETURNING id, type, payload, status, attempts, max_attempts,
			           run_at, locked_at, locked_by, last_error, created_at, updated_at`,
			workerID,
		)
		return row.Scan(&j.ID, &j.Type, &j.Payload, &j.Status, &j.Attempts,
			&j.MaxAttempts, &j.RunAt, &j.LockedAt, &j.LockedBy, &j.LastError,
			&j.CreatedAt, &j.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrJobNotFound
		}
		return job.Job{}, err
	}

	return j, nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	return r.prom.ObserveDB("jobs.mark_done", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE jobs SET status = 'done', locked_at = NULL, locked_by = NULL,
			     last_error = NULL, updated_at = now()
			 WHERE id = $1`, id,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return job.ErrJobNotFound
		}
		return nil
	})
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, lastError string) error {
	return r.prom.ObserveDB("jobs.mark_failed", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE jobs SET status = 'failed', locked_at = NULL, locked_by = NULL,
			     last_error = $2, updated_at = now()
			 WHERE id = $1`, id, lastError,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return job.ErrJobNotFound
		}
		return nil
	})
}

// Reschedule puts a job back to pending with a future run_at, keeping the
// attempts count so backoff can grow.
func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, lastError string) error {
	return r.prom.ObserveDB("jobs.reschedule", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE jobs SET status = 'pending', locked_at = NULL, locked_by = NULL,
			     run_at = $2, last_error = $3, updated_at = now()
			 WHERE id = $1`, id, runAt, lastError,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return job.ErrJobNotFound
		}
		return nil
	})
}
