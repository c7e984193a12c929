package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agruezo/userhub/internal/domain/user"
	"github.com/agruezo/userhub/internal/observability"
)

// UsersRepo persists users in Postgres. The schema:
//
//	CREATE TABLE users (
//	    id            BIGSERIAL PRIMARY KEY,
//	    username      TEXT NOT NULL,
//	    email         TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL,
//	    created_date  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.create", func() error {
		row := r.pool.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash)
			 VALUES ($1, $2, $3)
			 RETURNING id, username, email, password_hash, created_date`,
			username, email, passwordHash,
		)
		return row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedDate)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		row := r.pool.QueryRow(ctx,
			`SELECT id, username, email, password_hash, created_date
			 FROM users WHERE id = $1`, id,
		)
		return row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedDate)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		row := r.pool.QueryRow(ctx,
			`SELECT id, username, email, password_hash, created_date
			 FROM users WHERE email = $1`, email,
		)
		return row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedDate)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, u user.User) error {
	err := r.prom.ObserveDB("users.update", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET username = $1, email = $2, password_hash = $3
			 WHERE id = $4`,
			u.Username, u.Email, u.PasswordHash, u.ID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.ErrEmailTaken
		}
		return err
	}

	return nil
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	return r.prom.ObserveDB("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

// ListAll returns every user ordered by id, which matches insertion order
// for a BIGSERIAL key.
func (r *UsersRepo) ListAll(ctx context.Context) ([]user.User, error) {
	var users []user.User

	err := r.prom.ObserveDB("users.list_all", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, username, email, password_hash, created_date
			 FROM users ORDER BY id`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u user.User
			if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedDate); err != nil {
				return err
			}
			users = append(users, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return users, nil
}
