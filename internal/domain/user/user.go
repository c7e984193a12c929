package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedDate  time.Time `json:"created_date"`
}

// Store is the persistence capability set the rest of the service depends on.
// Implementations: repo/postgres (production), repo/memory (tests, DB-less dev).
type Store interface {
	Create(ctx context.Context, username, email, passwordHash string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id int64) error
	// ListAll returns every user in insertion order.
	ListAll(ctx context.Context) ([]User, error)
}
