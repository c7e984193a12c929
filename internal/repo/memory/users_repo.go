package memory

import (
	"context"
	"sync"
	"time"

	"github.com/agruezo/userhub/internal/domain/user"
)

// UsersRepo is an in-memory user.Store. It backs the unit tests and DB-less
// local runs; email uniqueness is enforced under the mutex, and ListAll
// preserves insertion order.
type UsersRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]user.User
	order  []int64
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[int64]user.User),
	}
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		if r.items[id].Email == email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	r.nextID++

	u := user.User{
		ID:           r.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedDate:  time.Now().UTC(),
	}

	r.items[u.ID] = u
	r.order = append(r.order, u.ID)

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if r.items[id].Email == email {
			return r.items[id], nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) Update(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.ID]; !ok {
		return user.ErrNotFound
	}

	for _, id := range r.order {
		if id != u.ID && r.items[id].Email == u.Email {
			return user.ErrEmailTaken
		}
	}

	r.items[u.ID] = u

	return nil
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return user.ErrNotFound
	}

	delete(r.items, id)

	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}

func (r *UsersRepo) ListAll(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.order))

	for _, id := range r.order {
		out = append(out, r.items[id])
	}

	return out, nil
}
