package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/agruezo/userhub/internal/domain/user"
	"github.com/agruezo/userhub/internal/security"
)

var demoUsers = []struct {
	Username string
	Email    string
}{
	{"redninja", "redninja@dojo.com"},
	{"whiteninja", "whiteninja@dojo.com"},
	{"blueninja", "blueninja@dojo.com"},
}

// SeedDemoUsers inserts the demo accounts for local development. Existing
// rows are left alone so the seed is idempotent.
func SeedDemoUsers(ctx context.Context, store user.Store, log *slog.Logger) error {
	hash, err := security.HashPassword("testpassword")

	if err != nil {
		return err
	}

	for _, d := range demoUsers {
		_, err := store.GetByEmail(ctx, d.Email)

		if err == nil {
			continue
		}
		if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		created, err := store.Create(ctx, d.Username, d.Email, hash)

		if err != nil {
			if errors.Is(err, user.ErrEmailTaken) {
				continue
			}
			return err
		}

		log.Info("seeded demo user", "id", created.ID, "email", created.Email)
	}

	return nil
}
