package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/agruezo/userhub/internal/domain/user"
)

func TestCreateAssignsSequentialIDs(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	u1, err := r.Create(ctx, "redninja", "redninja@dojo.com", "hash1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	u2, err := r.Create(ctx, "whiteninja", "whiteninja@dojo.com", "hash2")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if u1.ID != 1 || u2.ID != 2 {
		t.Fatalf("expected ids 1,2 got %d,%d", u1.ID, u2.ID)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	if _, err := r.Create(ctx, "alex", "alex@x.com", "h"); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	_, err := r.Create(ctx, "bob", "alex@x.com", "h2")
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestListAllInsertionOrder(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	names := []string{"redninja", "whiteninja", "blueninja"}
	for _, n := range names {
		if _, err := r.Create(ctx, n, n+"@dojo.com", "h"); err != nil {
			t.Fatalf("Create(%s) error: %v", n, err)
		}
	}

	all, err := r.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}

	if len(all) != 3 {
		t.Fatalf("expected 3 users, got %d", len(all))
	}

	for i, n := range names {
		if all[i].Username != n {
			t.Fatalf("order broken at %d: got %q, want %q", i, all[i].Username, n)
		}
	}
}

func TestUpdateAndDelete(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	u, err := r.Create(ctx, "update_user", "update@user.com", "h")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	other, err := r.Create(ctx, "other", "other@user.com", "h")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// moving onto another user's email must fail
	u.Email = other.Email
	if err := r.Update(ctx, u); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// keeping your own email is fine
	u.Email = "update@user.com"
	u.Username = "me"
	if err := r.Update(ctx, u); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	got, err := r.GetByID(ctx, u.ID)
	if err != nil || got.Username != "me" {
		t.Fatalf("GetByID after update: %+v, err=%v", got, err)
	}

	if err := r.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	if _, err := r.GetByID(ctx, u.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	all, _ := r.ListAll(ctx)
	if len(all) != 1 || all[0].ID != other.ID {
		t.Fatalf("expected only the other user to remain, got %+v", all)
	}
}
