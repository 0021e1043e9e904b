package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/testutil"
	"github.com/yeisme/notesphere/pkg/internal/users"
)

func TestCreate_DuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	store := users.NewStore(db)
	ctx := context.Background()

	u := &model.User{Name: "Ama", Email: " Ama@Example.edu ", PasswordHash: "x", Institution: "UG", Level: "Level 100"}
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	if u.Email != "ama@example.edu" || u.Role != model.RoleStudent || u.LastDownloadReset.IsZero() {
		t.Errorf("defaults not applied: %+v", u)
	}

	dup := &model.User{Name: "Ama 2", Email: "AMA@example.edu", PasswordHash: "x", Institution: "UG", Level: "Level 100"}
	if err := store.Create(ctx, dup); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := store.GetByEmail(ctx, "ama@EXAMPLE.edu")
	if err != nil || got.ID != u.ID {
		t.Fatalf("get by email: %v %v", got, err)
	}

	if _, err := store.Get(ctx, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_ProtectsAdmins(t *testing.T) {
	db := testutil.NewDB(t)
	store := users.NewStore(db)
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, testutil.AsAdmin())
	student := testutil.CreateUser(t, db)

	if err := store.Delete(ctx, admin.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin, got %v", err)
	}

	if err := store.Delete(ctx, student.ID); err != nil {
		t.Fatalf("delete student: %v", err)
	}

	if _, err := store.Get(ctx, student.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted user still visible: %v", err)
	}

	var n int64
	db.Unscoped().Model(&model.User{}).Where("id = ?", student.ID).Count(&n)

	if n != 1 {
		t.Errorf("expected soft delete to keep the row, count=%d", n)
	}
}

func TestSearchAndStats(t *testing.T) {
	db := testutil.NewDB(t)
	store := users.NewStore(db)
	ctx := context.Background()

	now := time.Now()
	testutil.CreateUser(t, db, func(u *model.User) { u.Name = "Kwame Nkrumah" })
	testutil.CreateUser(t, db, testutil.AsPremium(now.Add(time.Hour)))
	testutil.CreateUser(t, db, func(u *model.User) { u.Institution = "KNUST" })

	page, err := store.Search(ctx, users.Query{Search: "kwame"})
	if err != nil || page.TotalUsers != 1 {
		t.Fatalf("search: %+v %v", page, err)
	}

	page, err = store.Search(ctx, users.Query{Limit: 2})
	if err != nil || len(page.Users) != 2 || page.TotalPages != 2 || page.TotalUsers != 3 {
		t.Fatalf("paging: %+v %v", page, err)
	}

	st, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if st.TotalUsers != 3 || st.ActiveUsers != 3 || st.PremiumUsers != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestUpdateAndExpire(t *testing.T) {
	db := testutil.NewDB(t)
	store := users.NewStore(db)
	ctx := context.Background()

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	expired := testutil.CreateUser(t, db, testutil.AsPremium(now.Add(-time.Hour)))
	active := testutil.CreateUser(t, db, testutil.AsPremium(now.Add(time.Hour)))

	ids, err := store.ExpireSubscriptions(ctx, now)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}

	if len(ids) != 1 || ids[0] != expired.ID {
		t.Fatalf("expired ids = %v", ids)
	}

	got, _ := store.Get(ctx, expired.ID)
	if got.IsPremium {
		t.Error("expired user still premium")
	}

	got, _ = store.Get(ctx, active.ID)
	if !got.IsPremium {
		t.Error("active subscription was revoked")
	}

	updated, err := store.Update(ctx, active.ID, map[string]any{"is_active": false, "role": model.RoleGuest})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.IsActive || updated.Role != model.RoleGuest {
		t.Errorf("update not applied: %+v", updated)
	}
}
