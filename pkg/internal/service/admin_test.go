package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/testutil"
	"github.com/yeisme/notesphere/pkg/internal/types"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	notes := service.NewNoteServiceWith(e.deps())
	admin := service.NewAdminServiceWith(e.deps())

	boss := e.user(t, testutil.AsAdmin())
	a := e.user(t)
	b := e.user(t, testutil.AsPremium(baseTime.AddDate(0, 1, 0)))

	n1 := e.storedNote(t, a, func(n *model.Note) { n.CreatedAt = baseTime })
	e.storedNote(t, a, func(n *model.Note) { n.Course = "Physics II"; n.CreatedAt = baseTime.AddDate(0, -2, 0) })
	e.storedNote(t, b, func(n *model.Note) { n.Institution = "KNUST"; n.Verified = true; n.CreatedAt = baseTime.AddDate(-1, 0, 0) })

	for range 2 {
		res, err := notes.Download(ctx, b, n1.ID, "")
		if err != nil {
			t.Fatalf("download: %v", err)
		}

		_ = res.Body.Close()
	}

	if _, err := admin.Dashboard(ctx, a); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("student dashboard err = %v", err)
	}

	d, err := admin.Dashboard(ctx, boss)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	s := d.Stats
	if s.TotalUsers != 3 || s.PremiumUsers != 1 || s.TotalNotes != 3 || s.VerifiedNotes != 1 || s.PendingNotes != 2 {
		t.Fatalf("stats = %+v", s)
	}

	if s.TotalDownloads != 2 || s.DownloadsThisMonth != 2 {
		t.Fatalf("download stats = %+v", s)
	}

	if len(d.TopNotes) == 0 || d.TopNotes[0].ID != n1.ID {
		t.Fatalf("top notes = %v", d.TopNotes)
	}

	if len(d.TopInstitutions) != 2 || d.TopInstitutions[0].Name != "University of Ghana" || d.TopInstitutions[0].NoteCount != 2 {
		t.Fatalf("top institutions = %+v", d.TopInstitutions)
	}

	if len(d.MonthlyUploads) != 6 {
		t.Fatalf("monthly = %+v", d.MonthlyUploads)
	}

	last := d.MonthlyUploads[5]
	if last.Month != "2026-03" || last.Count != 1 {
		t.Fatalf("current month = %+v", last)
	}

	if jan := d.MonthlyUploads[3]; jan.Month != "2026-01" || jan.Count != 1 {
		t.Fatalf("january = %+v", jan)
	}
}

func TestAdminUsers(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewAdminServiceWith(e.deps())

	boss := e.user(t, testutil.AsAdmin())
	other := e.user(t, testutil.AsAdmin())
	u := e.user(t)

	premium, active, role := true, false, "guest"
	expiry := time.Date(2026, 9, 1, 12, 0, 0, 0, time.FixedZone("GMT+2", 2*3600))

	got, err := svc.UpdateUser(ctx, boss, u.ID, types.UpdateUserRequest{
		IsPremium:          &premium,
		IsActive:           &active,
		Role:               &role,
		SubscriptionExpiry: &expiry,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if !got.IsPremium || got.IsActive || got.Role != model.RoleGuest || got.SubscriptionExpiry == nil || !got.SubscriptionExpiry.Equal(expiry) {
		t.Fatalf("updated = %+v", got)
	}

	bad := "owner"
	if _, err := svc.UpdateUser(ctx, boss, u.ID, types.UpdateUserRequest{Role: &bad}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("bad role err = %v", err)
	}

	if _, err := svc.UpdateUser(ctx, boss, 9999, types.UpdateUserRequest{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing user err = %v", err)
	}

	if err := svc.DeleteUser(ctx, boss, other.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("delete admin err = %v", err)
	}

	if err := svc.DeleteUser(ctx, boss, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	page, err := svc.ListUsers(ctx, boss, types.ListUsersQuery{})
	if err != nil || page.TotalUsers != 2 {
		t.Fatalf("list = %+v, err = %v", page, err)
	}

	if _, err := svc.ListUsers(ctx, u, types.ListUsersQuery{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("student list err = %v", err)
	}
}

func TestExpireSubscriptions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewAdminServiceWith(e.deps())

	expired := e.user(t, testutil.AsPremium(baseTime.Add(-time.Hour)))
	current := e.user(t, testutil.AsPremium(baseTime.Add(time.Hour)))

	ids, err := svc.ExpireSubscriptions(ctx)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}

	if len(ids) != 1 || ids[0] != expired.ID {
		t.Fatalf("ids = %v", ids)
	}

	if reload(t, e.db, expired).IsPremium || !reload(t, e.db, current).IsPremium {
		t.Fatal("premium flags not updated as expected")
	}
}

func TestExportDownloads(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	notes := service.NewNoteServiceWith(e.deps())
	admin := service.NewAdminServiceWith(e.deps())

	boss := e.user(t, testutil.AsAdmin())
	reader := e.user(t)
	note := e.storedNote(t, reader, func(n *model.Note) { n.Title = "Alkenes" })

	res, err := notes.Download(ctx, reader, note.ID, "10.0.0.7")
	if err != nil {
		t.Fatalf("download: %v", err)
	}

	_ = res.Body.Close()

	var buf bytes.Buffer

	n, err := admin.ExportDownloads(ctx, boss, types.ExportDownloadsQuery{Until: baseTime}, &buf)
	if err != nil || n != 1 {
		t.Fatalf("export n = %d, err = %v", n, err)
	}

	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer book.Close()

	rows, err := book.GetRows("Downloads")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}

	if len(rows) != 2 || rows[1][3] != reader.Email || rows[1][5] != "Alkenes" || rows[1][6] != "10.0.0.7" {
		t.Fatalf("rows = %v", rows)
	}

	if _, err := admin.ExportDownloads(ctx, reader, types.ExportDownloadsQuery{}, &buf); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("student export err = %v", err)
	}
}
