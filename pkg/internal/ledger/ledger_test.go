package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/notesphere/pkg/internal/ledger"
	"github.com/yeisme/notesphere/pkg/internal/testutil"
)

func TestRecordAndQuery(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l := ledger.New(db).WithClock(func() time.Time { return now })

	alice := testutil.CreateUser(t, db)
	bob := testutil.CreateUser(t, db)
	n1 := testutil.CreateNote(t, db, alice)
	n2 := testutil.CreateNote(t, db, alice)

	record := func(userID, noteID uint, origin string) {
		t.Helper()

		entry, err := l.Record(ctx, userID, noteID, origin)
		if err != nil {
			t.Fatalf("record: %v", err)
		}

		if entry.ID == 0 || !entry.DownloadDate.Equal(now) {
			t.Fatalf("unexpected entry %+v", entry)
		}

		now = now.Add(time.Hour)
	}

	record(bob.ID, n1.ID, "10.0.0.1")
	record(bob.ID, n2.ID, "")
	record(alice.ID, n1.ID, "10.0.0.2")

	if n, err := l.Count(ctx, ledger.Filter{}); err != nil || n != 3 {
		t.Fatalf("count all = %d err=%v", n, err)
	}

	if n, err := l.Count(ctx, ledger.Filter{NoteID: n1.ID}); err != nil || n != 2 {
		t.Errorf("count note = %d err=%v", n, err)
	}

	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if n, err := l.CountSince(ctx, start.Add(90*time.Minute)); err != nil || n != 1 {
		t.Errorf("count since = %d err=%v", n, err)
	}

	list, err := l.ListByUser(ctx, bob.ID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(list) != 2 || list[0].NoteID != n2.ID || list[1].IPAddress != "10.0.0.1" {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestRows_SurviveNoteDeletion(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	l := ledger.New(db)

	u := testutil.CreateUser(t, db)
	n := testutil.CreateNote(t, db, u)

	if _, err := l.Record(ctx, u.ID, n.ID, "127.0.0.1"); err != nil {
		t.Fatalf("record: %v", err)
	}

	rows, err := l.Rows(ctx, ledger.Filter{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows = %v err=%v", rows, err)
	}

	if rows[0].NoteTitle != n.Title || rows[0].UserEmail != u.Email {
		t.Errorf("join mismatch %+v", rows[0])
	}

	if err := db.Delete(n).Error; err != nil {
		t.Fatalf("delete note: %v", err)
	}

	rows, err = l.Rows(ctx, ledger.Filter{UserID: u.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows after delete = %v err=%v", rows, err)
	}

	if rows[0].NoteTitle != "" || rows[0].NoteID != n.ID {
		t.Errorf("expected dangling note reference, got %+v", rows[0])
	}
}
