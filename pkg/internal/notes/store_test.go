package notes_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/notes"
	"github.com/yeisme/notesphere/pkg/internal/testutil"
)

func TestApplyRating_RunningMean(t *testing.T) {
	db := testutil.NewDB(t)
	store := notes.NewStore(db)
	ctx := context.Background()
	note := testutil.CreateNote(t, db, testutil.CreateUser(t, db))

	var (
		got *model.Note
		err error
	)

	for _, v := range []float64{4, 5} {
		if got, err = store.ApplyRating(ctx, note.ID, v); err != nil {
			t.Fatalf("apply %v: %v", v, err)
		}
	}

	if got.Rating != 4.5 || got.RatingCount != 2 {
		t.Fatalf("after [4 5]: rating=%v count=%d", got.Rating, got.RatingCount)
	}

	if got, err = store.ApplyRating(ctx, note.ID, 3); err != nil {
		t.Fatalf("apply 3: %v", err)
	}

	if math.Abs(got.Rating-4.0) > 1e-9 || got.RatingCount != 3 {
		t.Fatalf("after [4 5 3]: rating=%v count=%d", got.Rating, got.RatingCount)
	}
}

func TestApplyRating_OutOfRange(t *testing.T) {
	db := testutil.NewDB(t)
	store := notes.NewStore(db)
	ctx := context.Background()
	note := testutil.CreateNote(t, db, testutil.CreateUser(t, db))

	if _, err := store.ApplyRating(ctx, note.ID, 2); err != nil {
		t.Fatalf("seed rating: %v", err)
	}

	for _, v := range []float64{5.5, -1, math.NaN()} {
		if _, err := store.ApplyRating(ctx, note.ID, v); !errors.Is(err, apperr.ErrInvalidRating) {
			t.Errorf("rating %v: expected ErrInvalidRating, got %v", v, err)
		}
	}

	got, err := store.Get(ctx, note.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Rating != 2 || got.RatingCount != 1 {
		t.Errorf("rejected ratings changed note: rating=%v count=%d", got.Rating, got.RatingCount)
	}
}

func TestApplyRating_Bounds(t *testing.T) {
	db := testutil.NewDB(t)
	store := notes.NewStore(db)
	note := testutil.CreateNote(t, db, testutil.CreateUser(t, db))

	for _, v := range []float64{0, 5} {
		if _, err := store.ApplyRating(context.Background(), note.ID, v); err != nil {
			t.Errorf("rating %v should be accepted: %v", v, err)
		}
	}
}

func TestApplyRating_NotFound(t *testing.T) {
	store := notes.NewStore(testutil.NewDB(t))

	if _, err := store.ApplyRating(context.Background(), 404, 3); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementDownloads_Concurrent(t *testing.T) {
	db := testutil.NewDB(t)
	store := notes.NewStore(db)
	note := testutil.CreateNote(t, db, testutil.CreateUser(t, db))

	const n = 20

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := store.IncrementDownloads(context.Background(), note.ID); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}

	wg.Wait()

	got, err := store.Get(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Downloads != n {
		t.Fatalf("downloads = %d, want %d", got.Downloads, n)
	}

	if _, err := store.IncrementDownloads(context.Background(), 9999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing note, got %v", err)
	}
}

func TestSetVerified(t *testing.T) {
	db := testutil.NewDB(t)
	store := notes.NewStore(db)
	ctx := context.Background()
	note := testutil.CreateNote(t, db, testutil.CreateUser(t, db))

	if _, err := store.IncrementDownloads(ctx, note.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}

	got, err := store.SetVerified(ctx, note.ID, true)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if !got.Verified || got.Downloads != 1 {
		t.Errorf("unexpected note after verify: verified=%v downloads=%d", got.Verified, got.Downloads)
	}

	// 重复设置同一值
	if got, err = store.SetVerified(ctx, note.ID, true); err != nil || !got.Verified {
		t.Errorf("idempotent verify: %v %v", got, err)
	}

	if got, err = store.SetVerified(ctx, note.ID, false); err != nil || got.Verified {
		t.Errorf("unverify: %v %v", got, err)
	}

	if _, err := store.SetVerified(ctx, 777, true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate_ResetsCounters(t *testing.T) {
	db := testutil.NewDB(t)
	store := notes.NewStore(db)
	u := testutil.CreateUser(t, db)

	note := &model.Note{
		Title: "Thermodynamics", Course: "Physics II", Institution: u.Institution,
		FileRef: "notes/x.pdf", FileName: "x.pdf", FileSize: 10, FileType: model.FileTypePDF,
		UploaderID: u.ID, Downloads: 50, Rating: 5, RatingCount: 9, Verified: true,
	}

	if err := store.Create(context.Background(), note); err != nil {
		t.Fatalf("create: %v", err)
	}

	if note.ID == 0 || note.Downloads != 0 || note.RatingCount != 0 || note.Verified {
		t.Errorf("counters not reset: %+v", note)
	}

	bad := *note
	bad.FileSize = 0
	if err := store.Create(context.Background(), &bad); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected ErrInvalid for empty file, got %v", err)
	}

	bad = *note
	bad.FileType = "exe"
	if err := store.Create(context.Background(), &bad); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected ErrInvalid for file type, got %v", err)
	}
}

func TestDeleteAndSummary(t *testing.T) {
	db := testutil.NewDB(t)
	store := notes.NewStore(db)
	ctx := context.Background()
	note := testutil.CreateNote(t, db, testutil.CreateUser(t, db))

	if err := store.SetSummary(ctx, note.ID, "summary text"); err != nil {
		t.Fatalf("set summary: %v", err)
	}

	got, err := store.Get(ctx, note.ID)
	if err != nil || !got.HasSummary() {
		t.Fatalf("summary not stored: %v %v", got, err)
	}

	if got.Uploader == nil || got.Uploader.Name == "" {
		t.Errorf("uploader not preloaded")
	}

	if err := store.Delete(ctx, note.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := store.Get(ctx, note.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := store.Delete(ctx, note.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}

	if err := store.SetSummary(ctx, note.ID, "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("summary on deleted note: expected ErrNotFound, got %v", err)
	}
}

func TestStatsAndTopBy(t *testing.T) {
	db := testutil.NewDB(t)
	s := notes.NewStore(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db)
	testutil.CreateNote(t, db, u, func(n *model.Note) { n.Institution = "KNUST"; n.Downloads = 4; n.Verified = true })
	testutil.CreateNote(t, db, u, func(n *model.Note) { n.Institution = "KNUST"; n.Downloads = 1 })
	testutil.CreateNote(t, db, u, func(n *model.Note) { n.Institution = "University of Ghana" })

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if st.TotalNotes != 3 || st.VerifiedNotes != 1 || st.PendingNotes != 2 || st.TotalDownloads != 5 {
		t.Fatalf("stats = %+v", st)
	}

	top, err := s.TopBy(ctx, "institution", 5)
	if err != nil {
		t.Fatalf("top by institution: %v", err)
	}

	if len(top) != 2 || top[0].Name != "KNUST" || top[0].NoteCount != 2 {
		t.Fatalf("top institutions = %+v", top)
	}

	if _, err := s.TopBy(ctx, "password_hash", 5); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("unsupported column: got %v", err)
	}

	popular, err := s.Popular(ctx, 1)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}

	if len(popular) != 1 || popular[0].Downloads != 4 {
		t.Fatalf("popular = %+v", popular)
	}
}
