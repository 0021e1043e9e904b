package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/ledger"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/notes"
	"github.com/yeisme/notesphere/pkg/internal/quota"
	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/storage/blob"
	"github.com/yeisme/notesphere/pkg/internal/testutil"
	"github.com/yeisme/notesphere/pkg/internal/types"
	mqc "github.com/yeisme/notesphere/pkg/internal/storage/mq"
	"github.com/yeisme/notesphere/pkg/queue"
)

func TestDownload_FreeUserQuotaAndLedger(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewNoteServiceWith(e.deps())

	uploader := e.user(t)
	reader := e.user(t)
	note := e.storedNote(t, uploader)

	for i := range 3 {
		res, err := svc.Download(ctx, reader, note.ID, "10.0.0.1")
		if err != nil {
			t.Fatalf("download %d: %v", i+1, err)
		}

		body, err := io.ReadAll(res.Body)
		_ = res.Body.Close()

		if err != nil || !strings.HasPrefix(string(body), "%PDF") {
			t.Fatalf("body = %q, err = %v", body, err)
		}

		if res.Note.Downloads != int64(i+1) {
			t.Fatalf("downloads = %d, want %d", res.Note.Downloads, i+1)
		}

		if res.Decision.Remaining != 2-i {
			t.Fatalf("remaining = %d, want %d", res.Decision.Remaining, 2-i)
		}
	}

	_, err := svc.Download(ctx, reader, note.ID, "10.0.0.1")
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("4th download err = %v, want quota exceeded", err)
	}

	if msg := apperr.MessageOf(err); msg != quota.LimitReachedMessage {
		t.Fatalf("message = %q", msg)
	}

	got, err := notes.NewStore(e.db).Get(ctx, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}

	if got.Downloads != 3 {
		t.Fatalf("downloads after deny = %d, want 3", got.Downloads)
	}

	n, err := ledger.New(e.db).Count(ctx, ledger.Filter{UserID: reader.ID})
	if err != nil || n != 3 {
		t.Fatalf("ledger count = %d, err = %v", n, err)
	}

	// 一周后窗口重置
	e.clock.Advance(7 * 24 * time.Hour)

	res, err := svc.Download(ctx, reader, note.ID, "10.0.0.1")
	if err != nil {
		t.Fatalf("download after reset: %v", err)
	}

	_ = res.Body.Close()

	if res.Decision.Remaining != 2 || !res.Decision.Reset {
		t.Fatalf("decision after reset = %+v", res.Decision)
	}
}

func TestDownload_FileMissingKeepsQuota(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewNoteServiceWith(e.deps())

	reader := e.user(t)
	note := testutil.CreateNote(t, e.db, reader)

	_, err := svc.Download(ctx, reader, note.ID, "")
	if !errors.Is(err, apperr.ErrFileMissing) {
		t.Fatalf("err = %v, want file missing", err)
	}

	if got := reload(t, e.db, reader); got.WeeklyDownloads != 0 {
		t.Fatalf("weekly downloads = %d, want 0", got.WeeklyDownloads)
	}
}

func TestDownload_Errors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewNoteServiceWith(e.deps())

	u := e.user(t)
	note := e.storedNote(t, u)

	if _, err := svc.Download(ctx, nil, note.ID, ""); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("nil user err = %v", err)
	}

	if _, err := svc.Download(ctx, u, 9999, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing note err = %v", err)
	}
}

func TestDownload_PremiumUnlimited(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewNoteServiceWith(e.deps())

	premium := e.user(t, testutil.AsPremium(baseTime.AddDate(0, 1, 0)))
	note := e.storedNote(t, premium)

	for i := range 5 {
		res, err := svc.Download(ctx, premium, note.ID, "")
		if err != nil {
			t.Fatalf("download %d: %v", i+1, err)
		}

		_ = res.Body.Close()

		if res.Decision.Remaining != quota.Unlimited {
			t.Fatalf("remaining = %d", res.Decision.Remaining)
		}
	}

	if got := reload(t, e.db, premium); got.WeeklyDownloads != 0 {
		t.Fatalf("premium weekly downloads = %d", got.WeeklyDownloads)
	}
}

func TestDownload_PublishesQuotaExceeded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e := newEnv(t)

	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	client := mqc.NewClient(ch, ch)
	t.Cleanup(func() { _ = client.Close() })

	e.mq = client
	e.cfg.Events.Enabled = true
	e.cfg.Events.Quota.Exceeded = true

	msgs, err := client.Subscribe(ctx, queue.TopicQuotaExceeded)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	svc := service.NewNoteServiceWith(e.deps())
	reader := e.user(t, testutil.WithQuota(3, baseTime))
	note := e.storedNote(t, reader)

	if _, err := svc.Download(ctx, reader, note.ID, ""); !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("err = %v", err)
	}

	select {
	case m := <-msgs:
		evt, err := queue.ParseWatermillMessage[queue.QuotaExceededPayload](m)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}

		m.Ack()

		if evt.Payload.UserID != reader.ID || evt.Payload.NoteID != note.ID {
			t.Fatalf("payload = %+v", evt.Payload)
		}
	case <-ctx.Done():
		t.Fatal("quota exceeded event not received")
	}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewNoteServiceWith(e.deps())
	u := e.user(t)

	form := types.UploadNoteForm{
		Title:       "  Thermodynamics ",
		Course:      "Physics II",
		Institution: "KNUST",
		Tags:        "exam, Exam ,heat,,",
	}

	body := "%PDF-1.7 thermo"
	note, err := svc.Upload(ctx, u, service.UploadInput{
		Form:     form,
		FileName: "thermo.PDF",
		Size:     int64(len(body)),
		Body:     strings.NewReader(body),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if note.Title != "Thermodynamics" || note.FileType != model.FileTypePDF || note.UploaderID != u.ID {
		t.Fatalf("note = %+v", note)
	}

	if len(note.Tags) != 2 || note.Tags[0] != "exam" || note.Tags[1] != "heat" {
		t.Fatalf("tags = %v", note.Tags)
	}

	ok, err := e.blobs.Exists(ctx, note.FileRef)
	if err != nil || !ok {
		t.Fatalf("blob exists = %v, err = %v", ok, err)
	}

	cases := map[string]service.UploadInput{
		"bad extension": {Form: form, FileName: "notes.txt", Size: 4, Body: strings.NewReader("text")},
		"empty file":    {Form: form, FileName: "notes.pdf", Size: 0, Body: strings.NewReader("")},
		"too large":     {Form: form, FileName: "notes.pdf", Size: e.cfg.Storage.MaxUploadBytes + 1, Body: strings.NewReader("x")},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Upload(ctx, u, in); !errors.Is(err, apperr.ErrInvalid) {
				t.Fatalf("err = %v, want invalid", err)
			}
		})
	}

	if _, err := svc.Upload(ctx, nil, service.UploadInput{}); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("nil user err = %v", err)
	}
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewNoteServiceWith(e.deps())

	owner := e.user(t)
	other := e.user(t)
	admin := e.user(t, testutil.AsAdmin())

	first := e.storedNote(t, owner)
	second := e.storedNote(t, owner)

	if err := svc.DeleteNote(ctx, other, first.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("other user err = %v", err)
	}

	if err := svc.DeleteNote(ctx, owner, first.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	if ok, _ := e.blobs.Exists(ctx, first.FileRef); ok {
		t.Fatal("blob still exists after delete")
	}

	if err := svc.DeleteNote(ctx, admin, second.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	if err := svc.DeleteNote(ctx, admin, second.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

// brokenDeletes 删除总是失败的文件存储.
type brokenDeletes struct {
	*blob.LocalStore
}

func (brokenDeletes) Delete(context.Context, string) error {
	return errors.New("disk unavailable")
}

func TestDeleteNote_StorageFailureKeepsNote(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	owner := e.user(t)
	note := e.storedNote(t, owner)

	d := e.deps()
	d.Blob = brokenDeletes{e.blobs}

	if err := service.NewNoteServiceWith(d).DeleteNote(ctx, owner, note.ID); !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Fatalf("delete with broken storage err = %v", err)
	}

	svc := service.NewNoteServiceWith(e.deps())

	if _, err := svc.Get(ctx, note.ID); err != nil {
		t.Fatalf("note should survive failed file delete: %v", err)
	}

	if ok, _ := e.blobs.Exists(ctx, note.FileRef); !ok {
		t.Fatal("blob removed although delete failed")
	}

	if err := svc.DeleteNote(ctx, owner, note.ID); err != nil {
		t.Fatalf("retry delete: %v", err)
	}

	if ok, _ := e.blobs.Exists(ctx, note.FileRef); ok {
		t.Fatal("blob still exists after retry")
	}
}

func TestGenerateSummary(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewNoteServiceWith(e.deps())

	free := e.user(t)
	premium := e.user(t, testutil.AsPremium(baseTime.AddDate(0, 1, 0)))
	note := e.storedNote(t, free, func(n *model.Note) {
		n.Title = "Alkenes"
		n.Course = "Organic Chemistry"
		n.Institution = "KNUST"
	})

	if _, err := svc.GenerateSummary(ctx, free, note.ID); !errors.Is(err, apperr.ErrPremiumRequired) {
		t.Fatalf("free user err = %v", err)
	}

	text, err := svc.GenerateSummary(ctx, premium, note.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if !strings.HasPrefix(text, "This is a comprehensive summary of Alkenes for Organic Chemistry.") {
		t.Fatalf("summary = %q", text)
	}

	got, err := svc.Get(ctx, note.ID)
	if err != nil || got.Summary != text {
		t.Fatalf("stored summary = %q, err = %v", got.Summary, err)
	}

	if _, err := svc.GenerateSummary(ctx, premium, 9999); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing note err = %v", err)
	}
}

func TestRateAndVerify(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewNoteServiceWith(e.deps())

	u := e.user(t)
	admin := e.user(t, testutil.AsAdmin())
	note := e.storedNote(t, u)

	rated, err := svc.Rate(ctx, note.ID, 4)
	if err != nil || rated.Rating != 4 || rated.RatingCount != 1 {
		t.Fatalf("rate = %+v, err = %v", rated, err)
	}

	if _, err := svc.Rate(ctx, note.ID, 6); !errors.Is(err, apperr.ErrInvalidRating) {
		t.Fatalf("out of range err = %v", err)
	}

	if _, err := svc.Verify(ctx, u, note.ID, true); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("student verify err = %v", err)
	}

	verified, err := svc.Verify(ctx, admin, note.ID, true)
	if err != nil || !verified.Verified {
		t.Fatalf("verify = %+v, err = %v", verified, err)
	}

	mine, err := svc.Mine(ctx, u)
	if err != nil || len(mine) != 1 || mine[0].ID != note.ID {
		t.Fatalf("mine = %v, err = %v", mine, err)
	}
}
