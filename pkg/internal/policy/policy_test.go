package policy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/policy"
	"github.com/yeisme/notesphere/pkg/internal/quota"
)

type fakeFiles struct {
	keys map[string]bool
	err  error
}

func (f *fakeFiles) Exists(_ context.Context, key string) (bool, error) {
	return f.keys[key], f.err
}

type fakeQuota struct {
	calls int
	deny  bool
}

func (q *fakeQuota) CheckAndConsume(_ context.Context, _ *model.User) (quota.Decision, error) {
	q.calls++
	if q.deny {
		return quota.Decision{Metered: true}, apperr.QuotaExceeded(quota.LimitReachedMessage)
	}

	return quota.Decision{Allowed: true, Metered: true}, nil
}

var (
	student = &model.User{ID: 1, Role: model.RoleStudent, IsActive: true}
	other   = &model.User{ID: 2, Role: model.RoleStudent, IsActive: true}
	guest   = &model.User{ID: 3, Role: model.RoleGuest, IsActive: true}
	admin   = &model.User{ID: 9, Role: model.RoleAdmin, IsActive: true}
	premium = &model.User{ID: 4, Role: model.RoleStudent, IsPremium: true, IsActive: true}
	note    = &model.Note{ID: 7, UploaderID: 1, FileRef: "notes/a.pdf"}
)

func newEvaluator(files *fakeFiles, q *fakeQuota, regenerate bool) *policy.Evaluator {
	return policy.New(files, q, configs.SummaryConfig{AllowRegenerate: regenerate})
}

func TestCanDownload(t *testing.T) {
	ctx := context.Background()
	files := &fakeFiles{keys: map[string]bool{"notes/a.pdf": true}}

	q := &fakeQuota{}
	ev := newEvaluator(files, q, true)

	if _, err := ev.CanDownload(ctx, nil, note); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("nil user: expected ErrUnauthenticated, got %v", err)
	}

	if d, err := ev.CanDownload(ctx, other, note); err != nil || !d.Allowed {
		t.Fatalf("expected permit, got %+v %v", d, err)
	}

	missing := &model.Note{ID: 8, FileRef: "notes/gone.pdf"}
	if _, err := ev.CanDownload(ctx, other, missing); !errors.Is(err, apperr.ErrFileMissing) {
		t.Fatalf("expected ErrFileMissing, got %v", err)
	}

	if q.calls != 1 {
		t.Errorf("missing file must not touch quota, calls=%d", q.calls)
	}

	q.deny = true
	if _, err := ev.CanDownload(ctx, other, note); !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	inactive := &model.User{ID: 5, Role: model.RoleStudent}
	if _, err := ev.CanDownload(ctx, inactive, note); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("inactive user: expected ErrForbidden, got %v", err)
	}

	broken := newEvaluator(&fakeFiles{err: errors.New("disk offline")}, &fakeQuota{}, true)
	if _, err := broken.CanDownload(ctx, other, note); !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestCanDelete(t *testing.T) {
	ev := newEvaluator(&fakeFiles{}, &fakeQuota{}, true)

	if err := ev.CanDelete(student, note); err != nil {
		t.Errorf("owner should delete: %v", err)
	}

	if err := ev.CanDelete(admin, note); err != nil {
		t.Errorf("admin should delete: %v", err)
	}

	for _, u := range []*model.User{other, guest, premium} {
		err := ev.CanDelete(u, note)
		if !errors.Is(err, apperr.ErrForbidden) || apperr.MessageOf(err) != policy.MsgNotOwner {
			t.Errorf("user %d: expected ErrForbidden, got %v", u.ID, err)
		}
	}

	if err := ev.CanDelete(&model.User{ID: 1, Role: "root"}, note); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("unknown role must be rejected, got %v", err)
	}
}

func TestCanGenerateSummary(t *testing.T) {
	ev := newEvaluator(&fakeFiles{}, &fakeQuota{}, true)

	if err := ev.CanGenerateSummary(student, note); !errors.Is(err, apperr.ErrPremiumRequired) {
		t.Errorf("free user: expected ErrPremiumRequired, got %v", err)
	}

	for _, u := range []*model.User{premium, admin} {
		if err := ev.CanGenerateSummary(u, note); err != nil {
			t.Errorf("user %d should generate: %v", u.ID, err)
		}
	}

	summarized := &model.Note{ID: 10, Summary: "already"}
	if err := ev.CanGenerateSummary(premium, summarized); err != nil {
		t.Errorf("regenerate allowed by default: %v", err)
	}

	strict := newEvaluator(&fakeFiles{}, &fakeQuota{}, false)
	if err := strict.CanGenerateSummary(premium, summarized); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected ErrConflict when regeneration disabled, got %v", err)
	}
}

func TestCanVerify(t *testing.T) {
	ev := newEvaluator(&fakeFiles{}, &fakeQuota{}, true)

	if err := ev.CanVerify(admin); err != nil {
		t.Errorf("admin should verify: %v", err)
	}

	if err := ev.CanVerify(premium); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	if err := ev.CanVerify(nil); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}
