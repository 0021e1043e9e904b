package quota_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/quota"
	"github.com/yeisme/notesphere/pkg/internal/testutil"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTracker(t *testing.T) (*quota.Tracker, *clock, func(...testutil.UserOption) *model.User) {
	t.Helper()

	db := testutil.NewDB(t)
	clk := &clock{now: baseTime}
	tr := quota.NewTracker(db, configs.QuotaConfig{WeeklyLimit: 3, Window: 7 * 24 * time.Hour}, quota.WithClock(clk.Now))

	mk := func(opts ...testutil.UserOption) *model.User {
		opts = append([]testutil.UserOption{testutil.WithQuota(0, baseTime)}, opts...)
		return testutil.CreateUser(t, db, opts...)
	}

	return tr, clk, mk
}

func TestCheckAndConsume_FreeUserLimit(t *testing.T) {
	tr, clk, mk := newTracker(t)
	ctx := context.Background()
	u := mk()

	for i := 1; i <= 3; i++ {
		d, err := tr.CheckAndConsume(ctx, u)
		if err != nil {
			t.Fatalf("download %d: unexpected error %v", i, err)
		}

		if !d.Allowed || d.Used != i || d.Remaining != 3-i {
			t.Fatalf("download %d: unexpected decision %+v", i, d)
		}

		clk.Advance(time.Hour)
	}

	d, err := tr.CheckAndConsume(ctx, u)
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	if apperr.MessageOf(err) != quota.LimitReachedMessage {
		t.Errorf("unexpected message %q", apperr.MessageOf(err))
	}

	if d.Allowed || d.Used != 3 || d.Remaining != 0 {
		t.Errorf("unexpected deny decision %+v", d)
	}

	if u.WeeklyDownloads != 3 {
		t.Errorf("user counter not refreshed: %d", u.WeeklyDownloads)
	}
}

func TestCheckAndConsume_ResetAfterWindow(t *testing.T) {
	tr, clk, mk := newTracker(t)
	ctx := context.Background()
	u := mk(testutil.WithQuota(3, baseTime))

	clk.Advance(6*24*time.Hour + 23*time.Hour)

	if _, err := tr.CheckAndConsume(ctx, u); !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("window not elapsed yet, expected deny, got %v", err)
	}

	clk.Advance(time.Hour)

	d, err := tr.CheckAndConsume(ctx, u)
	if err != nil {
		t.Fatalf("expected permit after window, got %v", err)
	}

	if !d.Reset || d.Used != 1 || d.Remaining != 2 {
		t.Errorf("unexpected decision after reset %+v", d)
	}

	if !u.LastDownloadReset.Equal(clk.Now()) {
		t.Errorf("window start = %v, want %v", u.LastDownloadReset, clk.Now())
	}
}

func TestCheckAndConsume_ResetPersistsOnDeny(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: baseTime}

	// 限额为 0 时重置后依然拒绝
	db := testutil.NewDB(t)
	zero := quota.NewTracker(db, configs.QuotaConfig{WeeklyLimit: 0, Window: time.Hour}, quota.WithClock(clk.Now))
	u := testutil.CreateUser(t, db, testutil.WithQuota(2, baseTime.Add(-2*time.Hour)))

	d, err := zero.CheckAndConsume(ctx, u)
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("expected deny, got %v", err)
	}

	if !d.Reset || u.WeeklyDownloads != 0 || !u.LastDownloadReset.Equal(baseTime) {
		t.Errorf("reset not persisted: decision=%+v user=%d/%v", d, u.WeeklyDownloads, u.LastDownloadReset)
	}

	var stored model.User
	if err := db.First(&stored, u.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}

	if stored.WeeklyDownloads != 0 || !stored.LastDownloadReset.Equal(baseTime) {
		t.Errorf("stored user = %d/%v", stored.WeeklyDownloads, stored.LastDownloadReset)
	}
}

func TestCheckAndConsume_Exempt(t *testing.T) {
	tr, _, mk := newTracker(t)
	ctx := context.Background()

	cases := map[string]*model.User{
		"admin":   mk(testutil.AsAdmin(), testutil.WithQuota(3, baseTime)),
		"premium": mk(testutil.AsPremium(baseTime.Add(30*24*time.Hour)), testutil.WithQuota(3, baseTime)),
	}

	for name, u := range cases {
		t.Run(name, func(t *testing.T) {
			for range 5 {
				d, err := tr.CheckAndConsume(ctx, u)
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}

				if !d.Allowed || d.Metered || d.Remaining != quota.Unlimited {
					t.Fatalf("unexpected decision %+v", d)
				}
			}

			if u.WeeklyDownloads != 3 {
				t.Errorf("exempt user counter changed: %d", u.WeeklyDownloads)
			}
		})
	}
}

func TestCheckAndConsume_GuestIsMetered(t *testing.T) {
	tr, _, mk := newTracker(t)
	u := mk(testutil.WithRole(model.RoleGuest), testutil.WithQuota(3, baseTime))

	if _, err := tr.CheckAndConsume(context.Background(), u); !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("expected guest to be metered, got %v", err)
	}
}

func TestCheckAndConsume_Unauthenticated(t *testing.T) {
	tr, _, _ := newTracker(t)

	if _, err := tr.CheckAndConsume(context.Background(), nil); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestCheckAndConsume_Concurrent(t *testing.T) {
	tr, _, mk := newTracker(t)
	u := mk(testutil.WithQuota(2, baseTime))

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
		denied  atomic.Int32
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			// 每个请求持有自己的用户副本
			cp := *u

			_, err := tr.CheckAndConsume(context.Background(), &cp)

			switch {
			case err == nil:
				allowed.Add(1)
			case errors.Is(err, apperr.ErrQuotaExceeded):
				denied.Add(1)
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}

	wg.Wait()

	if allowed.Load() != 1 || denied.Load() != 7 {
		t.Fatalf("allowed=%d denied=%d, want 1/7", allowed.Load(), denied.Load())
	}
}

func TestRelease(t *testing.T) {
	tr, _, mk := newTracker(t)
	ctx := context.Background()
	u := mk(testutil.WithQuota(3, baseTime))

	if err := tr.Release(ctx, u); err != nil {
		t.Fatalf("release: %v", err)
	}

	if u.WeeklyDownloads != 2 {
		t.Fatalf("counter after release = %d", u.WeeklyDownloads)
	}

	if _, err := tr.CheckAndConsume(ctx, u); err != nil {
		t.Fatalf("expected permit after release, got %v", err)
	}

	fresh := mk()
	if err := tr.Release(ctx, fresh); err != nil {
		t.Fatalf("release on empty counter: %v", err)
	}

	if fresh.WeeklyDownloads != 0 {
		t.Errorf("counter went negative: %d", fresh.WeeklyDownloads)
	}
}

func TestRemaining(t *testing.T) {
	tr, _, _ := newTracker(t)

	u := &model.User{Role: model.RoleStudent, WeeklyDownloads: 2, LastDownloadReset: baseTime}

	if got := tr.Remaining(u, baseTime.Add(time.Hour)); got != 1 {
		t.Errorf("remaining in window = %d, want 1", got)
	}

	if got := tr.Remaining(u, baseTime.Add(7*24*time.Hour)); got != 3 {
		t.Errorf("remaining after window = %d, want 3", got)
	}

	admin := &model.User{Role: model.RoleAdmin}
	if got := tr.Remaining(admin, baseTime); got != quota.Unlimited {
		t.Errorf("admin remaining = %d", got)
	}

	if got := tr.NextReset(u); !got.Equal(baseTime.Add(7 * 24 * time.Hour)) {
		t.Errorf("next reset = %v", got)
	}
}

func TestRefresh(t *testing.T) {
	tr, clk, mk := newTracker(t)
	ctx := context.Background()
	u := mk(testutil.WithQuota(3, baseTime))

	if reset, err := tr.Refresh(ctx, u); err != nil || reset {
		t.Fatalf("refresh inside window: reset=%v err=%v", reset, err)
	}

	clk.Advance(8 * 24 * time.Hour)

	reset, err := tr.Refresh(ctx, u)
	if err != nil || !reset {
		t.Fatalf("refresh after window: reset=%v err=%v", reset, err)
	}

	if u.WeeklyDownloads != 0 || tr.Remaining(u, clk.Now()) != 3 {
		t.Errorf("unexpected state after refresh: %+v", u)
	}
}
