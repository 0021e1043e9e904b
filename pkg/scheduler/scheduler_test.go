package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/notesphere/pkg/scheduler"
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	t.Cleanup(func() { _ = s.Shutdown() })

	return s
}

func waitRuns(t *testing.T, s *scheduler.Scheduler, name string, runs int64) scheduler.JobInfo {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if info, ok := s.GetJobInfo(name); ok && info.Runs >= runs {
			return info
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("job %s did not reach %d runs", name, runs)

	return scheduler.JobInfo{}
}

func TestAddCronRejectsDuplicate(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	if err := s.AddCron(context.Background(), "sweep", "0 0 * * *", noop); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.AddCron(context.Background(), "sweep", "0 1 * * *", noop); err == nil {
		t.Fatalf("duplicate job name accepted")
	}

	if err := s.AddCron(context.Background(), "broken", "not a cron", noop); err == nil {
		t.Fatalf("invalid cron accepted")
	}

	if got := len(s.GetJobInfos()); got != 1 {
		t.Fatalf("jobs = %d, want 1", got)
	}
}

func TestRunNowRecordsOutcome(t *testing.T) {
	s := newScheduler(t)

	if err := s.AddCron(context.Background(), "ok", "0 0 1 1 *", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("add ok: %v", err)
	}

	if err := s.AddCron(context.Background(), "fail", "0 0 1 1 *", func(context.Context) error {
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("add fail: %v", err)
	}

	s.Start()

	if err := s.RunNow("ok"); err != nil {
		t.Fatalf("run ok: %v", err)
	}

	if err := s.RunNow("fail"); err != nil {
		t.Fatalf("run fail: %v", err)
	}

	ok := waitRuns(t, s, "ok", 1)
	if ok.Status != scheduler.StatusScheduled || ok.LastSuccess.IsZero() {
		t.Fatalf("ok job info = %+v", ok)
	}

	failed := waitRuns(t, s, "fail", 1)
	if failed.Status != scheduler.StatusError || failed.Error != "boom" || failed.Failures != 1 {
		t.Fatalf("fail job info = %+v", failed)
	}

	if err := s.RunNow("missing"); err == nil {
		t.Fatalf("unknown job ran")
	}
}
