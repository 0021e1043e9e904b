package service_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/storage/blob"
	"github.com/yeisme/notesphere/pkg/internal/testutil"
	"github.com/yeisme/notesphere/pkg/queue"
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
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type env struct {
	db    *gorm.DB
	blobs *blob.LocalStore
	clock *clock
	cfg   *configs.AppConfig
	mq    queue.MessagePublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()

	blobs, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	return &env{
		db:    testutil.NewDB(t),
		blobs: blobs,
		clock: &clock{now: baseTime},
		cfg:   testutil.Config(t),
	}
}

func (e *env) deps() service.Deps {
	return service.Deps{
		DB:     e.db,
		Blob:   e.blobs,
		MQ:     e.mq,
		Config: e.cfg,
		Now:    e.clock.Now,
	}
}

func (e *env) user(t *testing.T, opts ...testutil.UserOption) *model.User {
	t.Helper()

	return testutil.CreateUser(t, e.db, append([]testutil.UserOption{testutil.WithQuota(0, baseTime)}, opts...)...)
}

// storedNote 创建笔记并写入对应文件.
func (e *env) storedNote(t *testing.T, uploader *model.User, mutate ...func(*model.Note)) *model.Note {
	t.Helper()

	n := testutil.CreateNote(t, e.db, uploader, mutate...)

	body := []byte("%PDF-1.4 lecture notes")
	if err := e.blobs.Put(context.Background(), n.FileRef, bytes.NewReader(body), int64(len(body)), "application/pdf"); err != nil {
		t.Fatalf("put blob: %v", err)
	}

	return n
}

func reload(t *testing.T, db *gorm.DB, u *model.User) *model.User {
	t.Helper()

	var out model.User
	if err := db.First(&out, u.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}

	return &out
}
