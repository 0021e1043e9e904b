// Package testutil 测试用的数据库与数据构造工具.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/model"
	dbc "github.com/yeisme/notesphere/pkg/internal/storage/db"
)

var seq atomic.Int64

// NewDB 打开一个独立的内存 SQLite 数据库并完成迁移.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &configs.DBConfig{
		Type:         configs.SQLite,
		Database:     "test",
		MaxIdleConns: 1,
		AutoMigrate:  true,
		DSN:          fmt.Sprintf("file:notesphere_test_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), seq.Add(1)),
	}

	client, err := dbc.Open(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client.DB
}

// Config 返回全部取默认值的配置.
func Config(t testing.TB) *configs.AppConfig {
	t.Helper()

	v := viper.New()
	configs.SetDefaults(v)

	var cfg configs.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal default config: %v", err)
	}

	cfg.Auth.BcryptCost = 4

	return &cfg
}

// UserOption 修改待创建的用户.
type UserOption func(*model.User)

// AsAdmin 设置为管理员.
func AsAdmin() UserOption {
	return func(u *model.User) { u.Role = model.RoleAdmin }
}

// AsPremium 设置为会员，有效期至 until.
func AsPremium(until time.Time) UserOption {
	return func(u *model.User) {
		u.IsPremium = true
		u.SubscriptionExpiry = &until
	}
}

// WithRole 设置角色.
func WithRole(r model.Role) UserOption {
	return func(u *model.User) { u.Role = r }
}

// WithQuota 设置配额计数与窗口起点.
func WithQuota(used int, windowStart time.Time) UserOption {
	return func(u *model.User) {
		u.WeeklyDownloads = used
		u.LastDownloadReset = windowStart.UTC()
	}
}

// CreateUser 写入一个学生用户.
func CreateUser(t testing.TB, db *gorm.DB, opts ...UserOption) *model.User {
	t.Helper()

	n := seq.Add(1)
	u := &model.User{
		Name:         fmt.Sprintf("Student %d", n),
		Email:        fmt.Sprintf("student%d@example.edu", n),
		PasswordHash: "x",
		Institution:  "University of Ghana",
		Level:        "Level 200",
		Role:         model.RoleStudent,
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(u)
	}

	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	return u
}

// CreateNote 写入一条属于 uploader 的笔记.
func CreateNote(t testing.TB, db *gorm.DB, uploader *model.User, mutate ...func(*model.Note)) *model.Note {
	t.Helper()

	n := seq.Add(1)
	note := &model.Note{
		Title:       fmt.Sprintf("Lecture Notes %d", n),
		Course:      "Calculus I",
		CourseCode:  "MATH101",
		Lecturer:    "Dr. Mensah",
		Institution: uploader.Institution,
		FileRef:     fmt.Sprintf("notes/%d.pdf", n),
		FileName:    fmt.Sprintf("lecture-%d.pdf", n),
		FileSize:    1024,
		FileType:    model.FileTypePDF,
		UploaderID:  uploader.ID,
		Tags:        []string{"exam", "week1"},
	}

	for _, fn := range mutate {
		fn(note)
	}

	if err := db.Create(note).Error; err != nil {
		t.Fatalf("create note: %v", err)
	}

	return note
}
