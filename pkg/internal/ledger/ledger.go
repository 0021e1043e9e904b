// Package ledger 下载流水，只追加不修改.
package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
)

// Ledger 下载流水.
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

// New 创建下载流水.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// WithClock 替换时间来源.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Record 追加一条下载记录.
func (l *Ledger) Record(ctx context.Context, userID, noteID uint, origin string) (*model.DownloadLog, error) {
	entry := &model.DownloadLog{
		UserID:       userID,
		NoteID:       noteID,
		DownloadDate: l.now().UTC(),
		IPAddress:    origin,
	}

	if err := l.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	return entry, nil
}

// Filter 流水查询条件，零值字段不参与过滤.
type Filter struct {
	UserID uint
	NoteID uint
	Since  time.Time
	Until  time.Time
	Limit  int
}

func (f Filter) apply(db *gorm.DB) *gorm.DB {
	if f.UserID != 0 {
		db = db.Where("user_id = ?", f.UserID)
	}

	if f.NoteID != 0 {
		db = db.Where("note_id = ?", f.NoteID)
	}

	if !f.Since.IsZero() {
		db = db.Where("download_date >= ?", f.Since.UTC())
	}

	if !f.Until.IsZero() {
		db = db.Where("download_date < ?", f.Until.UTC())
	}

	return db
}

// Count 统计满足条件的下载次数.
func (l *Ledger) Count(ctx context.Context, f Filter) (int64, error) {
	var n int64
	if err := f.apply(l.db.WithContext(ctx).Model(&model.DownloadLog{})).Count(&n).Error; err != nil {
		return 0, apperr.Storage(err)
	}

	return n, nil
}

// CountSince 统计 since 之后的全部下载.
func (l *Ledger) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return l.Count(ctx, Filter{Since: since})
}

// List 按时间倒序列出流水.
func (l *Ledger) List(ctx context.Context, f Filter) ([]model.DownloadLog, error) {
	var list []model.DownloadLog

	db := f.apply(l.db.WithContext(ctx)).Order("download_date DESC").Order("id DESC")
	if f.Limit > 0 {
		db = db.Limit(f.Limit)
	}

	if err := db.Find(&list).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	return list, nil
}

// ListByUser 列出某用户的下载流水.
func (l *Ledger) ListByUser(ctx context.Context, userID uint, limit int) ([]model.DownloadLog, error) {
	return l.List(ctx, Filter{UserID: userID, Limit: limit})
}

// Row 带用户与笔记信息的流水行，用于导出.
type Row struct {
	ID           uint      `json:"id"`
	DownloadDate time.Time `json:"downloadDate"`
	UserID       uint      `json:"userId"`
	UserEmail    string    `json:"userEmail"`
	NoteID       uint      `json:"noteId"`
	NoteTitle    string    `json:"noteTitle"`
	IPAddress    string    `json:"ipAddress"`
}

// Rows 联表查询流水；用户或笔记已删除时对应字段为空.
func (l *Ledger) Rows(ctx context.Context, f Filter) ([]Row, error) {
	var rows []Row

	db := l.db.WithContext(ctx).Table("download_logs AS d").
		Select("d.id, d.download_date, d.user_id, u.email AS user_email, d.note_id, n.title AS note_title, d.ip_address").
		Joins("LEFT JOIN users u ON u.id = d.user_id").
		Joins("LEFT JOIN notes n ON n.id = d.note_id")

	if f.UserID != 0 {
		db = db.Where("d.user_id = ?", f.UserID)
	}

	if f.NoteID != 0 {
		db = db.Where("d.note_id = ?", f.NoteID)
	}

	if !f.Since.IsZero() {
		db = db.Where("d.download_date >= ?", f.Since.UTC())
	}

	if !f.Until.IsZero() {
		db = db.Where("d.download_date < ?", f.Until.UTC())
	}

	db = db.Order("d.download_date DESC").Order("d.id DESC")
	if f.Limit > 0 {
		db = db.Limit(f.Limit)
	}

	if err := db.Scan(&rows).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	return rows, nil
}
