package notes

import (
	"context"
	"time"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
)

// Stats 笔记总体统计.
type Stats struct {
	TotalNotes     int64 `json:"totalNotes"`
	VerifiedNotes  int64 `json:"verifiedNotes"`
	PendingNotes   int64 `json:"pendingNotes"`
	TotalDownloads int64 `json:"totalDownloads"`
}

// Stats 汇总笔记数量与下载量.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	err := s.db.WithContext(ctx).Model(&model.Note{}).
		Select("COUNT(*) AS total_notes, " +
			"COALESCE(SUM(CASE WHEN verified THEN 1 ELSE 0 END), 0) AS verified_notes, " +
			"COALESCE(SUM(downloads), 0) AS total_downloads").
		Scan(&st).Error
	if err != nil {
		return Stats{}, apperr.Storage(err)
	}

	st.PendingNotes = st.TotalNotes - st.VerifiedNotes

	return st, nil
}

// Popular 返回下载量最高的若干笔记.
func (s *Store) Popular(ctx context.Context, limit int) ([]model.Note, error) {
	var list []model.Note

	err := withUploader(s.db.WithContext(ctx)).
		Order("downloads DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, apperr.Storage(err)
	}

	return list, nil
}

// Recent 返回最近上传的若干笔记.
func (s *Store) Recent(ctx context.Context, limit int) ([]model.Note, error) {
	var list []model.Note

	err := withUploader(s.db.WithContext(ctx)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, apperr.Storage(err)
	}

	return list, nil
}

// UploaderTotals 某用户的上传统计.
type UploaderTotals struct {
	Notes     int64 `json:"notes"`
	Downloads int64 `json:"downloads"`
}

// TotalsByUploader 汇总某用户上传的笔记数与被下载次数.
func (s *Store) TotalsByUploader(ctx context.Context, uploaderID uint) (UploaderTotals, error) {
	var t UploaderTotals

	err := s.db.WithContext(ctx).Model(&model.Note{}).
		Select("COUNT(*) AS notes, COALESCE(SUM(downloads), 0) AS downloads").
		Where("uploader_id = ?", uploaderID).
		Scan(&t).Error
	if err != nil {
		return UploaderTotals{}, apperr.Storage(err)
	}

	return t, nil
}

// GroupCount 分组计数.
type GroupCount struct {
	Name      string `json:"name"`
	NoteCount int64  `json:"noteCount"`
}

var groupColumns = map[string]struct{}{
	"institution": {},
	"course":      {},
	"lecturer":    {},
	"file_type":   {},
}

// TopBy 按列分组统计笔记数，列名限定为 institution/course/lecturer/file_type.
func (s *Store) TopBy(ctx context.Context, column string, limit int) ([]GroupCount, error) {
	if _, ok := groupColumns[column]; !ok {
		return nil, apperr.Invalid("unsupported group column " + column)
	}

	var out []GroupCount

	err := s.db.WithContext(ctx).Model(&model.Note{}).
		Select(column + " AS name, COUNT(*) AS note_count").
		Group(column).
		Order("note_count DESC").
		Order(column + " ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, apperr.Storage(err)
	}

	return out, nil
}

// CreatedSince 返回 since 之后上传的笔记时间，用于按月汇总.
func (s *Store) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var out []time.Time

	err := s.db.WithContext(ctx).Model(&model.Note{}).
		Where("created_at >= ?", since.UTC()).
		Order("created_at ASC").
		Pluck("created_at", &out).Error
	if err != nil {
		return nil, apperr.Storage(err)
	}

	return out, nil
}
