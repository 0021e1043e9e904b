// Package notes 笔记记录的持久化与计数维护.
package notes

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
)

// NoteNotFoundMessage 笔记不存在时的提示.
const NoteNotFoundMessage = "Note not found"

// Store 笔记存储.
type Store struct {
	db *gorm.DB
}

// NewStore 创建笔记存储.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 返回底层连接.
func (s *Store) DB() *gorm.DB { return s.db }

func withUploader(db *gorm.DB) *gorm.DB {
	return db.Preload("Uploader", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "institution", "level")
	})
}

// translate 把 gorm 错误转换为业务错误.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(NoteNotFoundMessage)
	default:
		return apperr.Storage(err)
	}
}

// Create 写入新笔记，计数字段一律从零开始.
func (s *Store) Create(ctx context.Context, note *model.Note) error {
	if note.FileSize <= 0 {
		return apperr.Invalid("file size must be positive")
	}

	if _, ok := model.ParseFileType(string(note.FileType)); !ok {
		return apperr.Invalid(fmt.Sprintf("unsupported file type %q", note.FileType))
	}

	note.ID = 0
	note.Downloads = 0
	note.Rating = 0
	note.RatingCount = 0
	note.Verified = false

	return translate(s.db.WithContext(ctx).Create(note).Error)
}

// Get 按 ID 读取笔记及上传者概要.
func (s *Store) Get(ctx context.Context, id uint) (*model.Note, error) {
	var note model.Note
	if err := withUploader(s.db.WithContext(ctx)).First(&note, id).Error; err != nil {
		return nil, translate(err)
	}

	return &note, nil
}

// Delete 删除笔记记录，下载流水保留.
func (s *Store) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Note{}, id)
	if res.Error != nil {
		return apperr.Storage(res.Error)
	}

	if res.RowsAffected == 0 {
		return apperr.NotFound(NoteNotFoundMessage)
	}

	return nil
}

// IncrementDownloads 原子地把下载数加一，返回新值.
func (s *Store) IncrementDownloads(ctx context.Context, id uint) (int64, error) {
	var downloads int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Note{}).
			Where("id = ?", id).
			UpdateColumn("downloads", gorm.Expr("downloads + ?", 1))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&model.Note{}).Select("downloads").Where("id = ?", id).Scan(&downloads).Error
	})
	if err != nil {
		return 0, translate(err)
	}

	return downloads, nil
}

// ApplyRating 以增量均值的方式合并一次评分，value 必须在 [0, 5].
// 新均值与计数在同一条 UPDATE 中计算.
func (s *Store) ApplyRating(ctx context.Context, id uint, value float64) (*model.Note, error) {
	if value < 0 || value > model.MaxRating || math.IsNaN(value) {
		return nil, apperr.InvalidRating(fmt.Sprintf("rating must be between 0 and %g", model.MaxRating))
	}

	var note model.Note

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// rating 先于 rating_count 赋值，MySQL 按书写顺序求值
		res := tx.Model(&model.Note{}).
			Where("id = ?", id).
			UpdateColumns(map[string]any{
				"rating":       gorm.Expr("(rating * rating_count + ?) / (rating_count + 1)", value),
				"rating_count": gorm.Expr("rating_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return withUploader(tx).First(&note, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}

	return &note, nil
}

// SetVerified 设置审核标记，不影响计数.
func (s *Store) SetVerified(ctx context.Context, id uint, verified bool) (*model.Note, error) {
	var note model.Note

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Note{}).Where("id = ?", id).Update("verified", verified)
		if res.Error != nil {
			return res.Error
		}

		// 值未变化时部分驱动返回 0 行
		return withUploader(tx).First(&note, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}

	return &note, nil
}

// SetSummary 写入摘要文本.
func (s *Store) SetSummary(ctx context.Context, id uint, summary string) error {
	res := s.db.WithContext(ctx).Model(&model.Note{}).Where("id = ?", id).Update("summary", summary)
	if res.Error != nil {
		return apperr.Storage(res.Error)
	}

	if res.RowsAffected == 0 {
		return apperr.NotFound(NoteNotFoundMessage)
	}

	return nil
}

// ListByUploader 返回某用户上传的笔记，最新的在前.
func (s *Store) ListByUploader(ctx context.Context, uploaderID uint) ([]model.Note, error) {
	var list []model.Note

	err := s.db.WithContext(ctx).
		Where("uploader_id = ?", uploaderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, apperr.Storage(err)
	}

	return list, nil
}
