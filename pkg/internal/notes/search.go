package notes

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
)

// 排序字段.
const (
	SortCreatedAt = "createdAt"
	SortDownloads = "downloads"
	SortRating    = "rating"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query 笔记检索条件.
type Query struct {
	// Search 在标题、课程、课程代码与描述中模糊匹配
	Search      string
	Institution string
	Course      string
	Lecturer    string
	Tags        string
	FileType    model.FileType
	// Verified 为 nil 时不过滤
	Verified *bool
	SortBy   string
	// Order 只对 createdAt 排序生效，asc 或 desc
	Order string
	Page  int
	Limit int
}

// Normalize 补齐分页与排序默认值.
func (q *Query) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}

	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}

	q.Limit = min(q.Limit, MaxLimit)

	switch q.SortBy {
	case SortDownloads, SortRating:
	default:
		q.SortBy = SortCreatedAt
	}

	if !strings.EqualFold(q.Order, "asc") {
		q.Order = "desc"
	} else {
		q.Order = "asc"
	}
}

// Page 分页结果.
type Page struct {
	Notes       []model.Note `json:"notes"`
	TotalPages  int64        `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	TotalNotes  int64        `json:"totalNotes"`
}

func like(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// tagsColumn 不同方言下把 JSON 列当作文本比较.
func tagsColumn(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "LOWER(tags::text)"
	}

	return "LOWER(tags)"
}

func (s *Store) filter(db *gorm.DB, q Query) *gorm.DB {
	if v := strings.TrimSpace(q.Search); v != "" {
		p := like(v)
		db = db.Where(
			"LOWER(title) LIKE ? OR LOWER(course) LIKE ? OR LOWER(course_code) LIKE ? OR LOWER(description) LIKE ?",
			p, p, p, p,
		)
	}

	if q.Institution != "" {
		db = db.Where("LOWER(institution) LIKE ?", like(q.Institution))
	}

	if q.Course != "" {
		db = db.Where("LOWER(course) LIKE ?", like(q.Course))
	}

	if q.Lecturer != "" {
		db = db.Where("LOWER(lecturer) LIKE ?", like(q.Lecturer))
	}

	if q.Tags != "" {
		db = db.Where(tagsColumn(db)+" LIKE ?", like(q.Tags))
	}

	if q.FileType != "" {
		db = db.Where("file_type = ?", q.FileType)
	}

	if q.Verified != nil {
		db = db.Where("verified = ?", *q.Verified)
	}

	return db
}

func order(q Query) []clause.OrderByColumn {
	switch q.SortBy {
	case SortDownloads:
		return []clause.OrderByColumn{{Column: clause.Column{Name: "downloads"}, Desc: true}}
	case SortRating:
		return []clause.OrderByColumn{{Column: clause.Column{Name: "rating"}, Desc: true}}
	default:
		return []clause.OrderByColumn{{Column: clause.Column{Name: "created_at"}, Desc: q.Order == "desc"}}
	}
}

// Search 按条件分页检索笔记.
func (s *Store) Search(ctx context.Context, q Query) (*Page, error) {
	q.Normalize()

	base := s.db.WithContext(ctx).Model(&model.Note{})

	var total int64
	if err := s.filter(base, q).Count(&total).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	cols := append(order(q), clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})

	list := make([]model.Note, 0, q.Limit)

	err := withUploader(s.filter(s.db.WithContext(ctx).Model(&model.Note{}), q)).
		Order(clause.OrderBy{Columns: cols}).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&list).Error
	if err != nil {
		return nil, apperr.Storage(err)
	}

	return &Page{
		Notes:       list,
		TotalPages:  (total + int64(q.Limit) - 1) / int64(q.Limit),
		CurrentPage: q.Page,
		TotalNotes:  total,
	}, nil
}
