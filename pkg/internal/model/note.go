package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// FileType 笔记文件类型.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOC  FileType = "doc"
	FileTypeDOCX FileType = "docx"
)

// ParseFileType 由扩展名（可带点）得到文件类型.
func ParseFileType(ext string) (FileType, bool) {
	switch ft := FileType(strings.TrimPrefix(strings.ToLower(ext), ".")); ft {
	case FileTypePDF, FileTypeDOC, FileTypeDOCX:
		return ft, true
	default:
		return "", false
	}
}

// MaxRating 评分上限.
const MaxRating = 5.0

// Note 笔记模型.
type Note struct {
	ID          uint   `gorm:"primaryKey"             json:"id"`
	Title       string `gorm:"size:255;not null;index" json:"title"`
	Course      string `gorm:"size:255;not null;index" json:"course"`
	CourseCode  string `gorm:"size:64"                 json:"courseCode,omitempty"`
	Lecturer    string `gorm:"size:255"                json:"lecturer,omitempty"`
	Institution string `gorm:"size:255;not null;index" json:"institution"`
	// FileRef 文件存储中的对象键
	FileRef    string   `gorm:"size:512;not null" json:"-"`
	FileName   string   `gorm:"size:512;not null" json:"fileName"`
	FileSize   int64    `gorm:"not null"          json:"fileSize"`
	FileType   FileType `gorm:"size:8;not null"   json:"fileType"`
	UploaderID uint     `gorm:"not null;index"    json:"uploaderId"`
	Uploader   *User    `gorm:"foreignKey:UploaderID"  json:"uploader,omitempty"`

	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Description string                      `gorm:"type:text" json:"description,omitempty"`
	Summary     string                      `gorm:"type:text" json:"summary,omitempty"`

	Downloads   int64   `gorm:"not null;default:0;index"     json:"downloads"`
	Verified    bool    `gorm:"not null;default:false;index" json:"verified"`
	Rating      float64 `gorm:"not null;default:0;index"     json:"rating"`
	RatingCount int64   `gorm:"not null;default:0"           json:"ratingCount"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasSummary 是否已有摘要.
func (n *Note) HasSummary() bool {
	return strings.TrimSpace(n.Summary) != ""
}

// DownloadLog 下载流水，每次成功下载一条，写入后不再修改.
// 删除笔记或用户时保留流水记录.
type DownloadLog struct {
	ID           uint      `gorm:"primaryKey"     json:"id"`
	UserID       uint      `gorm:"not null;index" json:"userId"`
	NoteID       uint      `gorm:"not null;index" json:"noteId"`
	DownloadDate time.Time `gorm:"not null;index" json:"downloadDate"`
	IPAddress    string    `gorm:"size:64"        json:"ipAddress,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AllModels 需要自动迁移的模型.
func AllModels() []any {
	return []any{&User{}, &Note{}, &DownloadLog{}}
}
