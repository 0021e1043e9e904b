package types

import (
	"github.com/yeisme/notesphere/pkg/internal/model"
)

// ListNotesQuery 笔记列表查询参数.
type ListNotesQuery struct {
	Search      string `form:"search"      rule:"omitempty,max=255"`
	Institution string `form:"institution" rule:"omitempty,max=255"`
	Course      string `form:"course"      rule:"omitempty,max=255"`
	Lecturer    string `form:"lecturer"    rule:"omitempty,max=255"`
	Tags        string `form:"tags"        rule:"omitempty,max=255"`
	FileType    string `form:"fileType"    rule:"omitempty,filetype"`
	Verified    *bool  `form:"verified"`
	SortBy      string `form:"sortBy"      rule:"omitempty,oneof=createdAt downloads rating"`
	Order       string `form:"order"       rule:"omitempty,oneof=asc desc ASC DESC"`
	Page        int    `form:"page"        rule:"omitempty,min=1"`
	Limit       int    `form:"limit"       rule:"omitempty,min=1,max=100"`
}

// UploadNoteForm 上传表单中除文件外的字段.
type UploadNoteForm struct {
	Title       string `form:"title"       rule:"required,max=255"`
	Course      string `form:"course"      rule:"required,max=255"`
	CourseCode  string `form:"courseCode"  rule:"omitempty,max=64"`
	Lecturer    string `form:"lecturer"    rule:"omitempty,max=255"`
	Institution string `form:"institution" rule:"required,max=255"`
	// Tags 逗号分隔
	Tags        string `form:"tags"        rule:"omitempty,max=512"`
	Description string `form:"description" rule:"omitempty,max=5000"`
}

// UploadNoteResponse 上传成功的响应.
type UploadNoteResponse struct {
	Message string      `json:"message"`
	Note    *model.Note `json:"note"`
}

// RateRequest 评分请求.
type RateRequest struct {
	Rating *float64 `json:"rating" rule:"required"`
}

// VerifyRequest 审核请求.
type VerifyRequest struct {
	Verified *bool `json:"verified" rule:"required"`
}

// NoteResponse 单条笔记的操作结果.
type NoteResponse struct {
	Message string      `json:"message"`
	Note    *model.Note `json:"note"`
}

// SummaryResponse 摘要生成结果.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// MessageResponse 只有提示信息的响应.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse 错误响应.
// LimitReached 与 PremiumRequired 让客户端展示升级提示.
type ErrorResponse struct {
	Message         string            `json:"message"`
	Code            string            `json:"code,omitempty"`
	LimitReached    bool              `json:"limitReached,omitempty"`
	PremiumRequired bool              `json:"premiumRequired,omitempty"`
	Fields          map[string]string `json:"fields,omitempty"`
}
