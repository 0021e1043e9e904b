package queue

import "time"

// EventHeader 所有事件的通用头部.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于转储后定位来源.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 负载版本.
	Version string `json:"version,omitempty"`
}

// Message Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// NoteRef 事件中引用的笔记概要.
type NoteRef struct {
	NoteID      uint   `json:"note_id"`
	Title       string `json:"title,omitempty"`
	Course      string `json:"course,omitempty"`
	Institution string `json:"institution,omitempty"`
	UploaderID  uint   `json:"uploader_id,omitempty"`
}

// NoteUploadedPayload 上传完成.
type NoteUploadedPayload struct {
	Note     NoteRef `json:"note"`
	FileName string  `json:"file_name"`
	FileType string  `json:"file_type"`
	FileSize int64   `json:"file_size"`
}

// NoteDownloadedPayload 下载成功.
type NoteDownloadedPayload struct {
	Note      NoteRef `json:"note"`
	UserID    uint    `json:"user_id"`
	Downloads int64   `json:"downloads"`
	Origin    string  `json:"origin,omitempty"`
	// Remaining 下载后剩余配额，-1 表示不限
	Remaining int `json:"remaining"`
}

// NoteDeletedPayload 笔记删除.
type NoteDeletedPayload struct {
	Note      NoteRef `json:"note"`
	DeletedBy uint    `json:"deleted_by"`
}

// NoteVerifiedPayload 审核标记变化.
type NoteVerifiedPayload struct {
	Note       NoteRef `json:"note"`
	Verified   bool    `json:"verified"`
	VerifiedBy uint    `json:"verified_by"`
}

// NoteRatedPayload 新评分.
type NoteRatedPayload struct {
	Note        NoteRef `json:"note"`
	Value       float64 `json:"value"`
	Rating      float64 `json:"rating"`
	RatingCount int64   `json:"rating_count"`
}

// NoteSummarizedPayload 摘要生成.
type NoteSummarizedPayload struct {
	Note        NoteRef `json:"note"`
	RequestedBy uint    `json:"requested_by"`
	Regenerated bool    `json:"regenerated,omitempty"`
}

// QuotaExceededPayload 配额拒绝.
type QuotaExceededPayload struct {
	UserID      uint      `json:"user_id"`
	NoteID      uint      `json:"note_id"`
	Limit       int       `json:"limit"`
	WindowStart time.Time `json:"window_start"`
}

// SubscriptionExpiredPayload 会员到期.
type SubscriptionExpiredPayload struct {
	UserIDs []uint `json:"user_ids"`
}
