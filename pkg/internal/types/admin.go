package types

import (
	"time"

	"github.com/yeisme/notesphere/pkg/internal/model"
)

// ListUsersQuery 用户列表查询参数.
type ListUsersQuery struct {
	Search string `form:"search" rule:"omitempty,max=255"`
	Page   int    `form:"page"   rule:"omitempty,min=1"`
	Limit  int    `form:"limit"  rule:"omitempty,min=1,max=100"`
}

// UpdateUserRequest 管理员修改用户，未提供的字段保持不变.
type UpdateUserRequest struct {
	IsActive           *bool      `json:"isActive"`
	IsPremium          *bool      `json:"isPremium"`
	Role               *string    `json:"role"               rule:"omitempty,role"`
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry"`
}

// UpdateUserResponse 修改用户的结果.
type UpdateUserResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// DashboardStats 看板统计数字.
type DashboardStats struct {
	TotalUsers         int64 `json:"totalUsers"`
	ActiveUsers        int64 `json:"activeUsers"`
	PremiumUsers       int64 `json:"premiumUsers"`
	TotalNotes         int64 `json:"totalNotes"`
	VerifiedNotes      int64 `json:"verifiedNotes"`
	PendingNotes       int64 `json:"pendingNotes"`
	TotalDownloads     int64 `json:"totalDownloads"`
	DownloadsThisMonth int64 `json:"downloadsThisMonth"`
}

// GroupCount 分组计数.
type GroupCount struct {
	Name      string `json:"name"`
	NoteCount int64  `json:"noteCount"`
}

// MonthCount 按月计数.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// DashboardResponse 管理看板.
type DashboardResponse struct {
	Stats           DashboardStats `json:"stats"`
	TopNotes        []model.Note   `json:"topNotes"`
	TopInstitutions []GroupCount   `json:"topInstitutions"`
	TopCourses      []GroupCount   `json:"topCourses"`
	RecentUploads   []model.Note   `json:"recentUploads"`
	MonthlyUploads  []MonthCount   `json:"monthlyUploads"`
}

// ExportDownloadsQuery 导出下载流水的参数.
type ExportDownloadsQuery struct {
	UserID uint      `form:"userId"`
	NoteID uint      `form:"noteId"`
	Since  time.Time `form:"since" time_format:"2006-01-02"`
	Until  time.Time `form:"until" time_format:"2006-01-02"`
	Limit  int       `form:"limit" rule:"omitempty,min=1,max=100000"`
}
