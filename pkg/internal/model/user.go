package model

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型.
type User struct {
	ID           uint   `gorm:"primaryKey"                    json:"id"`
	Name         string `gorm:"size:255;not null"             json:"name"`
	Email        string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:255;not null"             json:"-"`
	Institution  string `gorm:"size:255;not null;index"       json:"institution"`
	// Level 年级，例如 Level 100
	Level              string     `gorm:"size:64;not null"                  json:"level"`
	Role               Role       `gorm:"size:16;not null;default:student"  json:"role"`
	IsPremium          bool       `gorm:"not null;default:false;index"      json:"isPremium"`
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry,omitempty"`
	Bio                string     `gorm:"type:text"                         json:"bio,omitempty"`
	IsActive           bool       `gorm:"not null;default:true"             json:"isActive"`
	// WeeklyDownloads 当前配额窗口内已消耗的下载次数
	WeeklyDownloads int `gorm:"not null;default:0" json:"weeklyDownloads"`
	// LastDownloadReset 当前配额窗口的起点
	LastDownloadReset time.Time `gorm:"not null" json:"lastDownloadReset"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"-"`
}

// IsAdmin 是否为管理员.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsSubscriptionActive 会员有效：标记为会员且未过期.
func (u *User) IsSubscriptionActive(now time.Time) bool {
	if u == nil || !u.IsPremium || u.SubscriptionExpiry == nil {
		return false
	}

	return now.Before(*u.SubscriptionExpiry)
}

// BeforeCreate 补齐配额窗口起点与默认角色.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.LastDownloadReset.IsZero() {
		u.LastDownloadReset = time.Now().UTC()
	}

	if u.Role == "" {
		u.Role = RoleStudent
	}

	return nil
}
