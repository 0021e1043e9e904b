// Package policy 笔记下载、删除、摘要与审核的访问控制.
package policy

import (
	"context"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/quota"
)

// 面向用户的提示.
const (
	MsgAuthRequired     = "Authentication required"
	MsgFileMissing      = "File not found on server"
	MsgNotOwner         = "Not authorized to delete this note"
	MsgPremiumRequired  = "Premium subscription required to generate summaries"
	MsgSummaryExists    = "Summary already generated for this note"
	MsgAdminOnly        = "Admin access required"
	MsgUnknownRole      = "Unknown role"
	MsgAccountSuspended = "Account is deactivated"
)

// FileChecker 判断笔记文件是否存在.
type FileChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// QuotaConsumer 检查并扣减下载配额.
type QuotaConsumer interface {
	CheckAndConsume(ctx context.Context, user *model.User) (quota.Decision, error)
}

// Evaluator 访问控制判定器.
type Evaluator struct {
	files           FileChecker
	quota           QuotaConsumer
	allowRegenerate bool
}

// New 创建判定器.
func New(files FileChecker, q QuotaConsumer, cfg configs.SummaryConfig) *Evaluator {
	return &Evaluator{files: files, quota: q, allowRegenerate: cfg.AllowRegenerate}
}

// CanDownload 判定下载请求，通过时已扣减一次配额.
// 文件存在性先于配额检查，缺失文件不会消耗配额.
func (e *Evaluator) CanDownload(ctx context.Context, user *model.User, note *model.Note) (quota.Decision, error) {
	if user == nil {
		return quota.Decision{}, apperr.Unauthenticated(MsgAuthRequired)
	}

	if !user.IsActive {
		return quota.Decision{}, apperr.Forbidden(MsgAccountSuspended)
	}

	ok, err := e.files.Exists(ctx, note.FileRef)
	if err != nil {
		return quota.Decision{}, apperr.Storage(err)
	}

	if !ok {
		return quota.Decision{}, apperr.FileMissing(MsgFileMissing)
	}

	return e.quota.CheckAndConsume(ctx, user)
}

// CanDelete 上传者本人或管理员可以删除.
func (e *Evaluator) CanDelete(user *model.User, note *model.Note) error {
	if user == nil {
		return apperr.Unauthenticated(MsgAuthRequired)
	}

	switch user.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleStudent, model.RoleGuest:
		if note.UploaderID == user.ID {
			return nil
		}

		return apperr.Forbidden(MsgNotOwner)
	default:
		return apperr.Forbidden(MsgUnknownRole)
	}
}

// CanGenerateSummary 会员或管理员可以生成摘要.
func (e *Evaluator) CanGenerateSummary(user *model.User, note *model.Note) error {
	if user == nil {
		return apperr.Unauthenticated(MsgAuthRequired)
	}

	switch user.Role {
	case model.RoleAdmin:
	case model.RoleStudent, model.RoleGuest:
		if !user.IsPremium {
			return apperr.PremiumRequired(MsgPremiumRequired)
		}
	default:
		return apperr.Forbidden(MsgUnknownRole)
	}

	if note.HasSummary() && !e.allowRegenerate {
		return apperr.Conflict(MsgSummaryExists)
	}

	return nil
}

// CanVerify 仅管理员可以审核.
func (e *Evaluator) CanVerify(user *model.User) error {
	if user == nil {
		return apperr.Unauthenticated(MsgAuthRequired)
	}

	switch user.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleStudent, model.RoleGuest:
		return apperr.Forbidden(MsgAdminOnly)
	default:
		return apperr.Forbidden(MsgUnknownRole)
	}
}
