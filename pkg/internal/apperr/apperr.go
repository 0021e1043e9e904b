// Package apperr 定义业务层的类型化错误.
//
// 每种错误类别对应一个哨兵错误，调用方通过 errors.Is 判断类别，
// 通过 errors.As 取得 *Error 以读取面向用户的提示信息.
package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别.
type Kind string

const (
	KindUnauthenticated    Kind = "unauthenticated"
	KindForbidden          Kind = "forbidden"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindPremiumRequired    Kind = "premium_required"
	KindNotFound           Kind = "not_found"
	KindFileMissing        Kind = "file_missing"
	KindInvalidRating      Kind = "invalid_rating"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindInvalid            Kind = "invalid"
	KindConflict           Kind = "conflict"
)

// 哨兵错误，供 errors.Is 使用.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrPremiumRequired    = errors.New("premium required")
	ErrNotFound           = errors.New("not found")
	ErrFileMissing        = errors.New("file missing")
	ErrInvalidRating      = errors.New("invalid rating")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalid            = errors.New("invalid argument")
	ErrConflict           = errors.New("conflict")
)

var sentinels = map[Kind]error{
	KindUnauthenticated:    ErrUnauthenticated,
	KindForbidden:          ErrForbidden,
	KindQuotaExceeded:      ErrQuotaExceeded,
	KindPremiumRequired:    ErrPremiumRequired,
	KindNotFound:           ErrNotFound,
	KindFileMissing:        ErrFileMissing,
	KindInvalidRating:      ErrInvalidRating,
	KindStorageUnavailable: ErrStorageUnavailable,
	KindInvalid:            ErrInvalid,
	KindConflict:           ErrConflict,
}

// Error 携带类别、用户可读信息以及底层原因.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrXxx) 按类别匹配.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]

	return ok && s == target
}

// New 构造指定类别的错误.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap 以指定类别包装底层错误.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf 返回错误的类别，非 *Error 时返回空字符串.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}

	return ""
}

// MessageOf 返回面向用户的提示信息.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}

	return err.Error()
}

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }
func Forbidden(msg string) *Error       { return New(KindForbidden, msg) }
func QuotaExceeded(msg string) *Error   { return New(KindQuotaExceeded, msg) }
func PremiumRequired(msg string) *Error { return New(KindPremiumRequired, msg) }
func NotFound(msg string) *Error        { return New(KindNotFound, msg) }
func FileMissing(msg string) *Error     { return New(KindFileMissing, msg) }
func InvalidRating(msg string) *Error   { return New(KindInvalidRating, msg) }
func Invalid(msg string) *Error         { return New(KindInvalid, msg) }
func Conflict(msg string) *Error        { return New(KindConflict, msg) }

// Storage 把持久化层错误包装为 StorageUnavailable.
func Storage(err error) *Error {
	return Wrap(KindStorageUnavailable, "storage unavailable", err)
}
