// Package blob 定义笔记文件的存储抽象.
// 对象键由 NewKey 生成，对调用方不透明.
package blob

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid"
)

// ErrNotFound 对象不存在.
var ErrNotFound = errors.New("blob: object not found")

// Info 对象元信息.
type Info struct {
	Key         string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Store 文件存储接口.
type Store interface {
	// Put 写入对象，size<0 表示未知长度.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Exists 检查对象是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Open 打开对象用于流式读取，调用方负责关闭.
	Open(ctx context.Context, key string) (io.ReadCloser, Info, error)
	// Delete 删除对象，对象不存在时不报错.
	Delete(ctx context.Context, key string) error
	// Ping 检查后端可用性.
	Ping(ctx context.Context) error
}

// NewKey 生成按时间排序的对象键，保留原扩展名.
func NewKey(ext string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)

	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return id.String()
	}

	return id.String() + "." + ext
}
