package configs

import (
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// BlobBackend 笔记文件的存储后端.
type BlobBackend string

const (
	BlobBackendLocal BlobBackend = "local"
	BlobBackendS3    BlobBackend = "s3"
)

const (
	DefaultBlobBackend    = BlobBackendLocal
	DefaultLocalRoot      = "uploads"
	DefaultMaxUploadBytes = 10 << 20 // 10MB
)

// StorageConfig 笔记文件存储配置.
type StorageConfig struct {
	Backend BlobBackend `mapstructure:"backend"          rule:"oneof=local s3"`
	// LocalRoot 本地文件系统后端的根目录
	LocalRoot      string   `mapstructure:"local_root"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes" rule:"min=1"`
	AllowedExts    []string `mapstructure:"allowed_exts"     rule:"min=1"`
}

// IsAllowedExt 判断扩展名（不含点，大小写不敏感）是否允许上传.
func (c *StorageConfig) IsAllowedExt(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")

	return slices.Contains(c.AllowedExts, ext)
}

func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", DefaultBlobBackend)
	v.SetDefault("storage.local_root", DefaultLocalRoot)
	v.SetDefault("storage.max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("storage.allowed_exts", []string{"pdf", "doc", "docx"})
}
