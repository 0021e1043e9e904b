package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultJWTSecret     = "change-me-in-production"
	DefaultJWTExpiration = 30 * 24 * time.Hour
	DefaultJWTIssuer     = "notesphere"
	DefaultBcryptCost    = 10
)

// AuthConfig 身份认证配置，使用 HS256 JWT 作为访问令牌.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"     rule:"required,min=8"`
	JWTExpiration time.Duration `mapstructure:"jwt_expiration" rule:"gt=0"`
	JWTIssuer     string        `mapstructure:"jwt_issuer"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"    rule:"min=4,max=31"`
	// SkipPaths 跳过身份解析的路径前缀（如 /metrics、/api/health）
	SkipPaths []string `mapstructure:"skip_paths"`
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.jwt_secret", DefaultJWTSecret)
	v.SetDefault("auth.jwt_expiration", DefaultJWTExpiration)
	v.SetDefault("auth.jwt_issuer", DefaultJWTIssuer)
	v.SetDefault("auth.bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/swagger",
	})
}
