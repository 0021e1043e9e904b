package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/configs"
	ctxPkg "github.com/yeisme/notesphere/pkg/context"
	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/auth"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/types"
)

const (
	MsgNoToken     = "Not authorized, no token"
	MsgTokenFailed = "Not authorized, token failed"

	identityErrKey = "identity_error"
)

// ResolveFunc 把访问令牌解析为用户.
type ResolveFunc func(ctx context.Context, token string) (*model.User, error)

// IdentityMiddleware 解析 Authorization: Bearer 令牌并把调用者写入 request context.
// 没有令牌时按匿名请求放行；令牌无效时记录错误，由 RequireAuth 拒绝.
func IdentityMiddleware(conf configs.AuthConfig, resolve ResolveFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if strings.TrimSpace(header) == "" {
			c.Next()
			return
		}

		token, err := auth.ExtractBearerToken(header)
		if err != nil {
			c.Set(identityErrKey, apperr.Unauthenticated(MsgTokenFailed))
			c.Next()

			return
		}

		user, err := resolve(c.Request.Context(), token)
		if err != nil {
			c.Set(identityErrKey, err)
			c.Next()

			return
		}

		c.Request = c.Request.WithContext(ctxPkg.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// CurrentUser 返回已认证的调用者，匿名请求返回 nil.
func CurrentUser(c *gin.Context) *model.User {
	return ctxPkg.GetUser(c.Request.Context())
}

// RequireAuth 要求请求携带有效令牌.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}

		msg := MsgNoToken

		if err := identityError(c); err != nil {
			switch apperr.KindOf(err) {
			case apperr.KindUnauthenticated:
				msg = apperr.MessageOf(err)
			case apperr.KindStorageUnavailable:
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, types.ErrorResponse{
					Message: "Service temporarily unavailable",
					Code:    string(apperr.KindStorageUnavailable),
				})

				return
			default:
				msg = MsgTokenFailed
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
			Message: msg,
			Code:    string(apperr.KindUnauthenticated),
		})
	}
}

func identityError(c *gin.Context) error {
	if v, ok := c.Get(identityErrKey); ok {
		if err, ok := v.(error); ok {
			return err
		}
	}

	return nil
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
