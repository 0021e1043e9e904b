package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/types"
)

// MsgAdminOnly 非管理员访问管理接口时的提示.
const MsgAdminOnly = "Access denied. Admin only."

// RequireRole 要求调用者属于给定角色之一，需放在 RequireAuth 之后.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
				Message: MsgNoToken,
				Code:    string(apperr.KindUnauthenticated),
			})

			return
		}

		if !u.Role.Valid() || !slices.Contains(roles, u.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, types.ErrorResponse{
				Message: MsgAdminOnly,
				Code:    string(apperr.KindForbidden),
			})

			return
		}

		c.Next()
	}
}

// RequireAdmin 仅管理员.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(model.RoleAdmin)
}
