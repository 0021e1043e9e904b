package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/types"
	"github.com/yeisme/notesphere/pkg/middleware"
)

// Register 注册账号.
//
//	@Summary		注册
//	@Description	创建学生账号并返回访问令牌
//	@Tags			认证
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.RegisterRequest	true	"注册信息"
//	@Success		201		{object}	types.AuthResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		409		{object}	types.ErrorResponse	"邮箱已注册"
//	@Router			/api/auth/register [post]
func Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	resp, err := service.NewAuthService(c.Request.Context()).Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login 登录.
//
//	@Summary		登录
//	@Tags			认证
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.LoginRequest	true	"邮箱与密码"
//	@Success		200		{object}	types.AuthResponse
//	@Failure		401		{object}	types.ErrorResponse
//	@Router			/api/auth/login [post]
func Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	resp, err := service.NewAuthService(c.Request.Context()).Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me 当前用户资料.
//
//	@Summary		当前用户
//	@Description	返回个人资料、自己上传的笔记与本周剩余下载次数
//	@Tags			认证
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	types.ProfileResponse
//	@Failure		401	{object}	types.ErrorResponse
//	@Router			/api/auth/me [get]
func Me(c *gin.Context) {
	resp, err := service.NewAuthService(c.Request.Context()).Me(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateProfile 修改个人资料.
//
//	@Summary		修改资料
//	@Tags			认证
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		types.UpdateProfileRequest	true	"需要修改的字段"
//	@Success		200		{object}	model.User
//	@Failure		400		{object}	types.ErrorResponse
//	@Router			/api/auth/profile [put]
func UpdateProfile(c *gin.Context) {
	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	u, err := service.NewAuthService(c.Request.Context()).UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}
