package handle

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/types"
	"github.com/yeisme/notesphere/pkg/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Dashboard 管理看板.
//
//	@Summary		管理看板
//	@Tags			管理
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	types.DashboardResponse
//	@Failure		403	{object}	types.ErrorResponse
//	@Router			/api/admin/dashboard [get]
func Dashboard(c *gin.Context) {
	resp, err := service.NewAdminService(c.Request.Context()).Dashboard(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListUsers 用户列表.
//
//	@Summary		用户列表
//	@Tags			管理
//	@Produce		json
//	@Security		BearerAuth
//	@Param			search	query		string	false	"姓名、邮箱或学校"
//	@Param			page	query		int		false	"页码"
//	@Param			limit	query		int		false	"每页数量"
//	@Success		200		{object}	users.Page
//	@Router			/api/admin/users [get]
func ListUsers(c *gin.Context) {
	var q types.ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	page, err := service.NewAdminService(c.Request.Context()).ListUsers(c.Request.Context(), middleware.CurrentUser(c), q)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// UpdateUser 修改用户.
//
//	@Summary		修改用户
//	@Description	修改启用状态、会员、角色与会员到期时间
//	@Tags			管理
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int						true	"用户 ID"
//	@Param			body	body		types.UpdateUserRequest	true	"需要修改的字段"
//	@Success		200		{object}	types.UpdateUserResponse
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/api/admin/users/{id} [put]
func UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req types.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	u, err := service.NewAdminService(c.Request.Context()).UpdateUser(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.UpdateUserResponse{Message: "User updated successfully", User: u})
}

// DeleteUser 删除用户.
//
//	@Summary		删除用户
//	@Description	管理员账号不可删除，下载流水保留
//	@Tags			管理
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"用户 ID"
//	@Success		200	{object}	types.MessageResponse
//	@Failure		403	{object}	types.ErrorResponse
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/admin/users/{id} [delete]
func DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := service.NewAdminService(c.Request.Context()).DeleteUser(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "User deleted successfully"})
}

// VerifyNote 审核笔记.
//
//	@Summary		审核笔记
//	@Tags			管理
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"笔记 ID"
//	@Param			body	body		types.VerifyRequest	true	"审核状态"
//	@Success		200		{object}	types.NoteResponse
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/api/admin/notes/{id}/verify [put]
func VerifyNote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req types.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	note, err := service.NewAdminService(c.Request.Context()).VerifyNote(c.Request.Context(), middleware.CurrentUser(c), id, *req.Verified)
	if err != nil {
		writeError(c, err)
		return
	}

	state := "unverified"
	if note.Verified {
		state = "verified"
	}

	c.JSON(http.StatusOK, types.NoteResponse{Message: fmt.Sprintf("Note %s successfully", state), Note: note})
}

// ExportDownloads 导出下载流水.
//
//	@Summary		导出下载流水
//	@Description	按用户、笔记与日期过滤，返回 xlsx 文件
//	@Tags			管理
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Security		BearerAuth
//	@Param			userId	query	int		false	"用户 ID"
//	@Param			noteId	query	int		false	"笔记 ID"
//	@Param			since	query	string	false	"起始日期 2006-01-02"
//	@Param			until	query	string	false	"截止日期 2006-01-02（含）"
//	@Param			limit	query	int		false	"最多导出的行数"
//	@Success		200		{file}	file	"xlsx"
//	@Router			/api/admin/downloads/export [get]
func ExportDownloads(c *gin.Context) {
	var q types.ExportDownloadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	// 先写入缓冲区，出错时仍能返回 JSON 错误
	var buf bytes.Buffer

	n, err := service.NewAdminService(c.Request.Context()).ExportDownloads(c.Request.Context(), middleware.CurrentUser(c), q, &buf)
	if err != nil {
		writeError(c, err)
		return
	}

	name := fmt.Sprintf("downloads-%s.xlsx", time.Now().UTC().Format("20060102"))

	c.Header("Content-Disposition", "attachment; filename=\""+name+"\"")
	c.Header("X-Export-Rows", strconv.Itoa(n))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
