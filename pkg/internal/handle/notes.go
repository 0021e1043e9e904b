package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/notes"
	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/types"
	"github.com/yeisme/notesphere/pkg/log"
	"github.com/yeisme/notesphere/pkg/middleware"
)

// ListNotes 检索笔记.
//
//	@Summary		笔记列表
//	@Description	按关键字、学校、课程、讲师、标签、文件类型与审核状态过滤，支持排序与分页
//	@Tags			笔记
//	@Produce		json
//	@Param			search		query		string	false	"标题、课程、描述关键字"
//	@Param			institution	query		string	false	"学校"
//	@Param			course		query		string	false	"课程"
//	@Param			lecturer	query		string	false	"讲师"
//	@Param			tags		query		string	false	"标签"
//	@Param			fileType	query		string	false	"pdf/doc/docx"
//	@Param			verified	query		bool	false	"审核状态"
//	@Param			sortBy		query		string	false	"createdAt/downloads/rating"
//	@Param			order		query		string	false	"asc/desc"
//	@Param			page		query		int		false	"页码"
//	@Param			limit		query		int		false	"每页数量"
//	@Success		200			{object}	notes.Page
//	@Failure		400			{object}	types.ErrorResponse
//	@Router			/api/notes [get]
func ListNotes(c *gin.Context) {
	var q types.ListNotesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	page, err := service.NewNoteService(c.Request.Context()).List(c.Request.Context(), notes.Query{
		Search:      q.Search,
		Institution: q.Institution,
		Course:      q.Course,
		Lecturer:    q.Lecturer,
		Tags:        q.Tags,
		FileType:    model.FileType(q.FileType),
		Verified:    q.Verified,
		SortBy:      q.SortBy,
		Order:       q.Order,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// MyNotes 当前用户上传的笔记.
//
//	@Summary		我的笔记
//	@Tags			笔记
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		model.Note
//	@Failure		401	{object}	types.ErrorResponse
//	@Router			/api/notes/my-notes [get]
func MyNotes(c *gin.Context) {
	list, err := service.NewNoteService(c.Request.Context()).Mine(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetNote 笔记详情.
//
//	@Summary		笔记详情
//	@Tags			笔记
//	@Produce		json
//	@Param			id	path		int	true	"笔记 ID"
//	@Success		200	{object}	model.Note
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/notes/{id} [get]
func GetNote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	note, err := service.NewNoteService(c.Request.Context()).Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// UploadNote 上传笔记.
//
//	@Summary		上传笔记
//	@Description	multipart 表单，file 字段为 pdf/doc/docx 文件
//	@Tags			笔记
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file		formData	file	true	"笔记文件"
//	@Param			title		formData	string	true	"标题"
//	@Param			course		formData	string	true	"课程"
//	@Param			institution	formData	string	true	"学校"
//	@Param			courseCode	formData	string	false	"课程代码"
//	@Param			lecturer	formData	string	false	"讲师"
//	@Param			tags		formData	string	false	"逗号分隔的标签"
//	@Param			description	formData	string	false	"描述"
//	@Success		201			{object}	types.UploadNoteResponse
//	@Failure		400			{object}	types.ErrorResponse
//	@Router			/api/notes/upload [post]
func UploadNote(c *gin.Context) {
	l := log.Logger()

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, apperr.Invalid("Please upload a file"))
		return
	}

	var form types.UploadNoteForm
	if err := c.ShouldBind(&form); err != nil {
		writeBindError(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		l.Error().Err(err).Str("file", fh.Filename).Msg("open multipart file failed")
		writeError(c, apperr.Invalid("Please upload a file"))

		return
	}

	defer func() { _ = f.Close() }()

	note, err := service.NewNoteService(c.Request.Context()).Upload(c.Request.Context(), middleware.CurrentUser(c), service.UploadInput{
		Form:        form,
		FileName:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.UploadNoteResponse{Message: "Note uploaded successfully", Note: note})
}

// RateNote 评分.
//
//	@Summary		评分
//	@Tags			笔记
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"笔记 ID"
//	@Param			body	body		types.RateRequest	true	"0 到 5 的评分"
//	@Success		200		{object}	types.NoteResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/api/notes/{id}/rate [post]
func RateNote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req types.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	note, err := service.NewNoteService(c.Request.Context()).Rate(c.Request.Context(), id, *req.Rating)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NoteResponse{Message: "Rating submitted", Note: note})
}

// DeleteNote 删除笔记.
//
//	@Summary		删除笔记
//	@Description	上传者或管理员可删除，同时删除文件
//	@Tags			笔记
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"笔记 ID"
//	@Success		200	{object}	types.MessageResponse
//	@Failure		403	{object}	types.ErrorResponse
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/notes/{id} [delete]
func DeleteNote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := service.NewNoteService(c.Request.Context()).DeleteNote(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Note deleted successfully"})
}

// GenerateSummary 生成摘要.
//
//	@Summary		生成摘要
//	@Description	会员或管理员可用
//	@Tags			笔记
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"笔记 ID"
//	@Success		200	{object}	types.SummaryResponse
//	@Failure		403	{object}	types.ErrorResponse	"需要会员"
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/notes/{id}/summary [post]
func GenerateSummary(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	text, err := service.NewNoteService(c.Request.Context()).GenerateSummary(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.SummaryResponse{Summary: text})
}
