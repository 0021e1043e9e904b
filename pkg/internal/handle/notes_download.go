package handle

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/internal/quota"
	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/log"
	"github.com/yeisme/notesphere/pkg/middleware"
)

// HeaderDownloadsRemaining 本周剩余下载次数，不限时为 unlimited.
const HeaderDownloadsRemaining = "X-Downloads-Remaining"

// DownloadNote 下载笔记文件.
//
//	@Summary		下载笔记
//	@Description	免费用户每周限 3 次，会员与管理员不限；成功后累计下载次数并写入下载流水
//	@Tags			笔记
//	@Produce		application/octet-stream
//	@Security		BearerAuth
//	@Param			id	path		int		true	"笔记 ID"
//	@Success		200	{file}		file	"文件流"
//	@Failure		401	{object}	types.ErrorResponse
//	@Failure		403	{object}	types.ErrorResponse	"本周下载次数已用完"
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/notes/download/{id} [get]
func DownloadNote(c *gin.Context) {
	l := log.Logger()

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res, err := service.NewNoteService(c.Request.Context()).Download(c.Request.Context(), middleware.CurrentUser(c), id, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}

	defer func() { _ = res.Body.Close() }()

	fileName := res.Note.FileName
	if fileName == "" {
		fileName = filepath.Base(res.Note.FileRef)
	}

	c.Header("Content-Type", determineContentType(fileName, res.Info.ContentType))

	if res.Info.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(res.Info.Size, 10))
	}

	c.Header("Content-Disposition", "attachment; filename=\""+escapeRFC5987(fileName)+"\"")
	c.Header(HeaderDownloadsRemaining, remainingHeader(res.Decision.Remaining))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, res.Body); err != nil {
		l.Warn().Err(err).Uint("note_id", res.Note.ID).Msg("stream note file interrupted")
	}
}

func remainingHeader(n int) string {
	if n == quota.Unlimited {
		return "unlimited"
	}

	return strconv.Itoa(n)
}

// escapeRFC5987 简单转义文件名中的引号与分号等.
func escapeRFC5987(s string) string {
	replacer := strings.NewReplacer("\\", "_", "\"", "_", ";", "_", "\n", "_", "\r", "_")
	return replacer.Replace(s)
}

// determineContentType 根据已知信息推断 Content-Type.
func determineContentType(fileName, headerType string) string {
	if headerType != "" && headerType != "application/octet-stream" {
		return headerType
	}

	if ext := filepath.Ext(fileName); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}

	return "application/octet-stream"
}
