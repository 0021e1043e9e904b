package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yeisme/notesphere/pkg/cache"
	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/ledger"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/notes"
	"github.com/yeisme/notesphere/pkg/internal/policy"
	"github.com/yeisme/notesphere/pkg/internal/quota"
	"github.com/yeisme/notesphere/pkg/internal/storage/blob"
	"github.com/yeisme/notesphere/pkg/internal/summary"
	"github.com/yeisme/notesphere/pkg/internal/types"
	nlog "github.com/yeisme/notesphere/pkg/log"
	"github.com/yeisme/notesphere/pkg/metrics"
	"github.com/yeisme/notesphere/pkg/queue"
)

// 下载结果标签.
const (
	outcomeOK            = "allowed"
	outcomeQuotaExceeded = "quota_exceeded"
	outcomeFileMissing   = "file_missing"
	outcomeDenied        = "denied"
	outcomeNotFound      = "not_found"
	outcomeError         = "error"
)

// NoteService 笔记业务.
type NoteService struct {
	notes   *notes.Store
	quota   *quota.Tracker
	ledger  *ledger.Ledger
	policy  *policy.Evaluator
	blobs   blob.Store
	summary summary.Generator
	events  *queue.Publisher
	cache   *cache.Cache
	storage configs.StorageConfig
	logger  zerolog.Logger
}

// NewNoteService 使用请求 context 中的存储创建服务.
func NewNoteService(ctx context.Context) *NoteService {
	return NewNoteServiceWith(DepsFromContext(ctx))
}

// NewNoteServiceWith 按给定依赖创建服务.
func NewNoteServiceWith(d Deps) *NoteService {
	cfg := d.config()
	tracker := quota.NewTracker(d.DB, cfg.Quota, quota.WithClock(d.now))

	return &NoteService{
		notes:   notes.NewStore(d.DB),
		quota:   tracker,
		ledger:  ledger.New(d.DB).WithClock(d.now),
		policy:  policy.New(d.Blob, tracker, cfg.Summary),
		blobs:   d.Blob,
		summary: summary.Template{},
		events:  d.events(),
		cache:   d.cache(),
		storage: cfg.Storage,
		logger:  nlog.Component("notes"),
	}
}

// Quota 返回配额跟踪器.
func (s *NoteService) Quota() *quota.Tracker { return s.quota }

// invalidateListings 笔记变化后清理列表缓存，失败只记录日志.
func (s *NoteService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}

	if _, err := s.cache.DeletePattern(context.WithoutCancel(ctx), cache.NotesListPattern); err != nil {
		s.logger.Warn().Err(err).Msg("清理笔记列表缓存失败")
	}
}

// UploadInput 上传参数.
type UploadInput struct {
	Form        types.UploadNoteForm
	FileName    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// parseTags 逗号分隔，去空去重.
func parseTags(raw string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)

	for part := range strings.SplitSeq(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}

		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, tag)
	}

	return out
}

// Upload 保存文件并创建笔记.
func (s *NoteService) Upload(ctx context.Context, user *model.User, in UploadInput) (*model.Note, error) {
	if user == nil {
		return nil, apperr.Unauthenticated(policy.MsgAuthRequired)
	}

	if in.Body == nil || in.Size <= 0 {
		return nil, apperr.Invalid("Please upload a file")
	}

	if in.Size > s.storage.MaxUploadBytes {
		return nil, apperr.Invalid(fmt.Sprintf("File too large. Max size is %dMB", s.storage.MaxUploadBytes>>20))
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(in.FileName)), ".")

	ft, ok := model.ParseFileType(ext)
	if !ok || !s.storage.IsAllowedExt(ext) {
		return nil, apperr.Invalid("Only PDF, DOC, and DOCX files are allowed")
	}

	key := blob.NewKey(ext)
	if err := s.blobs.Put(ctx, key, in.Body, in.Size, in.ContentType); err != nil {
		return nil, apperr.Storage(err)
	}

	note := &model.Note{
		Title:       strings.TrimSpace(in.Form.Title),
		Course:      strings.TrimSpace(in.Form.Course),
		CourseCode:  strings.TrimSpace(in.Form.CourseCode),
		Lecturer:    strings.TrimSpace(in.Form.Lecturer),
		Institution: strings.TrimSpace(in.Form.Institution),
		Description: in.Form.Description,
		Tags:        parseTags(in.Form.Tags),
		FileRef:     key,
		FileName:    filepath.Base(in.FileName),
		FileSize:    in.Size,
		FileType:    ft,
		UploaderID:  user.ID,
	}

	if err := s.notes.Create(ctx, note); err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", key).Msg("回滚上传文件失败")
		}

		return nil, err
	}

	metrics.UploadsTotal.Inc()
	s.events.NoteUploaded(ctx, note)
	s.invalidateListings(ctx)

	s.logger.Info().Uint("note_id", note.ID).Uint("user_id", user.ID).Str("key", key).Int64("size", in.Size).Msg("笔记上传完成")

	return note, nil
}

// List 检索笔记.
func (s *NoteService) List(ctx context.Context, q notes.Query) (*notes.Page, error) {
	return s.notes.Search(ctx, q)
}

// Get 读取单条笔记.
func (s *NoteService) Get(ctx context.Context, id uint) (*model.Note, error) {
	return s.notes.Get(ctx, id)
}

// Mine 返回调用者上传的笔记.
func (s *NoteService) Mine(ctx context.Context, user *model.User) ([]model.Note, error) {
	if user == nil {
		return nil, apperr.Unauthenticated(policy.MsgAuthRequired)
	}

	return s.notes.ListByUploader(ctx, user.ID)
}

// DownloadResult 下载结果，调用方负责关闭 Body.
type DownloadResult struct {
	Note     *model.Note
	Body     io.ReadCloser
	Info     blob.Info
	Decision quota.Decision
}

func outcomeOf(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindQuotaExceeded:
		return outcomeQuotaExceeded
	case apperr.KindFileMissing:
		return outcomeFileMissing
	case apperr.KindUnauthenticated, apperr.KindForbidden:
		return outcomeDenied
	case apperr.KindNotFound:
		return outcomeNotFound
	default:
		return outcomeError
	}
}

// Download 授权并记录一次下载.
// 顺序：读取笔记，策略判定（文件存在性先于配额），打开文件，计数，记账.
// 打开或计数失败时归还配额；记账失败只记录日志.
func (s *NoteService) Download(ctx context.Context, user *model.User, noteID uint, origin string) (res *DownloadResult, err error) {
	defer func() {
		if err != nil {
			metrics.DownloadsTotal.WithLabelValues(outcomeOf(err)).Inc()
		} else {
			metrics.DownloadsTotal.WithLabelValues(outcomeOK).Inc()
		}
	}()

	if user == nil {
		return nil, apperr.Unauthenticated(policy.MsgAuthRequired)
	}

	note, err := s.notes.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}

	decision, err := s.policy.CanDownload(ctx, user, note)
	if err != nil {
		if errors.Is(err, apperr.ErrQuotaExceeded) {
			s.events.QuotaExceeded(ctx, user, note.ID, s.quota.Limit())
		}

		return nil, err
	}

	body, info, err := s.blobs.Open(ctx, note.FileRef)
	if err != nil {
		s.release(ctx, user, decision)

		if errors.Is(err, blob.ErrNotFound) {
			return nil, apperr.FileMissing(policy.MsgFileMissing)
		}

		return nil, apperr.Storage(err)
	}

	downloads, err := s.notes.IncrementDownloads(ctx, note.ID)
	if err != nil {
		_ = body.Close()
		s.release(ctx, user, decision)

		return nil, err
	}

	note.Downloads = downloads

	if _, err := s.ledger.Record(ctx, user.ID, note.ID, origin); err != nil {
		s.logger.Error().Err(err).Uint("note_id", note.ID).Uint("user_id", user.ID).Msg("写入下载流水失败")
	}

	s.events.NoteDownloaded(ctx, note, user.ID, origin, decision.Remaining)

	return &DownloadResult{Note: note, Body: body, Info: info, Decision: decision}, nil
}

func (s *NoteService) release(ctx context.Context, user *model.User, d quota.Decision) {
	if !d.Metered || !d.Allowed {
		return
	}

	if err := s.quota.Release(context.WithoutCancel(ctx), user); err != nil {
		s.logger.Error().Err(err).Uint("user_id", user.ID).Msg("归还下载配额失败")
	}
}

// Rate 提交一次评分.
func (s *NoteService) Rate(ctx context.Context, noteID uint, value float64) (*model.Note, error) {
	note, err := s.notes.ApplyRating(ctx, noteID, value)
	if err != nil {
		return nil, err
	}

	s.events.NoteRated(ctx, note, value)
	s.invalidateListings(ctx)

	return note, nil
}

// Verify 管理员设置审核标记.
func (s *NoteService) Verify(ctx context.Context, user *model.User, noteID uint, verified bool) (*model.Note, error) {
	if err := s.policy.CanVerify(user); err != nil {
		return nil, err
	}

	note, err := s.notes.SetVerified(ctx, noteID, verified)
	if err != nil {
		return nil, err
	}

	s.events.NoteVerified(ctx, note, user.ID)
	s.invalidateListings(ctx)

	return note, nil
}

// GenerateSummary 为会员或管理员生成摘要并保存.
func (s *NoteService) GenerateSummary(ctx context.Context, user *model.User, noteID uint) (string, error) {
	if user == nil {
		return "", apperr.Unauthenticated(policy.MsgAuthRequired)
	}

	note, err := s.notes.Get(ctx, noteID)
	if err != nil {
		return "", err
	}

	if err := s.policy.CanGenerateSummary(user, note); err != nil {
		return "", err
	}

	regenerated := note.HasSummary()

	text, err := s.summary.Generate(ctx, note)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	if err := s.notes.SetSummary(ctx, note.ID, text); err != nil {
		return "", err
	}

	s.events.NoteSummarized(ctx, note, user.ID, regenerated)

	return text, nil
}

// DeleteNote 上传者或管理员删除笔记及其文件.
func (s *NoteService) DeleteNote(ctx context.Context, user *model.User, noteID uint) error {
	if user == nil {
		return apperr.Unauthenticated(policy.MsgAuthRequired)
	}

	note, err := s.notes.Get(ctx, noteID)
	if err != nil {
		return err
	}

	if err := s.policy.CanDelete(user, note); err != nil {
		return err
	}

	// 先删文件：失败时保留记录以便重试，不产生孤立文件
	if err := s.blobs.Delete(ctx, note.FileRef); err != nil {
		s.logger.Error().Err(err).Str("key", note.FileRef).Uint("note_id", note.ID).Msg("删除笔记文件失败")
		return apperr.Storage(err)
	}

	if err := s.notes.Delete(ctx, note.ID); err != nil {
		return err
	}

	s.events.NoteDeleted(ctx, note, user.ID)
	s.invalidateListings(ctx)

	s.logger.Info().Uint("note_id", note.ID).Uint("by", user.ID).Msg("笔记已删除")

	return nil
}
