package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/model"
	nlog "github.com/yeisme/notesphere/pkg/log"
)

// Producer 事件头中的生产者名.
const Producer = "notesphere"

// MessagePublisher 消息发布能力，mq.Client 满足该接口.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Publisher 按配置开关发布领域事件.
// client 为 nil 或总开关关闭时所有方法都是空操作.
type Publisher struct {
	client MessagePublisher
	cfg    configs.EventsConfig
	logger zerolog.Logger
}

// NewPublisher 创建事件发布器.
func NewPublisher(client MessagePublisher, cfg configs.EventsConfig) *Publisher {
	return &Publisher{client: client, cfg: cfg, logger: nlog.Component("events")}
}

// Enabled 是否会真正发布.
func (p *Publisher) Enabled() bool {
	return p != nil && p.client != nil && p.cfg.Enabled
}

// publish 构造消息并发布，失败只记录日志.
func publish[T any](ctx context.Context, p *Publisher, on bool, topic string, payload T) {
	if !p.Enabled() || !on {
		return
	}

	opts := []func(*EventHeader){WithProducer(Producer)}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, WithTraceID(sc.TraceID().String()))
	}

	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		p.logger.Warn().Err(err).Str("topic", topic).Msg("编码事件失败")
		return
	}

	msg.SetContext(ctx)

	if err := p.client.Publish(ctx, topic, msg); err != nil {
		p.logger.Warn().Err(err).Str("topic", topic).Msg("发布事件失败")
		return
	}

	p.logger.Debug().Str("topic", topic).Str("msg_id", msg.UUID).Msg("事件已发布")
}

func refOf(n *model.Note) NoteRef {
	return NoteRef{
		NoteID:      n.ID,
		Title:       n.Title,
		Course:      n.Course,
		Institution: n.Institution,
		UploaderID:  n.UploaderID,
	}
}

// NoteUploaded 发布 ns.note.uploaded.
func (p *Publisher) NoteUploaded(ctx context.Context, n *model.Note) {
	if p == nil {
		return
	}

	publish(ctx, p, p.cfg.Note.Uploaded, TopicNoteUploaded, NoteUploadedPayload{
		Note:     refOf(n),
		FileName: n.FileName,
		FileType: string(n.FileType),
		FileSize: n.FileSize,
	})
}

// NoteDownloaded 发布 ns.note.downloaded.
func (p *Publisher) NoteDownloaded(ctx context.Context, n *model.Note, userID uint, origin string, remaining int) {
	if p == nil {
		return
	}

	publish(ctx, p, p.cfg.Note.Downloaded, TopicNoteDownloaded, NoteDownloadedPayload{
		Note:      refOf(n),
		UserID:    userID,
		Downloads: n.Downloads,
		Origin:    origin,
		Remaining: remaining,
	})
}

// NoteDeleted 发布 ns.note.deleted.
func (p *Publisher) NoteDeleted(ctx context.Context, n *model.Note, by uint) {
	if p == nil {
		return
	}

	publish(ctx, p, p.cfg.Note.Deleted, TopicNoteDeleted, NoteDeletedPayload{Note: refOf(n), DeletedBy: by})
}

// NoteVerified 发布 ns.note.verified.
func (p *Publisher) NoteVerified(ctx context.Context, n *model.Note, by uint) {
	if p == nil {
		return
	}

	publish(ctx, p, p.cfg.Note.Verified, TopicNoteVerified, NoteVerifiedPayload{
		Note:       refOf(n),
		Verified:   n.Verified,
		VerifiedBy: by,
	})
}

// NoteRated 发布 ns.note.rated.
func (p *Publisher) NoteRated(ctx context.Context, n *model.Note, value float64) {
	if p == nil {
		return
	}

	publish(ctx, p, p.cfg.Note.Rated, TopicNoteRated, NoteRatedPayload{
		Note:        refOf(n),
		Value:       value,
		Rating:      n.Rating,
		RatingCount: n.RatingCount,
	})
}

// NoteSummarized 发布 ns.note.summarized.
func (p *Publisher) NoteSummarized(ctx context.Context, n *model.Note, by uint, regenerated bool) {
	if p == nil {
		return
	}

	publish(ctx, p, p.cfg.Note.Summarized, TopicNoteSummarized, NoteSummarizedPayload{
		Note:        refOf(n),
		RequestedBy: by,
		Regenerated: regenerated,
	})
}

// QuotaExceeded 发布 ns.quota.exceeded.
func (p *Publisher) QuotaExceeded(ctx context.Context, u *model.User, noteID uint, limit int) {
	if p == nil {
		return
	}

	publish(ctx, p, p.cfg.Quota.Exceeded, TopicQuotaExceeded, QuotaExceededPayload{
		UserID:      u.ID,
		NoteID:      noteID,
		Limit:       limit,
		WindowStart: u.LastDownloadReset,
	})
}

// SubscriptionsExpired 发布 ns.user.subscription.expired.
func (p *Publisher) SubscriptionsExpired(ctx context.Context, userIDs []uint) {
	if p == nil || len(userIDs) == 0 {
		return
	}

	publish(ctx, p, true, TopicUserSubscriptionExpired, SubscriptionExpiredPayload{UserIDs: userIDs})
}
