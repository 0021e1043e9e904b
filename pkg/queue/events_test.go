package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/model"
	mqc "github.com/yeisme/notesphere/pkg/internal/storage/mq"
	"github.com/yeisme/notesphere/pkg/queue"
)

func newChannelClient(t *testing.T) *mqc.Client {
	t.Helper()

	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	client := mqc.NewClient(ch, ch)

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func eventsConfig() configs.EventsConfig {
	return configs.EventsConfig{
		Enabled: true,
		Note:    configs.NoteEventsConfig{Uploaded: true, Downloaded: true, Deleted: true, Verified: true},
		Quota:   configs.QuotaEventConfig{Exceeded: true},
	}
}

func TestPublisher_NoteDownloaded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := newChannelClient(t)

	msgs, err := client.Subscribe(ctx, queue.TopicNoteDownloaded)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub := queue.NewPublisher(client, eventsConfig())
	note := &model.Note{ID: 5, Title: "Alkenes", Course: "Organic Chemistry", UploaderID: 2, Downloads: 11}

	pub.NoteDownloaded(ctx, note, 7, "10.1.1.1", 2)

	select {
	case m := <-msgs:
		env, err := queue.ParseWatermillMessage[queue.NoteDownloadedPayload](m)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}

		m.Ack()

		if env.Header.Topic != queue.TopicNoteDownloaded || env.Header.Producer != queue.Producer {
			t.Errorf("unexpected header %+v", env.Header)
		}

		if env.Payload.Note.NoteID != 5 || env.Payload.UserID != 7 || env.Payload.Downloads != 11 || env.Payload.Remaining != 2 {
			t.Errorf("unexpected payload %+v", env.Payload)
		}

		if m.Metadata.Get("topic") != queue.TopicNoteDownloaded {
			t.Errorf("metadata topic = %q", m.Metadata.Get("topic"))
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestPublisher_Gates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := newChannelClient(t)

	msgs, err := client.Subscribe(ctx, queue.TopicNoteRated)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// rated 主题默认关闭
	queue.NewPublisher(client, eventsConfig()).NoteRated(ctx, &model.Note{ID: 1}, 4)

	select {
	case m := <-msgs:
		t.Fatalf("unexpected event %s", m.UUID)
	case <-time.After(200 * time.Millisecond):
	}

	var nilPub *queue.Publisher
	nilPub.NoteUploaded(ctx, &model.Note{ID: 1})

	off := queue.NewPublisher(nil, eventsConfig())
	if off.Enabled() {
		t.Error("publisher without client must be disabled")
	}

	off.NoteDeleted(ctx, &model.Note{ID: 1}, 1)
}

func TestEncodeDecode(t *testing.T) {
	msg, err := queue.NewWatermillMessage(queue.TopicQuotaExceeded, queue.QuotaExceededPayload{UserID: 3, NoteID: 4, Limit: 3},
		queue.WithTraceID("trace-1"))
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	env, err := queue.ParseWatermillMessage[queue.QuotaExceededPayload](msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if env.Header.TraceID != "trace-1" || env.Header.Version != queue.PayloadVersionV1 || env.Payload.Limit != 3 {
		t.Errorf("unexpected envelope %+v", env)
	}
}
