package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/sse"
)

func TestHubEmitterDeliversLocally(t *testing.T) {
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	hub := sse.NewSSEHub(log)
	client := hub.NewSSEClient(uuid.New())
	channel := sse.RecordingChannel(uuid.New())
	hub.AddChannel(client, channel)

	emitter := &HubEmitter{Hub: hub}
	emitter.Emit(context.Background(), sse.SSEMessage{
		Channel: channel,
		Event:   sse.SSEEventRecordingSaved,
	})

	select {
	case msg := <-client.Outbound:
		if msg.Event != sse.SSEEventRecordingSaved {
			t.Errorf("event = %q, want %q", msg.Event, sse.SSEEventRecordingSaved)
		}
	default:
		t.Fatal("hub emitter did not reach the subscribed client")
	}
}

// stubBus records what producers publish; cross-instance delivery is the
// forwarder's job and is exercised against a live redis, not here.
type stubBus struct {
	published []sse.SSEMessage
}

func (b *stubBus) Publish(ctx context.Context, msg sse.SSEMessage) error {
	b.published = append(b.published, msg)
	return nil
}

func (b *stubBus) StartForwarder(ctx context.Context, onMsg func(m sse.SSEMessage)) error {
	return nil
}

func (b *stubBus) Close() error { return nil }

func TestRedisEmitterPublishesToBus(t *testing.T) {
	bus := &stubBus{}
	emitter := &RedisEmitter{Bus: bus}
	channel := sse.RecordingChannel(uuid.New())

	emitter.Emit(context.Background(), sse.SSEMessage{
		Channel: channel,
		Event:   sse.SSEEventRecordingAssigned,
	})

	if len(bus.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(bus.published))
	}
	if bus.published[0].Channel != channel || bus.published[0].Event != sse.SSEEventRecordingAssigned {
		t.Errorf("published %+v", bus.published[0])
	}
}
