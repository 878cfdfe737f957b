package sse

import (
	"testing"

	"github.com/google/uuid"

	"github.com/shrutilabs/shruti-backend/internal/logger"
)

func newTestHub(t *testing.T) *SSEHub {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return NewSSEHub(log)
}

func TestCloseClientIdempotent(t *testing.T) {
	hub := newTestHub(t)
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "recording:abc")

	hub.CloseClient(client)
	// A reconnect closes the stream it replaces while the old stream
	// handler also closes on its way out; the second close must not panic.
	hub.CloseClient(client)

	select {
	case <-client.done:
	default:
		t.Fatal("done channel not closed")
	}
}

func TestBroadcastSkipsClosedClient(t *testing.T) {
	hub := newTestHub(t)
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "recording:abc")
	hub.CloseClient(client)

	// The client left the subscription table on close; broadcasting must
	// not send on its closed Outbound channel.
	hub.Broadcast(SSEMessage{Channel: "recording:abc", Event: SSEEventReviewTick})
}

func TestAddChannelAfterCloseIgnored(t *testing.T) {
	hub := newTestHub(t)
	client := hub.NewSSEClient(uuid.New())
	hub.CloseClient(client)

	hub.AddChannel(client, "recording:abc")
	hub.Broadcast(SSEMessage{Channel: "recording:abc", Event: SSEEventReviewTick})

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if _, ok := hub.subscriptions["recording:abc"]; ok {
		t.Fatal("closed client was re-added to subscriptions")
	}
}

func TestBroadcastDeliversToSubscribers(t *testing.T) {
	hub := newTestHub(t)
	subscribed := hub.NewSSEClient(uuid.New())
	other := hub.NewSSEClient(uuid.New())
	hub.AddChannel(subscribed, "recording:abc")
	hub.AddChannel(other, "recording:xyz")

	hub.Broadcast(SSEMessage{Channel: "recording:abc", Event: SSEEventRecordingSaved})

	select {
	case msg := <-subscribed.Outbound:
		if msg.Event != SSEEventRecordingSaved {
			t.Errorf("event = %q, want %q", msg.Event, SSEEventRecordingSaved)
		}
	default:
		t.Fatal("subscribed client received nothing")
	}
	select {
	case msg := <-other.Outbound:
		t.Fatalf("unsubscribed client received %+v", msg)
	default:
	}
}
