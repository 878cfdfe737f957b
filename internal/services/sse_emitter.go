package services

import (
	"context"

	redisclient "github.com/shrutilabs/shruti-backend/internal/clients/redis"
	"github.com/shrutilabs/shruti-backend/internal/sse"
)

// SSEEmitter is the producer side of the event stream. Services emit through
// it instead of touching the hub directly, so a multi-instance deployment can
// route events over the shared bus while a single instance stays local.
type SSEEmitter interface {
	Emit(ctx context.Context, msg sse.SSEMessage)
}

// HubEmitter delivers straight to this instance's hub.
type HubEmitter struct{ Hub *sse.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
	if e.Hub != nil {
		e.Hub.Broadcast(msg)
	}
}

// RedisEmitter publishes to the shared bus; every instance's forwarder
// (this one included) delivers the message to its local hub.
type RedisEmitter struct{ Bus redisclient.SSEBus }

func (e *RedisEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
	_ = e.Bus.Publish(ctx, msg)
}
