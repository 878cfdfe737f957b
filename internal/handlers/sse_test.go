package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/requestdata"
	"github.com/shrutilabs/shruti-backend/internal/sse"
)

func newStreamContext(t *testing.T, userID uuid.UUID) (*gin.Context, context.CancelFunc) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest("GET", "/sse/stream", nil)
	ctx, cancel := context.WithCancel(req.Context())
	ctx = requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: userID})
	c.Request = req.WithContext(ctx)
	return c, cancel
}

// runStream runs the handler on its own goroutine the way gin would and
// reports a recovered panic instead of crashing the test process.
func runStream(h *SSEHandler, c *gin.Context) chan any {
	done := make(chan any, 1)
	go func() {
		defer func() { done <- recover() }()
		h.SSEStream(c)
	}()
	return done
}

func (h *SSEHandler) currentClient(userID uuid.UUID) *sse.SSEClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID]
}

func waitForClient(t *testing.T, h *SSEHandler, userID uuid.UUID, not *sse.SSEClient) *sse.SSEClient {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if client := h.currentClient(userID); client != nil && client != not {
			return client
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("stream client never registered")
	return nil
}

func TestSSEStreamReconnectReplacesClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	hub := sse.NewSSEHub(log)
	h := NewSSEHandler(log, hub)
	userID := uuid.New()

	c1, cancel1 := newStreamContext(t, userID)
	defer cancel1()
	firstDone := runStream(h, c1)
	first := waitForClient(t, h, userID, nil)

	// Second stream for the same user replaces the first and unblocks it.
	c2, cancel2 := newStreamContext(t, userID)
	secondDone := runStream(h, c2)
	second := waitForClient(t, h, userID, first)

	select {
	case p := <-firstDone:
		if p != nil {
			t.Fatalf("replaced stream panicked: %v", p)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("replaced stream never exited")
	}

	// The first stream's cleanup must not evict the replacement.
	if current := h.currentClient(userID); current != second {
		t.Fatalf("client for user replaced by stale cleanup: got %p, want %p", current, second)
	}

	cancel2()
	select {
	case p := <-secondDone:
		if p != nil {
			t.Fatalf("second stream panicked: %v", p)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("second stream never exited")
	}
	if current := h.currentClient(userID); current != nil {
		t.Fatal("client entry not removed after disconnect")
	}
}
