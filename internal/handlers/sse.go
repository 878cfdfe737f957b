package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/requestdata"
	"github.com/shrutilabs/shruti-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.SSEHub

	mu      sync.RWMutex
	clients map[uuid.UUID]*sse.SSEClient // keyed by user ID; one stream per user
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{
		log:     log.With("handler", "SSEHandler"),
		hub:     hub,
		clients: make(map[uuid.UUID]*sse.SSEClient),
	}
}

func (h *SSEHandler) SSEStream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	userID := rd.UserID
	h.log.Info("SSE stream open", "user_id", userID)

	h.mu.Lock()
	if existing, ok := h.clients[userID]; ok {
		h.hub.CloseClient(existing)
		delete(h.clients, userID)
	}
	client := h.hub.NewSSEClient(userID)
	h.clients[userID] = client
	h.mu.Unlock()

	h.hub.AddChannel(client, "user:"+userID.String())

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	// A reconnect may already have replaced this client; only evict the
	// map entry if it is still ours.
	h.mu.Lock()
	if current, ok := h.clients[userID]; ok && current == client {
		delete(h.clients, userID)
	}
	h.mu.Unlock()
	h.hub.CloseClient(client)
}

func (h *SSEHandler) SSESubscribe(c *gin.Context) {
	client, req, ok := h.clientAndChannel(c)
	if !ok {
		return
	}
	h.hub.AddChannel(client, req)
	c.JSON(http.StatusOK, gin.H{"message": "subscribed", "channel": req})
}

func (h *SSEHandler) SSEUnsubscribe(c *gin.Context) {
	client, req, ok := h.clientAndChannel(c)
	if !ok {
		return
	}
	h.hub.RemoveChannel(client, req)
	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed", "channel": req})
}

func (h *SSEHandler) clientAndChannel(c *gin.Context) (*sse.SSEClient, string, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, "", false
	}

	var req struct {
		Channel string `json:"channel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel"})
		return nil, "", false
	}

	h.mu.RLock()
	client, exists := h.clients[rd.UserID]
	h.mu.RUnlock()
	if !exists {
		c.JSON(http.StatusConflict, gin.H{"error": "no active SSE connection for this user"})
		return nil, "", false
	}
	return client, req.Channel, true
}
