package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shrutilabs/shruti-backend/internal/services"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (rh *ReviewHandler) Open(c *gin.Context) {
	var req struct {
		RecordingID uuid.UUID `json:"recording_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RecordingID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	snapshot, err := rh.reviewService.Open(c.Request.Context(), req.RecordingID)
	if err != nil {
		RespondAppError(c, http.StatusBadRequest, "open_failed", err)
		return
	}
	RespondOK(c, snapshot)
}

func (rh *ReviewHandler) State(c *gin.Context) {
	sessionID, ok := rh.sessionID(c)
	if !ok {
		return
	}
	snapshot, err := rh.reviewService.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		RespondAppError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, snapshot)
}

func (rh *ReviewHandler) Play(c *gin.Context) {
	rh.simple(c, rh.reviewService.Play)
}

func (rh *ReviewHandler) Pause(c *gin.Context) {
	rh.simple(c, rh.reviewService.Pause)
}

func (rh *ReviewHandler) Seek(c *gin.Context) {
	sessionID, ok := rh.sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Time string `json:"time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	snapshot, err := rh.reviewService.Seek(c.Request.Context(), sessionID, req.Time)
	if err != nil {
		RespondAppError(c, http.StatusBadRequest, "seek_failed", err)
		return
	}
	RespondOK(c, snapshot)
}

func (rh *ReviewHandler) Activate(c *gin.Context) {
	rh.indexed(c, rh.reviewService.Activate)
}

func (rh *ReviewHandler) StartEditing(c *gin.Context) {
	rh.indexed(c, rh.reviewService.StartEditing)
}

func (rh *ReviewHandler) StopEditing(c *gin.Context) {
	rh.simple(c, rh.reviewService.StopEditing)
}

func (rh *ReviewHandler) Insert(c *gin.Context) {
	sessionID, ok := rh.sessionID(c)
	if !ok {
		return
	}
	var req services.InsertSegmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	snapshot, err := rh.reviewService.Insert(c.Request.Context(), sessionID, req)
	if err != nil {
		RespondAppError(c, http.StatusBadRequest, "insert_failed", err)
		return
	}
	RespondOK(c, snapshot)
}

func (rh *ReviewHandler) Delete(c *gin.Context) {
	rh.indexed(c, rh.reviewService.Delete)
}

func (rh *ReviewHandler) Resize(c *gin.Context) {
	sessionID, ok := rh.sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Index int    `json:"index"`
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	snapshot, err := rh.reviewService.Resize(c.Request.Context(), sessionID, req.Index, req.Start, req.End)
	if err != nil {
		RespondAppError(c, http.StatusBadRequest, "resize_failed", err)
		return
	}
	RespondOK(c, snapshot)
}

func (rh *ReviewHandler) UpdateContent(c *gin.Context) {
	sessionID, ok := rh.sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Index int `json:"index"`
		services.UpdateContentInput
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	snapshot, err := rh.reviewService.UpdateContent(c.Request.Context(), sessionID, req.Index, req.UpdateContentInput)
	if err != nil {
		RespondAppError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, snapshot)
}

func (rh *ReviewHandler) Save(c *gin.Context) {
	sessionID, ok := rh.sessionID(c)
	if !ok {
		return
	}
	recording, err := rh.reviewService.Save(c.Request.Context(), sessionID)
	if err != nil {
		RespondAppError(c, http.StatusBadRequest, "save_failed", err)
		return
	}
	RespondOK(c, recording)
}

func (rh *ReviewHandler) Close(c *gin.Context) {
	sessionID, ok := rh.sessionID(c)
	if !ok {
		return
	}
	if err := rh.reviewService.CloseSession(c.Request.Context(), sessionID); err != nil {
		RespondAppError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"closed": sessionID})
}

func (rh *ReviewHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("sessionID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return uuid.Nil, false
	}
	return sessionID, true
}

func (rh *ReviewHandler) simple(c *gin.Context, call func(ctx context.Context, sessionID uuid.UUID) (*services.SessionSnapshot, error)) {
	sessionID, ok := rh.sessionID(c)
	if !ok {
		return
	}
	snapshot, err := call(c.Request.Context(), sessionID)
	if err != nil {
		RespondAppError(c, http.StatusBadRequest, "operation_failed", err)
		return
	}
	RespondOK(c, snapshot)
}

func (rh *ReviewHandler) indexed(c *gin.Context, call func(ctx context.Context, sessionID uuid.UUID, index int) (*services.SessionSnapshot, error)) {
	sessionID, ok := rh.sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Index int `json:"index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	snapshot, err := call(c.Request.Context(), sessionID, req.Index)
	if err != nil {
		RespondAppError(c, http.StatusBadRequest, "operation_failed", err)
		return
	}
	RespondOK(c, snapshot)
}
