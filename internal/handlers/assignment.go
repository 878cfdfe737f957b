package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shrutilabs/shruti-backend/internal/bulk"
	"github.com/shrutilabs/shruti-backend/internal/services"
)

type AssignmentHandler struct {
	assignmentService services.AssignmentService
}

func NewAssignmentHandler(assignmentService services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

func (ah *AssignmentHandler) Assign(c *gin.Context) {
	recordingID, ok := ah.recordingID(c)
	if !ok {
		return
	}
	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := ah.assignmentService.Assign(c.Request.Context(), recordingID, req.UserID); err != nil {
		RespondError(c, http.StatusBadRequest, "assign_failed", err)
		return
	}
	RespondOK(c, gin.H{"recording_id": recordingID, "assigned_user_id": req.UserID})
}

func (ah *AssignmentHandler) Unassign(c *gin.Context) {
	recordingID, ok := ah.recordingID(c)
	if !ok {
		return
	}
	if err := ah.assignmentService.Unassign(c.Request.Context(), recordingID); err != nil {
		RespondError(c, http.StatusBadRequest, "unassign_failed", err)
		return
	}
	RespondOK(c, gin.H{"recording_id": recordingID})
}

func (ah *AssignmentHandler) Flag(c *gin.Context) {
	recordingID, ok := ah.recordingID(c)
	if !ok {
		return
	}
	var req struct {
		Flagged bool   `json:"flagged"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := ah.assignmentService.Flag(c.Request.Context(), recordingID, req.Flagged, req.Reason); err != nil {
		RespondError(c, http.StatusBadRequest, "flag_failed", err)
		return
	}
	RespondOK(c, gin.H{"recording_id": recordingID, "flagged": req.Flagged})
}

func (ah *AssignmentHandler) BulkAssign(c *gin.Context) {
	var req struct {
		RecordingIDs []uuid.UUID `json:"recording_ids"`
		UserID       uuid.UUID   `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(req.RecordingIDs) == 0 {
		RespondError(c, http.StatusBadRequest, "empty_batch", errors.New("recording_ids must not be empty"))
		return
	}
	result := ah.assignmentService.BulkAssign(c.Request.Context(), req.RecordingIDs, req.UserID)
	respondBulk(c, result)
}

func (ah *AssignmentHandler) BulkUnassign(c *gin.Context) {
	var req struct {
		RecordingIDs []uuid.UUID `json:"recording_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(req.RecordingIDs) == 0 {
		RespondError(c, http.StatusBadRequest, "empty_batch", errors.New("recording_ids must not be empty"))
		return
	}
	result := ah.assignmentService.BulkUnassign(c.Request.Context(), req.RecordingIDs)
	respondBulk(c, result)
}

func (ah *AssignmentHandler) BulkFlag(c *gin.Context) {
	var req struct {
		RecordingIDs []uuid.UUID `json:"recording_ids"`
		Flagged      bool        `json:"flagged"`
		Reason       string      `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(req.RecordingIDs) == 0 {
		RespondError(c, http.StatusBadRequest, "empty_batch", errors.New("recording_ids must not be empty"))
		return
	}
	result := ah.assignmentService.BulkFlag(c.Request.Context(), req.RecordingIDs, req.Flagged, req.Reason)
	respondBulk(c, result)
}

func (ah *AssignmentHandler) recordingID(c *gin.Context) (uuid.UUID, bool) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return recordingID, true
}

// respondBulk renders a fan-out result. A batch with at least one success is
// a 200; the per-item failures ride along either way.
func respondBulk(c *gin.Context, result bulk.Result) {
	status := http.StatusOK
	if !result.OK() {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"errors":    result.Errors,
	})
}
