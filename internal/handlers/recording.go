package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shrutilabs/shruti-backend/internal/languages"
	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/repos"
	"github.com/shrutilabs/shruti-backend/internal/services"
	"github.com/shrutilabs/shruti-backend/internal/utils"
)

type RecordingHandler struct {
	log              *logger.Logger
	recordingService services.RecordingService
	registry         *languages.Registry
	audioDir         string
}

func NewRecordingHandler(log *logger.Logger, recordingService services.RecordingService, registry *languages.Registry) *RecordingHandler {
	return &RecordingHandler{
		log:              log.With("handler", "RecordingHandler"),
		recordingService: recordingService,
		registry:         registry,
		audioDir:         utils.GetEnv("AUDIO_DIR", "audio", log),
	}
}

func (rh *RecordingHandler) Import(c *gin.Context) {
	var req services.ImportRecordingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	recording, err := rh.recordingService.Import(c.Request.Context(), req)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "import_failed", err)
		return
	}
	RespondOK(c, recording)
}

func (rh *RecordingHandler) List(c *gin.Context) {
	var filter repos.RecordingFilter

	if raw := c.Query("assigned_user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
			return
		}
		filter.AssignedUserID = &userID
	}
	if c.Query("unassigned") == "true" {
		filter.Unassigned = true
	}
	if raw := c.Query("flagged"); raw != "" {
		flagged := raw == "true"
		filter.Flagged = &flagged
	}
	filter.Language = c.Query("language")
	filter.Kind = c.Query("kind")

	recordings, err := rh.recordingService.List(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"recordings": recordings})
}

func (rh *RecordingHandler) Get(c *gin.Context) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	recording, err := rh.recordingService.Get(c.Request.Context(), recordingID)
	if err != nil {
		RespondAppError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	RespondOK(c, recording)
}

func (rh *RecordingHandler) Export(c *gin.Context) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	doc, err := rh.recordingService.Export(c.Request.Context(), recordingID)
	if err != nil {
		RespondAppError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	RespondOK(c, doc)
}

func (rh *RecordingHandler) Delete(c *gin.Context) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := rh.recordingService.Delete(c.Request.Context(), []uuid.UUID{recordingID}); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": recordingID})
}

// Audio streams the recording's audio file. Range requests come for free
// through http.ServeFile, which the player relies on for seeking.
func (rh *RecordingHandler) Audio(c *gin.Context) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	recording, err := rh.recordingService.Get(c.Request.Context(), recordingID)
	if err != nil {
		RespondAppError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if recording.AudioKey == "" {
		RespondError(c, http.StatusNotFound, "no_audio", errors.New("recording has no audio"))
		return
	}
	// AudioKey is stored by import; reject anything trying to escape the dir.
	key := filepath.Clean(recording.AudioKey)
	if strings.HasPrefix(key, "..") || filepath.IsAbs(key) {
		RespondError(c, http.StatusBadRequest, "invalid_audio_key", errors.New("invalid audio key"))
		return
	}
	path := filepath.Join(rh.audioDir, key)
	if _, err := os.Stat(path); err != nil {
		RespondError(c, http.StatusNotFound, "audio_missing", err)
		return
	}
	http.ServeFile(c.Writer, c.Request, path)
}

func (rh *RecordingHandler) Languages(c *gin.Context) {
	names := rh.registry.Names()
	out := make([]gin.H, 0, len(names))
	for _, name := range names {
		out = append(out, gin.H{"name": name, "script": rh.registry.Script(name)})
	}
	RespondOK(c, gin.H{"languages": out})
}
