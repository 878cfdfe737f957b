package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/shrutilabs/shruti-backend/internal/apierr"
	"github.com/shrutilabs/shruti-backend/internal/languages"
	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/repos"
	"github.com/shrutilabs/shruti-backend/internal/segment"
	"github.com/shrutilabs/shruti-backend/internal/sse"
	"github.com/shrutilabs/shruti-backend/internal/types"
)

// ImportRecordingInput carries one transcribed file into the annotation store.
// Segments is the raw transcription document in its native wire shape.
type ImportRecordingInput struct {
	FileName      string          `json:"file_name"`
	AudioKey      string          `json:"audio_key"`
	Language      string          `json:"language"`
	Kind          string          `json:"kind"`
	TotalDuration float64         `json:"total_duration"`
	Segments      json.RawMessage `json:"segments"`
}

// ExportAnnotation is one entry of the export document. Start and end are
// rendered in the recording kind's native time encoding.
type ExportAnnotation struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Speaker string `json:"speaker,omitempty"`
	Content string `json:"content"`
	Edited  bool   `json:"edited,omitempty"`
}

type ExportDocument struct {
	ID            uuid.UUID          `json:"id"`
	FileName      string             `json:"file_name"`
	Language      string             `json:"language"`
	Script        string             `json:"script"`
	Kind          string             `json:"kind"`
	TotalSegments int                `json:"total_segments"`
	EditedCount   int                `json:"edited_count"`
	Annotations   []ExportAnnotation `json:"annotations"`
}

type RecordingService interface {
	Import(ctx context.Context, input ImportRecordingInput) (*types.Recording, error)
	List(ctx context.Context, filter repos.RecordingFilter) ([]*types.Recording, error)
	Get(ctx context.Context, recordingID uuid.UUID) (*types.Recording, error)
	LoadSeries(ctx context.Context, recordingID uuid.UUID) (*types.Recording, *segment.Series, error)
	Save(ctx context.Context, recordingID uuid.UUID, segments []segment.Segment) (*types.Recording, error)
	Export(ctx context.Context, recordingID uuid.UUID) (*ExportDocument, error)
	Delete(ctx context.Context, recordingIDs []uuid.UUID) error
}

type recordingService struct {
	db            *gorm.DB
	log           *logger.Logger
	recordingRepo repos.RecordingRepo
	registry      *languages.Registry
	emitter       SSEEmitter
}

func NewRecordingService(
	db *gorm.DB,
	log *logger.Logger,
	recordingRepo repos.RecordingRepo,
	registry *languages.Registry,
	emitter SSEEmitter,
) RecordingService {
	return &recordingService{
		db:            db,
		log:           log.With("service", "RecordingService"),
		recordingRepo: recordingRepo,
		registry:      registry,
		emitter:       emitter,
	}
}

func (rs *recordingService) Import(ctx context.Context, input ImportRecordingInput) (*types.Recording, error) {
	if input.FileName == "" {
		return nil, fmt.Errorf("A file name is required to import a recording")
	}
	if input.Language == "" {
		return nil, fmt.Errorf("A language is required to import a recording")
	}
	kind := input.Kind
	if kind == "" {
		kind = types.RecordingKindWord
	}
	if kind != types.RecordingKindWord && kind != types.RecordingKindPhrase {
		return nil, fmt.Errorf("Unknown recording kind %q", kind)
	}

	segments, err := decodeByKind(kind, input.Segments, input.Language)
	if err != nil {
		return nil, fmt.Errorf("Failed to decode transcription document: %w", err)
	}

	totalDuration := input.TotalDuration
	if totalDuration == 0 {
		for _, seg := range segments {
			if seg.End > totalDuration {
				totalDuration = seg.End
			}
		}
	}

	// Normalize storage to series order regardless of source order.
	series := segment.FromSegments(segments, totalDuration)
	raw, err := segment.EncodeDocuments(series.Segments())
	if err != nil {
		return nil, fmt.Errorf("Failed to encode transcription document: %w", err)
	}

	recording := &types.Recording{
		ID:            uuid.New(),
		FileName:      input.FileName,
		AudioKey:      input.AudioKey,
		Language:      input.Language,
		Kind:          kind,
		TotalDuration: totalDuration,
		TotalSegments: series.Len(),
		Segments:      datatypes.JSON(raw),
	}
	if err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, cErr := rs.recordingRepo.Create(ctx, tx, []*types.Recording{recording}); cErr != nil {
			return fmt.Errorf("Failed to create recording: %w", cErr)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	rs.log.Info("Imported recording",
		"recordingID", recording.ID,
		"fileName", recording.FileName,
		"kind", recording.Kind,
		"segments", recording.TotalSegments,
	)
	return recording, nil
}

func (rs *recordingService) List(ctx context.Context, filter repos.RecordingFilter) ([]*types.Recording, error) {
	return rs.recordingRepo.List(ctx, nil, filter)
}

func (rs *recordingService) Get(ctx context.Context, recordingID uuid.UUID) (*types.Recording, error) {
	found, err := rs.recordingRepo.GetByIDs(ctx, nil, []uuid.UUID{recordingID})
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch recording: %w", err)
	}
	if len(found) == 0 {
		return nil, apierr.New(http.StatusNotFound, "recording_not_found", fmt.Errorf("recording %s not found", recordingID))
	}
	return found[0], nil
}

// LoadSeries fetches a recording and decodes its stored document into an
// in-memory series ready for review.
func (rs *recordingService) LoadSeries(ctx context.Context, recordingID uuid.UUID) (*types.Recording, *segment.Series, error) {
	recording, err := rs.Get(ctx, recordingID)
	if err != nil {
		return nil, nil, err
	}
	segments, err := decodeByKind(recording.Kind, json.RawMessage(recording.Segments), recording.Language)
	if err != nil {
		return nil, nil, fmt.Errorf("Failed to decode stored document: %w", err)
	}
	return recording, segment.FromSegments(segments, recording.TotalDuration), nil
}

// Save replaces the recording's whole document. Annotation edits always save
// the full series; there is no per-segment patching.
func (rs *recordingService) Save(ctx context.Context, recordingID uuid.UUID, segments []segment.Segment) (*types.Recording, error) {
	raw, err := segment.EncodeDocuments(segments)
	if err != nil {
		return nil, fmt.Errorf("Failed to encode document: %w", err)
	}

	editedAt := time.Now()
	if err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return rs.recordingRepo.UpdateDocument(ctx, tx, recordingID, datatypes.JSON(raw), len(segments), editedAt)
	}); err != nil {
		return nil, fmt.Errorf("Failed to save document: %w", err)
	}

	recording, err := rs.Get(ctx, recordingID)
	if err != nil {
		return nil, err
	}

	if rs.emitter != nil {
		rs.emitter.Emit(ctx, sse.SSEMessage{
			Channel: sse.RecordingChannel(recordingID),
			Event:   sse.SSEEventRecordingSaved,
			Data: map[string]any{
				"recording_id":   recordingID,
				"total_segments": len(segments),
				"edited_at":      editedAt,
			},
		})
	}
	return recording, nil
}

func (rs *recordingService) Export(ctx context.Context, recordingID uuid.UUID) (*ExportDocument, error) {
	recording, series, err := rs.LoadSeries(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	return BuildExportDocument(recording, series, rs.registry.Script(recording.Language)), nil
}

func (rs *recordingService) Delete(ctx context.Context, recordingIDs []uuid.UUID) error {
	return rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return rs.recordingRepo.SoftDeleteByIDs(ctx, tx, recordingIDs)
	})
}

// BuildExportDocument renders the review-ready export: each annotation with
// its bounds in the recording kind's native time encoding.
func BuildExportDocument(recording *types.Recording, series *segment.Series, script string) *ExportDocument {
	segments := series.Segments()
	annotations := make([]ExportAnnotation, 0, len(segments))
	for _, seg := range segments {
		a := ExportAnnotation{
			Start:   segment.NativeTimeText(seg.Kind, seg.Start),
			End:     segment.NativeTimeText(seg.Kind, seg.End),
			Content: segment.ContentText(seg),
			Edited:  seg.Edited,
		}
		if seg.Kind == segment.KindPhrase && seg.Phrase != nil {
			a.Speaker = seg.Phrase.Speaker
		}
		annotations = append(annotations, a)
	}
	return &ExportDocument{
		ID:            recording.ID,
		FileName:      recording.FileName,
		Language:      recording.Language,
		Script:        script,
		Kind:          recording.Kind,
		TotalSegments: series.Len(),
		EditedCount:   series.EditedCount(),
		Annotations:   annotations,
	}
}

func decodeByKind(kind string, raw json.RawMessage, language string) ([]segment.Segment, error) {
	switch kind {
	case types.RecordingKindPhrase:
		return segment.DecodePhraseDocuments(raw, language)
	default:
		return segment.DecodeWordDocuments(raw, language)
	}
}
