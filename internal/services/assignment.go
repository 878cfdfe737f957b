package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shrutilabs/shruti-backend/internal/bulk"
	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/repos"
	"github.com/shrutilabs/shruti-backend/internal/sse"
)

type AssignmentService interface {
	Assign(ctx context.Context, recordingID, userID uuid.UUID) error
	Unassign(ctx context.Context, recordingID uuid.UUID) error
	Flag(ctx context.Context, recordingID uuid.UUID, flagged bool, reason string) error
	BulkAssign(ctx context.Context, recordingIDs []uuid.UUID, userID uuid.UUID) bulk.Result
	BulkUnassign(ctx context.Context, recordingIDs []uuid.UUID) bulk.Result
	BulkFlag(ctx context.Context, recordingIDs []uuid.UUID, flagged bool, reason string) bulk.Result
}

type assignmentService struct {
	db            *gorm.DB
	log           *logger.Logger
	recordingRepo repos.RecordingRepo
	userRepo      repos.UserRepo
	coordinator   *bulk.Coordinator
	emitter       SSEEmitter
}

func NewAssignmentService(
	db *gorm.DB,
	log *logger.Logger,
	recordingRepo repos.RecordingRepo,
	userRepo repos.UserRepo,
	coordinator *bulk.Coordinator,
	emitter SSEEmitter,
) AssignmentService {
	return &assignmentService{
		db:            db,
		log:           log.With("service", "AssignmentService"),
		recordingRepo: recordingRepo,
		userRepo:      userRepo,
		coordinator:   coordinator,
		emitter:       emitter,
	}
}

func (s *assignmentService) Assign(ctx context.Context, recordingID, userID uuid.UUID) error {
	users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return fmt.Errorf("Failed to fetch annotator: %w", err)
	}
	if len(users) == 0 {
		return fmt.Errorf("Annotator %s not found", userID)
	}

	recordings, err := s.recordingRepo.GetByIDs(ctx, nil, []uuid.UUID{recordingID})
	if err != nil {
		return fmt.Errorf("Failed to fetch recording: %w", err)
	}
	if len(recordings) == 0 {
		return gorm.ErrRecordNotFound
	}

	if err := s.recordingRepo.SetAssignedUser(ctx, nil, recordingID, &userID); err != nil {
		return fmt.Errorf("Failed to assign recording: %w", err)
	}

	s.broadcast(ctx, recordingID, sse.SSEEventRecordingAssigned, map[string]any{
		"recording_id":     recordingID,
		"assigned_user_id": userID,
	})
	s.log.Info("Assigned recording", "recordingID", recordingID, "assigned_user_id", userID)
	return nil
}

func (s *assignmentService) Unassign(ctx context.Context, recordingID uuid.UUID) error {
	if err := s.recordingRepo.SetAssignedUser(ctx, nil, recordingID, nil); err != nil {
		return fmt.Errorf("Failed to unassign recording: %w", err)
	}
	s.broadcast(ctx, recordingID, sse.SSEEventRecordingAssigned, map[string]any{
		"recording_id":     recordingID,
		"assigned_user_id": nil,
	})
	s.log.Info("Unassigned recording", "recordingID", recordingID)
	return nil
}

func (s *assignmentService) Flag(ctx context.Context, recordingID uuid.UUID, flagged bool, reason string) error {
	if flagged && reason == "" {
		return fmt.Errorf("A reason is required to flag a recording")
	}
	if !flagged {
		reason = ""
	}
	if err := s.recordingRepo.SetFlag(ctx, nil, recordingID, flagged, reason); err != nil {
		return fmt.Errorf("Failed to update flag: %w", err)
	}
	s.broadcast(ctx, recordingID, sse.SSEEventRecordingFlagged, map[string]any{
		"recording_id": recordingID,
		"flagged":      flagged,
		"reason":       reason,
	})
	s.log.Info("Updated recording flag", "recordingID", recordingID, "flagged", flagged)
	return nil
}

func (s *assignmentService) BulkAssign(ctx context.Context, recordingIDs []uuid.UUID, userID uuid.UUID) bulk.Result {
	return s.coordinator.Run(ctx, recordingIDs, func(ctx context.Context, id uuid.UUID) error {
		return s.Assign(ctx, id, userID)
	})
}

func (s *assignmentService) BulkUnassign(ctx context.Context, recordingIDs []uuid.UUID) bulk.Result {
	return s.coordinator.Run(ctx, recordingIDs, func(ctx context.Context, id uuid.UUID) error {
		return s.Unassign(ctx, id)
	})
}

func (s *assignmentService) BulkFlag(ctx context.Context, recordingIDs []uuid.UUID, flagged bool, reason string) bulk.Result {
	return s.coordinator.Run(ctx, recordingIDs, func(ctx context.Context, id uuid.UUID) error {
		return s.Flag(ctx, id, flagged, reason)
	})
}

func (s *assignmentService) broadcast(ctx context.Context, recordingID uuid.UUID, event sse.SSEEvent, data map[string]any) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(ctx, sse.SSEMessage{
		Channel: sse.RecordingChannel(recordingID),
		Event:   event,
		Data:    data,
	})
}
