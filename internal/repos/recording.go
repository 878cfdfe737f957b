package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/types"
)

// RecordingFilter narrows List. Nil/zero fields match everything.
type RecordingFilter struct {
	AssignedUserID *uuid.UUID
	Unassigned     bool
	Flagged        *bool
	Language       string
	Kind           string
}

type RecordingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, recordings []*types.Recording) ([]*types.Recording, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, recordingIDs []uuid.UUID) ([]*types.Recording, error)
	GetByFileName(ctx context.Context, tx *gorm.DB, fileName string) (*types.Recording, error)
	List(ctx context.Context, tx *gorm.DB, filter RecordingFilter) ([]*types.Recording, error)
	UpdateDocument(ctx context.Context, tx *gorm.DB, recordingID uuid.UUID, segments datatypes.JSON, totalSegments int, editedAt time.Time) error
	SetAssignedUser(ctx context.Context, tx *gorm.DB, recordingID uuid.UUID, userID *uuid.UUID) error
	SetFlag(ctx context.Context, tx *gorm.DB, recordingID uuid.UUID, flagged bool, reason string) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, recordingIDs []uuid.UUID) error
}

type recordingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecordingRepo(db *gorm.DB, baseLog *logger.Logger) RecordingRepo {
	return &recordingRepo{db: db, log: baseLog.With("repo", "RecordingRepo")}
}

func (r *recordingRepo) Create(ctx context.Context, tx *gorm.DB, recordings []*types.Recording) ([]*types.Recording, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(recordings) == 0 {
		return []*types.Recording{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&recordings).Error; err != nil {
		return nil, err
	}
	return recordings, nil
}

func (r *recordingRepo) GetByIDs(ctx context.Context, tx *gorm.DB, recordingIDs []uuid.UUID) ([]*types.Recording, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Recording
	if len(recordingIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", recordingIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recordingRepo) GetByFileName(ctx context.Context, tx *gorm.DB, fileName string) (*types.Recording, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Recording
	if err := transaction.WithContext(ctx).
		Where("file_name = ?", fileName).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *recordingRepo) List(ctx context.Context, tx *gorm.DB, filter RecordingFilter) ([]*types.Recording, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).Model(&types.Recording{})
	if filter.AssignedUserID != nil {
		q = q.Where("assigned_user_id = ?", *filter.AssignedUserID)
	}
	if filter.Unassigned {
		q = q.Where("assigned_user_id IS NULL")
	}
	if filter.Flagged != nil {
		q = q.Where("flagged = ?", *filter.Flagged)
	}
	if filter.Language != "" {
		q = q.Where("language = ?", filter.Language)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}

	var results []*types.Recording
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recordingRepo) UpdateDocument(ctx context.Context, tx *gorm.DB, recordingID uuid.UUID, segments datatypes.JSON, totalSegments int, editedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Recording{}).
		Where("id = ?", recordingID).
		Updates(map[string]interface{}{
			"segments":       segments,
			"total_segments": totalSegments,
			"edited":         true,
			"edited_at":      editedAt,
		}).Error
}

func (r *recordingRepo) SetAssignedUser(ctx context.Context, tx *gorm.DB, recordingID uuid.UUID, userID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Recording{}).
		Where("id = ?", recordingID).
		Update("assigned_user_id", userID).Error
}

func (r *recordingRepo) SetFlag(ctx context.Context, tx *gorm.DB, recordingID uuid.UUID, flagged bool, reason string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Recording{}).
		Where("id = ?", recordingID).
		Updates(map[string]interface{}{
			"flagged":     flagged,
			"flag_reason": reason,
		}).Error
}

func (r *recordingRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, recordingIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(recordingIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", recordingIDs).
		Delete(&types.Recording{}).Error; err != nil {
		return err
	}
	return nil
}
