package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RecordingKindWord   = "word"
	RecordingKindPhrase = "phrase"
)

// Recording is one transcribed audio file with its full annotation document.
// Segments is the whole series in its native wire shape (word entries with
// numeric seconds, phrase entries with HH:MM:SS:mmm timecodes); saves always
// replace it in full, never delta-patch it.
type Recording struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FileName       string         `gorm:"column:file_name;not null;index" json:"file_name"`
	AudioKey       string         `gorm:"column:audio_key" json:"audio_key"`
	Language       string         `gorm:"column:language;not null" json:"language"`
	Kind           string         `gorm:"column:kind;not null;default:'word'" json:"kind"`
	TotalDuration  float64        `gorm:"column:total_duration" json:"total_duration"`
	TotalSegments  int            `gorm:"column:total_segments" json:"total_segments"`
	Edited         bool           `gorm:"column:edited;not null;default:false" json:"edited"`
	EditedAt       *time.Time     `gorm:"column:edited_at" json:"edited_at,omitempty"`
	AssignedUserID *uuid.UUID     `gorm:"type:uuid;column:assigned_user_id;index" json:"assigned_user_id,omitempty"`
	AssignedUser   *User          `gorm:"foreignKey:AssignedUserID;references:ID" json:"assigned_user,omitempty"`
	Flagged        bool           `gorm:"column:flagged;not null;default:false" json:"flagged"`
	FlagReason     string         `gorm:"column:flag_reason" json:"flag_reason,omitempty"`
	Segments       datatypes.JSON `gorm:"column:segments;type:jsonb" json:"segments"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Recording) TableName() string { return "recording" }
