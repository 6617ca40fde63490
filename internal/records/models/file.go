package models

import (
	"time"

	"github.com/google/uuid"
)

// AnswerFile is metadata for an uploaded file answer. The bytes live in
// object storage, outside this service.
type AnswerFile struct {
	ID        uuid.UUID `json:"id"`
	RecordID  uuid.UUID `json:"record_id"`
	GroupID   string    `json:"group_id"`
	FieldID   string    `json:"field_id"`
	FileName  string    `json:"file_name"`
	Path      string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}
