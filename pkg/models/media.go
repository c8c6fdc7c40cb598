package models

import (
	"time"

	"github.com/google/uuid"
)

// Media type constants.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeAudio = "audio"
)

// AssessmentMedia is an uploaded evidence file tied to a variable of an
// assessment section. The engine only tracks references; the bytes live in an
// external media store addressed by StoragePath.
type AssessmentMedia struct {
	ID           uuid.UUID `json:"id"`
	AssessmentID int64     `json:"-"`
	SectionType  string    `json:"section_type"`
	FieldName    string    `json:"field_name"` // variable ID the evidence supports
	MediaType    string    `json:"media_type"`
	StoragePath  string    `json:"storage_path"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}
