package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Assessment represents one building evaluation conducted by an assessor on
// behalf of a client. The internal ID is used for ownership joins; PublicID is
// the opaque identifier shared outside the platform.
type Assessment struct {
	ID       int64     `json:"-"`
	PublicID uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`   // assessor conducting the evaluation
	ClientID uuid.UUID `json:"client_id"` // building owner

	BuildingName string   `json:"building_name"`
	BuildingInfo JSONBMap `json:"building_info"`

	Status   string     `json:"status"` // 'draft', 'completed'
	IsLocked bool       `json:"is_locked"`
	LockedAt *time.Time `json:"locked_at,omitempty"`
	LockedBy *uuid.UUID `json:"locked_by,omitempty"`

	OverallScore      int `json:"overall_score"`
	MaxPossibleScore  int `json:"max_possible_score"`
	CompletedSections int `json:"completed_sections"`
	TotalSections     int `json:"total_sections"`

	// Version is an optimistic concurrency counter. Writers read it, mutate,
	// and update WHERE version matches; a stale write returns ErrConflict.
	Version int64 `json:"version"`

	ConductedAt *time.Time `json:"conducted_at,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Assessment status constants.
const (
	AssessmentStatusDraft     = "draft"
	AssessmentStatusCompleted = "completed"
)

// Progress labels derived from section completion. These are view
// projections, never persisted.
const (
	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressAlmostDone = "almost_done"
)

// Progress returns the derived progress label for draft assessments.
func (a *Assessment) Progress() string {
	switch {
	case a.CompletedSections == 0:
		return ProgressNotStarted
	case a.TotalSections > 0 && a.CompletedSections >= a.TotalSections-1:
		return ProgressAlmostDone
	default:
		return ProgressInProgress
	}
}

// IsArchived reports whether the assessment has been soft-deleted by an admin.
func (a *Assessment) IsArchived() bool {
	return a.ArchivedAt != nil
}

// JSONBMap is a map type that handles PostgreSQL JSONB serialization.
type JSONBMap map[string]interface{}

// Value implements driver.Valuer for database serialization.
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for database deserialization.
func (j *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONBMap", value)
	}

	return json.Unmarshal(bytes, j)
}
