package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AssessmentSection is one scoring category of an assessment. Unique per
// (assessment_id, section_type); saves are upserts, never duplicates.
type AssessmentSection struct {
	ID           int64       `json:"-"`
	AssessmentID int64       `json:"-"`
	SectionType  string      `json:"section_type"`
	Score        int         `json:"score"`
	MaxScore     int         `json:"max_score"`
	IsCompleted  bool        `json:"is_completed"`
	Variables    VariableMap `json:"variables"`
	LocationData LocationMap `json:"location_data,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// VariableMap maps variable IDs to their awarded point values.
type VariableMap map[string]int

// Value implements driver.Valuer for JSONB serialization.
func (v VariableMap) Value() (driver.Value, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner for JSONB deserialization.
func (v *VariableMap) Scan(value interface{}) error {
	if value == nil {
		*v = make(VariableMap)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into VariableMap", value)
	}

	return json.Unmarshal(bytes, v)
}

// GeoPoint is a coordinate attached to a location-requiring variable.
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// LocationMap maps variable IDs to their recorded coordinates.
type LocationMap map[string]GeoPoint

// Value implements driver.Valuer for JSONB serialization.
func (l LocationMap) Value() (driver.Value, error) {
	if l == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB deserialization.
func (l *LocationMap) Scan(value interface{}) error {
	if value == nil {
		*l = make(LocationMap)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into LocationMap", value)
	}

	return json.Unmarshal(bytes, l)
}
