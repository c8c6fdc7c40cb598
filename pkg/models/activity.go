package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity type constants for lifecycle transitions.
const (
	ActivityAssessmentCreated   = "assessment_created"
	ActivityAssessmentCompleted = "assessment_completed"
	ActivityAssessmentLocked    = "assessment_locked"
	ActivityAssessmentUnlocked  = "assessment_unlocked"
	ActivityAssessmentArchived  = "assessment_archived"
	ActivityEditRequestCreated  = "edit_request_created"
	ActivityEditRequestApproved = "edit_request_approved"
	ActivityEditRequestDenied   = "edit_request_denied"
	ActivityUserInvited         = "user_invited"
	ActivityUserSuspended       = "user_suspended"
)

// Activity priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ActivityLog is an append-only event record written as a side effect of
// lifecycle transitions. Entries are never mutated or deleted.
type ActivityLog struct {
	ID           uuid.UUID  `json:"id"`
	ActorID      uuid.UUID  `json:"actor_id"`
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty"`
	AssessmentID *uuid.UUID `json:"assessment_id,omitempty"` // public identifier
	ActivityType string     `json:"activity_type"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority"`
	Metadata     JSONBMap   `json:"metadata,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
