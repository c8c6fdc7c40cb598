// Package models contains domain types for the GREDA-GBC assessment engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a platform account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`   // 'admin', 'assessor', 'client'
	Status    string    `json:"status"` // 'active', 'suspended', 'pending'
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Subscription gates client-side feature access. Empty for admins and
	// assessors.
	SubscriptionTier   string `json:"subscription_tier,omitempty"`   // 'basic', 'premium'
	SubscriptionStatus string `json:"subscription_status,omitempty"` // 'active', 'expired', 'cancelled'
}

// Role constants.
const (
	RoleAdmin    = "admin"
	RoleAssessor = "assessor"
	RoleClient   = "client"
)

// User status constants. Users are never hard-deleted; they are suspended.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusPending   = "pending"
)

// Subscription tier constants for client accounts.
const (
	SubscriptionBasic   = "basic"
	SubscriptionPremium = "premium"
)

// Subscription status constants for client accounts.
const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleAssessor, RoleClient}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// CanConductAssessments reports whether the role may create and score
// assessments. Clients are read-only.
func CanConductAssessments(role string) bool {
	return role == RoleAdmin || role == RoleAssessor
}

// CanBypassLock is the single capability check for writing to a locked
// assessment. Only admins bypass the lock; everyone else goes through the
// edit-request flow.
func CanBypassLock(role string) bool {
	return role == RoleAdmin
}
