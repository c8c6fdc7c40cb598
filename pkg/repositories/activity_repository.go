package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/greda-gbc/assessment-engine/pkg/database"
	"github.com/greda-gbc/assessment-engine/pkg/models"
)

// ActivityRepository provides append-only data access to the activity log.
// Entries are never updated or deleted; the table is the audit trail.
type ActivityRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	ListByTargetUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error)
	ListByAssessment(ctx context.Context, assessmentPublicID uuid.UUID) ([]*models.ActivityLog, error)
}

type activityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *database.DB) ActivityRepository {
	return &activityRepository{db: db}
}

var _ ActivityRepository = (*activityRepository)(nil)

func (r *activityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	now := time.Now()

	query := `
		INSERT INTO activity_logs (
			actor_id, target_user_id, assessment_id, activity_type,
			title, description, priority, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		entry.ActorID,
		entry.TargetUserID,
		entry.AssessmentID,
		entry.ActivityType,
		entry.Title,
		entry.Description,
		entry.Priority,
		entry.Metadata,
		now,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity log entry: %w", err)
	}

	return nil
}

func (r *activityRepository) ListByTargetUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error) {
	query := activitySelectColumns + `
		WHERE target_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

func (r *activityRepository) ListByAssessment(ctx context.Context, assessmentPublicID uuid.UUID) ([]*models.ActivityLog, error) {
	query := activitySelectColumns + `
		WHERE assessment_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, assessmentPublicID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

// ============================================================================
// Helper Functions
// ============================================================================

const activitySelectColumns = `
	SELECT id, actor_id, target_user_id, assessment_id, activity_type,
	       title, description, priority, metadata, created_at
	FROM activity_logs`

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectActivities(rows pgxRows) ([]*models.ActivityLog, error) {
	var entries []*models.ActivityLog
	for rows.Next() {
		var e models.ActivityLog
		err := rows.Scan(
			&e.ID,
			&e.ActorID,
			&e.TargetUserID,
			&e.AssessmentID,
			&e.ActivityType,
			&e.Title,
			&e.Description,
			&e.Priority,
			&e.Metadata,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity log: %w", err)
	}

	return entries, nil
}
