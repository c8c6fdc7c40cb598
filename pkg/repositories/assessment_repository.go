package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/greda-gbc/assessment-engine/pkg/apperrors"
	"github.com/greda-gbc/assessment-engine/pkg/database"
	"github.com/greda-gbc/assessment-engine/pkg/models"
)

// AssessmentRepository provides data access for assessments and their
// sections. Section saves are upserts under the (assessment_id, section_type)
// unique constraint, so retries are naturally idempotent.
type AssessmentRepository interface {
	Create(ctx context.Context, a *models.Assessment) error
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Assessment, error)
	GetSections(ctx context.Context, assessmentID int64) ([]*models.AssessmentSection, error)
	ListByAssessor(ctx context.Context, userID uuid.UUID) ([]*models.Assessment, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Assessment, error)
	ListAll(ctx context.Context) ([]*models.Assessment, error)

	// UpsertSectionWithAggregates persists a section and the recomputed
	// assessment aggregates as one atomic unit. The assessment must carry the
	// expected version; a stale version returns ErrConflict and nothing is
	// written. On success the assessment's version and timestamps are
	// refreshed in place.
	UpsertSectionWithAggregates(ctx context.Context, a *models.Assessment, section *models.AssessmentSection) error

	// Complete marks the assessment completed, setting conducted_at only on
	// the first completion. Deliberately not version-checked: re-completing is
	// an idempotent re-set of the same fields.
	Complete(ctx context.Context, a *models.Assessment, conductedAt time.Time) error

	SetLock(ctx context.Context, a *models.Assessment, locked bool, lockedBy *uuid.UUID) error
	Archive(ctx context.Context, assessmentID int64, archivedAt time.Time) error
}

type assessmentRepository struct {
	db *database.DB
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(db *database.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

var _ AssessmentRepository = (*assessmentRepository)(nil)

// ============================================================================
// Assessment CRUD
// ============================================================================

func (r *assessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	now := time.Now()

	query := `
		INSERT INTO assessments (
			user_id, client_id, building_name, building_info, status,
			overall_score, max_possible_score, completed_sections, total_sections,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, public_id, version, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		a.UserID,
		a.ClientID,
		a.BuildingName,
		a.BuildingInfo,
		a.Status,
		a.OverallScore,
		a.MaxPossibleScore,
		a.CompletedSections,
		a.TotalSections,
		now,
		now,
	).Scan(&a.ID, &a.PublicID, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	return nil
}

func (r *assessmentRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Assessment, error) {
	query := assessmentSelectColumns + ` WHERE public_id = $1`
	return scanAssessment(r.db.QueryRow(ctx, query, publicID))
}

func (r *assessmentRepository) ListByAssessor(ctx context.Context, userID uuid.UUID) ([]*models.Assessment, error) {
	query := assessmentSelectColumns + ` WHERE user_id = $1 AND archived_at IS NULL ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *assessmentRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Assessment, error) {
	query := assessmentSelectColumns + ` WHERE client_id = $1 AND archived_at IS NULL ORDER BY created_at DESC`
	return r.list(ctx, query, clientID)
}

func (r *assessmentRepository) ListAll(ctx context.Context) ([]*models.Assessment, error) {
	query := assessmentSelectColumns + ` WHERE archived_at IS NULL ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *assessmentRepository) list(ctx context.Context, query string, args ...any) ([]*models.Assessment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var assessments []*models.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assessments: %w", err)
	}

	return assessments, nil
}

// ============================================================================
// Sections
// ============================================================================

func (r *assessmentRepository) GetSections(ctx context.Context, assessmentID int64) ([]*models.AssessmentSection, error) {
	query := `
		SELECT id, assessment_id, section_type, score, max_score, is_completed,
		       variables, location_data, created_at, updated_at
		FROM assessment_sections
		WHERE assessment_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	var sections []*models.AssessmentSection
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sections: %w", err)
	}

	return sections, nil
}

func (r *assessmentRepository) UpsertSectionWithAggregates(ctx context.Context, a *models.Assessment, section *models.AssessmentSection) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	upsert := `
		INSERT INTO assessment_sections (
			assessment_id, section_type, score, max_score, is_completed,
			variables, location_data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (assessment_id, section_type) DO UPDATE SET
			score = EXCLUDED.score,
			max_score = EXCLUDED.max_score,
			is_completed = EXCLUDED.is_completed,
			variables = EXCLUDED.variables,
			location_data = EXCLUDED.location_data,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, upsert,
		section.AssessmentID,
		section.SectionType,
		section.Score,
		section.MaxScore,
		section.IsCompleted,
		section.Variables,
		section.LocationData,
	).Scan(&section.ID, &section.CreatedAt, &section.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert section: %w", err)
	}

	update := `
		UPDATE assessments
		SET overall_score = $2, max_possible_score = $3, completed_sections = $4,
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $5
		RETURNING version, updated_at`

	err = tx.QueryRow(ctx, update,
		a.ID,
		a.OverallScore,
		a.MaxPossibleScore,
		a.CompletedSections,
		a.Version,
	).Scan(&a.Version, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to update assessment aggregates: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ============================================================================
// Lifecycle
// ============================================================================

func (r *assessmentRepository) Complete(ctx context.Context, a *models.Assessment, conductedAt time.Time) error {
	query := `
		UPDATE assessments
		SET status = $2, conducted_at = COALESCE(conducted_at, $3),
		    version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING conducted_at, version, updated_at`

	err := r.db.QueryRow(ctx, query, a.ID, models.AssessmentStatusCompleted, conductedAt).
		Scan(&a.ConductedAt, &a.Version, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to complete assessment: %w", err)
	}

	a.Status = models.AssessmentStatusCompleted
	return nil
}

func (r *assessmentRepository) SetLock(ctx context.Context, a *models.Assessment, locked bool, lockedBy *uuid.UUID) error {
	query := `
		UPDATE assessments
		SET is_locked = $2,
		    locked_at = CASE WHEN $2 THEN now() ELSE NULL END,
		    locked_by = $3,
		    version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING is_locked, locked_at, locked_by, version, updated_at`

	err := r.db.QueryRow(ctx, query, a.ID, locked, lockedBy).
		Scan(&a.IsLocked, &a.LockedAt, &a.LockedBy, &a.Version, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to set assessment lock: %w", err)
	}

	return nil
}

func (r *assessmentRepository) Archive(ctx context.Context, assessmentID int64, archivedAt time.Time) error {
	query := `UPDATE assessments SET archived_at = $2, version = version + 1, updated_at = now() WHERE id = $1 AND archived_at IS NULL`

	result, err := r.db.Exec(ctx, query, assessmentID, archivedAt)
	if err != nil {
		return fmt.Errorf("failed to archive assessment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ============================================================================
// Helper Functions
// ============================================================================

const assessmentSelectColumns = `
	SELECT id, public_id, user_id, client_id, building_name, building_info,
	       status, is_locked, locked_at, locked_by,
	       overall_score, max_possible_score, completed_sections, total_sections,
	       version, conducted_at, archived_at, created_at, updated_at
	FROM assessments`

func scanAssessment(row pgx.Row) (*models.Assessment, error) {
	var a models.Assessment

	err := row.Scan(
		&a.ID,
		&a.PublicID,
		&a.UserID,
		&a.ClientID,
		&a.BuildingName,
		&a.BuildingInfo,
		&a.Status,
		&a.IsLocked,
		&a.LockedAt,
		&a.LockedBy,
		&a.OverallScore,
		&a.MaxPossibleScore,
		&a.CompletedSections,
		&a.TotalSections,
		&a.Version,
		&a.ConductedAt,
		&a.ArchivedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	return &a, nil
}

func scanSection(row pgx.Row) (*models.AssessmentSection, error) {
	var s models.AssessmentSection

	err := row.Scan(
		&s.ID,
		&s.AssessmentID,
		&s.SectionType,
		&s.Score,
		&s.MaxScore,
		&s.IsCompleted,
		&s.Variables,
		&s.LocationData,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan section: %w", err)
	}

	return &s, nil
}
