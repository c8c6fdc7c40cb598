package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/greda-gbc/assessment-engine/pkg/database"
	"github.com/greda-gbc/assessment-engine/pkg/models"
)

// MediaRepository provides data access for evidence file references. The
// engine stores only references; the bytes live in an external media store.
type MediaRepository interface {
	Create(ctx context.Context, media *models.AssessmentMedia) error
	ListByAssessment(ctx context.Context, assessmentID int64) ([]*models.AssessmentMedia, error)

	// DeleteOrphanedOlderThan removes media references belonging to
	// assessments archived before the cutoff. Deliberately conservative:
	// media on live assessments is never touched.
	DeleteOrphanedOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type mediaRepository struct {
	db *database.DB
}

// NewMediaRepository creates a new MediaRepository.
func NewMediaRepository(db *database.DB) MediaRepository {
	return &mediaRepository{db: db}
}

var _ MediaRepository = (*mediaRepository)(nil)

func (r *mediaRepository) Create(ctx context.Context, media *models.AssessmentMedia) error {
	query := `
		INSERT INTO assessment_media (
			assessment_id, section_type, field_name, media_type,
			storage_path, content_type, size_bytes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		media.AssessmentID,
		media.SectionType,
		media.FieldName,
		media.MediaType,
		media.StoragePath,
		media.ContentType,
		media.SizeBytes,
	).Scan(&media.ID, &media.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create media reference: %w", err)
	}

	return nil
}

func (r *mediaRepository) ListByAssessment(ctx context.Context, assessmentID int64) ([]*models.AssessmentMedia, error) {
	query := `
		SELECT id, assessment_id, section_type, field_name, media_type,
		       storage_path, content_type, size_bytes, created_at
		FROM assessment_media
		WHERE assessment_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query media references: %w", err)
	}
	defer rows.Close()

	var media []*models.AssessmentMedia
	for rows.Next() {
		var m models.AssessmentMedia
		err := rows.Scan(
			&m.ID,
			&m.AssessmentID,
			&m.SectionType,
			&m.FieldName,
			&m.MediaType,
			&m.StoragePath,
			&m.ContentType,
			&m.SizeBytes,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media reference: %w", err)
		}
		media = append(media, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media references: %w", err)
	}

	return media, nil
}

func (r *mediaRepository) DeleteOrphanedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM assessment_media m
		USING assessments a
		WHERE m.assessment_id = a.id
		  AND a.archived_at IS NOT NULL
		  AND a.archived_at < $1`

	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned media references: %w", err)
	}

	return result.RowsAffected(), nil
}
