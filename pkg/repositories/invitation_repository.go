package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/greda-gbc/assessment-engine/pkg/apperrors"
	"github.com/greda-gbc/assessment-engine/pkg/database"
	"github.com/greda-gbc/assessment-engine/pkg/models"
)

// InvitationRepository provides data access for platform invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)
	MarkAccepted(ctx context.Context, token string, acceptedAt time.Time) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type invitationRepository struct {
	db *database.DB
}

// NewInvitationRepository creates a new InvitationRepository.
func NewInvitationRepository(db *database.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

var _ InvitationRepository = (*invitationRepository)(nil)

func (r *invitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (email, role, token, invited_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		inv.Email,
		inv.Role,
		inv.Token,
		inv.InvitedBy,
		inv.ExpiresAt,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	query := `
		SELECT id, email, role, token, invited_by, expires_at, accepted_at, created_at
		FROM invitations
		WHERE token = $1`

	var inv models.Invitation
	err := r.db.QueryRow(ctx, query, token).Scan(
		&inv.ID,
		&inv.Email,
		&inv.Role,
		&inv.Token,
		&inv.InvitedBy,
		&inv.ExpiresAt,
		&inv.AcceptedAt,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan invitation: %w", err)
	}

	return &inv, nil
}

func (r *invitationRepository) MarkAccepted(ctx context.Context, token string, acceptedAt time.Time) error {
	query := `UPDATE invitations SET accepted_at = $2 WHERE token = $1 AND accepted_at IS NULL`

	result, err := r.db.Exec(ctx, query, token, acceptedAt)
	if err != nil {
		return fmt.Errorf("failed to mark invitation accepted: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	return nil
}

func (r *invitationRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at < $1`

	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}

	return result.RowsAffected(), nil
}
