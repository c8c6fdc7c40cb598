// Package repositories provides data access for the assessment engine.
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

// UserRepository provides data access for platform accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListByRole(ctx context.Context, role string) ([]*models.User, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error
	UpdateSubscription(ctx context.Context, userID uuid.UUID, tier, status string) error
}

type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

var _ UserRepository = (*userRepository)(nil)

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()

	query := `
		INSERT INTO users (email, name, role, status, subscription_tier, subscription_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.Name,
		user.Role,
		user.Status,
		nullString(user.SubscriptionTier),
		nullString(user.SubscriptionStatus),
		now,
		now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := userSelectColumns + ` WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, userID))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := userSelectColumns + ` WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	query := userSelectColumns + ` ORDER BY created_at`
	return r.listUsers(ctx, query)
}

func (r *userRepository) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	query := userSelectColumns + ` WHERE role = $1 ORDER BY created_at`
	return r.listUsers(ctx, query, role)
}

func (r *userRepository) listUsers(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error {
	query := `UPDATE users SET status = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, userID, status)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *userRepository) UpdateSubscription(ctx context.Context, userID uuid.UUID, tier, status string) error {
	query := `UPDATE users SET subscription_tier = $2, subscription_status = $3, updated_at = now() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, userID, nullString(tier), nullString(status))
	if err != nil {
		return fmt.Errorf("failed to update user subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ============================================================================
// Helper Functions
// ============================================================================

const userSelectColumns = `
	SELECT id, email, name, role, status, subscription_tier, subscription_status, created_at, updated_at
	FROM users`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var tier, subStatus *string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Role,
		&u.Status,
		&tier,
		&subStatus,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if tier != nil {
		u.SubscriptionTier = *tier
	}
	if subStatus != nil {
		u.SubscriptionStatus = *subStatus
	}

	return &u, nil
}

// nullString returns nil if the string is empty, otherwise returns the string pointer.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
