package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greda-gbc/assessment-engine/pkg/apperrors"
	"github.com/greda-gbc/assessment-engine/pkg/models"
	"github.com/greda-gbc/assessment-engine/pkg/repositories"
)

// InvitationTTL is how long an invitation stays acceptable.
const InvitationTTL = 7 * 24 * time.Hour

// UserService manages platform accounts: admin direct-creation, the
// invitation flow, suspension, and client subscription updates. Accounts are
// never hard-deleted.
type UserService interface {
	Create(ctx context.Context, actor *models.User, email, name, role string) (*models.User, error)
	Invite(ctx context.Context, actor *models.User, email, role string) (*models.Invitation, error)
	AcceptInvitation(ctx context.Context, token, name string) (*models.User, error)
	Suspend(ctx context.Context, actor *models.User, userID uuid.UUID) error
	Reactivate(ctx context.Context, actor *models.User, userID uuid.UUID) error
	UpdateSubscription(ctx context.Context, actor *models.User, userID uuid.UUID, tier, status string) error
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	List(ctx context.Context, actor *models.User) ([]*models.User, error)
}

type userService struct {
	userRepo       repositories.UserRepository
	invitationRepo repositories.InvitationRepository
	activity       ActivityService
	logger         *zap.Logger
}

// NewUserService creates a new UserService with dependencies.
func NewUserService(
	userRepo repositories.UserRepository,
	invitationRepo repositories.InvitationRepository,
	activity ActivityService,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		activity:       activity,
		logger:         logger.Named("user-service"),
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) Create(ctx context.Context, actor *models.User, email, name, role string) (*models.User, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}
	if !models.IsValidRole(role) {
		return nil, apperrors.ErrInvalidRole
	}
	if email == "" {
		return nil, apperrors.NewValidationError("email", "email is required")
	}

	user := &models.User{
		Email:  email,
		Name:   name,
		Role:   role,
		Status: models.UserStatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) Invite(ctx context.Context, actor *models.User, email, role string) (*models.Invitation, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}
	if !models.IsValidRole(role) {
		return nil, apperrors.ErrInvalidRole
	}
	if email == "" {
		return nil, apperrors.NewValidationError("email", "email is required")
	}

	token, err := generateInvitationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation token: %w", err)
	}

	inv := &models.Invitation{
		Email:     email,
		Role:      role,
		Token:     token,
		InvitedBy: actor.ID,
		ExpiresAt: time.Now().Add(InvitationTTL),
	}

	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, &models.ActivityLog{
		ActorID:      actor.ID,
		ActivityType: models.ActivityUserInvited,
		Title:        "User invited",
		Description:  fmt.Sprintf("%s invited %s to join as %s", actor.Name, email, role),
		Priority:     models.PriorityLow,
		Metadata:     models.JSONBMap{"email": email, "role": role},
	})

	return inv, nil
}

func (s *userService) AcceptInvitation(ctx context.Context, token, name string) (*models.User, error) {
	inv, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if inv.AcceptedAt != nil {
		return nil, apperrors.ErrConflict
	}
	if inv.IsExpired(time.Now()) {
		return nil, apperrors.NewValidationError("token", "invitation has expired")
	}

	user := &models.User{
		Email:  inv.Email,
		Name:   name,
		Role:   inv.Role,
		Status: models.UserStatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.invitationRepo.MarkAccepted(ctx, token, time.Now()); err != nil {
		// The account exists either way; a double-accept race surfaces here.
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}

	return user, nil
}

func (s *userService) Suspend(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	if actor.Role != models.RoleAdmin {
		return apperrors.ErrPermissionDenied
	}
	if actor.ID == userID {
		return apperrors.NewValidationError("user_id", "cannot suspend your own account")
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, models.UserStatusSuspended); err != nil {
		return err
	}

	s.activity.Record(ctx, &models.ActivityLog{
		ActorID:      actor.ID,
		TargetUserID: &userID,
		ActivityType: models.ActivityUserSuspended,
		Title:        "Account suspended",
		Description:  "Your account has been suspended by an administrator",
		Priority:     models.PriorityHigh,
	})

	return nil
}

func (s *userService) Reactivate(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	if actor.Role != models.RoleAdmin {
		return apperrors.ErrPermissionDenied
	}
	return s.userRepo.UpdateStatus(ctx, userID, models.UserStatusActive)
}

func (s *userService) UpdateSubscription(ctx context.Context, actor *models.User, userID uuid.UUID, tier, status string) error {
	if actor.Role != models.RoleAdmin {
		return apperrors.ErrPermissionDenied
	}

	switch tier {
	case models.SubscriptionBasic, models.SubscriptionPremium:
	default:
		return apperrors.NewValidationError("tier", "unknown subscription tier %q", tier)
	}
	switch status {
	case models.SubscriptionActive, models.SubscriptionExpired, models.SubscriptionCancelled:
	default:
		return apperrors.NewValidationError("status", "unknown subscription status %q", status)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleClient {
		return apperrors.NewValidationError("user_id", "subscriptions apply only to client accounts")
	}

	return s.userRepo.UpdateSubscription(ctx, userID, tier, status)
}

func (s *userService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) List(ctx context.Context, actor *models.User) ([]*models.User, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}
	return s.userRepo.List(ctx)
}

func generateInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
