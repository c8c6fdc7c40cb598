// Package services contains the business logic of the assessment engine.
package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greda-gbc/assessment-engine/pkg/models"
	"github.com/greda-gbc/assessment-engine/pkg/notify"
	"github.com/greda-gbc/assessment-engine/pkg/repositories"
)

// ActivityService records lifecycle transitions in the append-only activity
// log and pushes best-effort notifications. Recording failures are logged and
// swallowed: they must never fail the triggering business transition.
type ActivityService interface {
	// Record durably stores one activity log entry, then attempts delivery to
	// the target user. Always returns the entry it attempted to store.
	Record(ctx context.Context, entry *models.ActivityLog) *models.ActivityLog

	// RecordPair stores two entries for the same transition: one from the
	// actor's perspective and one from the affected counterpart's.
	RecordPair(ctx context.Context, actor, counterpart *models.ActivityLog)

	GetForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error)
	GetForAssessment(ctx context.Context, assessmentPublicID uuid.UUID) ([]*models.ActivityLog, error)
}

type activityService struct {
	repo     repositories.ActivityRepository
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewActivityService creates a new ActivityService. Pass notify.NopNotifier
// when real-time delivery is not needed.
func NewActivityService(repo repositories.ActivityRepository, notifier notify.Notifier, logger *zap.Logger) ActivityService {
	return &activityService{
		repo:     repo,
		notifier: notifier,
		logger:   logger.Named("activity-service"),
	}
}

var _ ActivityService = (*activityService)(nil)

func (s *activityService) Record(ctx context.Context, entry *models.ActivityLog) *models.ActivityLog {
	if entry.Priority == "" {
		entry.Priority = models.PriorityLow
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to record activity",
			zap.String("activity_type", entry.ActivityType),
			zap.String("actor_id", entry.ActorID.String()),
			zap.Error(err))
		return entry
	}

	// Delivery only after the entry is durable. Failures are swallowed.
	if entry.TargetUserID != nil {
		if err := s.notifier.Deliver(ctx, entry); err != nil {
			s.logger.Warn("Failed to deliver notification",
				zap.String("activity_type", entry.ActivityType),
				zap.String("target_user_id", entry.TargetUserID.String()),
				zap.Error(err))
		}
	}

	return entry
}

func (s *activityService) RecordPair(ctx context.Context, actor, counterpart *models.ActivityLog) {
	s.Record(ctx, actor)
	s.Record(ctx, counterpart)
}

func (s *activityService) GetForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 {
		limit = 100 // Default limit
	}
	return s.repo.ListByTargetUser(ctx, userID, limit)
}

func (s *activityService) GetForAssessment(ctx context.Context, assessmentPublicID uuid.UUID) ([]*models.ActivityLog, error) {
	return s.repo.ListByAssessment(ctx, assessmentPublicID)
}
