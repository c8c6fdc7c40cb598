package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/greda-gbc/assessment-engine/pkg/repositories"
)

// DefaultRetentionDays is how long media references on archived assessments
// and unaccepted invitations are kept before the sweep removes them.
const DefaultRetentionDays = 90

// RetentionService runs the conservative, age-gated cleanup sweep: orphaned
// evidence references and expired invitations. The activity log is never
// pruned; it is the audit trail.
type RetentionService interface {
	// Prune removes records older than the retention period.
	// Returns total number of records deleted.
	Prune(ctx context.Context, retentionDays int) (int64, error)

	// RunScheduler starts a background goroutine that prunes on the given
	// interval. It runs immediately on startup, then repeats every interval.
	// Cancel the context to stop the scheduler.
	RunScheduler(ctx context.Context, interval time.Duration)
}

type retentionService struct {
	mediaRepo      repositories.MediaRepository
	invitationRepo repositories.InvitationRepository
	days           int
	logger         *zap.Logger
}

// NewRetentionService creates a new RetentionService. days is the configured
// retention period for scheduled sweeps; values <= 0 fall back to
// DefaultRetentionDays.
func NewRetentionService(
	mediaRepo repositories.MediaRepository,
	invitationRepo repositories.InvitationRepository,
	days int,
	logger *zap.Logger,
) RetentionService {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return &retentionService{
		mediaRepo:      mediaRepo,
		invitationRepo: invitationRepo,
		days:           days,
		logger:         logger.Named("retention-service"),
	}
}

var _ RetentionService = (*retentionService)(nil)

func (s *retentionService) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	var totalDeleted int64

	mediaDeleted, err := s.mediaRepo.DeleteOrphanedOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to prune orphaned media references", zap.Error(err))
		return totalDeleted, err
	}
	totalDeleted += mediaDeleted

	invDeleted, err := s.invitationRepo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to prune expired invitations", zap.Error(err))
		return totalDeleted, err
	}
	totalDeleted += invDeleted

	if totalDeleted > 0 {
		s.logger.Info("Retention sweep completed",
			zap.Int64("media_deleted", mediaDeleted),
			zap.Int64("invitations_deleted", invDeleted))
	}

	return totalDeleted, nil
}

func (s *retentionService) RunScheduler(ctx context.Context, interval time.Duration) {
	go func() {
		if _, err := s.Prune(ctx, s.days); err != nil {
			s.logger.Error("Initial retention sweep failed", zap.Error(err))
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Prune(ctx, s.days); err != nil {
					s.logger.Error("Retention sweep failed", zap.Error(err))
				}
			}
		}
	}()
}
