// Package notify defines the outbound notification port. Real-time delivery
// (push, email) is a transport concern injected into the activity recorder;
// the engine never depends on it for correctness.
package notify

import (
	"context"

	"github.com/greda-gbc/assessment-engine/pkg/models"
)

// Notifier delivers a recorded activity to its target user. Implementations
// are best-effort: the activity log entry is already durable by the time
// Deliver is called, and delivery errors are logged and swallowed.
type Notifier interface {
	Deliver(ctx context.Context, entry *models.ActivityLog) error
}

// NopNotifier is a Notifier that does nothing. Callers that don't need
// real-time push supply this.
type NopNotifier struct{}

// Deliver implements Notifier.
func (NopNotifier) Deliver(ctx context.Context, entry *models.ActivityLog) error {
	return nil
}

var _ Notifier = NopNotifier{}
