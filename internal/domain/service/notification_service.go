package service

import (
	"context"
	"time"

	"civicfix/internal/domain/entity"
)

// Lifecycle event types published on every report state change.
const (
	EventReportSubmitted = "report.submitted"
	EventReportApproved  = "report.approved"
	EventReportDeclined  = "report.declined"
	EventReportCompleted = "report.completed"
	EventReportAssigned  = "report.assigned"
	EventReportDeleted   = "report.deleted"
	EventMessageCreated  = "message.created"
)

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, key string, data map[string]interface{}) error
	Close() error
}

// MessagePusher delivers a freshly created message to its owner if they are connected.
type MessagePusher interface {
	PushMessage(userID string, message *entity.Message)
}

// SessionCache keeps resolved roles between requests.
type SessionCache interface {
	GetRole(ctx context.Context, userID string) (entity.Role, bool, error)
	SetRole(ctx context.Context, userID string, role entity.Role) error
	Invalidate(ctx context.Context, userID string) error
}

// TransitionGuard prevents the same moderation action on the same report from running twice
// at once. Acquire returns false when the key is already held.
type TransitionGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string)
}

type noopPublisher struct{}

// NewNoopPublisher is used when no broker is configured.
func NewNoopPublisher() EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, string, map[string]interface{}) error {
	return nil
}

func (noopPublisher) Close() error {
	return nil
}
