package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"civicfix/internal/domain/entity"
	"civicfix/internal/domain/repository"
	"civicfix/internal/domain/service"
	"civicfix/internal/infrastructure/metrics"
	"civicfix/pkg/errors"
	"civicfix/pkg/logger"
)

type MessageUseCase struct {
	messageRepo repository.MessageRepository
	pusher      service.MessagePusher
	publisher   service.EventPublisher
	metrics     *metrics.Metrics
	ttl         time.Duration
	now         func() time.Time
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	pusher service.MessagePusher,
	publisher service.EventPublisher,
	m *metrics.Metrics,
	ttl time.Duration,
) *MessageUseCase {
	if ttl <= 0 {
		ttl = entity.MessageTTL
	}
	if publisher == nil {
		publisher = service.NewNoopPublisher()
	}
	return &MessageUseCase{
		messageRepo: messageRepo,
		pusher:      pusher,
		publisher:   publisher,
		metrics:     m,
		ttl:         ttl,
		now:         time.Now,
	}
}

type NotifyInput struct {
	UserID   string
	Type     entity.MessageType
	Title    string
	Body     string
	ReportID string
}

// Notify stores a message for the user, then pushes it to any open connection.
func (uc *MessageUseCase) Notify(ctx context.Context, input NotifyInput) (*entity.Message, error) {
	now := uc.now()
	message := &entity.Message{
		ID:        uuid.New().String(),
		UserID:    input.UserID,
		Title:     input.Title,
		Body:      input.Body,
		Type:      input.Type,
		ReportID:  input.ReportID,
		Read:      false,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl),
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	if uc.pusher != nil {
		uc.pusher.PushMessage(message.UserID, message)
	}

	pubCtx, cancel := publishContext(ctx)
	defer cancel()
	if err := uc.publisher.Publish(pubCtx, service.EventMessageCreated, message.UserID, map[string]interface{}{
		"messageId": message.ID,
		"userId":    message.UserID,
		"type":      string(message.Type),
		"reportId":  message.ReportID,
	}); err != nil {
		logger.Warn("Failed to publish %s for message %s: %v", service.EventMessageCreated, message.ID, err)
	}

	return message, nil
}

// List returns the caller's unexpired messages, newest first.
func (uc *MessageUseCase) List(ctx context.Context, session entity.Session) ([]*entity.Message, error) {
	return uc.messageRepo.ListByUser(ctx, session.UserID, uc.now())
}

func (uc *MessageUseCase) MarkRead(ctx context.Context, session entity.Session, id string, read bool) (*entity.Message, error) {
	message, err := uc.ownedMessage(ctx, session, id)
	if err != nil {
		return nil, err
	}

	if err := uc.messageRepo.SetRead(ctx, id, read); err != nil {
		return nil, err
	}
	message.Read = read

	return message, nil
}

func (uc *MessageUseCase) Dismiss(ctx context.Context, session entity.Session, id string) error {
	if _, err := uc.ownedMessage(ctx, session, id); err != nil {
		return err
	}
	return uc.messageRepo.Delete(ctx, id)
}

// Sweep deletes every expired message and returns how many went.
func (uc *MessageUseCase) Sweep(ctx context.Context) (int, error) {
	deleted, err := uc.messageRepo.DeleteExpired(ctx, uc.now())
	uc.metrics.ObserveSwept(deleted)
	if err != nil {
		return deleted, err
	}
	if deleted > 0 {
		logger.Info("Swept %d expired messages", deleted)
	}
	return deleted, nil
}

// StartSweepJob runs Sweep every interval until ctx is cancelled.
func (uc *MessageUseCase) StartSweepJob(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("Message sweep job started, interval %s", interval)
		for {
			select {
			case <-ctx.Done():
				logger.Info("Message sweep job stopped")
				return
			case <-ticker.C:
				if _, err := uc.Sweep(ctx); err != nil {
					logger.Error("Message sweep failed: %v", err)
				}
			}
		}
	}()
}

// ownedMessage hides other users' messages behind NOT_FOUND.
func (uc *MessageUseCase) ownedMessage(ctx context.Context, session entity.Session, id string) (*entity.Message, error) {
	message, err := uc.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if message.UserID != session.UserID {
		return nil, errors.NotFound("Message", nil)
	}
	return message, nil
}
