package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-system/internal/entities"
	"task-system/internal/repositories"
	"task-system/pkg/eventbus"
)

const EventNotificationCreated = "notification.created"

// NotificationEvent публикуется в шину на каждое созданное уведомление —
// внешние каналы доставки (почта, мессенджеры) подписываются на него.
type NotificationEvent struct {
	Notification entities.Notification
}

func (e NotificationEvent) Name() string { return EventNotificationCreated }

type NotificationServiceInterface interface {
	// Notify — fire-and-forget с точки зрения вызывающего: ошибка доставки
	// логируется, корректность обеспечивает следующий проход планировщика.
	Notify(ctx context.Context, targetUserID uint64, taskID *uint64, kind, payload string) error
	ListForUser(ctx context.Context, userID uint64, onlyUnread bool) ([]entities.Notification, error)
	MarkRead(ctx context.Context, id string, userID uint64) error
}

type NotificationService struct {
	repo   repositories.NotificationRepositoryInterface
	bus    *eventbus.Bus
	logger *zap.Logger
}

func NewNotificationService(
	repo repositories.NotificationRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) NotificationServiceInterface {
	return &NotificationService{repo: repo, bus: bus, logger: logger}
}

func (s *NotificationService) Notify(ctx context.Context, targetUserID uint64, taskID *uint64, kind, payload string) error {
	n := entities.Notification{
		ID:           uuid.NewString(),
		TargetUserID: targetUserID,
		TaskID:       taskID,
		Kind:         kind,
		Payload:      payload,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return err
	}

	s.logger.Info("Уведомление создано",
		zap.String("id", n.ID),
		zap.Uint64("target", targetUserID),
		zap.String("kind", kind))
	s.bus.Publish(ctx, NotificationEvent{Notification: n})
	return nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uint64, onlyUnread bool) ([]entities.Notification, error) {
	return s.repo.ListForUser(ctx, userID, onlyUnread)
}

func (s *NotificationService) MarkRead(ctx context.Context, id string, userID uint64) error {
	return s.repo.MarkRead(ctx, id, userID)
}
