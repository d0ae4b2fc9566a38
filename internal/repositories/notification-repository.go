package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"task-system/internal/entities"
	apperrors "task-system/pkg/errors"
)

type NotificationRepositoryInterface interface {
	Insert(ctx context.Context, n entities.Notification) error
	ListForUser(ctx context.Context, userID uint64, onlyUnread bool) ([]entities.Notification, error)
	MarkRead(ctx context.Context, id string, userID uint64) error
}

type NotificationRepository struct {
	storage *pgxpool.Pool
}

func NewNotificationRepository(storage *pgxpool.Pool) NotificationRepositoryInterface {
	return &NotificationRepository{storage: storage}
}

func (r *NotificationRepository) Insert(ctx context.Context, n entities.Notification) error {
	_, err := r.storage.Exec(ctx,
		`INSERT INTO notifications (id, target_user_id, task_id, kind, payload, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, NOW())`,
		n.ID, n.TargetUserID, n.TaskID, n.Kind, n.Payload)
	if err != nil {
		return fmt.Errorf("ошибка сохранения уведомления: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID uint64, onlyUnread bool) ([]entities.Notification, error) {
	query := `
		SELECT id, target_user_id, task_id, kind, payload, is_read, created_at
		FROM notifications
		WHERE target_user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT 100`

	rows, err := r.storage.Query(ctx, query, userID, onlyUnread)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения уведомлений: %w", err)
	}
	defer rows.Close()

	notifications := make([]entities.Notification, 0)
	for rows.Next() {
		var n entities.Notification
		if err := rows.Scan(&n.ID, &n.TargetUserID, &n.TaskID, &n.Kind, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования уведомления: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string, userID uint64) error {
	tag, err := r.storage.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND target_user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("ошибка отметки уведомления прочитанным: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
