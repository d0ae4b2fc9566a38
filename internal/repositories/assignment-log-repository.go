package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AssignmentLogRepositoryInterface interface {
	LogAssignment(ctx context.Context, taskID, assignedBy, assigneeID uint64, reason string) error
	// CountForUserSince — сколько назначений получил исполнитель с момента
	// since. Питает ограничитель max-assignments-per-day.
	CountForUserSince(ctx context.Context, userID uint64, since time.Time) (int, error)
	// LastAssignedAt — время последнего назначения по каждому участнику
	// команды; пустая запись означает "никогда". Питает round_robin.
	LastAssignedAt(ctx context.Context, teamID uint64) (map[uint64]time.Time, error)
}

type AssignmentLogRepository struct {
	storage *pgxpool.Pool
}

func NewAssignmentLogRepository(storage *pgxpool.Pool) AssignmentLogRepositoryInterface {
	return &AssignmentLogRepository{storage: storage}
}

func (r *AssignmentLogRepository) LogAssignment(ctx context.Context, taskID, assignedBy, assigneeID uint64, reason string) error {
	_, err := r.storage.Exec(ctx,
		`INSERT INTO assignment_log (task_id, assigned_by, assignee_id, reason, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		taskID, assignedBy, assigneeID, reason)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал назначений: %w", err)
	}
	return nil
}

func (r *AssignmentLogRepository) CountForUserSince(ctx context.Context, userID uint64, since time.Time) (int, error) {
	var count int
	err := r.storage.QueryRow(ctx,
		`SELECT COUNT(*) FROM assignment_log WHERE assignee_id = $1 AND created_at >= $2`,
		userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета назначений: %w", err)
	}
	return count, nil
}

func (r *AssignmentLogRepository) LastAssignedAt(ctx context.Context, teamID uint64) (map[uint64]time.Time, error) {
	query := `
		SELECT al.assignee_id, MAX(al.created_at)
		FROM assignment_log al
		JOIN users u ON u.id = al.assignee_id
		WHERE u.team_id = $1
		GROUP BY al.assignee_id`

	rows, err := r.storage.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки последних назначений: %w", err)
	}
	defer rows.Close()

	result := make(map[uint64]time.Time)
	for rows.Next() {
		var userID uint64
		var at time.Time
		if err := rows.Scan(&userID, &at); err != nil {
			return nil, fmt.Errorf("ошибка сканирования журнала назначений: %w", err)
		}
		result[userID] = at
	}
	return result, nil
}
