package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"task-system/internal/dto"
	"task-system/internal/entities"
	apperrors "task-system/pkg/errors"
	"task-system/pkg/types"
)

type TaskRepositoryInterface interface {
	GetTasks(ctx context.Context, filter types.Filter) ([]entities.Task, uint64, error)
	FindTask(ctx context.Context, id uint64) (*entities.Task, error)
	CreateTask(ctx context.Context, taskDto dto.CreateTaskDTO, priority string, dueAt *time.Time) (uint64, error)
	UpdateTask(ctx context.Context, id uint64, taskDto dto.UpdateTaskDTO) error
	UpdateStatus(ctx context.Context, id uint64, status string) error
	SetDueAt(ctx context.Context, id uint64, dueAt time.Time) error

	// AssignTaskCAS — условное обновление исполнителя: проходит только если
	// текущий assignee совпадает с ожидаемым. Точка сериализации конкурентных
	// назначений; при расхождении возвращает ErrConcurrencyConflict.
	AssignTaskCAS(ctx context.Context, taskID uint64, newAssigneeID uint64, expectedAssigneeID *uint64) error

	GetOpenTasksByAssignee(ctx context.Context, userID uint64) ([]entities.Task, error)
	GetOpenTasksByTeam(ctx context.Context, teamID uint64) ([]entities.Task, error)
	CountOpenSubtasks(ctx context.Context, parentTaskID uint64) (int, error)
	CompletedCountSince(ctx context.Context, userID uint64, since time.Time) (int, error)
	CompletionSamples(ctx context.Context, categoryID uint64) ([]types.CompletionSample, error)

	// CategoryExperience — опыт исполнителя: сколько задач он завершил точно
	// в этой категории и сколько в родственных (родитель/потомок/соседи по
	// родителю).
	CategoryExperience(ctx context.Context, userID, categoryID uint64) (exact int, related int, err error)

	// ActiveTasksChunk — страница активных задач для прохода планировщика:
	// незавершённые, не на паузе, с назначенным дедлайном.
	ActiveTasksChunk(ctx context.Context, limit, offset int) ([]entities.Task, error)
	// AdvanceReminderStage — CAS по reminder_stage: гарантирует ровно одно
	// уведомление на пересечение порога даже при параллельных проходах.
	AdvanceReminderStage(ctx context.Context, taskID uint64, fromStage, toStage int) (bool, error)
	// MarkEscalated проставляет escalated_at один раз.
	MarkEscalated(ctx context.Context, taskID uint64) (bool, error)
}

type TaskRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTaskRepository(storage *pgxpool.Pool, logger *zap.Logger) TaskRepositoryInterface {
	return &TaskRepository{storage: storage, logger: logger}
}

const taskColumns = `id, request_id, parent_task_id, name, category_id, assignee_id, status, priority,
	due_at, completed_at, sla_paused, sla_paused_ms, reminder_stage, escalated_at, created_at, updated_at`

func scanTask(row pgx.Row) (*entities.Task, error) {
	var t entities.Task
	err := row.Scan(
		&t.ID, &t.RequestID, &t.ParentTaskID, &t.Name, &t.CategoryID, &t.AssigneeID,
		&t.Status, &t.Priority, &t.DueAt, &t.CompletedAt,
		&t.SlaPaused, &t.SlaPausedMs, &t.ReminderStage, &t.EscalatedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования задачи: %w", err)
	}
	return &t, nil
}

func (r *TaskRepository) collectTasks(rows pgx.Rows) ([]entities.Task, error) {
	defer rows.Close()
	tasks := make([]entities.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (r *TaskRepository) GetTasks(ctx context.Context, filter types.Filter) ([]entities.Task, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета задач: %w", err)
	}

	builder := sq.Select(taskColumns).
		From("tasks").
		Where("deleted_at IS NULL").
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	allowed := map[string]string{
		"status":      "status",
		"priority":    "priority",
		"category_id": "category_id",
		"assignee_id": "assignee_id",
		"request_id":  "request_id",
		"created_at":  "created_at",
		"due_at":      "due_at",
	}
	builder = ApplyListParams(builder, filter, allowed)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка построения запроса задач: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка задач: %w", err)
	}
	tasks, err := r.collectTasks(rows)
	return tasks, total, err
}

func (r *TaskRepository) FindTask(ctx context.Context, id uint64) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND deleted_at IS NULL`
	return scanTask(r.storage.QueryRow(ctx, query, id))
}

func (r *TaskRepository) CreateTask(ctx context.Context, taskDto dto.CreateTaskDTO, priority string, dueAt *time.Time) (uint64, error) {
	query := `
		INSERT INTO tasks (request_id, parent_task_id, name, category_id, status, priority,
		                   due_at, sla_paused, sla_paused_ms, reminder_stage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'OPEN', $5, $6, FALSE, 0, 0, NOW(), NOW())
		RETURNING id`

	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		taskDto.RequestID, taskDto.ParentTaskID, taskDto.Name, taskDto.CategoryID,
		priority, dueAt,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания задачи: %w", err)
	}
	return newID, nil
}

func (r *TaskRepository) UpdateTask(ctx context.Context, id uint64, taskDto dto.UpdateTaskDTO) error {
	builder := sq.Update("tasks").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL").
		PlaceholderFormat(sq.Dollar)

	if taskDto.Name.Valid {
		builder = builder.Set("name", taskDto.Name.String)
	}
	if taskDto.Priority.Valid {
		builder = builder.Set("priority", taskDto.Priority.String)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса обновления задачи: %w", err)
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id uint64, status string) error {
	query := `
		UPDATE tasks
		SET status = $1,
		    completed_at = CASE WHEN $1 IN ('DONE', 'REJECTED') THEN NOW() ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL`

	tag, err := r.storage.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) SetDueAt(ctx context.Context, id uint64, dueAt time.Time) error {
	tag, err := r.storage.Exec(ctx,
		`UPDATE tasks SET due_at = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`,
		dueAt, id)
	if err != nil {
		return fmt.Errorf("ошибка установки дедлайна задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) AssignTaskCAS(ctx context.Context, taskID uint64, newAssigneeID uint64, expectedAssigneeID *uint64) error {
	query := `
		UPDATE tasks
		SET assignee_id = $1, updated_at = NOW()
		WHERE id = $2 AND assignee_id IS NOT DISTINCT FROM $3 AND deleted_at IS NULL`

	tag, err := r.storage.Exec(ctx, query, newAssigneeID, taskID, expectedAssigneeID)
	if err != nil {
		return fmt.Errorf("ошибка назначения исполнителя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Либо задачи нет, либо исполнителя успел поменять кто-то другой.
		var exists bool
		if err := r.storage.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1 AND deleted_at IS NULL)`, taskID).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки существования задачи: %w", err)
		}
		if !exists {
			return apperrors.ErrNotFound
		}
		return apperrors.ErrConcurrencyConflict
	}
	return nil
}

func (r *TaskRepository) GetOpenTasksByAssignee(ctx context.Context, userID uint64) ([]entities.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE assignee_id = $1 AND status NOT IN ('DONE', 'REJECTED') AND deleted_at IS NULL
		ORDER BY created_at ASC`

	rows, err := r.storage.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения открытых задач исполнителя: %w", err)
	}
	return r.collectTasks(rows)
}

func (r *TaskRepository) GetOpenTasksByTeam(ctx context.Context, teamID uint64) ([]entities.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks t
		WHERE t.status NOT IN ('DONE', 'REJECTED')
		  AND t.deleted_at IS NULL
		  AND t.assignee_id IN (SELECT id FROM users WHERE team_id = $1 AND deleted_at IS NULL)
		ORDER BY t.created_at ASC`

	rows, err := r.storage.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения открытых задач команды: %w", err)
	}
	return r.collectTasks(rows)
}

func (r *TaskRepository) CountOpenSubtasks(ctx context.Context, parentTaskID uint64) (int, error) {
	var count int
	err := r.storage.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks
		 WHERE parent_task_id = $1 AND status NOT IN ('DONE', 'REJECTED') AND deleted_at IS NULL`,
		parentTaskID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета открытых подзадач: %w", err)
	}
	return count, nil
}

func (r *TaskRepository) CompletedCountSince(ctx context.Context, userID uint64, since time.Time) (int, error) {
	var count int
	err := r.storage.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks
		 WHERE assignee_id = $1 AND status = 'DONE' AND completed_at >= $2 AND deleted_at IS NULL`,
		userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета завершённых задач: %w", err)
	}
	return count, nil
}

func (r *TaskRepository) CompletionSamples(ctx context.Context, categoryID uint64) ([]types.CompletionSample, error) {
	query := `
		SELECT created_at, completed_at
		FROM tasks
		WHERE category_id = $1 AND status = 'DONE' AND completed_at IS NOT NULL AND deleted_at IS NULL
		ORDER BY completed_at ASC`

	rows, err := r.storage.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки длительностей категории: %w", err)
	}
	defer rows.Close()

	samples := make([]types.CompletionSample, 0)
	for rows.Next() {
		var s types.CompletionSample
		if err := rows.Scan(&s.CreatedAt, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования длительности: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func (r *TaskRepository) CategoryExperience(ctx context.Context, userID, categoryID uint64) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE t.category_id = $2),
			COUNT(*) FILTER (WHERE t.category_id <> $2)
		FROM tasks t
		JOIN categories c ON c.id = t.category_id
		JOIN categories target ON target.id = $2
		WHERE t.assignee_id = $1
		  AND t.status = 'DONE'
		  AND t.deleted_at IS NULL
		  AND (t.category_id = $2
		       OR c.id = target.parent_id
		       OR c.parent_id = target.id
		       OR (c.parent_id IS NOT NULL AND c.parent_id = target.parent_id))`

	var exact, related int
	if err := r.storage.QueryRow(ctx, query, userID, categoryID).Scan(&exact, &related); err != nil {
		return 0, 0, fmt.Errorf("ошибка выборки опыта по категории: %w", err)
	}
	return exact, related, nil
}

func (r *TaskRepository) ActiveTasksChunk(ctx context.Context, limit, offset int) ([]entities.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE status NOT IN ('DONE', 'REJECTED')
		  AND sla_paused = FALSE
		  AND due_at IS NOT NULL
		  AND deleted_at IS NULL
		ORDER BY id ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.storage.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки активных задач: %w", err)
	}
	return r.collectTasks(rows)
}

func (r *TaskRepository) AdvanceReminderStage(ctx context.Context, taskID uint64, fromStage, toStage int) (bool, error) {
	tag, err := r.storage.Exec(ctx,
		`UPDATE tasks SET reminder_stage = $1, updated_at = NOW()
		 WHERE id = $2 AND reminder_stage = $3 AND deleted_at IS NULL`,
		toStage, taskID, fromStage)
	if err != nil {
		return false, fmt.Errorf("ошибка продвижения стадии напоминаний: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TaskRepository) MarkEscalated(ctx context.Context, taskID uint64) (bool, error) {
	tag, err := r.storage.Exec(ctx,
		`UPDATE tasks SET escalated_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND escalated_at IS NULL AND deleted_at IS NULL`,
		taskID)
	if err != nil {
		return false, fmt.Errorf("ошибка отметки эскалации: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
