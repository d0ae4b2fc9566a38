package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"task-system/internal/dto"
	"task-system/internal/entities"
	"task-system/internal/repositories"
	"task-system/pkg/constants"
	apperrors "task-system/pkg/errors"
	"task-system/pkg/types"
)

// allowedTransitions — граф статусов задачи. Терминальные статусы
// финальны: из DONE и REJECTED переходов нет.
var allowedTransitions = map[string][]string{
	constants.TaskStatusOpen:       {constants.TaskStatusInProgress, constants.TaskStatusRejected},
	constants.TaskStatusInProgress: {constants.TaskStatusInReview, constants.TaskStatusOpen, constants.TaskStatusRejected},
	constants.TaskStatusInReview:   {constants.TaskStatusDone, constants.TaskStatusInProgress, constants.TaskStatusRejected},
}

type TaskServiceInterface interface {
	GetTasks(ctx context.Context, filter types.Filter) ([]dto.TaskDTO, uint64, error)
	FindTask(ctx context.Context, id uint64) (*dto.TaskDTO, error)
	// CreateTask создаёт задачу, считает дедлайн по статистике категории и,
	// если запрошено, сразу подбирает исполнителя.
	CreateTask(ctx context.Context, actorID uint64, payload dto.CreateTaskDTO) (*dto.TaskDTO, *dto.AssignmentResultDTO, error)
	UpdateTask(ctx context.Context, id uint64, payload dto.UpdateTaskDTO) error
}

type TaskService struct {
	taskRepo     repositories.TaskRepositoryInterface
	requestRepo  repositories.RequestRepositoryInterface
	categoryRepo repositories.CategoryRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	deadline     DeadlineServiceInterface
	balancer     BalancerServiceInterface
	logger       *zap.Logger
}

func NewTaskService(
	taskRepo repositories.TaskRepositoryInterface,
	requestRepo repositories.RequestRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	deadline DeadlineServiceInterface,
	balancer BalancerServiceInterface,
	logger *zap.Logger,
) TaskServiceInterface {
	return &TaskService{
		taskRepo:     taskRepo,
		requestRepo:  requestRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		deadline:     deadline,
		balancer:     balancer,
		logger:       logger,
	}
}

func (s *TaskService) toTaskDTO(ctx context.Context, task *entities.Task) (*dto.TaskDTO, error) {
	out := &dto.TaskDTO{
		ID:           task.ID,
		RequestID:    task.RequestID,
		ParentTaskID: task.ParentTaskID,
		Name:         task.Name,
		Status:       task.Status,
		Priority:     task.Priority,
		SlaPaused:    task.SlaPaused,
		SlaPausedMs:  task.SlaPausedMs,
	}
	if task.CreatedAt != nil {
		out.CreatedAt = task.CreatedAt.Format(time.RFC3339)
	}
	if task.DueAt != nil {
		out.DueAt = task.DueAt.Format(time.RFC3339)
	}

	category, err := s.categoryRepo.FindCategory(ctx, task.CategoryID)
	if err != nil {
		return nil, err
	}
	out.Category = dto.ShortCategoryDTO{ID: category.ID, Name: category.Name}

	if task.AssigneeID != nil {
		assignee, err := s.userRepo.FindUser(ctx, *task.AssigneeID)
		if err == nil {
			out.Assignee = &dto.ShortUserDTO{ID: assignee.ID, Fio: assignee.Fio}
		}
	}
	return out, nil
}

func (s *TaskService) GetTasks(ctx context.Context, filter types.Filter) ([]dto.TaskDTO, uint64, error) {
	tasks, total, err := s.taskRepo.GetTasks(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.TaskDTO, 0, len(tasks))
	for i := range tasks {
		item, err := s.toTaskDTO(ctx, &tasks[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *item)
	}
	return out, total, nil
}

func (s *TaskService) FindTask(ctx context.Context, id uint64) (*dto.TaskDTO, error) {
	task, err := s.taskRepo.FindTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toTaskDTO(ctx, task)
}

func (s *TaskService) CreateTask(ctx context.Context, actorID uint64, payload dto.CreateTaskDTO) (*dto.TaskDTO, *dto.AssignmentResultDTO, error) {
	if _, err := s.requestRepo.FindRequest(ctx, payload.RequestID); err != nil {
		return nil, nil, err
	}
	if _, err := s.categoryRepo.FindCategory(ctx, payload.CategoryID); err != nil {
		return nil, nil, err
	}
	if payload.ParentTaskID != nil {
		parent, err := s.taskRepo.FindTask(ctx, *payload.ParentTaskID)
		if err != nil {
			return nil, nil, err
		}
		if parent.IsTerminal() {
			return nil, nil, apperrors.NewInvalidInputError(
				"нельзя добавить подзадачу к завершённой задаче %d", parent.ID)
		}
	}

	priority := payload.Priority
	if priority == "" {
		priority = constants.PriorityMedium
	}

	newID, err := s.taskRepo.CreateTask(ctx, payload, priority, nil)
	if err != nil {
		return nil, nil, err
	}

	// Дедлайн считается после вставки: нужен created_at из БД.
	if _, err := s.deadline.ComputeDueDate(ctx, newID); err != nil {
		s.logger.Error("Не удалось рассчитать дедлайн новой задачи",
			zap.Uint64("taskID", newID), zap.Error(err))
	}

	var assignment *dto.AssignmentResultDTO
	if payload.AutoAssign {
		assignment, err = s.balancer.Assign(ctx, newID, actorID)
		if err != nil {
			// Задача уже создана — ошибку подбора не превращаем в откат.
			s.logger.Error("Автоназначение не удалось",
				zap.Uint64("taskID", newID), zap.Error(err))
			assignment = nil
		}
	}

	taskDTO, err := s.FindTask(ctx, newID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Задача создана", zap.Uint64("id", newID), zap.String("priority", priority))
	return taskDTO, assignment, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id uint64, payload dto.UpdateTaskDTO) error {
	task, err := s.taskRepo.FindTask(ctx, id)
	if err != nil {
		return err
	}

	if payload.Status.Valid && payload.Status.String != task.Status {
		if err := s.changeStatus(ctx, task, payload.Status.String); err != nil {
			return err
		}
		payload.Status.Valid = false
	}

	if payload.Name.Valid || payload.Priority.Valid {
		return s.taskRepo.UpdateTask(ctx, id, payload)
	}
	return nil
}

func (s *TaskService) changeStatus(ctx context.Context, task *entities.Task, newStatus string) error {
	if task.IsTerminal() {
		return apperrors.ErrTaskAlreadyTerminal
	}
	if !transitionAllowed(task.Status, newStatus) {
		return apperrors.NewInvalidInputError(
			"недопустимый переход статуса: %s -> %s", task.Status, newStatus)
	}

	// Родителя нельзя закрыть, пока открыты подзадачи.
	if newStatus == constants.TaskStatusDone {
		if _, err := s.deadline.IsTaskCompletable(ctx, task.ID); err != nil {
			return err
		}
	}

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, newStatus); err != nil {
		return err
	}
	s.logger.Info("Статус задачи изменён",
		zap.Uint64("taskID", task.ID),
		zap.String("from", task.Status),
		zap.String("to", newStatus))
	return nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
