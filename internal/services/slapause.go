package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"task-system/internal/entities"
	"task-system/internal/repositories"
	apperrors "task-system/pkg/errors"
)

type SlaPauseServiceInterface interface {
	Pause(ctx context.Context, taskID uint64, reason string) error
	Resume(ctx context.Context, taskID uint64) error
	// EffectiveDueDate — дедлайн с учётом пауз. Считается на лету из
	// сохранённого due_at, а не мутацией задачи, поэтому повторные вызовы
	// при открытой паузе согласованы между собой.
	EffectiveDueDate(ctx context.Context, taskID uint64) (time.Time, error)

	// Пакетные операции для внешнего сигнала отсутствия исполнителя.
	PauseAllForUser(ctx context.Context, userID uint64, reason string) error
	ResumeAllForUser(ctx context.Context, userID uint64) error
}

type SlaPauseService struct {
	taskRepo  repositories.TaskRepositoryInterface
	pauseRepo repositories.SlaPauseRepositoryInterface
	txManager repositories.TxManagerInterface
	logger    *zap.Logger
	now       func() time.Time
}

func NewSlaPauseService(
	taskRepo repositories.TaskRepositoryInterface,
	pauseRepo repositories.SlaPauseRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) *SlaPauseService {
	return &SlaPauseService{
		taskRepo:  taskRepo,
		pauseRepo: pauseRepo,
		txManager: txManager,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *SlaPauseService) Pause(ctx context.Context, taskID uint64, reason string) error {
	task, err := s.taskRepo.FindTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.IsTerminal() {
		return apperrors.ErrTaskAlreadyTerminal
	}

	at := s.now()
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.pauseRepo.OpenIntervalTx(ctx, tx, taskID, reason, at)
	})
}

func (s *SlaPauseService) Resume(ctx context.Context, taskID uint64) error {
	if _, err := s.taskRepo.FindTask(ctx, taskID); err != nil {
		return err
	}

	at := s.now()
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.pauseRepo.CloseIntervalTx(ctx, tx, taskID, at)
	})
}

func (s *SlaPauseService) EffectiveDueDate(ctx context.Context, taskID uint64) (time.Time, error) {
	task, err := s.taskRepo.FindTask(ctx, taskID)
	if err != nil {
		return time.Time{}, err
	}
	if task.DueAt == nil {
		return time.Time{}, apperrors.NewInvalidInputError("у задачи %d не назначен дедлайн", taskID)
	}

	var open *entities.SlaPauseInterval
	if task.SlaPaused {
		open, err = s.pauseRepo.FindOpenInterval(ctx, taskID)
		if err != nil && !errors.Is(err, apperrors.ErrNotPaused) {
			return time.Time{}, err
		}
	}

	return EffectiveDue(task, open, s.now()), nil
}

// EffectiveDue — чистая арифметика: исходный дедлайн + накопленные закрытые
// паузы + живая часть открытого интервала. Часы SLA стоят, пока задача на
// паузе.
func EffectiveDue(task *entities.Task, open *entities.SlaPauseInterval, now time.Time) time.Time {
	due := task.DueAt.Add(time.Duration(task.SlaPausedMs) * time.Millisecond)
	if open != nil && open.EndedAt == nil {
		elapsed := now.Sub(open.StartedAt)
		if elapsed > 0 {
			due = due.Add(elapsed)
		}
	}
	return due
}

func (s *SlaPauseService) PauseAllForUser(ctx context.Context, userID uint64, reason string) error {
	tasks, err := s.taskRepo.GetOpenTasksByAssignee(ctx, userID)
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].SlaPaused {
			continue
		}
		if err := s.Pause(ctx, tasks[i].ID, reason); err != nil {
			// Гонка с другой паузой не должна останавливать пакет.
			if errors.Is(err, apperrors.ErrAlreadyPaused) {
				continue
			}
			return err
		}
	}
	return nil
}

func (s *SlaPauseService) ResumeAllForUser(ctx context.Context, userID uint64) error {
	tasks, err := s.taskRepo.GetOpenTasksByAssignee(ctx, userID)
	if err != nil {
		return err
	}
	for i := range tasks {
		if !tasks[i].SlaPaused {
			continue
		}
		if err := s.Resume(ctx, tasks[i].ID); err != nil {
			if errors.Is(err, apperrors.ErrNotPaused) {
				continue
			}
			return err
		}
	}
	return nil
}
