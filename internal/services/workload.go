package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"task-system/internal/entities"
	"task-system/internal/repositories"
	"task-system/pkg/config"
	"task-system/pkg/constants"
	"task-system/pkg/types"
)

// ageBoostPerDay — линейная надбавка к весу задачи за каждый день возраста.
// Отражает риск стареющего бэклога; потолок задаётся конфигом.
const ageBoostPerDay = 0.1

type WorkloadServiceInterface interface {
	ComputeWorkload(ctx context.Context, userID uint64) (*types.WorkloadSnapshot, error)
	// TeamAverageLoad — средняя взвешенная нагрузка активных участников команды.
	TeamAverageLoad(ctx context.Context, teamID uint64) (float64, error)
}

type WorkloadService struct {
	taskRepo repositories.TaskRepositoryInterface
	userRepo repositories.UserRepositoryInterface
	cfg      config.BalancerConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewWorkloadService(
	taskRepo repositories.TaskRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	cfg config.BalancerConfig,
	logger *zap.Logger,
) *WorkloadService {
	return &WorkloadService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// TaskWeight — вес одной задачи: базовый вес приоритета плюс возрастная
// надбавка. Завершённые задачи веса не имеют.
func (s *WorkloadService) TaskWeight(task *entities.Task, now time.Time) float64 {
	if task.IsTerminal() {
		return 0
	}

	base, ok := constants.PriorityWeight[task.Priority]
	if !ok {
		base = constants.PriorityWeight[constants.PriorityMedium]
	}

	ageDays := 0.0
	if task.CreatedAt != nil {
		ageDays = now.Sub(*task.CreatedAt).Hours() / 24
	}
	if ageDays < 0 {
		ageDays = 0
	}
	if capDays := float64(s.cfg.AgeBoostCapDays); ageDays > capDays {
		ageDays = capDays
	}

	return base + ageDays*ageBoostPerDay
}

func (s *WorkloadService) ComputeWorkload(ctx context.Context, userID uint64) (*types.WorkloadSnapshot, error) {
	if _, err := s.userRepo.FindUser(ctx, userID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.GetOpenTasksByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	snapshot := &types.WorkloadSnapshot{UserID: userID}
	for i := range tasks {
		snapshot.OpenCount++
		snapshot.WeightedLoad += s.TaskWeight(&tasks[i], now)
	}
	return snapshot, nil
}

func (s *WorkloadService) TeamAverageLoad(ctx context.Context, teamID uint64) (float64, error) {
	members, err := s.userRepo.GetTeamMembers(ctx, teamID)
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	var total float64
	for _, m := range members {
		snapshot, err := s.ComputeWorkload(ctx, m.ID)
		if err != nil {
			return 0, err
		}
		total += snapshot.WeightedLoad
	}
	return total / float64(len(members)), nil
}
