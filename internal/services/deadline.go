package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"task-system/internal/dto"
	"task-system/internal/repositories"
	"task-system/pkg/config"
	"task-system/pkg/constants"
	apperrors "task-system/pkg/errors"
	"task-system/pkg/types"
)

// statsChunkSize — размер страницы при обходе категорий. Пересчёт каждой
// категории независим и повторяем, прерванный прогон ничего не портит.
const statsChunkSize = 50

type DeadlineServiceInterface interface {
	// ComputeDueDate — дедлайн задачи: created_at + средняя длительность
	// категории (или системный дефолт при скудной статистике). Результат
	// сохраняется в задаче.
	ComputeDueDate(ctx context.Context, taskID uint64) (time.Time, error)
	UpdateAllCategoryStats(ctx context.Context) (*dto.StatsRefreshSummaryDTO, error)
	// IsTaskCompletable — родителя нельзя закрыть, пока живы подзадачи.
	IsTaskCompletable(ctx context.Context, taskID uint64) (bool, error)
}

type DeadlineService struct {
	taskRepo     repositories.TaskRepositoryInterface
	categoryRepo repositories.CategoryRepositoryInterface
	cache        repositories.CacheRepositoryInterface
	cfg          config.SchedulerConfig
	logger       *zap.Logger
	now          func() time.Time
}

func NewDeadlineService(
	taskRepo repositories.TaskRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	cfg config.SchedulerConfig,
	logger *zap.Logger,
) *DeadlineService {
	return &DeadlineService{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		cache:        cache,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *DeadlineService) ComputeDueDate(ctx context.Context, taskID uint64) (time.Time, error) {
	task, err := s.taskRepo.FindTask(ctx, taskID)
	if err != nil {
		return time.Time{}, err
	}

	category, err := s.categoryRepo.FindCategory(ctx, task.CategoryID)
	if err != nil {
		return time.Time{}, err
	}

	durationHours := s.cfg.DefaultSLAHours
	if category.AvgDurationHours != nil && category.SampleCount >= s.cfg.MinSamples {
		durationHours = *category.AvgDurationHours
	}

	createdAt := s.now()
	if task.CreatedAt != nil {
		createdAt = *task.CreatedAt
	}
	due := createdAt.Add(time.Duration(durationHours * float64(time.Hour)))

	if err := s.taskRepo.SetDueAt(ctx, taskID, due); err != nil {
		return time.Time{}, err
	}
	return due, nil
}

// UpdateAllCategoryStats пересчитывает статистику всех категорий. Категории
// обрабатываются независимо: пустая выборка или ошибка одной не прерывает
// остальных. Прогон идемпотентен — без новых завершений числа не меняются.
func (s *DeadlineService) UpdateAllCategoryStats(ctx context.Context) (*dto.StatsRefreshSummaryDTO, error) {
	summary := &dto.StatsRefreshSummaryDTO{Details: make([]types.CategoryStatsResult, 0)}

	for offset := 0; ; offset += statsChunkSize {
		chunk, err := s.categoryRepo.GetCategoriesChunk(ctx, statsChunkSize, offset)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}

		for i := range chunk {
			result := s.refreshCategory(ctx, chunk[i].ID, chunk[i].Name)
			if result.Stats != nil {
				summary.Updated++
			} else {
				summary.Failed++
			}
			summary.Details = append(summary.Details, result)
		}
	}

	s.logger.Info("Пересчёт статистики категорий завершён",
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *DeadlineService) refreshCategory(ctx context.Context, categoryID uint64, name string) types.CategoryStatsResult {
	result := types.CategoryStatsResult{CategoryID: categoryID, CategoryName: name}

	samples, err := s.taskRepo.CompletionSamples(ctx, categoryID)
	if err != nil {
		s.logger.Error("Не удалось собрать длительности категории",
			zap.Uint64("categoryID", categoryID), zap.Error(err))
		result.Error = err.Error()
		return result
	}
	if len(samples) == 0 {
		result.Error = "нет завершённых задач"
		return result
	}

	durations := make([]float64, 0, len(samples))
	for _, sample := range samples {
		durations = append(durations, sample.CompletedAt.Sub(sample.CreatedAt).Hours())
	}

	stats := types.CategoryStats{
		AvgDurationHours:    mean(durations),
		MedianDurationHours: median(durations),
		SampleCount:         len(durations),
	}
	if err := s.categoryRepo.UpdateStats(ctx, categoryID, stats); err != nil {
		s.logger.Error("Не удалось сохранить статистику категории",
			zap.Uint64("categoryID", categoryID), zap.Error(err))
		result.Error = err.Error()
		return result
	}

	if payload, err := json.Marshal(stats); err == nil {
		key := fmt.Sprintf(constants.CacheKeyCategoryStats, categoryID)
		_ = s.cache.Set(ctx, key, payload, time.Hour)
	}

	result.Stats = &stats
	return result
}

func (s *DeadlineService) IsTaskCompletable(ctx context.Context, taskID uint64) (bool, error) {
	if _, err := s.taskRepo.FindTask(ctx, taskID); err != nil {
		return false, err
	}
	openSubtasks, err := s.taskRepo.CountOpenSubtasks(ctx, taskID)
	if err != nil {
		return false, err
	}
	if openSubtasks > 0 {
		return false, apperrors.ErrSubtasksNotCompleted
	}
	return true, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
