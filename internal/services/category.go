package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"task-system/internal/dto"
	"task-system/internal/entities"
	"task-system/internal/repositories"
	"task-system/pkg/types"
	"task-system/pkg/utils"
)

const listCategoriesChunk = 100

type CategoryServiceInterface interface {
	GetCategories(ctx context.Context) ([]dto.CategoryDTO, error)
	FindCategory(ctx context.Context, id uint64) (*dto.CategoryDTO, error)
	CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (uint64, error)
}

type CategoryService struct {
	categoryRepo repositories.CategoryRepositoryInterface
	teamRepo     repositories.TeamRepositoryInterface
	logger       *zap.Logger
}

func NewCategoryService(
	categoryRepo repositories.CategoryRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	logger *zap.Logger,
) CategoryServiceInterface {
	return &CategoryService{categoryRepo: categoryRepo, teamRepo: teamRepo, logger: logger}
}

func (s *CategoryService) toCategoryDTO(ctx context.Context, c *entities.Category) (*dto.CategoryDTO, error) {
	names, err := s.categoryRepo.PathNames(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	out := &dto.CategoryDTO{
		ID:       c.ID,
		Name:     c.Name,
		Path:     utils.BuildCategoryPath(names),
		ParentID: c.ParentID,
		TeamID:   c.TeamID,
	}
	if c.AvgDurationHours != nil && c.MedianDurationHours != nil {
		out.Stats = &types.CategoryStats{
			AvgDurationHours:    *c.AvgDurationHours,
			MedianDurationHours: *c.MedianDurationHours,
			SampleCount:         c.SampleCount,
		}
	}
	if c.StatsUpdatedAt != nil {
		out.StatsUpdatedAt = c.StatsUpdatedAt.Format(time.RFC3339)
	}
	return out, nil
}

func (s *CategoryService) GetCategories(ctx context.Context) ([]dto.CategoryDTO, error) {
	out := make([]dto.CategoryDTO, 0)
	for offset := 0; ; offset += listCategoriesChunk {
		chunk, err := s.categoryRepo.GetCategoriesChunk(ctx, listCategoriesChunk, offset)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		for i := range chunk {
			item, err := s.toCategoryDTO(ctx, &chunk[i])
			if err != nil {
				return nil, err
			}
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *CategoryService) FindCategory(ctx context.Context, id uint64) (*dto.CategoryDTO, error) {
	category, err := s.categoryRepo.FindCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toCategoryDTO(ctx, category)
}

func (s *CategoryService) CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (uint64, error) {
	// Команда и родитель должны существовать до вставки.
	if _, err := s.teamRepo.FindTeam(ctx, payload.TeamID); err != nil {
		return 0, err
	}
	if payload.ParentID != nil {
		if _, err := s.categoryRepo.FindCategory(ctx, *payload.ParentID); err != nil {
			return 0, err
		}
	}

	newID, err := s.categoryRepo.CreateCategory(ctx, payload)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Категория создана", zap.Uint64("id", newID), zap.String("name", payload.Name))
	return newID, nil
}
