package dto

import "task-system/pkg/types"

type CreateCategoryDTO struct {
	Name     string  `json:"name" validate:"required"`
	ParentID *uint64 `json:"parent_id" validate:"omitempty"`
	TeamID   uint64  `json:"team_id" validate:"required"`
}

type CategoryDTO struct {
	ID             uint64               `json:"id"`
	Name           string               `json:"name"`
	Path           string               `json:"path"`
	ParentID       *uint64              `json:"parent_id,omitempty"`
	TeamID         uint64               `json:"team_id"`
	Stats          *types.CategoryStats `json:"stats"`
	StatsUpdatedAt string               `json:"stats_updated_at,omitempty"`
}

// StatsRefreshSummaryDTO — итог пересчёта статистики по всем категориям.
type StatsRefreshSummaryDTO struct {
	Updated int                         `json:"updated"`
	Failed  int                         `json:"failed"`
	Details []types.CategoryStatsResult `json:"details"`
}
