package entities

import (
	"time"

	"task-system/pkg/types"
)

// Category — классификатор работ. Иерархия через ParentID.
// Статистика длительностей пересчитывается job-ом калькулятора дедлайнов.
type Category struct {
	ID       uint64  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	ParentID *uint64 `json:"parent_id" db:"parent_id"`
	TeamID   uint64  `json:"team_id" db:"team_id"`

	AvgDurationHours    *float64   `json:"avg_duration_hours" db:"avg_duration_hours"`
	MedianDurationHours *float64   `json:"median_duration_hours" db:"median_duration_hours"`
	SampleCount         int        `json:"sample_count" db:"sample_count"`
	StatsUpdatedAt      *time.Time `json:"stats_updated_at" db:"stats_updated_at"`

	types.BaseEntity
}
