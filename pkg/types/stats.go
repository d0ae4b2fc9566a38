package types

import "time"

// WorkloadSnapshot — текущая нагрузка исполнителя.
// OpenCount — все незавершённые задачи, WeightedLoad — сумма весов
// (приоритет × возрастная надбавка).
type WorkloadSnapshot struct {
	UserID       uint64  `json:"user_id"`
	OpenCount    int     `json:"open_count"`
	WeightedLoad float64 `json:"weighted_load"`
}

// CategoryStats — скользящая статистика категории по завершённым задачам.
type CategoryStats struct {
	AvgDurationHours    float64 `json:"avg_duration_hours"`
	MedianDurationHours float64 `json:"median_duration_hours"`
	SampleCount         int     `json:"sample_count"`
}

// CategoryStatsResult — итог пересчёта по одной категории.
// Stats == nil означает, что завершённых задач не нашлось.
type CategoryStatsResult struct {
	CategoryID   uint64         `json:"category_id"`
	CategoryName string         `json:"category_name"`
	Stats        *CategoryStats `json:"stats"`
	Error        string         `json:"error,omitempty"`
}

// CompletionSample — длительность одной завершённой задачи.
type CompletionSample struct {
	CreatedAt   time.Time
	CompletedAt time.Time
}
