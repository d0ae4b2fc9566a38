package entities

import (
	"time"
)

// SlaPauseInterval — одно окно паузы SLA-часов задачи.
// Открытый интервал имеет EndedAt == nil; на задачу допускается максимум
// один открытый интервал (частичный уникальный индекс в БД).
type SlaPauseInterval struct {
	ID        uint64     `json:"id" db:"id"`
	TaskID    uint64     `json:"task_id" db:"task_id"`
	Reason    string     `json:"reason" db:"reason"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at" db:"ended_at"`
}

// Duration возвращает длительность интервала; для открытого — до now.
func (i *SlaPauseInterval) Duration(now time.Time) time.Duration {
	if i.EndedAt != nil {
		return i.EndedAt.Sub(i.StartedAt)
	}
	return now.Sub(i.StartedAt)
}
