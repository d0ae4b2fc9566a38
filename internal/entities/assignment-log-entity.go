package entities

import (
	"time"
)

// AssignmentLog — журнал назначений. Используется ограничителем
// "назначений в сутки" и стратегией round_robin (порядок последних назначений).
type AssignmentLog struct {
	ID         uint64    `json:"id" db:"id"`
	TaskID     uint64    `json:"task_id" db:"task_id"`
	AssignedBy uint64    `json:"assigned_by" db:"assigned_by"`
	AssigneeID uint64    `json:"assignee_id" db:"assignee_id"`
	Reason     string    `json:"reason" db:"reason"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
