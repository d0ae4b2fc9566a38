package entities

import (
	"time"

	"task-system/pkg/constants"
	"task-system/pkg/types"
)

type Task struct {
	ID           uint64  `json:"id" db:"id"`
	RequestID    uint64  `json:"request_id" db:"request_id"`
	ParentTaskID *uint64 `json:"parent_task_id" db:"parent_task_id"`
	Name         string  `json:"name" db:"name"`
	CategoryID   uint64  `json:"category_id" db:"category_id"`
	AssigneeID   *uint64 `json:"assignee_id" db:"assignee_id"`

	Status   string `json:"status" db:"status"`
	Priority string `json:"priority" db:"priority"`

	DueAt       *time.Time `json:"due_at" db:"due_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`

	// SLA-пауза: флаг + накопленные миллисекунды закрытых интервалов.
	SlaPaused   bool  `json:"sla_paused" db:"sla_paused"`
	SlaPausedMs int64 `json:"sla_paused_ms" db:"sla_paused_ms"`

	// Последнее отправленное напоминание: 0 нет, 1=R1, 2=R2, 3=R3.
	// Якорь идемпотентности планировщика.
	ReminderStage int        `json:"reminder_stage" db:"reminder_stage"`
	EscalatedAt   *time.Time `json:"escalated_at" db:"escalated_at"`

	types.BaseEntity
	types.SoftDelete
}

// IsTerminal — задача завершена и исключается из нагрузки и эскалаций.
func (t *Task) IsTerminal() bool {
	return constants.IsTerminalStatus(t.Status)
}
