package dto

import (
	"github.com/aarondl/null/v8"
)

type CreateTaskDTO struct {
	RequestID    uint64  `json:"request_id" validate:"required"`
	ParentTaskID *uint64 `json:"parent_task_id" validate:"omitempty"`
	Name         string  `json:"name" validate:"required"`
	CategoryID   uint64  `json:"category_id" validate:"required"`
	Priority     string  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	// AutoAssign — сразу подобрать исполнителя через балансировщик.
	AutoAssign bool `json:"auto_assign"`
}

type UpdateTaskDTO struct {
	Name     null.String `json:"name" validate:"omitempty"`
	Status   null.String `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS IN_REVIEW DONE REJECTED"`
	Priority null.String `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
}

type TaskDTO struct {
	ID           uint64           `json:"id"`
	RequestID    uint64           `json:"request_id"`
	ParentTaskID *uint64          `json:"parent_task_id,omitempty"`
	Name         string           `json:"name"`
	Category     ShortCategoryDTO `json:"category"`
	Assignee     *ShortUserDTO    `json:"assignee,omitempty"`
	Status       string           `json:"status"`
	Priority     string           `json:"priority"`
	CreatedAt    string           `json:"created_at"`
	DueAt        string           `json:"due_at,omitempty"`
	SlaPaused    bool             `json:"sla_paused"`
	SlaPausedMs  int64            `json:"sla_paused_ms"`
}

type PauseTaskDTO struct {
	Reason string `json:"reason" validate:"required"`
}

// EffectiveDueDTO — дедлайн с учётом накопленных SLA-пауз.
type EffectiveDueDTO struct {
	TaskID         uint64 `json:"task_id"`
	DueAt          string `json:"due_at"`
	EffectiveDueAt string `json:"effective_due_at"`
	SlaPaused      bool   `json:"sla_paused"`
}
