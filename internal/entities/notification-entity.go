package entities

import (
	"time"
)

type Notification struct {
	ID           string  `json:"id" db:"id"`
	TargetUserID uint64  `json:"target_user_id" db:"target_user_id"`
	TaskID       *uint64 `json:"task_id" db:"task_id"`
	Kind         string  `json:"kind" db:"kind"`
	Payload      string  `json:"payload" db:"payload"`
	IsRead       bool    `json:"is_read" db:"is_read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
