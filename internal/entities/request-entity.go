package entities

import (
	"time"

	"task-system/pkg/types"
)

type Request struct {
	ID          uint64 `json:"id" db:"id"`
	Number      string `json:"number" db:"number"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	CategoryID  uint64 `json:"category_id" db:"category_id"`
	RequesterID uint64 `json:"requester_id" db:"requester_id"`
	Status      string `json:"status" db:"status"`

	ClosedAt *time.Time `json:"closed_at" db:"closed_at"`

	types.BaseEntity
	types.SoftDelete
}
