package entities

import (
	"task-system/pkg/types"
)

type Team struct {
	ID       uint64  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	LeaderID *uint64 `json:"leader_id" db:"leader_id"`

	types.BaseEntity
}
