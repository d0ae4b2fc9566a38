package entities

import (
	"task-system/pkg/types"
)

type User struct {
	ID       uint64 `json:"id" db:"id"`
	Fio      string `json:"fio" db:"fio"`
	Email    string `json:"email" db:"email"`
	Login    string `json:"login" db:"login"`
	Password string `json:"-" db:"password"`

	// Роль: STAFF | LEADER | ADMIN
	Role   string  `json:"role" db:"role"`
	TeamID *uint64 `json:"team_id" db:"team_id"`

	// Уровень должности 1..5, влияет на бонус при скоринге.
	PositionLevel int `json:"position_level" db:"position_level"`

	IsActive bool `json:"is_active" db:"is_active"`
	// Флаг отсутствия переключается внешним сигналом (отпуск, больничный).
	IsAbsent bool `json:"is_absent" db:"is_absent"`

	types.BaseEntity
	types.SoftDelete
}
