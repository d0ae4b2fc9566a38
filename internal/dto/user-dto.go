package dto

import (
	"github.com/aarondl/null/v8"
)

type CreateUserDTO struct {
	Fio           string  `json:"fio" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	Login         string  `json:"login" validate:"required"`
	Password      string  `json:"password" validate:"required,min=8"`
	Role          string  `json:"role" validate:"required,oneof=STAFF LEADER ADMIN"`
	TeamID        *uint64 `json:"team_id" validate:"omitempty"`
	PositionLevel int     `json:"position_level" validate:"required,min=1,max=5"`
}

type UpdateUserDTO struct {
	Fio           null.String `json:"fio" validate:"omitempty"`
	Email         null.String `json:"email" validate:"omitempty,email"`
	Role          null.String `json:"role" validate:"omitempty,oneof=STAFF LEADER ADMIN"`
	TeamID        null.Uint64 `json:"team_id" validate:"omitempty"`
	PositionLevel null.Int    `json:"position_level" validate:"omitempty,min=1,max=5"`
	IsActive      null.Bool   `json:"is_active" validate:"omitempty"`
}

type UserDTO struct {
	ID            uint64  `json:"id"`
	Fio           string  `json:"fio"`
	Email         string  `json:"email"`
	Login         string  `json:"login"`
	Role          string  `json:"role"`
	TeamID        *uint64 `json:"team_id,omitempty"`
	PositionLevel int     `json:"position_level"`
	IsActive      bool    `json:"is_active"`
	IsAbsent      bool    `json:"is_absent"`
	CreatedAt     string  `json:"created_at"`
}

// SetAbsenceDTO — внешний сигнал отсутствия: переключает флаг и
// ставит/снимает SLA-паузу на открытых задачах пользователя.
type SetAbsenceDTO struct {
	Absent bool   `json:"absent"`
	Reason string `json:"reason" validate:"omitempty"`
}
