package dto

type CreateTeamDTO struct {
	Name     string  `json:"name" validate:"required"`
	LeaderID *uint64 `json:"leader_id" validate:"omitempty"`
}

type TeamDTO struct {
	ID        uint64         `json:"id"`
	Name      string         `json:"name"`
	Leader    *ShortUserDTO  `json:"leader,omitempty"`
	Members   []ShortUserDTO `json:"members,omitempty"`
	CreatedAt string         `json:"created_at"`
}
