package dto

type CreateRequestDTO struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"omitempty"`
	CategoryID  uint64 `json:"category_id" validate:"required"`
}

type RequestDTO struct {
	ID          uint64           `json:"id"`
	Number      string           `json:"number"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    ShortCategoryDTO `json:"category"`
	Requester   ShortUserDTO     `json:"requester"`
	Status      string           `json:"status"`
	CreatedAt   string           `json:"created_at"`
	ClosedAt    string           `json:"closed_at,omitempty"`
}
