package dto

// AssignmentResultDTO — результат подбора исполнителя.
// Отсутствие кандидата — нормальный бизнес-результат, а не ошибка:
// Assigned=false + Outcome=NO_ELIGIBLE_CANDIDATE.
type AssignmentResultDTO struct {
	TaskID     uint64  `json:"task_id"`
	Assigned   bool    `json:"assigned"`
	AssigneeID uint64  `json:"assignee_id,omitempty"`
	Score      float64 `json:"score,omitempty"`
	// Outcome: scored | fallback:<strategy> | NO_ELIGIBLE_CANDIDATE
	Outcome string `json:"outcome"`
}

// RebalanceMoveDTO — предложение перекинуть задачу с перегруженного
// исполнителя на недогруженного.
type RebalanceMoveDTO struct {
	TaskID     uint64 `json:"task_id"`
	FromUserID uint64 `json:"from_user_id"`
	ToUserID   uint64 `json:"to_user_id"`
	Reasoning  string `json:"reasoning"`
}
