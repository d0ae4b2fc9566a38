package dto

// SchedulerRunDTO — сводка одного прохода планировщика напоминаний.
type SchedulerRunDTO struct {
	Evaluated  int `json:"evaluated"`
	Skipped    int `json:"skipped"`
	Reminders  int `json:"reminders"`
	Breaches   int `json:"breaches"`
	Escalation int `json:"escalations"`
	Failures   int `json:"failures"`
}

type NotificationDTO struct {
	ID        string  `json:"id"`
	TaskID    *uint64 `json:"task_id,omitempty"`
	Kind      string  `json:"kind"`
	Payload   string  `json:"payload"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}
