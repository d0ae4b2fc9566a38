// pkg/constants/constants.go
package constants

//============== СТАТУСЫ ЗАДАЧ ==============

// Коды статусов задач. Используются в бизнес-логике вместо ID из БД.
const (
	TaskStatusOpen       = "OPEN"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusInReview   = "IN_REVIEW"
	TaskStatusDone       = "DONE"
	TaskStatusRejected   = "REJECTED"
)

// IsTerminalStatus — задача в этих статусах не участвует в нагрузке и эскалациях.
func IsTerminalStatus(code string) bool {
	return code == TaskStatusDone || code == TaskStatusRejected
}

//============== СТАТУСЫ ЗАЯВОК ==============

const (
	RequestStatusOpen       = "OPEN"
	RequestStatusInProgress = "IN_PROGRESS"
	RequestStatusClosed     = "CLOSED"
	RequestStatusRejected   = "REJECTED"
)

//============== ПРИОРИТЕТЫ ==============

const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// PriorityWeight — базовый вес задачи при расчёте нагрузки исполнителя.
var PriorityWeight = map[string]float64{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
	PriorityUrgent: 4,
}

//============== РОЛИ ==============

const (
	RoleStaff  = "STAFF"
	RoleLeader = "LEADER"
	RoleAdmin  = "ADMIN"
)

//============== ВИДЫ УВЕДОМЛЕНИЙ ==============

const (
	NotifyKindReminder   = "SLA_REMINDER"
	NotifyKindBreach     = "SLA_BREACH"
	NotifyKindEscalation = "SLA_ESCALATION"
	NotifyKindAssigned   = "TASK_ASSIGNED"
	NotifyKindRebalance  = "TASK_REBALANCED"
)

//============== CACHE KEYS ==============

const (
	// Дедупликация SLA-уведомлений планировщиком.
	// Формат: sla_notify:<taskID>:<stage> -> "sent"
	CacheKeySlaNotify = "sla_notify:%d:%d"

	// Дедупликация уведомления об эскалации.
	// Формат: sla_escalate:<taskID> -> "sent"
	CacheKeySlaEscalate = "sla_escalate:%d"

	// Кэш статистики категории.
	// Формат: category_stats:<categoryID> -> JSON
	CacheKeyCategoryStats = "category_stats:%d"
)
