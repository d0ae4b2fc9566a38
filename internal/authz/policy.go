package authz

import (
	"context"

	"task-system/pkg/constants"
	apperrors "task-system/pkg/errors"
	"task-system/pkg/utils"
)

// Операции ядра. Проверка прав сведена в одну таблицу {роль, операция},
// вместо разрозненных проверок ролей по контроллерам.
const (
	OpTaskCreate    = "task:create"
	OpTaskView      = "task:view"
	OpTaskUpdate    = "task:update"
	OpTaskAssign    = "task:assign"
	OpTaskPause     = "task:pause"
	OpTaskResume    = "task:resume"
	OpTeamRebalance = "team:rebalance"
	OpStatsRefresh  = "stats:refresh"
	OpRequestCreate = "request:create"
	OpRequestView   = "request:view"
	OpUserManage    = "user:manage"
	OpUserAbsence   = "user:absence"
	OpTeamManage    = "team:manage"
	OpCategoryView  = "category:view"
	OpCategoryEdit  = "category:edit"
)

var policy = map[string]map[string]bool{
	constants.RoleStaff: {
		OpTaskCreate:    true,
		OpTaskView:      true,
		OpTaskUpdate:    true,
		OpRequestCreate: true,
		OpRequestView:   true,
		OpCategoryView:  true,
	},
	constants.RoleLeader: {
		OpTaskCreate:    true,
		OpTaskView:      true,
		OpTaskUpdate:    true,
		OpTaskAssign:    true,
		OpTaskPause:     true,
		OpTaskResume:    true,
		OpTeamRebalance: true,
		OpStatsRefresh:  true,
		OpRequestCreate: true,
		OpRequestView:   true,
		OpUserAbsence:   true,
		OpCategoryView:  true,
		OpCategoryEdit:  true,
	},
	// ADMIN разрешено всё, см. Allowed.
}

// Allowed отвечает, разрешена ли операция роли.
func Allowed(role, operation string) bool {
	if role == constants.RoleAdmin {
		return true
	}
	return policy[role][operation]
}

// Check достаёт роль из контекста и сверяет с таблицей.
func Check(ctx context.Context, operation string) error {
	role, err := utils.GetRoleFromCtx(ctx)
	if err != nil {
		return err
	}
	if !Allowed(role, operation) {
		return apperrors.ErrForbidden
	}
	return nil
}
