package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"task-system/internal/authz"
	"task-system/internal/services"
	"task-system/pkg/utils"
)

type BalancerController struct {
	service services.BalancerServiceInterface
	logger  *zap.Logger
}

func NewBalancerController(service services.BalancerServiceInterface, logger *zap.Logger) *BalancerController {
	return &BalancerController{service: service, logger: logger}
}

// Assign подбирает исполнителя для задачи. Отсутствие кандидата — не ошибка:
// ответ 200 с Assigned=false.
func (c *BalancerController) Assign(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpTaskAssign); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	actorID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	taskID, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	result, err := c.service.Assign(reqCtx, taskID, actorID)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "Подбор исполнителя выполнен", http.StatusOK)
}

func (c *BalancerController) SuggestRebalance(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpTeamRebalance); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	teamID, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	moves, err := c.service.SuggestRebalance(reqCtx, teamID)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, moves, "Рекомендации по перебалансировке готовы", http.StatusOK)
}
