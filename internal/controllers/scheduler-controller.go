package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"task-system/internal/services"
	"task-system/pkg/utils"
)

// SchedulerController — единственный эндпоинт дергается внешним cron-ом,
// авторизация через CronAuth middleware, не через пользовательскую сессию.
type SchedulerController struct {
	service services.SchedulerServiceInterface
	logger  *zap.Logger
}

func NewSchedulerController(service services.SchedulerServiceInterface, logger *zap.Logger) *SchedulerController {
	return &SchedulerController{service: service, logger: logger}
}

func (c *SchedulerController) RunPoll(ctx echo.Context) error {
	summary, err := c.service.RunPoll(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, summary, "Проход планировщика выполнен", http.StatusOK)
}
