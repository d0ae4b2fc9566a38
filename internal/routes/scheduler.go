package routes

import (
	"github.com/labstack/echo/v4"

	"task-system/internal/controllers"
	"task-system/pkg/middleware"
)

// Эндпоинт планировщика висит вне /api и защищён cron-токеном:
// его дергает внешний триггер по расписанию, а не пользователь.
func runSchedulerRouter(e *echo.Echo, ctrl *controllers.SchedulerController, cronMW *middleware.CronAuth) {
	e.POST("/internal/scheduler/poll", ctrl.RunPoll, cronMW.Auth)
}
