package routes

import (
	"github.com/labstack/echo/v4"

	"task-system/internal/controllers"
)

func runTaskRouter(secureGroup *echo.Group, ctrl *controllers.TaskController) {
	secureGroup.GET("/tasks", ctrl.GetTasks)
	secureGroup.GET("/task/:id", ctrl.FindTask)
	secureGroup.POST("/task", ctrl.CreateTask)
	secureGroup.PUT("/task/:id", ctrl.UpdateTask)

	// SLA-паузы и эффективный дедлайн.
	secureGroup.POST("/task/:id/pause", ctrl.Pause)
	secureGroup.POST("/task/:id/resume", ctrl.Resume)
	secureGroup.GET("/task/:id/effective-due", ctrl.EffectiveDue)
}
