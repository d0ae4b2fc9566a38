package routes

import (
	"github.com/labstack/echo/v4"

	"task-system/internal/controllers"
)

func runUserRouter(secureGroup *echo.Group, ctrl *controllers.UserController) {
	secureGroup.GET("/users", ctrl.GetUsers)
	secureGroup.GET("/user/:id", ctrl.FindUser)
	secureGroup.POST("/user", ctrl.CreateUser)
	secureGroup.PUT("/user/:id", ctrl.UpdateUser)
	// Внешний сигнал отсутствия (отпуск, больничный).
	secureGroup.PUT("/user/:id/absence", ctrl.SetAbsence)
}
