package routes

import (
	"github.com/labstack/echo/v4"

	"task-system/internal/controllers"
)

func runRequestRouter(secureGroup *echo.Group, ctrl *controllers.RequestController) {
	secureGroup.GET("/requests", ctrl.GetRequests)
	secureGroup.GET("/request/:id", ctrl.FindRequest)
	secureGroup.POST("/request", ctrl.CreateRequest)
	secureGroup.PUT("/request/:id/status", ctrl.UpdateStatus)
}
