package routes

import (
	"github.com/labstack/echo/v4"

	"task-system/internal/controllers"
)

func runNotificationRouter(secureGroup *echo.Group, ctrl *controllers.NotificationController) {
	secureGroup.GET("/notifications", ctrl.ListMy)
	secureGroup.PUT("/notification/:id/read", ctrl.MarkRead)
}
