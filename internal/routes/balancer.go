package routes

import (
	"github.com/labstack/echo/v4"

	"task-system/internal/controllers"
)

func runBalancerRouter(secureGroup *echo.Group, ctrl *controllers.BalancerController) {
	secureGroup.POST("/task/:id/assign", ctrl.Assign)
	secureGroup.GET("/team/:id/rebalance", ctrl.SuggestRebalance)
}
