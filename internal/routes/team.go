package routes

import (
	"github.com/labstack/echo/v4"

	"task-system/internal/controllers"
)

func runTeamRouter(secureGroup *echo.Group, ctrl *controllers.TeamController) {
	secureGroup.GET("/teams", ctrl.GetTeams)
	secureGroup.GET("/team/:id", ctrl.FindTeam)
	secureGroup.POST("/team", ctrl.CreateTeam)
}
