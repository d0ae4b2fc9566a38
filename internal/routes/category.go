package routes

import (
	"github.com/labstack/echo/v4"

	"task-system/internal/controllers"
)

func runCategoryRouter(secureGroup *echo.Group, ctrl *controllers.CategoryController) {
	secureGroup.GET("/categories", ctrl.GetCategories)
	secureGroup.GET("/category/:id", ctrl.FindCategory)
	secureGroup.POST("/category", ctrl.CreateCategory)
	secureGroup.POST("/categories/refresh-stats", ctrl.RefreshStats)
}
