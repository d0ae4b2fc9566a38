package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"task-system/internal/authz"
	"task-system/internal/dto"
	"task-system/internal/services"
	"task-system/pkg/utils"
)

type CategoryController struct {
	service  services.CategoryServiceInterface
	deadline services.DeadlineServiceInterface
	logger   *zap.Logger
}

func NewCategoryController(
	service services.CategoryServiceInterface,
	deadline services.DeadlineServiceInterface,
	logger *zap.Logger,
) *CategoryController {
	return &CategoryController{service: service, deadline: deadline, logger: logger}
}

func (c *CategoryController) GetCategories(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpCategoryView); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	categories, err := c.service.GetCategories(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, categories, "Список категорий получен", http.StatusOK)
}

func (c *CategoryController) FindCategory(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpCategoryView); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	category, err := c.service.FindCategory(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, category, "Категория найдена", http.StatusOK)
}

func (c *CategoryController) CreateCategory(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpCategoryEdit); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	var payload dto.CreateCategoryDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	newID, err := c.service.CreateCategory(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, echo.Map{"id": newID}, "Категория создана", http.StatusCreated)
}

// RefreshStats — ручной запуск пересчёта статистики длительностей.
func (c *CategoryController) RefreshStats(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpStatsRefresh); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	summary, err := c.deadline.UpdateAllCategoryStats(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, summary, "Статистика категорий пересчитана", http.StatusOK)
}
