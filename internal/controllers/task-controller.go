package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"task-system/internal/authz"
	"task-system/internal/dto"
	"task-system/internal/services"
	"task-system/pkg/utils"
)

type TaskController struct {
	service  services.TaskServiceInterface
	slaPause services.SlaPauseServiceInterface
	logger   *zap.Logger
}

func NewTaskController(
	service services.TaskServiceInterface,
	slaPause services.SlaPauseServiceInterface,
	logger *zap.Logger,
) *TaskController {
	return &TaskController{service: service, slaPause: slaPause, logger: logger}
}

func (c *TaskController) GetTasks(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpTaskView); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	filter := utils.ParseFilterFromQuery(ctx.QueryParams())
	tasks, total, err := c.service.GetTasks(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessListResponse(ctx, tasks, "Список задач получен", total, filter)
}

func (c *TaskController) FindTask(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpTaskView); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	task, err := c.service.FindTask(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, task, "Задача найдена", http.StatusOK)
}

func (c *TaskController) CreateTask(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpTaskCreate); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	actorID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	var payload dto.CreateTaskDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	task, assignment, err := c.service.CreateTask(reqCtx, actorID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	body := echo.Map{"task": task}
	if assignment != nil {
		body["assignment"] = assignment
	}
	return utils.SuccessResponse(ctx, body, "Задача создана", http.StatusCreated)
}

func (c *TaskController) UpdateTask(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpTaskUpdate); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	var payload dto.UpdateTaskDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	if err := c.service.UpdateTask(reqCtx, id, payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, nil, "Задача обновлена", http.StatusOK)
}

func (c *TaskController) Pause(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpTaskPause); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	var payload dto.PauseTaskDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	if err := c.slaPause.Pause(reqCtx, id, payload.Reason); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, nil, "SLA-пауза включена", http.StatusOK)
}

func (c *TaskController) Resume(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpTaskResume); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	if err := c.slaPause.Resume(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, nil, "SLA-пауза снята", http.StatusOK)
}

func (c *TaskController) EffectiveDue(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpTaskView); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	effective, err := c.slaPause.EffectiveDueDate(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	task, err := c.service.FindTask(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	body := dto.EffectiveDueDTO{
		TaskID:         id,
		DueAt:          task.DueAt,
		EffectiveDueAt: effective.Format(time.RFC3339),
		SlaPaused:      task.SlaPaused,
	}
	return utils.SuccessResponse(ctx, body, "Эффективный дедлайн рассчитан", http.StatusOK)
}
