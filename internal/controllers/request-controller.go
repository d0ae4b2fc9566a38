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

type RequestController struct {
	service services.RequestServiceInterface
	logger  *zap.Logger
}

func NewRequestController(service services.RequestServiceInterface, logger *zap.Logger) *RequestController {
	return &RequestController{service: service, logger: logger}
}

func (c *RequestController) GetRequests(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpRequestView); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	filter := utils.ParseFilterFromQuery(ctx.QueryParams())
	requests, total, err := c.service.GetRequests(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessListResponse(ctx, requests, "Список заявок получен", total, filter)
}

func (c *RequestController) FindRequest(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpRequestView); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	request, err := c.service.FindRequest(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, request, "Заявка найдена", http.StatusOK)
}

func (c *RequestController) CreateRequest(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpRequestCreate); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	requesterID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	var payload dto.CreateRequestDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	newID, err := c.service.CreateRequest(reqCtx, requesterID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, echo.Map{"id": newID}, "Заявка создана", http.StatusCreated)
}

type updateRequestStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=OPEN IN_PROGRESS CLOSED REJECTED"`
}

func (c *RequestController) UpdateStatus(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := authz.Check(reqCtx, authz.OpRequestCreate); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	var payload updateRequestStatusPayload
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	if err := c.service.UpdateStatus(reqCtx, id, payload.Status); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, nil, "Статус заявки обновлён", http.StatusOK)
}
