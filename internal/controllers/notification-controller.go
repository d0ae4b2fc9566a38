package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"task-system/internal/services"
	"task-system/pkg/utils"
)

type NotificationController struct {
	service services.NotificationServiceInterface
	logger  *zap.Logger
}

func NewNotificationController(service services.NotificationServiceInterface, logger *zap.Logger) *NotificationController {
	return &NotificationController{service: service, logger: logger}
}

// ListMy — уведомления текущего пользователя; ?unread=true оставляет только
// непрочитанные.
func (c *NotificationController) ListMy(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	onlyUnread := ctx.QueryParam("unread") == "true"
	notifications, err := c.service.ListForUser(reqCtx, userID, onlyUnread)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, notifications, "Уведомления получены", http.StatusOK)
}

func (c *NotificationController) MarkRead(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	id := ctx.Param("id")
	if err := c.service.MarkRead(reqCtx, id, userID); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, nil, "Уведомление прочитано", http.StatusOK)
}
