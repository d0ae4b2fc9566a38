package utils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "task-system/pkg/errors"
	"task-system/pkg/types"
)

type HttpResponse struct {
	Status     bool              `json:"status"`
	Body       interface{}       `json:"body,omitempty"`
	Message    string            `json:"message"`
	Pagination *types.Pagination `json:"pagination,omitempty"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	return ctx.JSON(code, &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	})
}

// SuccessListResponse — список с метаданными пагинации.
func SuccessListResponse(ctx echo.Context, body interface{}, message string, total uint64, filter types.Filter) error {
	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int((total + uint64(filter.Limit) - 1) / uint64(filter.Limit))
	}
	return ctx.JSON(http.StatusOK, &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
		Pagination: &types.Pagination{
			TotalCount: total,
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: totalPages,
		},
	})
}

// ErrorResponse переводит бизнес-ошибку в HTTP-ответ.
// Для HttpError берём только пользовательское сообщение, без технических деталей.
func ErrorResponse(ctx echo.Context, err error) error {
	code := apperrors.StatusOf(err)
	msg := err.Error()

	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		msg = httpErr.Message
	}

	var inputErr *apperrors.InvalidInputError
	if errors.As(err, &inputErr) {
		code = http.StatusUnprocessableEntity
		msg = inputErr.Message
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		code = echoErr.Code
		if m, ok := echoErr.Message.(string); ok {
			msg = m
		}
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Message: msg,
	})
}
