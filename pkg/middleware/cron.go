package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "task-system/pkg/errors"
	"task-system/pkg/utils"
)

// CronAuth защищает эндпоинт планировщика общим секретом вместо пользовательской
// сессии: его дергает внешний cron-триггер, а не человек.
type CronAuth struct {
	token  string
	logger *zap.Logger
}

func NewCronAuth(token string, logger *zap.Logger) *CronAuth {
	return &CronAuth{token: token, logger: logger}
}

func (m *CronAuth) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		got := c.Request().Header.Get("X-Cron-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(m.token)) != 1 {
			m.logger.Warn("CronAuth: неверный или отсутствующий X-Cron-Token",
				zap.String("remote", c.RealIP()))
			return utils.ErrorResponse(c, apperrors.ErrInvalidCronToken)
		}
		return next(c)
	}
}
