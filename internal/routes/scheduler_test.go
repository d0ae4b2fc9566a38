package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"task-system/internal/controllers"
	"task-system/internal/dto"
	"task-system/pkg/middleware"
)

type stubSchedulerService struct {
	polls int
}

func (s *stubSchedulerService) RunPoll(_ context.Context) (*dto.SchedulerRunDTO, error) {
	s.polls++
	return &dto.SchedulerRunDTO{Evaluated: 3, Reminders: 1}, nil
}

// Эндпоинт планировщика закрыт cron-токеном: без заголовка — 401,
// с верным токеном — проход выполняется.
func TestSchedulerRoute_CronTokenGate(t *testing.T) {
	e := echo.New()
	svc := &stubSchedulerService{}
	ctrl := controllers.NewSchedulerController(svc, zap.NewNop())
	cronMW := middleware.NewCronAuth("s3cret", zap.NewNop())
	runSchedulerRouter(e, ctrl, cronMW)

	req := httptest.NewRequest(http.MethodPost, "/internal/scheduler/poll", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.polls)

	req = httptest.NewRequest(http.MethodPost, "/internal/scheduler/poll", nil)
	req.Header.Set("X-Cron-Token", "неверный")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.polls)

	req = httptest.NewRequest(http.MethodPost, "/internal/scheduler/poll", nil)
	req.Header.Set("X-Cron-Token", "s3cret")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.polls)
	assert.Contains(t, rec.Body.String(), `"evaluated":3`)
}
