package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"task-system/internal/entities"
	"task-system/pkg/config"
	"task-system/pkg/constants"
	apperrors "task-system/pkg/errors"
)

func testBalancerConfig() config.BalancerConfig {
	return config.BalancerConfig{
		MatchingMode:         "balanced",
		FallbackStrategy:     FallbackSmartBalance,
		MinViableScore:       0.35,
		WipLimit:             7,
		MaxAssignmentsPerDay: 5,
		AgeBoostCapDays:      14,
		BurnoutWindowDays:    7,
		BurnoutThreshold:     15,
	}
}

func newWorkloadForTest(taskRepo *fakeTaskRepo, userRepo *fakeUserRepo, now time.Time) *WorkloadService {
	svc := NewWorkloadService(taskRepo, userRepo, testBalancerConfig(), zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestTaskWeight_PriorityOrdering(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := newWorkloadForTest(newFakeTaskRepo(), newFakeUserRepo(), now)

	mk := func(priority string) *entities.Task {
		created := now
		task := &entities.Task{Status: constants.TaskStatusOpen, Priority: priority}
		task.CreatedAt = &created
		return task
	}

	urgent := svc.TaskWeight(mk(constants.PriorityUrgent), now)
	high := svc.TaskWeight(mk(constants.PriorityHigh), now)
	medium := svc.TaskWeight(mk(constants.PriorityMedium), now)
	low := svc.TaskWeight(mk(constants.PriorityLow), now)

	assert.Greater(t, urgent, high)
	assert.Greater(t, high, medium)
	assert.Greater(t, medium, low)
	assert.InDelta(t, 4.0, urgent, 1e-9)
	assert.InDelta(t, 1.0, low, 1e-9)
}

func TestTaskWeight_AgeBoostCapped(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := newWorkloadForTest(newFakeTaskRepo(), newFakeUserRepo(), now)

	created := now.AddDate(0, 0, -30) // старше потолка в 14 дней
	task := &entities.Task{Status: constants.TaskStatusOpen, Priority: constants.PriorityMedium}
	task.CreatedAt = &created

	// База 2.0 + 14 дней * 0.1
	assert.InDelta(t, 3.4, svc.TaskWeight(task, now), 1e-9)
}

func TestTaskWeight_TerminalIsZero(t *testing.T) {
	now := time.Now()
	svc := newWorkloadForTest(newFakeTaskRepo(), newFakeUserRepo(), now)

	task := &entities.Task{Status: constants.TaskStatusDone, Priority: constants.PriorityUrgent}
	assert.Zero(t, svc.TaskWeight(task, now))
}

func TestComputeWorkload_SumsOpenTasks(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	taskRepo := newFakeTaskRepo()
	userRepo := newFakeUserRepo()
	userRepo.addUser(entities.User{ID: 1, IsActive: true})

	assignee := uint64(1)
	for _, priority := range []string{constants.PriorityHigh, constants.PriorityLow} {
		task := entities.Task{
			Status:     constants.TaskStatusOpen,
			Priority:   priority,
			AssigneeID: &assignee,
		}
		created := now
		task.CreatedAt = &created
		taskRepo.addTask(task)
	}
	// Завершённая задача нагрузки не добавляет.
	done := entities.Task{Status: constants.TaskStatusDone, Priority: constants.PriorityUrgent, AssigneeID: &assignee}
	taskRepo.addTask(done)

	svc := newWorkloadForTest(taskRepo, userRepo, now)
	snapshot, err := svc.ComputeWorkload(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.OpenCount)
	assert.InDelta(t, 4.0, snapshot.WeightedLoad, 1e-9) // 3 + 1
}

func TestComputeWorkload_UnknownUser(t *testing.T) {
	svc := newWorkloadForTest(newFakeTaskRepo(), newFakeUserRepo(), time.Now())
	_, err := svc.ComputeWorkload(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
