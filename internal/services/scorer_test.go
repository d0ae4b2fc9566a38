package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"task-system/internal/entities"
	"task-system/pkg/constants"
)

type scorerFixture struct {
	taskRepo   *fakeTaskRepo
	userRepo   *fakeUserRepo
	assignRepo *fakeAssignLogRepo
	scorer     ScorerServiceInterface
}

func newScorerFixture(matchingMode string) *scorerFixture {
	taskRepo := newFakeTaskRepo()
	userRepo := newFakeUserRepo()
	assignRepo := newFakeAssignLogRepo()

	cfg := testBalancerConfig()
	cfg.MatchingMode = matchingMode

	workload := NewWorkloadService(taskRepo, userRepo, cfg, zap.NewNop())
	return &scorerFixture{
		taskRepo:   taskRepo,
		userRepo:   userRepo,
		assignRepo: assignRepo,
		scorer:     NewScorerService(workload, taskRepo, assignRepo, cfg, zap.NewNop()),
	}
}

func scoreCtx() ScoreContext {
	return ScoreContext{TeamAvgLoad: 0, Now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func taskInCategory(categoryID uint64) *entities.Task {
	return &entities.Task{ID: 100, CategoryID: categoryID, Status: constants.TaskStatusOpen, Priority: constants.PriorityMedium}
}

func activeUser(id uint64, level int) *entities.User {
	return &entities.User{ID: id, PositionLevel: level, IsActive: true}
}

func TestScoreCandidate_Deterministic(t *testing.T) {
	f := newScorerFixture("balanced")
	candidate := f.userRepo.addUser(*activeUser(1, 2))
	f.taskRepo.setExperience(1, 10, 3, 0)

	first, err := f.scorer.ScoreCandidate(context.Background(), taskInCategory(10), candidate, scoreCtx())
	require.NoError(t, err)
	second, err := f.scorer.ScoreCandidate(context.Background(), taskInCategory(10), candidate, scoreCtx())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScoreCandidate_RejectsAbsentAndInactive(t *testing.T) {
	f := newScorerFixture("balanced")

	absent := activeUser(1, 1)
	absent.IsAbsent = true
	f.userRepo.addUser(*absent)

	inactive := activeUser(2, 1)
	inactive.IsActive = false
	f.userRepo.addUser(*inactive)

	got, err := f.scorer.ScoreCandidate(context.Background(), taskInCategory(10), absent, scoreCtx())
	require.NoError(t, err)
	assert.True(t, got.Rejected)
	assert.Equal(t, RejectAbsent, got.RejectReason)

	got, err = f.scorer.ScoreCandidate(context.Background(), taskInCategory(10), inactive, scoreCtx())
	require.NoError(t, err)
	assert.True(t, got.Rejected)
	assert.Equal(t, RejectInactive, got.RejectReason)
}

func TestScoreCandidate_DailyAssignmentGuardrail(t *testing.T) {
	f := newScorerFixture("balanced")
	candidate := f.userRepo.addUser(*activeUser(1, 1))
	f.assignRepo.counts[1] = 5 // лимит по умолчанию

	got, err := f.scorer.ScoreCandidate(context.Background(), taskInCategory(10), candidate, scoreCtx())
	require.NoError(t, err)
	assert.True(t, got.Rejected)
	assert.Equal(t, RejectGuardrail, got.RejectReason)
}

func TestScoreCandidate_WipLimit(t *testing.T) {
	f := newScorerFixture("balanced")
	candidate := f.userRepo.addUser(*activeUser(1, 1))

	assignee := uint64(1)
	for i := 0; i < 7; i++ {
		created := scoreCtx().Now
		task := entities.Task{Status: constants.TaskStatusOpen, Priority: constants.PriorityLow, AssigneeID: &assignee}
		task.CreatedAt = &created
		f.taskRepo.addTask(task)
	}

	got, err := f.scorer.ScoreCandidate(context.Background(), taskInCategory(10), candidate, scoreCtx())
	require.NoError(t, err)
	assert.True(t, got.Rejected)
	assert.Equal(t, RejectWipLimit, got.RejectReason)
}

// Режимы скилл-совпадения: strict отклоняет без точного опыта, balanced и
// flexible понижают балл по своим таблицам.
func TestScoreCandidate_MatchingModes(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		exact    int
		related  int
		rejected bool
		score    float64
	}{
		{"strict точный опыт", "strict", 2, 0, false, 0.85},
		{"strict только смежный", "strict", 0, 3, true, 0},
		{"strict без опыта", "strict", 0, 0, true, 0},
		{"balanced смежный", "balanced", 0, 3, false, 0.675},
		{"balanced без опыта", "balanced", 0, 0, false, 0.535},
		{"flexible смежный", "flexible", 0, 3, false, 0.745},
		{"flexible без опыта", "flexible", 0, 0, false, 0.64},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newScorerFixture(tc.mode)
			candidate := f.userRepo.addUser(*activeUser(1, 1))
			f.taskRepo.setExperience(1, 10, tc.exact, tc.related)

			got, err := f.scorer.ScoreCandidate(context.Background(), taskInCategory(10), candidate, scoreCtx())
			require.NoError(t, err)

			assert.Equal(t, tc.rejected, got.Rejected)
			if !tc.rejected {
				// workloadFit = 1 (нет нагрузки), бонус уровня 0.05.
				assert.InDelta(t, tc.score, got.Score, 1e-9)
			}
		})
	}
}

func TestScoreCandidate_BurnoutPenalty(t *testing.T) {
	f := newScorerFixture("balanced")
	candidate := f.userRepo.addUser(*activeUser(1, 1))
	f.taskRepo.setExperience(1, 10, 1, 0)
	f.taskRepo.completed[1] = 16 // выше порога 15

	got, err := f.scorer.ScoreCandidate(context.Background(), taskInCategory(10), candidate, scoreCtx())
	require.NoError(t, err)
	require.False(t, got.Rejected)

	// 0.45 + 0.35 + 0.05 - 0.2
	assert.InDelta(t, 0.65, got.Score, 1e-9)
}
