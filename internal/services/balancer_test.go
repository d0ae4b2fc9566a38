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
)

type balancerFixture struct {
	taskRepo     *fakeTaskRepo
	userRepo     *fakeUserRepo
	categoryRepo *fakeCategoryRepo
	assignRepo   *fakeAssignLogRepo
	notifier     *fakeNotifier
	balancer     *BalancerService
	now          time.Time
}

func newBalancerFixture(cfg config.BalancerConfig) *balancerFixture {
	taskRepo := newFakeTaskRepo()
	userRepo := newFakeUserRepo()
	taskRepo.users = userRepo
	categoryRepo := newFakeCategoryRepo()
	assignRepo := newFakeAssignLogRepo()
	notifier := &fakeNotifier{}

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	workload := NewWorkloadService(taskRepo, userRepo, cfg, zap.NewNop())
	workload.now = func() time.Time { return now }
	scorer := NewScorerService(workload, taskRepo, assignRepo, cfg, zap.NewNop())

	balancer := NewBalancerService(
		taskRepo, userRepo, categoryRepo, assignRepo,
		workload, scorer, notifier, cfg, zap.NewNop(),
	)
	balancer.now = func() time.Time { return now }

	return &balancerFixture{
		taskRepo:     taskRepo,
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		assignRepo:   assignRepo,
		notifier:     notifier,
		balancer:     balancer,
		now:          now,
	}
}

// seedTeam создаёт команду 1 с категорией 10 и парой активных участников.
func (f *balancerFixture) seedTeam(memberIDs ...uint64) {
	teamID := uint64(1)
	f.categoryRepo.addCategory(entities.Category{ID: 10, Name: "Серверы", TeamID: teamID})
	for _, id := range memberIDs {
		team := teamID
		f.userRepo.addUser(entities.User{ID: id, IsActive: true, TeamID: &team, PositionLevel: 1})
	}
}

func (f *balancerFixture) seedTask() *entities.Task {
	created := f.now
	task := entities.Task{
		ID:         100,
		RequestID:  1,
		CategoryID: 10,
		Status:     constants.TaskStatusOpen,
		Priority:   constants.PriorityMedium,
	}
	task.CreatedAt = &created
	return f.taskRepo.addTask(task)
}

func (f *balancerFixture) giveOpenTasks(userID uint64, count int) {
	for i := 0; i < count; i++ {
		created := f.now
		assignee := userID
		task := entities.Task{Status: constants.TaskStatusOpen, Priority: constants.PriorityMedium, AssigneeID: &assignee}
		task.CreatedAt = &created
		f.taskRepo.addTask(task)
	}
}

func TestAssign_PicksCandidateWithExperience(t *testing.T) {
	f := newBalancerFixture(testBalancerConfig())
	f.seedTeam(1, 2)
	task := f.seedTask()

	// У второго кандидата точный опыт в категории, у первого — никакого.
	f.taskRepo.setExperience(2, 10, 3, 0)

	result, err := f.balancer.Assign(context.Background(), task.ID, 99)
	require.NoError(t, err)

	assert.True(t, result.Assigned)
	assert.Equal(t, uint64(2), result.AssigneeID)
	assert.Equal(t, "scored", result.Outcome)

	stored := f.taskRepo.tasks[task.ID]
	require.NotNil(t, stored.AssigneeID)
	assert.Equal(t, uint64(2), *stored.AssigneeID)

	// Назначение журналируется и уведомляет исполнителя.
	assert.Equal(t, []uint64{2}, f.assignRepo.logged)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, constants.NotifyKindAssigned, f.notifier.calls[0].Kind)
}

func TestAssign_TieBreakByLoadThenID(t *testing.T) {
	f := newBalancerFixture(testBalancerConfig())
	f.seedTeam(1, 2, 3)
	task := f.seedTask()

	for _, id := range []uint64{1, 2, 3} {
		f.taskRepo.setExperience(id, 10, 1, 0)
	}
	// Первый загружен сильнее; второй и третий равны — выигрывает меньший ID.
	f.giveOpenTasks(1, 2)

	result, err := f.balancer.Assign(context.Background(), task.ID, 99)
	require.NoError(t, err)
	assert.True(t, result.Assigned)
	assert.Equal(t, uint64(2), result.AssigneeID)
}

func TestAssign_SmartBalanceFallback(t *testing.T) {
	cfg := testBalancerConfig()
	cfg.MatchingMode = "strict"
	f := newBalancerFixture(cfg)
	f.seedTeam(1, 2)
	task := f.seedTask()

	// strict отклоняет обоих по скиллу, fallback игнорирует скилл и берёт
	// наименее загруженного.
	f.giveOpenTasks(1, 3)

	result, err := f.balancer.Assign(context.Background(), task.ID, 99)
	require.NoError(t, err)

	assert.True(t, result.Assigned)
	assert.Equal(t, uint64(2), result.AssigneeID)
	assert.Equal(t, "fallback:smart_balance", result.Outcome)
}

func TestAssign_ManualGateReturnsNoCandidate(t *testing.T) {
	cfg := testBalancerConfig()
	cfg.MatchingMode = "strict"
	cfg.FallbackStrategy = FallbackManualGate
	f := newBalancerFixture(cfg)
	f.seedTeam(1)
	task := f.seedTask()

	result, err := f.balancer.Assign(context.Background(), task.ID, 99)
	require.NoError(t, err)

	// Отсутствие кандидата — бизнес-результат, а не ошибка.
	assert.False(t, result.Assigned)
	assert.Equal(t, OutcomeNoEligibleCandidate, result.Outcome)
	assert.Nil(t, f.taskRepo.tasks[task.ID].AssigneeID)
	assert.Empty(t, f.notifier.calls)
}

func TestAssign_NoCandidateWhenAllRejected(t *testing.T) {
	f := newBalancerFixture(testBalancerConfig())
	f.seedTeam(1)
	task := f.seedTask()

	// Единственный кандидат упёрся в суточный лимит — fallback его тоже
	// не возьмёт.
	f.assignRepo.counts[1] = 5

	result, err := f.balancer.Assign(context.Background(), task.ID, 99)
	require.NoError(t, err)
	assert.False(t, result.Assigned)
	assert.Equal(t, OutcomeNoEligibleCandidate, result.Outcome)
}

func TestAssign_RetriesOnceOnConflict(t *testing.T) {
	f := newBalancerFixture(testBalancerConfig())
	f.seedTeam(1)
	task := f.seedTask()
	f.taskRepo.setExperience(1, 10, 1, 0)

	// Первая попытка проигрывает гонку, повтор проходит.
	f.taskRepo.casFailures = 1

	result, err := f.balancer.Assign(context.Background(), task.ID, 99)
	require.NoError(t, err)
	assert.True(t, result.Assigned)
	assert.Equal(t, uint64(1), result.AssigneeID)
}

func TestAssign_TerminalTask(t *testing.T) {
	f := newBalancerFixture(testBalancerConfig())
	f.seedTeam(1)
	created := f.now
	task := entities.Task{ID: 100, CategoryID: 10, Status: constants.TaskStatusDone, Priority: constants.PriorityLow}
	task.CreatedAt = &created
	f.taskRepo.addTask(task)

	_, err := f.balancer.Assign(context.Background(), 100, 99)
	assert.Error(t, err)
}

func TestSuggestRebalance_MovesFromOverloaded(t *testing.T) {
	f := newBalancerFixture(testBalancerConfig())
	f.seedTeam(1, 2)

	// Первый перегружен (6 задач), второй свободен.
	f.giveOpenTasks(1, 6)

	moves, err := f.balancer.SuggestRebalance(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, moves, 1)
	assert.Equal(t, uint64(1), moves[0].FromUserID)
	assert.Equal(t, uint64(2), moves[0].ToUserID)

	// Рекомендации ничего не пишут: задачи остаются на месте.
	tasks, _ := f.taskRepo.GetOpenTasksByAssignee(context.Background(), 1)
	assert.Len(t, tasks, 6)
}

func TestSuggestRebalance_EmptyWhenBalanced(t *testing.T) {
	f := newBalancerFixture(testBalancerConfig())
	f.seedTeam(1, 2)
	f.giveOpenTasks(1, 2)
	f.giveOpenTasks(2, 2)

	moves, err := f.balancer.SuggestRebalance(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, moves)
}
