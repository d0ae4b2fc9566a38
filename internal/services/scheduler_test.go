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

type schedulerFixture struct {
	taskRepo     *fakeTaskRepo
	categoryRepo *fakeCategoryRepo
	teamRepo     *fakeTeamRepo
	userRepo     *fakeUserRepo
	cache        *fakeCacheRepo
	notifier     *fakeNotifier
	svc          *SchedulerService
	now          time.Time
}

func newSchedulerFixture() *schedulerFixture {
	f := &schedulerFixture{
		taskRepo:     newFakeTaskRepo(),
		categoryRepo: newFakeCategoryRepo(),
		teamRepo:     newFakeTeamRepo(),
		userRepo:     newFakeUserRepo(),
		cache:        newFakeCacheRepo(),
		notifier:     &fakeNotifier{},
		now:          time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	f.svc = NewSchedulerService(
		f.taskRepo, f.categoryRepo, f.teamRepo, f.userRepo,
		f.cache, f.notifier, testSchedulerConfig(), zap.NewNop(),
	)
	f.svc.now = func() time.Time { return f.now }

	// Команда с руководителем для эскалаций.
	leaderID := uint64(50)
	f.teamRepo.teams = map[uint64]*entities.Team{
		1: {ID: 1, Name: "Инфраструктура", LeaderID: &leaderID},
	}
	f.categoryRepo.addCategory(entities.Category{ID: 10, Name: "Серверы", TeamID: 1})
	f.userRepo.addUser(entities.User{ID: 50, Role: constants.RoleLeader, IsActive: true})
	return f
}

func (f *schedulerFixture) addDueTask(id uint64, due time.Time, assignee *uint64) *entities.Task {
	created := due.Add(-24 * time.Hour)
	task := entities.Task{
		ID:         id,
		CategoryID: 10,
		AssigneeID: assignee,
		Status:     constants.TaskStatusInProgress,
		Priority:   constants.PriorityMedium,
		DueAt:      &due,
	}
	task.CreatedAt = &created
	return f.taskRepo.addTask(task)
}

func (f *schedulerFixture) kinds() []string {
	out := make([]string, 0, len(f.notifier.calls))
	for _, c := range f.notifier.calls {
		out = append(out, c.Kind)
	}
	return out
}

// До дедлайна больше суток — порогов не пересечено, уведомлений нет.
func TestRunPoll_QuietBeforeFirstThreshold(t *testing.T) {
	f := newSchedulerFixture()
	assignee := uint64(7)
	f.addDueTask(1, f.now.Add(30*time.Hour), &assignee)

	summary, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Evaluated)
	assert.Zero(t, summary.Reminders)
	assert.Empty(t, f.notifier.calls)
	assert.Zero(t, f.taskRepo.tasks[1].ReminderStage)
}

func TestRunPoll_ReminderStages(t *testing.T) {
	f := newSchedulerFixture()
	assignee := uint64(7)
	f.userRepo.addUser(entities.User{ID: 7, IsActive: true})

	// До дедлайна 20 часов: порог R1 (24ч) пересечён, R2 (4ч) ещё нет.
	f.addDueTask(1, f.now.Add(20*time.Hour), &assignee)
	// До дедлайна 2 часа: пересечён R2.
	f.addDueTask(2, f.now.Add(2*time.Hour), &assignee)
	// Дедлайн пройден: R3, просрочка.
	f.addDueTask(3, f.now.Add(-time.Hour), &assignee)

	summary, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Evaluated)
	assert.Equal(t, 2, summary.Reminders)
	assert.Equal(t, 1, summary.Breaches)

	assert.Equal(t, 1, f.taskRepo.tasks[1].ReminderStage)
	assert.Equal(t, 2, f.taskRepo.tasks[2].ReminderStage)
	assert.Equal(t, 3, f.taskRepo.tasks[3].ReminderStage)

	assert.ElementsMatch(t,
		[]string{constants.NotifyKindReminder, constants.NotifyKindReminder, constants.NotifyKindBreach},
		f.kinds())
}

// Повторный проход не шлёт уже отправленные стадии.
func TestRunPoll_IdempotentAcrossRuns(t *testing.T) {
	f := newSchedulerFixture()
	assignee := uint64(7)
	f.userRepo.addUser(entities.User{ID: 7, IsActive: true})
	f.addDueTask(1, f.now.Add(2*time.Hour), &assignee)

	_, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)
	require.Len(t, f.notifier.calls, 1)

	summary, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Reminders)
	assert.Len(t, f.notifier.calls, 1)
}

// Рестарт "процесса" между проходами ничего не теряет: состояние целиком
// в задаче, пустой кеш компенсируется CAS-ом по reminder_stage.
func TestRunPoll_SurvivesCacheLoss(t *testing.T) {
	f := newSchedulerFixture()
	assignee := uint64(7)
	f.userRepo.addUser(entities.User{ID: 7, IsActive: true})
	f.addDueTask(1, f.now.Add(2*time.Hour), &assignee)

	_, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)

	f.cache.data = map[string]string{} // имитация потери Redis

	summary, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Reminders)
	assert.Len(t, f.notifier.calls, 1)
}

// Срыв доставки не съедает напоминание: стадия не продвигается, ключ
// дедупликации снимается, следующий проход отправляет повторно.
func TestRunPoll_ResendsReminderAfterDispatchFailure(t *testing.T) {
	f := newSchedulerFixture()
	assignee := uint64(7)
	f.userRepo.addUser(entities.User{ID: 7, IsActive: true})
	f.addDueTask(1, f.now.Add(2*time.Hour), &assignee)

	f.notifier.failures = 1

	summary, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failures)
	assert.Zero(t, summary.Reminders)
	assert.Empty(t, f.notifier.calls)
	assert.Zero(t, f.taskRepo.tasks[1].ReminderStage)

	summary, err = f.svc.RunPoll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Reminders)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, 2, f.taskRepo.tasks[1].ReminderStage)
}

func TestRunPoll_ResendsEscalationAfterDispatchFailure(t *testing.T) {
	f := newSchedulerFixture()
	assignee := uint64(7)
	f.userRepo.addUser(entities.User{ID: 7, IsActive: true})
	f.addDueTask(1, f.now.Add(-10*time.Hour), &assignee)

	// Первый проход: срываются и просрочка, и эскалация.
	f.notifier.failures = 2

	summary, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failures)
	assert.Zero(t, summary.Escalation)
	assert.Nil(t, f.taskRepo.tasks[1].EscalatedAt)

	summary, err = f.svc.RunPoll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Breaches)
	assert.Equal(t, 1, summary.Escalation)
	require.NotNil(t, f.taskRepo.tasks[1].EscalatedAt)
	assert.ElementsMatch(t,
		[]string{constants.NotifyKindBreach, constants.NotifyKindEscalation},
		f.kinds())
}

func TestRunPoll_SkipsPausedTasks(t *testing.T) {
	f := newSchedulerFixture()
	assignee := uint64(7)
	task := f.addDueTask(1, f.now.Add(-time.Hour), &assignee)
	task.SlaPaused = true

	summary, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Evaluated)
	assert.Empty(t, f.notifier.calls)
}

// Накопленные паузы сдвигают пороги: просроченная "по сырому" задача с
// большим запасом пауз ещё не считается горящей.
func TestRunPoll_UsesEffectiveDue(t *testing.T) {
	f := newSchedulerFixture()
	assignee := uint64(7)
	task := f.addDueTask(1, f.now.Add(-time.Hour), &assignee)
	task.SlaPausedMs = (30 * time.Hour).Milliseconds()

	summary, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Evaluated)
	assert.Zero(t, summary.Reminders)
	assert.Zero(t, summary.Breaches)
}

func TestRunPoll_EscalatesStalledOverdue(t *testing.T) {
	f := newSchedulerFixture()
	assignee := uint64(7)
	f.userRepo.addUser(entities.User{ID: 7, IsActive: true})

	// Просрочено на 10 часов при пороге эскалации 8.
	f.addDueTask(1, f.now.Add(-10*time.Hour), &assignee)

	summary, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Breaches)
	assert.Equal(t, 1, summary.Escalation)
	require.NotNil(t, f.taskRepo.tasks[1].EscalatedAt)

	// Эскалация уходит руководителю команды, не исполнителю.
	var escalation *notifyCall
	for i := range f.notifier.calls {
		if f.notifier.calls[i].Kind == constants.NotifyKindEscalation {
			escalation = &f.notifier.calls[i]
		}
	}
	require.NotNil(t, escalation)
	assert.Equal(t, uint64(50), escalation.Target)

	// Повторный проход эскалацию не дублирует.
	summary, err = f.svc.RunPoll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Escalation)
}

// Без исполнителя напоминание адресуется руководителю команды категории.
func TestRunPoll_UnassignedGoesToLeader(t *testing.T) {
	f := newSchedulerFixture()
	f.addDueTask(1, f.now.Add(2*time.Hour), nil)

	_, err := f.svc.RunPoll(context.Background())
	require.NoError(t, err)

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, uint64(50), f.notifier.calls[0].Target)
}
