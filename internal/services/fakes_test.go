package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"task-system/internal/dto"
	"task-system/internal/entities"
	apperrors "task-system/pkg/errors"
	"task-system/pkg/types"
)

// Фейки репозиториев для юнит-тестов сервисного слоя: вся "база" живёт
// в памяти, поведение повторяет контракт интерфейсов.

type fakeTaskRepo struct {
	tasks      map[uint64]*entities.Task
	nextID     uint64
	samples    map[uint64][]types.CompletionSample
	experience map[uint64]map[uint64][2]int // userID -> categoryID -> {exact, related}
	completed  map[uint64]int
	// users нужен GetOpenTasksByTeam: принадлежность к команде живёт
	// у пользователей, как и в SQL-запросе с подселектом.
	users *fakeUserRepo
	// casFailures — сколько ближайших AssignTaskCAS вернут конфликт.
	casFailures int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks:      make(map[uint64]*entities.Task),
		nextID:     1,
		samples:    make(map[uint64][]types.CompletionSample),
		experience: make(map[uint64]map[uint64][2]int),
		completed:  make(map[uint64]int),
	}
}

func (r *fakeTaskRepo) addTask(t entities.Task) *entities.Task {
	if t.ID == 0 {
		t.ID = r.nextID
	}
	if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	stored := t
	r.tasks[stored.ID] = &stored
	return &stored
}

func (r *fakeTaskRepo) setExperience(userID, categoryID uint64, exact, related int) {
	if r.experience[userID] == nil {
		r.experience[userID] = make(map[uint64][2]int)
	}
	r.experience[userID][categoryID] = [2]int{exact, related}
}

func (r *fakeTaskRepo) sortedTasks() []*entities.Task {
	out := make([]*entities.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeTaskRepo) GetTasks(_ context.Context, _ types.Filter) ([]entities.Task, uint64, error) {
	out := make([]entities.Task, 0, len(r.tasks))
	for _, t := range r.sortedTasks() {
		out = append(out, *t)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeTaskRepo) FindTask(_ context.Context, id uint64) (*entities.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTaskRepo) CreateTask(_ context.Context, taskDto dto.CreateTaskDTO, priority string, dueAt *time.Time) (uint64, error) {
	now := time.Now()
	t := r.addTask(entities.Task{
		RequestID:    taskDto.RequestID,
		ParentTaskID: taskDto.ParentTaskID,
		Name:         taskDto.Name,
		CategoryID:   taskDto.CategoryID,
		Status:       "OPEN",
		Priority:     priority,
		DueAt:        dueAt,
	})
	t.CreatedAt = &now
	return t.ID, nil
}

func (r *fakeTaskRepo) UpdateTask(_ context.Context, id uint64, taskDto dto.UpdateTaskDTO) error {
	t, ok := r.tasks[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if taskDto.Name.Valid {
		t.Name = taskDto.Name.String
	}
	if taskDto.Priority.Valid {
		t.Priority = taskDto.Priority.String
	}
	return nil
}

func (r *fakeTaskRepo) UpdateStatus(_ context.Context, id uint64, status string) error {
	t, ok := r.tasks[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.Status = status
	if status == "DONE" {
		now := time.Now()
		t.CompletedAt = &now
	}
	return nil
}

func (r *fakeTaskRepo) SetDueAt(_ context.Context, id uint64, dueAt time.Time) error {
	t, ok := r.tasks[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.DueAt = &dueAt
	return nil
}

func (r *fakeTaskRepo) AssignTaskCAS(_ context.Context, taskID uint64, newAssigneeID uint64, expectedAssigneeID *uint64) error {
	if r.casFailures > 0 {
		r.casFailures--
		return apperrors.ErrConcurrencyConflict
	}
	t, ok := r.tasks[taskID]
	if !ok {
		return apperrors.ErrNotFound
	}
	switch {
	case expectedAssigneeID == nil && t.AssigneeID != nil:
		return apperrors.ErrConcurrencyConflict
	case expectedAssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *expectedAssigneeID):
		return apperrors.ErrConcurrencyConflict
	}
	t.AssigneeID = &newAssigneeID
	return nil
}

func (r *fakeTaskRepo) GetOpenTasksByAssignee(_ context.Context, userID uint64) ([]entities.Task, error) {
	out := make([]entities.Task, 0)
	for _, t := range r.sortedTasks() {
		if t.AssigneeID != nil && *t.AssigneeID == userID && !t.IsTerminal() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) GetOpenTasksByTeam(_ context.Context, teamID uint64) ([]entities.Task, error) {
	out := make([]entities.Task, 0)
	if r.users == nil {
		return out, nil
	}
	for _, t := range r.sortedTasks() {
		if t.IsTerminal() || t.AssigneeID == nil {
			continue
		}
		u, ok := r.users.users[*t.AssigneeID]
		if !ok || u.TeamID == nil || *u.TeamID != teamID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTaskRepo) CountOpenSubtasks(_ context.Context, parentTaskID uint64) (int, error) {
	count := 0
	for _, t := range r.tasks {
		if t.ParentTaskID != nil && *t.ParentTaskID == parentTaskID && !t.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (r *fakeTaskRepo) CompletedCountSince(_ context.Context, userID uint64, _ time.Time) (int, error) {
	return r.completed[userID], nil
}

func (r *fakeTaskRepo) CompletionSamples(_ context.Context, categoryID uint64) ([]types.CompletionSample, error) {
	return r.samples[categoryID], nil
}

func (r *fakeTaskRepo) CategoryExperience(_ context.Context, userID, categoryID uint64) (int, int, error) {
	exp := r.experience[userID][categoryID]
	return exp[0], exp[1], nil
}

func (r *fakeTaskRepo) ActiveTasksChunk(_ context.Context, limit, offset int) ([]entities.Task, error) {
	active := make([]entities.Task, 0)
	for _, t := range r.sortedTasks() {
		if !t.IsTerminal() && !t.SlaPaused && t.DueAt != nil {
			active = append(active, *t)
		}
	}
	if offset >= len(active) {
		return nil, nil
	}
	end := offset + limit
	if end > len(active) {
		end = len(active)
	}
	return active[offset:end], nil
}

func (r *fakeTaskRepo) AdvanceReminderStage(_ context.Context, taskID uint64, fromStage, toStage int) (bool, error) {
	t, ok := r.tasks[taskID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if t.ReminderStage != fromStage {
		return false, nil
	}
	t.ReminderStage = toStage
	return true, nil
}

func (r *fakeTaskRepo) MarkEscalated(_ context.Context, taskID uint64) (bool, error) {
	t, ok := r.tasks[taskID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if t.EscalatedAt != nil {
		return false, nil
	}
	now := time.Now()
	t.EscalatedAt = &now
	return true, nil
}

type fakeUserRepo struct {
	users map[uint64]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint64]*entities.User)}
}

func (r *fakeUserRepo) addUser(u entities.User) *entities.User {
	stored := u
	r.users[stored.ID] = &stored
	return &stored
}

func (r *fakeUserRepo) sortedUsers() []*entities.User {
	out := make([]*entities.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeUserRepo) GetUsers(_ context.Context, _ types.Filter) ([]entities.User, uint64, error) {
	out := make([]entities.User, 0, len(r.users))
	for _, u := range r.sortedUsers() {
		out = append(out, *u)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeUserRepo) FindUser(_ context.Context, id uint64) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) FindByLogin(_ context.Context, login string) (*entities.User, error) {
	for _, u := range r.users {
		if u.Login == login {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) CreateUser(_ context.Context, _ dto.CreateUserDTO, _ string) (uint64, error) {
	return 0, nil
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, _ uint64, _ dto.UpdateUserDTO) error {
	return nil
}

func (r *fakeUserRepo) SetAbsence(_ context.Context, id uint64, absent bool) error {
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.IsAbsent = absent
	return nil
}

func (r *fakeUserRepo) GetTeamMembers(_ context.Context, teamID uint64) ([]entities.User, error) {
	out := make([]entities.User, 0)
	for _, u := range r.sortedUsers() {
		if u.TeamID != nil && *u.TeamID == teamID && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetActiveUsers(_ context.Context) ([]entities.User, error) {
	out := make([]entities.User, 0)
	for _, u := range r.sortedUsers() {
		if u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetAdmins(_ context.Context) ([]entities.User, error) {
	out := make([]entities.User, 0)
	for _, u := range r.sortedUsers() {
		if u.Role == "ADMIN" && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeCategoryRepo struct {
	categories map[uint64]*entities.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[uint64]*entities.Category)}
}

func (r *fakeCategoryRepo) addCategory(c entities.Category) *entities.Category {
	stored := c
	r.categories[stored.ID] = &stored
	return &stored
}

func (r *fakeCategoryRepo) GetCategoriesChunk(_ context.Context, limit, offset int) ([]entities.Category, error) {
	all := make([]entities.Category, 0, len(r.categories))
	ids := make([]uint64, 0, len(r.categories))
	for id := range r.categories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		all = append(all, *r.categories[id])
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeCategoryRepo) FindCategory(_ context.Context, id uint64) (*entities.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCategoryRepo) CreateCategory(_ context.Context, _ dto.CreateCategoryDTO) (uint64, error) {
	return 0, nil
}

func (r *fakeCategoryRepo) UpdateStats(_ context.Context, id uint64, stats types.CategoryStats) error {
	c, ok := r.categories[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	avg, med := stats.AvgDurationHours, stats.MedianDurationHours
	c.AvgDurationHours = &avg
	c.MedianDurationHours = &med
	c.SampleCount = stats.SampleCount
	now := time.Now()
	c.StatsUpdatedAt = &now
	return nil
}

func (r *fakeCategoryRepo) PathNames(_ context.Context, id uint64) ([]string, error) {
	names := make([]string, 0)
	for c, ok := r.categories[id]; ok; c, ok = r.categories[id] {
		names = append([]string{c.Name}, names...)
		if c.ParentID == nil {
			break
		}
		id = *c.ParentID
	}
	return names, nil
}

type fakeTeamRepo struct {
	teams map[uint64]*entities.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[uint64]*entities.Team)}
}

func (r *fakeTeamRepo) GetTeams(_ context.Context) ([]entities.Team, error) {
	out := make([]entities.Team, 0, len(r.teams))
	for _, t := range r.teams {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTeamRepo) FindTeam(_ context.Context, id uint64) (*entities.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTeamRepo) CreateTeam(_ context.Context, _ dto.CreateTeamDTO) (uint64, error) {
	return 0, nil
}

type fakeAssignLogRepo struct {
	counts       map[uint64]int
	lastAssigned map[uint64]time.Time
	logged       []uint64 // assigneeID в порядке записи
}

func newFakeAssignLogRepo() *fakeAssignLogRepo {
	return &fakeAssignLogRepo{
		counts:       make(map[uint64]int),
		lastAssigned: make(map[uint64]time.Time),
	}
}

func (r *fakeAssignLogRepo) LogAssignment(_ context.Context, _ uint64, _ uint64, assigneeID uint64, _ string) error {
	r.logged = append(r.logged, assigneeID)
	return nil
}

func (r *fakeAssignLogRepo) CountForUserSince(_ context.Context, userID uint64, _ time.Time) (int, error) {
	return r.counts[userID], nil
}

func (r *fakeAssignLogRepo) LastAssignedAt(_ context.Context, _ uint64) (map[uint64]time.Time, error) {
	return r.lastAssigned, nil
}

type fakeCacheRepo struct {
	data map[string]string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{data: make(map[string]string)}
}

func (r *fakeCacheRepo) Set(_ context.Context, key string, _ interface{}, _ time.Duration) error {
	r.data[key] = "set"
	return nil
}

func (r *fakeCacheRepo) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	if _, exists := r.data[key]; exists {
		return false, nil
	}
	r.data[key] = "set"
	return true, nil
}

func (r *fakeCacheRepo) Get(_ context.Context, key string) (string, error) {
	return r.data[key], nil
}

func (r *fakeCacheRepo) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(r.data, k)
	}
	return nil
}

type notifyCall struct {
	Target uint64
	TaskID *uint64
	Kind   string
}

type fakeNotifier struct {
	calls []notifyCall
	// failures — сколько ближайших Notify вернут ошибку доставки.
	failures int
}

func (n *fakeNotifier) Notify(_ context.Context, targetUserID uint64, taskID *uint64, kind, _ string) error {
	if n.failures > 0 {
		n.failures--
		return errors.New("канал доставки недоступен")
	}
	n.calls = append(n.calls, notifyCall{Target: targetUserID, TaskID: taskID, Kind: kind})
	return nil
}

func (n *fakeNotifier) ListForUser(_ context.Context, _ uint64, _ bool) ([]entities.Notification, error) {
	return nil, nil
}

func (n *fakeNotifier) MarkRead(_ context.Context, _ string, _ uint64) error { return nil }

// fakePauseRepo держит интервалы в памяти и синхронно обновляет флаги
// задач в связанном fakeTaskRepo — как это делают транзакции в БД.
type fakePauseRepo struct {
	taskRepo *fakeTaskRepo
	open     map[uint64]*entities.SlaPauseInterval
}

func newFakePauseRepo(taskRepo *fakeTaskRepo) *fakePauseRepo {
	return &fakePauseRepo{taskRepo: taskRepo, open: make(map[uint64]*entities.SlaPauseInterval)}
}

func (r *fakePauseRepo) FindOpenInterval(_ context.Context, taskID uint64) (*entities.SlaPauseInterval, error) {
	interval, ok := r.open[taskID]
	if !ok {
		return nil, apperrors.ErrNotPaused
	}
	copied := *interval
	return &copied, nil
}

func (r *fakePauseRepo) OpenIntervalTx(_ context.Context, _ pgx.Tx, taskID uint64, reason string, at time.Time) error {
	if _, exists := r.open[taskID]; exists {
		return apperrors.ErrAlreadyPaused
	}
	r.open[taskID] = &entities.SlaPauseInterval{TaskID: taskID, Reason: reason, StartedAt: at}
	if t, ok := r.taskRepo.tasks[taskID]; ok {
		t.SlaPaused = true
	}
	return nil
}

func (r *fakePauseRepo) CloseIntervalTx(_ context.Context, _ pgx.Tx, taskID uint64, at time.Time) error {
	interval, exists := r.open[taskID]
	if !exists {
		return apperrors.ErrNotPaused
	}
	delete(r.open, taskID)
	if t, ok := r.taskRepo.tasks[taskID]; ok {
		t.SlaPaused = false
		t.SlaPausedMs += at.Sub(interval.StartedAt).Milliseconds()
	}
	return nil
}

type fakeTxManager struct{}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}
