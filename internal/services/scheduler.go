package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"task-system/internal/dto"
	"task-system/internal/entities"
	"task-system/internal/repositories"
	"task-system/pkg/config"
	"task-system/pkg/constants"
)

// Стадии напоминаний. Стадия 3 — дедлайн пройден (BREACHED).
const (
	stageNone = 0
	stageR1   = 1
	stageR2   = 2
	stageR3   = 3
)

type SchedulerServiceInterface interface {
	RunPoll(ctx context.Context) (*dto.SchedulerRunDTO, error)
}

// SchedulerService — периодический проход по активным задачам. Состояние
// не держится в памяти: каждый вызов заново выводит его из персистентных
// данных (reminder_stage, escalated_at), поэтому рестарты между проходами
// ничего не теряют. Дубли при конкурентных проходах гасятся дважды:
// SETNX в Redis и CAS по reminder_stage.
type SchedulerService struct {
	taskRepo     repositories.TaskRepositoryInterface
	categoryRepo repositories.CategoryRepositoryInterface
	teamRepo     repositories.TeamRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	cache        repositories.CacheRepositoryInterface
	notifier     NotificationServiceInterface
	cfg          config.SchedulerConfig
	logger       *zap.Logger
	now          func() time.Time
}

func NewSchedulerService(
	taskRepo repositories.TaskRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	notifier NotificationServiceInterface,
	cfg config.SchedulerConfig,
	logger *zap.Logger,
) *SchedulerService {
	return &SchedulerService{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		teamRepo:     teamRepo,
		userRepo:     userRepo,
		cache:        cache,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *SchedulerService) RunPoll(ctx context.Context) (*dto.SchedulerRunDTO, error) {
	summary := &dto.SchedulerRunDTO{}
	now := s.now()

	for offset := 0; ; offset += s.cfg.PollChunkSize {
		chunk, err := s.taskRepo.ActiveTasksChunk(ctx, s.cfg.PollChunkSize, offset)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}

		for i := range chunk {
			s.evaluateTask(ctx, &chunk[i], now, summary)
		}
	}

	s.logger.Info("Проход планировщика завершён",
		zap.Int("evaluated", summary.Evaluated),
		zap.Int("reminders", summary.Reminders),
		zap.Int("breaches", summary.Breaches),
		zap.Int("escalations", summary.Escalation),
		zap.Int("failures", summary.Failures))
	return summary, nil
}

func (s *SchedulerService) evaluateTask(ctx context.Context, task *entities.Task, now time.Time, summary *dto.SchedulerRunDTO) {
	// Выборка отсеивает паузы, но перестрахуемся: замороженная задача
	// не переходит ни в какое состояние.
	if task.SlaPaused || task.DueAt == nil {
		summary.Skipped++
		return
	}
	summary.Evaluated++

	// Открытого интервала нет (задача не на паузе), эффективный дедлайн —
	// исходный плюс накопленные паузы.
	effectiveDue := EffectiveDue(task, nil, now)

	targetStage := s.crossedStage(effectiveDue, now)
	if targetStage > task.ReminderStage {
		s.advanceStage(ctx, task, targetStage, effectiveDue, summary)
	}

	if s.cfg.AutoEscalateStalled && task.EscalatedAt == nil &&
		now.Sub(effectiveDue) >= s.cfg.EscalateAfter {
		s.escalate(ctx, task, effectiveDue, summary)
	}
}

// crossedStage — старшая стадия, порог которой уже пройден.
func (s *SchedulerService) crossedStage(effectiveDue, now time.Time) int {
	switch {
	case !now.Before(effectiveDue.Add(-s.cfg.ReminderOffsetR3)):
		return stageR3
	case !now.Before(effectiveDue.Add(-s.cfg.ReminderOffsetR2)):
		return stageR2
	case !now.Before(effectiveDue.Add(-s.cfg.ReminderOffsetR1)):
		return stageR1
	default:
		return stageNone
	}
}

func (s *SchedulerService) advanceStage(ctx context.Context, task *entities.Task, targetStage int, effectiveDue time.Time, summary *dto.SchedulerRunDTO) {
	// Первый рубеж дедупликации: SETNX на (задача, стадия).
	dedupeKey := fmt.Sprintf(constants.CacheKeySlaNotify, task.ID, targetStage)
	ok, err := s.cache.SetNX(ctx, dedupeKey, "sent", s.cfg.NotifyDedupeTTL)
	if err != nil {
		// Redis недоступен — полагаемся на CAS ниже.
		s.logger.Warn("Дедупликация в кеше недоступна", zap.Error(err))
	} else if !ok {
		return
	}

	kind := constants.NotifyKindReminder
	if targetStage == stageR3 {
		kind = constants.NotifyKindBreach
	}

	target, err := s.notifyTarget(ctx, task)
	if err != nil {
		s.logger.Error("Не удалось определить получателя уведомления",
			zap.Uint64("taskID", task.ID), zap.Error(err))
		summary.Failures++
		s.releaseDedupe(ctx, dedupeKey)
		return
	}

	// Доставка идёт до продвижения стадии: при срыве стадия остаётся
	// прежней, ключ дедупликации снимается и следующий проход повторит
	// отправку.
	payload := fmt.Sprintf(`{"task_id":%d,"stage":%d,"effective_due":"%s"}`,
		task.ID, targetStage, effectiveDue.Format(time.RFC3339))
	if err := s.notifier.Notify(ctx, target, &task.ID, kind, payload); err != nil {
		s.logger.Error("Не удалось отправить SLA-уведомление",
			zap.Uint64("taskID", task.ID), zap.Error(err))
		summary.Failures++
		s.releaseDedupe(ctx, dedupeKey)
		return
	}

	// Второй рубеж: CAS по reminder_stage. Параллельный проход, успевший
	// раньше, делает наш апдейт пустым; редкий дубль отправки при недоступном
	// Redis гасится TTL-ключом.
	advanced, err := s.taskRepo.AdvanceReminderStage(ctx, task.ID, task.ReminderStage, targetStage)
	if err != nil {
		s.logger.Error("Не удалось продвинуть стадию напоминаний",
			zap.Uint64("taskID", task.ID), zap.Error(err))
		summary.Failures++
		return
	}
	if !advanced {
		return
	}

	if targetStage == stageR3 {
		summary.Breaches++
	} else {
		summary.Reminders++
	}
}

func (s *SchedulerService) escalate(ctx context.Context, task *entities.Task, effectiveDue time.Time, summary *dto.SchedulerRunDTO) {
	dedupeKey := fmt.Sprintf(constants.CacheKeySlaEscalate, task.ID)
	ok, err := s.cache.SetNX(ctx, dedupeKey, "sent", s.cfg.NotifyDedupeTTL)
	if err != nil {
		s.logger.Warn("Дедупликация эскалации в кеше недоступна", zap.Error(err))
	} else if !ok {
		return
	}

	leader, err := s.teamLeader(ctx, task)
	if err != nil {
		s.logger.Error("Не удалось найти руководителя для эскалации",
			zap.Uint64("taskID", task.ID), zap.Error(err))
		summary.Failures++
		s.releaseDedupe(ctx, dedupeKey)
		return
	}

	// Как и с напоминаниями: сначала доставка, потом отметка. Сорвавшаяся
	// эскалация повторяется следующим проходом.
	payload := fmt.Sprintf(`{"task_id":%d,"effective_due":"%s","overdue_hours":%.1f}`,
		task.ID, effectiveDue.Format(time.RFC3339), s.now().Sub(effectiveDue).Hours())
	if err := s.notifier.Notify(ctx, leader, &task.ID, constants.NotifyKindEscalation, payload); err != nil {
		s.logger.Error("Не удалось отправить эскалацию", zap.Uint64("taskID", task.ID), zap.Error(err))
		summary.Failures++
		s.releaseDedupe(ctx, dedupeKey)
		return
	}

	marked, err := s.taskRepo.MarkEscalated(ctx, task.ID)
	if err != nil {
		s.logger.Error("Не удалось отметить эскалацию", zap.Uint64("taskID", task.ID), zap.Error(err))
		summary.Failures++
		return
	}
	if !marked {
		return
	}
	summary.Escalation++
}

// releaseDedupe снимает SETNX-ключ после срыва отправки, иначе следующий
// проход был бы заблокирован до истечения TTL.
func (s *SchedulerService) releaseDedupe(ctx context.Context, key string) {
	if err := s.cache.Del(ctx, key); err != nil {
		s.logger.Warn("Не удалось снять ключ дедупликации", zap.String("key", key), zap.Error(err))
	}
}

// notifyTarget — исполнитель задачи; без исполнителя напоминание идёт
// руководителю команды категории.
func (s *SchedulerService) notifyTarget(ctx context.Context, task *entities.Task) (uint64, error) {
	if task.AssigneeID != nil {
		return *task.AssigneeID, nil
	}
	return s.teamLeader(ctx, task)
}

func (s *SchedulerService) teamLeader(ctx context.Context, task *entities.Task) (uint64, error) {
	category, err := s.categoryRepo.FindCategory(ctx, task.CategoryID)
	if err != nil {
		return 0, err
	}
	team, err := s.teamRepo.FindTeam(ctx, category.TeamID)
	if err != nil {
		return 0, err
	}
	if team.LeaderID != nil {
		return *team.LeaderID, nil
	}

	// У команды нет руководителя — уходит первому администратору.
	admins, err := s.userRepo.GetAdmins(ctx)
	if err != nil {
		return 0, err
	}
	if len(admins) == 0 {
		return 0, fmt.Errorf("некому эскалировать: нет ни руководителя, ни администраторов")
	}
	return admins[0].ID, nil
}
