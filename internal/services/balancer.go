package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"task-system/internal/dto"
	"task-system/internal/entities"
	"task-system/internal/repositories"
	"task-system/pkg/config"
	"task-system/pkg/constants"
	apperrors "task-system/pkg/errors"
)

// Стратегии fallback, когда никто не набрал минимальный балл.
const (
	FallbackSmartBalance = "smart_balance"
	FallbackRoundRobin   = "round_robin"
	FallbackManualGate   = "manual_gate"
	FallbackRandomSpread = "random_spread"
)

const OutcomeNoEligibleCandidate = "NO_ELIGIBLE_CANDIDATE"

// overloadFactor — нагрузка выше средней по команде во столько раз считается
// перегрузом при перебалансировке.
const overloadFactor = 1.5

type BalancerServiceInterface interface {
	Assign(ctx context.Context, taskID uint64, actorID uint64) (*dto.AssignmentResultDTO, error)
	SuggestRebalance(ctx context.Context, teamID uint64) ([]dto.RebalanceMoveDTO, error)
}

type BalancerService struct {
	taskRepo     repositories.TaskRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	categoryRepo repositories.CategoryRepositoryInterface
	assignRepo   repositories.AssignmentLogRepositoryInterface
	workload     WorkloadServiceInterface
	scorer       ScorerServiceInterface
	notifier     NotificationServiceInterface
	cfg          config.BalancerConfig
	logger       *zap.Logger
	now          func() time.Time
	randIntn     func(n int) int
}

func NewBalancerService(
	taskRepo repositories.TaskRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	assignRepo repositories.AssignmentLogRepositoryInterface,
	workload WorkloadServiceInterface,
	scorer ScorerServiceInterface,
	notifier NotificationServiceInterface,
	cfg config.BalancerConfig,
	logger *zap.Logger,
) *BalancerService {
	return &BalancerService{
		taskRepo:     taskRepo,
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		assignRepo:   assignRepo,
		workload:     workload,
		scorer:       scorer,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		randIntn:     rand.Intn,
	}
}

// Assign подбирает исполнителя для задачи. Конфликт конкурентного назначения
// перечитывается и повторяется один раз, затем отдаётся наверх.
func (s *BalancerService) Assign(ctx context.Context, taskID uint64, actorID uint64) (*dto.AssignmentResultDTO, error) {
	result, err := s.assignOnce(ctx, taskID, actorID)
	if errors.Is(err, apperrors.ErrConcurrencyConflict) {
		s.logger.Warn("Назначение проиграло гонку, повторная попытка", zap.Uint64("taskID", taskID))
		result, err = s.assignOnce(ctx, taskID, actorID)
	}
	return result, err
}

func (s *BalancerService) assignOnce(ctx context.Context, taskID uint64, actorID uint64) (*dto.AssignmentResultDTO, error) {
	task, err := s.taskRepo.FindTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsTerminal() {
		return nil, apperrors.ErrTaskAlreadyTerminal
	}

	category, err := s.categoryRepo.FindCategory(ctx, task.CategoryID)
	if err != nil {
		return nil, err
	}

	pool, err := s.userRepo.GetTeamMembers(ctx, category.TeamID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 && s.cfg.AllowCrossTeam {
		pool, err = s.userRepo.GetActiveUsers(ctx)
		if err != nil {
			return nil, err
		}
	}

	scores, err := s.scorePool(ctx, task, category.TeamID, pool)
	if err != nil {
		return nil, err
	}

	if best := pickBest(scores, s.cfg.MinViableScore); best != nil {
		if err := s.persistAssignment(ctx, task, actorID, best.UserID, "scored"); err != nil {
			return nil, err
		}
		return &dto.AssignmentResultDTO{
			TaskID:     taskID,
			Assigned:   true,
			AssigneeID: best.UserID,
			Score:      best.Score,
			Outcome:    "scored",
		}, nil
	}

	return s.applyFallback(ctx, task, category.TeamID, scores, actorID)
}

func (s *BalancerService) scorePool(ctx context.Context, task *entities.Task, teamID uint64, pool []entities.User) ([]CandidateScore, error) {
	teamAvg, err := s.workload.TeamAverageLoad(ctx, teamID)
	if err != nil {
		return nil, err
	}
	sctx := ScoreContext{TeamAvgLoad: teamAvg, Now: s.now()}

	scores := make([]CandidateScore, 0, len(pool))
	for i := range pool {
		cs, err := s.scorer.ScoreCandidate(ctx, task, &pool[i], sctx)
		if err != nil {
			return nil, err
		}
		scores = append(scores, *cs)
	}
	return scores, nil
}

// pickBest — максимум балла среди неотклонённых кандидатов; ничьи решаются
// наименьшей нагрузкой, затем наименьшим ID (детерминизм).
func pickBest(scores []CandidateScore, minViable float64) *CandidateScore {
	var best *CandidateScore
	for i := range scores {
		c := &scores[i]
		if c.Rejected || c.Score < minViable {
			continue
		}
		if best == nil ||
			c.Score > best.Score ||
			(c.Score == best.Score && c.Load < best.Load) ||
			(c.Score == best.Score && c.Load == best.Load && c.UserID < best.UserID) {
			best = c
		}
	}
	return best
}

// fallbackPool — кандидаты, не отклонённые жёстко (отсутствие, лимиты).
// Отказ из-за скилла в strict-режиме сюда попадает: fallback жертвует
// скилл-совпадением, но не ограничителями.
func fallbackPool(scores []CandidateScore) []CandidateScore {
	pool := make([]CandidateScore, 0, len(scores))
	for _, c := range scores {
		if c.Rejected && c.RejectReason != RejectNoSkill {
			continue
		}
		pool = append(pool, c)
	}
	return pool
}

func (s *BalancerService) applyFallback(ctx context.Context, task *entities.Task, teamID uint64, scores []CandidateScore, actorID uint64) (*dto.AssignmentResultDTO, error) {
	noCandidate := &dto.AssignmentResultDTO{TaskID: task.ID, Assigned: false, Outcome: OutcomeNoEligibleCandidate}

	pool := fallbackPool(scores)
	if len(pool) == 0 || s.cfg.FallbackStrategy == FallbackManualGate {
		return noCandidate, nil
	}

	var chosen *CandidateScore
	switch s.cfg.FallbackStrategy {
	case FallbackSmartBalance:
		// Наименее загруженный, скилл игнорируется.
		sort.Slice(pool, func(i, j int) bool {
			if pool[i].Load != pool[j].Load {
				return pool[i].Load < pool[j].Load
			}
			return pool[i].UserID < pool[j].UserID
		})
		chosen = &pool[0]

	case FallbackRoundRobin:
		lastAssigned, err := s.assignRepo.LastAssignedAt(ctx, teamID)
		if err != nil {
			return nil, err
		}
		sort.Slice(pool, func(i, j int) bool {
			ti, tj := lastAssigned[pool[i].UserID], lastAssigned[pool[j].UserID]
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return pool[i].UserID < pool[j].UserID
		})
		chosen = &pool[0]

	case FallbackRandomSpread:
		chosen = &pool[s.randIntn(len(pool))]

	default:
		s.logger.Warn("Неизвестная fallback-стратегия, назначение не выполнено",
			zap.String("strategy", s.cfg.FallbackStrategy))
		return noCandidate, nil
	}

	outcome := "fallback:" + s.cfg.FallbackStrategy
	if err := s.persistAssignment(ctx, task, actorID, chosen.UserID, outcome); err != nil {
		return nil, err
	}
	return &dto.AssignmentResultDTO{
		TaskID:     task.ID,
		Assigned:   true,
		AssigneeID: chosen.UserID,
		Score:      chosen.Score,
		Outcome:    outcome,
	}, nil
}

func (s *BalancerService) persistAssignment(ctx context.Context, task *entities.Task, actorID, assigneeID uint64, reason string) error {
	if err := s.taskRepo.AssignTaskCAS(ctx, task.ID, assigneeID, task.AssigneeID); err != nil {
		return err
	}
	if err := s.assignRepo.LogAssignment(ctx, task.ID, actorID, assigneeID, reason); err != nil {
		// Журнал не критичен для назначения, но лимиты на нём держатся.
		s.logger.Error("Не удалось записать назначение в журнал",
			zap.Uint64("taskID", task.ID), zap.Error(err))
	}
	payload := fmt.Sprintf(`{"task_id":%d,"reason":"%s"}`, task.ID, reason)
	if err := s.notifier.Notify(ctx, assigneeID, &task.ID, constants.NotifyKindAssigned, payload); err != nil {
		s.logger.Error("Не удалось отправить уведомление о назначении", zap.Error(err))
	}
	return nil
}

// SuggestRebalance предлагает перенос задач с перегруженных исполнителей на
// недогруженных. Ничего не пишет — только рекомендации.
func (s *BalancerService) SuggestRebalance(ctx context.Context, teamID uint64) ([]dto.RebalanceMoveDTO, error) {
	members, err := s.userRepo.GetTeamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []dto.RebalanceMoveDTO{}, nil
	}

	type memberLoad struct {
		user     *entities.User
		snapshot float64
		open     int
	}
	loads := make([]memberLoad, 0, len(members))
	var total float64
	for i := range members {
		snapshot, err := s.workload.ComputeWorkload(ctx, members[i].ID)
		if err != nil {
			return nil, err
		}
		loads = append(loads, memberLoad{user: &members[i], snapshot: snapshot.WeightedLoad, open: snapshot.OpenCount})
		total += snapshot.WeightedLoad
	}
	avg := total / float64(len(loads))
	if avg == 0 {
		return []dto.RebalanceMoveDTO{}, nil
	}

	// Открытые задачи всей команды одним запросом, дальше группировка по
	// исполнителю.
	teamTasks, err := s.taskRepo.GetOpenTasksByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	tasksByAssignee := make(map[uint64][]entities.Task)
	for _, t := range teamTasks {
		if t.AssigneeID != nil {
			tasksByAssignee[*t.AssigneeID] = append(tasksByAssignee[*t.AssigneeID], t)
		}
	}

	// projectedOpen учитывает уже предложенные переносы, чтобы не переполнить
	// получателя сверх WIP-лимита.
	projectedOpen := make(map[uint64]int)
	for _, ml := range loads {
		projectedOpen[ml.user.ID] = ml.open
	}

	moves := make([]dto.RebalanceMoveDTO, 0)
	for _, src := range loads {
		if src.snapshot <= avg*overloadFactor {
			continue
		}

		tasks := tasksByAssignee[src.user.ID]
		for i := range tasks {
			var dst *memberLoad
			for j := range loads {
				cand := &loads[j]
				if cand.user.ID == src.user.ID || cand.user.IsAbsent || !cand.user.IsActive {
					continue
				}
				if cand.snapshot >= avg {
					continue
				}
				if projectedOpen[cand.user.ID]+1 > s.cfg.WipLimit {
					continue
				}
				if dst == nil || cand.snapshot < dst.snapshot ||
					(cand.snapshot == dst.snapshot && cand.user.ID < dst.user.ID) {
					dst = cand
				}
			}
			if dst == nil {
				break
			}

			moves = append(moves, dto.RebalanceMoveDTO{
				TaskID:     tasks[i].ID,
				FromUserID: src.user.ID,
				ToUserID:   dst.user.ID,
				Reasoning: fmt.Sprintf("нагрузка %.1f выше средней %.1f более чем в %.1f раза; получатель загружен на %.1f",
					src.snapshot, avg, overloadFactor, dst.snapshot),
			})
			projectedOpen[dst.user.ID]++

			// Один перенос на перегруженного за проход — дальше картина
			// нагрузки уже неточна.
			break
		}
	}
	return moves, nil
}
