package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"task-system/internal/entities"
	"task-system/internal/repositories"
	"task-system/pkg/config"
)

// Веса подоценок. Бонус за должность добавляется сверху (до +0.25),
// итог обрезается в [0,1].
const (
	weightWorkloadFit = 0.45
	weightSkillMatch  = 0.35

	seniorityBonusPerLevel = 0.05
	burnoutPenalty         = 0.2
)

// Причины жёсткого отказа. Кандидат с любой из них исключается и из
// основного ранжирования, и из fallback-пула.
const (
	RejectAbsent    = "absent"
	RejectInactive  = "inactive"
	RejectGuardrail = "max_assignments_per_day"
	RejectWipLimit  = "wip_limit"
	RejectNoSkill   = "no_skill_match"
)

// matchPolicy — политика скилл-совпадения для одного режима.
// Таблица задаёт семантику трёх режимов явно (см. DESIGN.md).
type matchPolicy struct {
	exact   float64
	partial float64
	none    float64
	// rejectPartial/rejectNone — отказ вместо пониженного балла.
	rejectPartial bool
	rejectNone    bool
}

var matchPolicies = map[string]matchPolicy{
	"strict":   {exact: 1.0, rejectPartial: true, rejectNone: true},
	"balanced": {exact: 1.0, partial: 0.5, none: 0.1},
	"flexible": {exact: 1.0, partial: 0.7, none: 0.4},
}

// ScoreContext — общие для всех кандидатов входные данные одного раунда
// подбора. Считается один раз, чтобы скоринг был детерминирован.
type ScoreContext struct {
	TeamAvgLoad float64
	Now         time.Time
}

// CandidateScore — результат оценки одного кандидата.
type CandidateScore struct {
	UserID       uint64
	Score        float64
	Load         float64
	OpenCount    int
	Rejected     bool
	RejectReason string
}

type ScorerServiceInterface interface {
	ScoreCandidate(ctx context.Context, task *entities.Task, candidate *entities.User, sctx ScoreContext) (*CandidateScore, error)
}

type ScorerService struct {
	workload   WorkloadServiceInterface
	taskRepo   repositories.TaskRepositoryInterface
	assignRepo repositories.AssignmentLogRepositoryInterface
	cfg        config.BalancerConfig
	logger     *zap.Logger
}

func NewScorerService(
	workload WorkloadServiceInterface,
	taskRepo repositories.TaskRepositoryInterface,
	assignRepo repositories.AssignmentLogRepositoryInterface,
	cfg config.BalancerConfig,
	logger *zap.Logger,
) ScorerServiceInterface {
	return &ScorerService{
		workload:   workload,
		taskRepo:   taskRepo,
		assignRepo: assignRepo,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *ScorerService) ScoreCandidate(ctx context.Context, task *entities.Task, candidate *entities.User, sctx ScoreContext) (*CandidateScore, error) {
	result := &CandidateScore{UserID: candidate.ID}

	if !candidate.IsActive {
		result.Rejected = true
		result.RejectReason = RejectInactive
		return result, nil
	}
	if candidate.IsAbsent {
		result.Rejected = true
		result.RejectReason = RejectAbsent
		return result, nil
	}

	// Ограничитель назначений в сутки.
	startOfDay := time.Date(sctx.Now.Year(), sctx.Now.Month(), sctx.Now.Day(), 0, 0, 0, 0, sctx.Now.Location())
	assignedToday, err := s.assignRepo.CountForUserSince(ctx, candidate.ID, startOfDay)
	if err != nil {
		return nil, err
	}
	if assignedToday >= s.cfg.MaxAssignmentsPerDay {
		result.Rejected = true
		result.RejectReason = RejectGuardrail
		return result, nil
	}

	snapshot, err := s.workload.ComputeWorkload(ctx, candidate.ID)
	if err != nil {
		return nil, err
	}
	result.Load = snapshot.WeightedLoad
	result.OpenCount = snapshot.OpenCount

	if snapshot.OpenCount >= s.cfg.WipLimit {
		result.Rejected = true
		result.RejectReason = RejectWipLimit
		return result, nil
	}

	// Скилл-совпадение по таблице режимов.
	policy, ok := matchPolicies[s.cfg.MatchingMode]
	if !ok {
		policy = matchPolicies["balanced"]
	}
	exact, related, err := s.taskRepo.CategoryExperience(ctx, candidate.ID, task.CategoryID)
	if err != nil {
		return nil, err
	}

	var skillScore float64
	switch {
	case exact > 0:
		skillScore = policy.exact
	case related > 0:
		if policy.rejectPartial {
			result.Rejected = true
			result.RejectReason = RejectNoSkill
			return result, nil
		}
		skillScore = policy.partial
	default:
		if policy.rejectNone {
			result.Rejected = true
			result.RejectReason = RejectNoSkill
			return result, nil
		}
		skillScore = policy.none
	}

	// Соответствие по нагрузке: чем ниже нагрузка относительно средней по
	// команде, тем выше балл. При нулевой средней все свободны — 1.0.
	workloadFit := 1.0
	if sctx.TeamAvgLoad > 0 {
		workloadFit = clamp01(1 - snapshot.WeightedLoad/(2*sctx.TeamAvgLoad))
	}

	// Сигнал перегрузки: завершения в скользящем окне выше порога.
	windowStart := sctx.Now.AddDate(0, 0, -s.cfg.BurnoutWindowDays)
	recentDone, err := s.taskRepo.CompletedCountSince(ctx, candidate.ID, windowStart)
	if err != nil {
		return nil, err
	}
	var penalty float64
	if recentDone > s.cfg.BurnoutThreshold {
		penalty = burnoutPenalty
	}

	seniorityBonus := float64(candidate.PositionLevel) * seniorityBonusPerLevel

	result.Score = clamp01(weightWorkloadFit*workloadFit + weightSkillMatch*skillScore + seniorityBonus - penalty)
	return result, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
