package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"task-system/internal/entities"
	apperrors "task-system/pkg/errors"
)

type SlaPauseRepositoryInterface interface {
	FindOpenInterval(ctx context.Context, taskID uint64) (*entities.SlaPauseInterval, error)

	// OpenIntervalTx открывает интервал паузы и ставит флаг на задаче.
	// Частичный уникальный индекс (task_id WHERE ended_at IS NULL) — точка
	// сериализации: вторая конкурентная пауза получает ErrAlreadyPaused.
	OpenIntervalTx(ctx context.Context, tx pgx.Tx, taskID uint64, reason string, at time.Time) error

	// CloseIntervalTx закрывает открытый интервал, прибавляет его длительность
	// к накопленной паузе задачи и снимает флаг. ErrNotPaused, если открытого
	// интервала нет.
	CloseIntervalTx(ctx context.Context, tx pgx.Tx, taskID uint64, at time.Time) error
}

type SlaPauseRepository struct {
	storage *pgxpool.Pool
}

func NewSlaPauseRepository(storage *pgxpool.Pool) SlaPauseRepositoryInterface {
	return &SlaPauseRepository{storage: storage}
}

func (r *SlaPauseRepository) FindOpenInterval(ctx context.Context, taskID uint64) (*entities.SlaPauseInterval, error) {
	var i entities.SlaPauseInterval
	err := r.storage.QueryRow(ctx,
		`SELECT id, task_id, reason, started_at, ended_at
		 FROM sla_pause_intervals
		 WHERE task_id = $1 AND ended_at IS NULL`, taskID).
		Scan(&i.ID, &i.TaskID, &i.Reason, &i.StartedAt, &i.EndedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotPaused
		}
		return nil, fmt.Errorf("ошибка поиска открытого интервала паузы: %w", err)
	}
	return &i, nil
}

func (r *SlaPauseRepository) OpenIntervalTx(ctx context.Context, tx pgx.Tx, taskID uint64, reason string, at time.Time) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO sla_pause_intervals (task_id, reason, started_at) VALUES ($1, $2, $3)`,
		taskID, reason, at)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 unique_violation — открытый интервал уже существует.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrAlreadyPaused
		}
		return fmt.Errorf("ошибка открытия интервала паузы: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE tasks SET sla_paused = TRUE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		taskID)
	if err != nil {
		return fmt.Errorf("ошибка установки флага паузы: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *SlaPauseRepository) CloseIntervalTx(ctx context.Context, tx pgx.Tx, taskID uint64, at time.Time) error {
	var startedAt time.Time
	err := tx.QueryRow(ctx,
		`UPDATE sla_pause_intervals SET ended_at = $1
		 WHERE task_id = $2 AND ended_at IS NULL
		 RETURNING started_at`, at, taskID).Scan(&startedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotPaused
		}
		return fmt.Errorf("ошибка закрытия интервала паузы: %w", err)
	}

	pausedMs := at.Sub(startedAt).Milliseconds()
	if pausedMs < 0 {
		pausedMs = 0
	}

	tag, err := tx.Exec(ctx,
		`UPDATE tasks
		 SET sla_paused = FALSE, sla_paused_ms = sla_paused_ms + $1, updated_at = NOW()
		 WHERE id = $2 AND deleted_at IS NULL`,
		pausedMs, taskID)
	if err != nil {
		return fmt.Errorf("ошибка снятия флага паузы: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
