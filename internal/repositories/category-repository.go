package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"task-system/internal/dto"
	"task-system/internal/entities"
	apperrors "task-system/pkg/errors"
	"task-system/pkg/types"
)

type CategoryRepositoryInterface interface {
	// GetCategoriesChunk постранично обходит категории — пересчёт статистики
	// не грузит весь справочник разом.
	GetCategoriesChunk(ctx context.Context, limit, offset int) ([]entities.Category, error)
	FindCategory(ctx context.Context, id uint64) (*entities.Category, error)
	CreateCategory(ctx context.Context, categoryDto dto.CreateCategoryDTO) (uint64, error)
	UpdateStats(ctx context.Context, id uint64, stats types.CategoryStats) error
	// PathNames возвращает цепочку названий от корня до категории.
	PathNames(ctx context.Context, id uint64) ([]string, error)
}

type CategoryRepository struct {
	storage *pgxpool.Pool
}

func NewCategoryRepository(storage *pgxpool.Pool) CategoryRepositoryInterface {
	return &CategoryRepository{storage: storage}
}

const categoryColumns = `id, name, parent_id, team_id, avg_duration_hours, median_duration_hours, sample_count, stats_updated_at, created_at, updated_at`

func scanCategory(row pgx.Row) (*entities.Category, error) {
	var c entities.Category
	err := row.Scan(
		&c.ID, &c.Name, &c.ParentID, &c.TeamID,
		&c.AvgDurationHours, &c.MedianDurationHours, &c.SampleCount, &c.StatsUpdatedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования категории: %w", err)
	}
	return &c, nil
}

func (r *CategoryRepository) GetCategoriesChunk(ctx context.Context, limit, offset int) ([]entities.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY id ASC LIMIT $1 OFFSET $2`

	rows, err := r.storage.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка категорий: %w", err)
	}
	defer rows.Close()

	categories := make([]entities.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, nil
}

func (r *CategoryRepository) FindCategory(ctx context.Context, id uint64) (*entities.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	return scanCategory(r.storage.QueryRow(ctx, query, id))
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, categoryDto dto.CreateCategoryDTO) (uint64, error) {
	var newID uint64
	err := r.storage.QueryRow(ctx,
		`INSERT INTO categories (name, parent_id, team_id, sample_count, created_at, updated_at)
		 VALUES ($1, $2, $3, 0, NOW(), NOW()) RETURNING id`,
		categoryDto.Name, categoryDto.ParentID, categoryDto.TeamID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания категории: %w", err)
	}
	return newID, nil
}

func (r *CategoryRepository) UpdateStats(ctx context.Context, id uint64, stats types.CategoryStats) error {
	tag, err := r.storage.Exec(ctx,
		`UPDATE categories
		 SET avg_duration_hours = $1, median_duration_hours = $2, sample_count = $3,
		     stats_updated_at = NOW(), updated_at = NOW()
		 WHERE id = $4`,
		stats.AvgDurationHours, stats.MedianDurationHours, stats.SampleCount, id)
	if err != nil {
		return fmt.Errorf("ошибка сохранения статистики категории: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) PathNames(ctx context.Context, id uint64) ([]string, error) {
	// Рекурсивный подъём к корню, глубина ограничена на случай цикла в данных.
	query := `
		WITH RECURSIVE chain AS (
			SELECT id, name, parent_id, 1 AS depth FROM categories WHERE id = $1
			UNION ALL
			SELECT c.id, c.name, c.parent_id, chain.depth + 1
			FROM categories c
			JOIN chain ON chain.parent_id = c.id
			WHERE chain.depth < 16
		)
		SELECT name FROM chain ORDER BY depth DESC`

	rows, err := r.storage.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка построения пути категории: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования пути категории: %w", err)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return names, nil
}
