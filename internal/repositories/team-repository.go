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
)

type TeamRepositoryInterface interface {
	GetTeams(ctx context.Context) ([]entities.Team, error)
	FindTeam(ctx context.Context, id uint64) (*entities.Team, error)
	CreateTeam(ctx context.Context, teamDto dto.CreateTeamDTO) (uint64, error)
}

type TeamRepository struct {
	storage *pgxpool.Pool
}

func NewTeamRepository(storage *pgxpool.Pool) TeamRepositoryInterface {
	return &TeamRepository{storage: storage}
}

func (r *TeamRepository) GetTeams(ctx context.Context) ([]entities.Team, error) {
	rows, err := r.storage.Query(ctx,
		`SELECT id, name, leader_id, created_at, updated_at FROM teams ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка команд: %w", err)
	}
	defer rows.Close()

	teams := make([]entities.Team, 0)
	for rows.Next() {
		var t entities.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.LeaderID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования команды: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func (r *TeamRepository) FindTeam(ctx context.Context, id uint64) (*entities.Team, error) {
	var t entities.Team
	err := r.storage.QueryRow(ctx,
		`SELECT id, name, leader_id, created_at, updated_at FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.LeaderID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска команды: %w", err)
	}
	return &t, nil
}

func (r *TeamRepository) CreateTeam(ctx context.Context, teamDto dto.CreateTeamDTO) (uint64, error) {
	var newID uint64
	err := r.storage.QueryRow(ctx,
		`INSERT INTO teams (name, leader_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) RETURNING id`,
		teamDto.Name, teamDto.LeaderID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания команды: %w", err)
	}
	return newID, nil
}
