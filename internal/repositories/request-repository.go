package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"task-system/internal/dto"
	"task-system/internal/entities"
	apperrors "task-system/pkg/errors"
	"task-system/pkg/types"
)

type RequestRepositoryInterface interface {
	GetRequests(ctx context.Context, filter types.Filter) ([]entities.Request, uint64, error)
	FindRequest(ctx context.Context, id uint64) (*entities.Request, error)
	CreateRequest(ctx context.Context, requesterID uint64, number string, requestDto dto.CreateRequestDTO) (uint64, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
}

type RequestRepository struct {
	storage *pgxpool.Pool
}

func NewRequestRepository(storage *pgxpool.Pool) RequestRepositoryInterface {
	return &RequestRepository{storage: storage}
}

const requestColumns = `id, number, name, description, category_id, requester_id, status, closed_at, created_at, updated_at`

func scanRequest(row pgx.Row) (*entities.Request, error) {
	var req entities.Request
	err := row.Scan(
		&req.ID, &req.Number, &req.Name, &req.Description,
		&req.CategoryID, &req.RequesterID, &req.Status, &req.ClosedAt,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
	}
	return &req, nil
}

func (r *RequestRepository) GetRequests(ctx context.Context, filter types.Filter) ([]entities.Request, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM requests WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета заявок: %w", err)
	}

	builder := sq.Select(requestColumns).
		From("requests").
		Where("deleted_at IS NULL").
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	allowed := map[string]string{
		"status":       "status",
		"category_id":  "category_id",
		"requester_id": "requester_id",
		"created_at":   "created_at",
	}
	builder = ApplyListParams(builder, filter, allowed)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка построения запроса заявок: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	defer rows.Close()

	requests := make([]entities.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, *req)
	}
	return requests, total, nil
}

func (r *RequestRepository) FindRequest(ctx context.Context, id uint64) (*entities.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1 AND deleted_at IS NULL`
	return scanRequest(r.storage.QueryRow(ctx, query, id))
}

func (r *RequestRepository) CreateRequest(ctx context.Context, requesterID uint64, number string, requestDto dto.CreateRequestDTO) (uint64, error) {
	query := `
		INSERT INTO requests (number, name, description, category_id, requester_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'OPEN', NOW(), NOW())
		RETURNING id`

	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		number, requestDto.Name, requestDto.Description, requestDto.CategoryID, requesterID,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заявки: %w", err)
	}
	return newID, nil
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, id uint64, status string) error {
	query := `
		UPDATE requests
		SET status = $1,
		    closed_at = CASE WHEN $1 IN ('CLOSED', 'REJECTED') THEN NOW() ELSE closed_at END,
		    updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL`

	tag, err := r.storage.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заявки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
