package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-system/internal/dto"
	"task-system/internal/entities"
	"task-system/internal/repositories"
	"task-system/pkg/constants"
	"task-system/pkg/types"
)

type RequestServiceInterface interface {
	GetRequests(ctx context.Context, filter types.Filter) ([]dto.RequestDTO, uint64, error)
	FindRequest(ctx context.Context, id uint64) (*dto.RequestDTO, error)
	CreateRequest(ctx context.Context, requesterID uint64, payload dto.CreateRequestDTO) (uint64, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
}

type RequestService struct {
	requestRepo  repositories.RequestRepositoryInterface
	categoryRepo repositories.CategoryRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	logger       *zap.Logger
	now          func() time.Time
}

func NewRequestService(
	requestRepo repositories.RequestRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		requestRepo:  requestRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// requestNumber — человекочитаемый номер заявки: дата + случайный суффикс.
// Уникальность страхует индекс по колонке number.
func (s *RequestService) requestNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("REQ-%s-%s", s.now().Format("20060102"), suffix)
}

func (s *RequestService) toRequestDTO(ctx context.Context, req *entities.Request) (*dto.RequestDTO, error) {
	out := &dto.RequestDTO{
		ID:          req.ID,
		Number:      req.Number,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.CreatedAt != nil {
		out.CreatedAt = req.CreatedAt.Format(time.RFC3339)
	}
	if req.ClosedAt != nil {
		out.ClosedAt = req.ClosedAt.Format(time.RFC3339)
	}

	category, err := s.categoryRepo.FindCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	out.Category = dto.ShortCategoryDTO{ID: category.ID, Name: category.Name}

	requester, err := s.userRepo.FindUser(ctx, req.RequesterID)
	if err != nil {
		return nil, err
	}
	out.Requester = dto.ShortUserDTO{ID: requester.ID, Fio: requester.Fio}
	return out, nil
}

func (s *RequestService) GetRequests(ctx context.Context, filter types.Filter) ([]dto.RequestDTO, uint64, error) {
	requests, total, err := s.requestRepo.GetRequests(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.RequestDTO, 0, len(requests))
	for i := range requests {
		item, err := s.toRequestDTO(ctx, &requests[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *item)
	}
	return out, total, nil
}

func (s *RequestService) FindRequest(ctx context.Context, id uint64) (*dto.RequestDTO, error) {
	req, err := s.requestRepo.FindRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toRequestDTO(ctx, req)
}

func (s *RequestService) CreateRequest(ctx context.Context, requesterID uint64, payload dto.CreateRequestDTO) (uint64, error) {
	if _, err := s.categoryRepo.FindCategory(ctx, payload.CategoryID); err != nil {
		return 0, err
	}

	number := s.requestNumber()
	newID, err := s.requestRepo.CreateRequest(ctx, requesterID, number, payload)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Заявка создана", zap.Uint64("id", newID), zap.String("number", number))
	return newID, nil
}

func (s *RequestService) UpdateStatus(ctx context.Context, id uint64, status string) error {
	if _, err := s.requestRepo.FindRequest(ctx, id); err != nil {
		return err
	}
	if err := s.requestRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	if status == constants.RequestStatusClosed {
		s.logger.Info("Заявка закрыта", zap.Uint64("id", id))
	}
	return nil
}
