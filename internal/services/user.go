package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"task-system/internal/dto"
	"task-system/internal/entities"
	"task-system/internal/repositories"
	"task-system/pkg/types"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (uint64, error)
	UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) error
	// SetAbsence — внешний сигнал отсутствия. Переключает флаг и синхронно
	// ставит (или снимает) SLA-паузу на всех открытых задачах пользователя.
	SetAbsence(ctx context.Context, id uint64, payload dto.SetAbsenceDTO) error
}

type UserService struct {
	userRepo repositories.UserRepositoryInterface
	slaPause SlaPauseServiceInterface
	logger   *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepositoryInterface,
	slaPause SlaPauseServiceInterface,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{userRepo: userRepo, slaPause: slaPause, logger: logger}
}

func toUserDTO(u *entities.User) dto.UserDTO {
	out := dto.UserDTO{
		ID:            u.ID,
		Fio:           u.Fio,
		Email:         u.Email,
		Login:         u.Login,
		Role:          u.Role,
		TeamID:        u.TeamID,
		PositionLevel: u.PositionLevel,
		IsActive:      u.IsActive,
		IsAbsent:      u.IsAbsent,
	}
	if u.CreatedAt != nil {
		out.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return out
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error) {
	users, total, err := s.userRepo.GetUsers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	return out, total, nil
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toUserDTO(user)
	return &out, nil
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (uint64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	newID, err := s.userRepo.CreateUser(ctx, payload, string(hash))
	if err != nil {
		return 0, err
	}
	s.logger.Info("Пользователь создан", zap.Uint64("id", newID), zap.String("login", payload.Login))
	return newID, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) error {
	return s.userRepo.UpdateUser(ctx, id, payload)
}

func (s *UserService) SetAbsence(ctx context.Context, id uint64, payload dto.SetAbsenceDTO) error {
	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return err
	}
	// Идемпотентность: повторный сигнал в том же состоянии ничего не делает.
	if user.IsAbsent == payload.Absent {
		return nil
	}

	if err := s.userRepo.SetAbsence(ctx, id, payload.Absent); err != nil {
		return err
	}

	reason := payload.Reason
	if reason == "" {
		reason = "исполнитель отсутствует"
	}
	if payload.Absent {
		err = s.slaPause.PauseAllForUser(ctx, id, reason)
	} else {
		err = s.slaPause.ResumeAllForUser(ctx, id)
	}
	if err != nil {
		s.logger.Error("Не удалось синхронизировать SLA-паузы с флагом отсутствия",
			zap.Uint64("userID", id), zap.Error(err))
		return err
	}

	s.logger.Info("Флаг отсутствия переключён",
		zap.Uint64("userID", id), zap.Bool("absent", payload.Absent))
	return nil
}
