package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"task-system/internal/dto"
	"task-system/internal/entities"
	"task-system/internal/repositories"
)

type TeamServiceInterface interface {
	GetTeams(ctx context.Context) ([]dto.TeamDTO, error)
	FindTeam(ctx context.Context, id uint64) (*dto.TeamDTO, error)
	CreateTeam(ctx context.Context, payload dto.CreateTeamDTO) (uint64, error)
}

type TeamService struct {
	teamRepo repositories.TeamRepositoryInterface
	userRepo repositories.UserRepositoryInterface
	logger   *zap.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) TeamServiceInterface {
	return &TeamService{teamRepo: teamRepo, userRepo: userRepo, logger: logger}
}

func (s *TeamService) toTeamDTO(ctx context.Context, team *entities.Team, withMembers bool) (*dto.TeamDTO, error) {
	out := &dto.TeamDTO{ID: team.ID, Name: team.Name}
	if team.CreatedAt != nil {
		out.CreatedAt = team.CreatedAt.Format(time.RFC3339)
	}

	if team.LeaderID != nil {
		leader, err := s.userRepo.FindUser(ctx, *team.LeaderID)
		if err == nil {
			out.Leader = &dto.ShortUserDTO{ID: leader.ID, Fio: leader.Fio}
		}
	}

	if withMembers {
		members, err := s.userRepo.GetTeamMembers(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		out.Members = make([]dto.ShortUserDTO, 0, len(members))
		for i := range members {
			out.Members = append(out.Members, dto.ShortUserDTO{ID: members[i].ID, Fio: members[i].Fio})
		}
	}
	return out, nil
}

func (s *TeamService) GetTeams(ctx context.Context) ([]dto.TeamDTO, error) {
	teams, err := s.teamRepo.GetTeams(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TeamDTO, 0, len(teams))
	for i := range teams {
		item, err := s.toTeamDTO(ctx, &teams[i], false)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}

func (s *TeamService) FindTeam(ctx context.Context, id uint64) (*dto.TeamDTO, error) {
	team, err := s.teamRepo.FindTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toTeamDTO(ctx, team, true)
}

func (s *TeamService) CreateTeam(ctx context.Context, payload dto.CreateTeamDTO) (uint64, error) {
	newID, err := s.teamRepo.CreateTeam(ctx, payload)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Команда создана", zap.Uint64("id", newID), zap.String("name", payload.Name))
	return newID, nil
}
