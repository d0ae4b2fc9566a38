package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"task-system/internal/dto"
	"task-system/internal/entities"
	apperrors "task-system/pkg/errors"
	"task-system/pkg/types"
)

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	FindUser(ctx context.Context, id uint64) (*entities.User, error)
	FindByLogin(ctx context.Context, login string) (*entities.User, error)
	CreateUser(ctx context.Context, userDto dto.CreateUserDTO, passwordHash string) (uint64, error)
	UpdateUser(ctx context.Context, id uint64, userDto dto.UpdateUserDTO) error
	SetAbsence(ctx context.Context, id uint64, absent bool) error
	// GetTeamMembers возвращает активных участников команды (без учёта absent:
	// фильтрация отсутствующих — забота скорера).
	GetTeamMembers(ctx context.Context, teamID uint64) ([]entities.User, error)
	// GetActiveUsers — пул для кросс-командного fallback-а.
	GetActiveUsers(ctx context.Context) ([]entities.User, error)
	GetAdmins(ctx context.Context) ([]entities.User, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

const userColumns = `id, fio, email, login, password, role, team_id, position_level, is_active, is_absent, created_at, updated_at`

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.Fio, &u.Email, &u.Login, &u.Password, &u.Role,
		&u.TeamID, &u.PositionLevel, &u.IsActive, &u.IsAbsent,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета пользователей: %w", err)
	}

	builder := sq.Select(userColumns).
		From("users").
		Where("deleted_at IS NULL").
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar)

	allowed := map[string]string{"role": "role", "team_id": "team_id", "is_active": "is_active"}
	builder = ApplyListParams(builder, filter, allowed)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка построения запроса пользователей: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, nil
}

func (r *UserRepository) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1 AND deleted_at IS NULL`
	return scanUser(r.storage.QueryRow(ctx, query, login))
}

func (r *UserRepository) CreateUser(ctx context.Context, userDto dto.CreateUserDTO, passwordHash string) (uint64, error) {
	query := `
		INSERT INTO users (fio, email, login, password, role, team_id, position_level, is_active, is_absent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, FALSE, NOW(), NOW())
		RETURNING id`

	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		userDto.Fio, userDto.Email, userDto.Login, passwordHash,
		userDto.Role, userDto.TeamID, userDto.PositionLevel,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return newID, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, id uint64, userDto dto.UpdateUserDTO) error {
	builder := sq.Update("users").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL").
		PlaceholderFormat(sq.Dollar)

	if userDto.Fio.Valid {
		builder = builder.Set("fio", userDto.Fio.String)
	}
	if userDto.Email.Valid {
		builder = builder.Set("email", userDto.Email.String)
	}
	if userDto.Role.Valid {
		builder = builder.Set("role", userDto.Role.String)
	}
	if userDto.TeamID.Valid {
		builder = builder.Set("team_id", userDto.TeamID.Uint64)
	}
	if userDto.PositionLevel.Valid {
		builder = builder.Set("position_level", userDto.PositionLevel.Int)
	}
	if userDto.IsActive.Valid {
		builder = builder.Set("is_active", userDto.IsActive.Bool)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса обновления пользователя: %w", err)
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetAbsence(ctx context.Context, id uint64, absent bool) error {
	tag, err := r.storage.Exec(ctx,
		`UPDATE users SET is_absent = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`,
		absent, id)
	if err != nil {
		return fmt.Errorf("ошибка переключения флага отсутствия: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) GetTeamMembers(ctx context.Context, teamID uint64) ([]entities.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE team_id = $1 AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY id ASC`

	rows, err := r.storage.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения участников команды: %w", err)
	}
	defer rows.Close()

	members := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *u)
	}
	return members, nil
}

func (r *UserRepository) GetActiveUsers(ctx context.Context) ([]entities.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE is_active = TRUE AND deleted_at IS NULL
		ORDER BY id ASC`

	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения активных пользователей: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func (r *UserRepository) GetAdmins(ctx context.Context) ([]entities.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE role = 'ADMIN' AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY id ASC`

	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения администраторов: %w", err)
	}
	defer rows.Close()

	admins := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *u)
	}
	return admins, nil
}
