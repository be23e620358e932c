package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, telegram_id, username, display_name, role, created_at`

type UserRepository struct {
	q base.Querier
}

func NewUserRepository(q base.Querier) *UserRepository {
	return &UserRepository{q: q}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, username, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(
		ctx, query,
		user.TelegramID,
		user.Username,
		user.DisplayName,
		string(user.Role),
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByTelegramID returns the user or nil
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, telegramID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}

	return user, nil
}

// GetByID returns the user or nil
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// Update rewrites the mutable profile fields
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $1, display_name = $2, role = $3
		WHERE id = $4
	`

	result, err := r.q.Exec(ctx, query, user.Username, user.DisplayName, string(user.Role), user.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", model.ErrNotFound, user.ID)
	}

	return nil
}

// FindBookableExpertsByName matches display names case-insensitively, with
// runs of whitespace collapsed, among experts that have at least one
// availability template.
func (r *UserRepository) FindBookableExpertsByName(ctx context.Context, name string) ([]*model.User, error) {
	query := `
		SELECT u.id, u.telegram_id, u.username, u.display_name, u.role, u.created_at
		FROM users u
		WHERE u.role = 'EXPERT'
		  AND lower(regexp_replace(btrim(u.display_name), '\s+', ' ', 'g')) = lower($1)
		  AND EXISTS (SELECT 1 FROM availability_templates t WHERE t.expert_id = u.id)
		ORDER BY u.id
	`

	rows, err := r.q.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("find experts by name: %w", err)
	}
	defer rows.Close()

	var experts []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expert: %w", err)
		}
		experts = append(experts, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experts: %w", err)
	}

	return experts, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user model.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.DisplayName,
		&role,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = model.Role(role)
	return &user, nil
}
