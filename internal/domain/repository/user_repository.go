package repository

import (
	"context"
	"fmt"
	"time"

	"donor_registry/internal/common"
	"donor_registry/internal/domain/model"
	"donor_registry/internal/platform/database"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

type pgUserRepository struct {
	gw database.Gateway
}

func NewPgUserRepository(gw database.Gateway) UserRepository {
	return &pgUserRepository{gw: gw}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, password_hash, role)
	          VALUES ($1, $2, $3) RETURNING id, created_at`
	rows, err := r.gw.Query(ctx, query, user.Username, user.HashedPassword, user.Role)
	if err != nil {
		if common.PgErrorCode(err) == common.PgUniqueViolation {
			return common.WrapError(common.ErrConflict, "Username already exists.", err)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	if len(rows) != 1 {
		return fmt.Errorf("pgUserRepository.Create: expected 1 row, got %d", len(rows))
	}
	if id, ok := rows[0].Get("id"); ok {
		user.ID = toInt64(id)
	}
	if ts, ok := rows[0].Get("created_at"); ok {
		user.CreatedAt, _ = ts.(time.Time)
	}
	return nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT id, username, password_hash, role, created_at
	          FROM users WHERE username = $1`
	rows, err := r.gw.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.FindByUsername: %w", err)
	}
	if len(rows) == 0 {
		return nil, common.ErrNotFound
	}
	return userFromRow(rows[0]), nil
}

func userFromRow(row database.Row) *model.User {
	user := &model.User{}
	for _, c := range row {
		switch c.Name {
		case "id":
			user.ID = toInt64(c.Value)
		case "username":
			user.Username, _ = c.Value.(string)
		case "password_hash":
			user.HashedPassword, _ = c.Value.(string)
		case "role":
			user.Role, _ = c.Value.(string)
		case "created_at":
			user.CreatedAt, _ = c.Value.(time.Time)
		}
	}
	return user
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
