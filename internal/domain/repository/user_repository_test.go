package repository

import (
	"context"
	"testing"
	"time"

	"donor_registry/internal/common"
	"donor_registry/internal/domain/model"
	"donor_registry/internal/platform/database"
	"donor_registry/internal/platform/database/dbtest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgUserRepository(t *testing.T) {
	rec := dbtest.NewRecorder()
	repo := NewPgUserRepository(rec)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec.QueueResult(database.Row{{Name: "id", Value: int64(7)}, {Name: "created_at", Value: created}})
	user := &model.User{Username: "u1", HashedPassword: "$2a$hash", Role: model.RoleUser}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, created, user.CreatedAt)
	assert.Equal(t, []any{"u1", "$2a$hash", model.RoleUser}, rec.Queries[0].Args)

	rec.QueueResult(database.Row{
		{Name: "id", Value: int64(7)},
		{Name: "username", Value: "u1"},
		{Name: "password_hash", Value: "$2a$hash"},
		{Name: "role", Value: model.RoleUser},
		{Name: "created_at", Value: created},
	})
	found, err := repo.FindByUsername(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, *user, *found)

	_, err = repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)

	rec.Err = &pgconn.PgError{Code: common.PgUniqueViolation}
	err = repo.Create(ctx, &model.User{Username: "u1"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestMemoryUserRepository(t *testing.T) {
	repo := NewMemoryStore().Users()
	ctx := context.Background()

	user := &model.User{Username: "u1", HashedPassword: "h", Role: model.RoleAdmin}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, int64(1), user.ID)

	err := repo.Create(ctx, &model.User{Username: "u1", HashedPassword: "x", Role: model.RoleUser})
	assert.ErrorIs(t, err, common.ErrConflict)

	found, err := repo.FindByUsername(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, found.Role)
	assert.Equal(t, "h", found.HashedPassword)

	_, err = repo.FindByUsername(ctx, "u2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
