package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslo-shop/apiserver/types"
)

var userRowColumns = []string{"id", "email", "password", "full_name", "is_active", "roles", "created_at", "updated_at"}

func TestUserRepository_GetByEmail(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("ana@shop.io").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(id.String(), "ana@shop.io", "hash", "Ana", true, "{admin,user}", now, now))

	user, err := repo.GetByEmail(context.Background(), "  ana@shop.io ")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "Ana", user.FullName)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.True(t, user.IsActive)
	assert.Equal(t, []string{"admin", "user"}, user.Roles)
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	id := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_Create(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "ana@shop.io", "hash", "Ana", true, "{\"user\"}", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := repo.Create(context.Background(), types.User{
		Email:        "ana@shop.io",
		PasswordHash: "hash",
		FullName:     "Ana",
		IsActive:     true,
		Roles:        []string{types.RoleUser},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Detail: "Key (lower(email))=(ana@shop.io) already exists."})

	_, err := repo.Create(context.Background(), types.User{Email: "ana@shop.io", Roles: []string{types.RoleUser}})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Detail, "ana@shop.io")
}

func TestUserRepository_UpdateMissing(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	mock.ExpectExec(`UPDATE users`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), types.User{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_DeleteAll(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	mock.ExpectExec(`DELETE FROM users`).WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteAll(context.Background()))
}
