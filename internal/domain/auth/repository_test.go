package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRows(u *User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "username", "hashed_password", "display_name",
		"is_active", "created_at", "last_login_at",
	}).AddRow(u.ID, u.Email, u.Username, u.HashedPassword, u.DisplayName,
		u.IsActive, u.CreatedAt, u.LastLoginAt)
}

func TestPostgresRepositoryGetUserByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	want := &User{
		ID:        uuid.New(),
		Email:     "maria@example.com",
		Username:  "maria",
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs(want.Email).
		WillReturnRows(userRows(want))

	repo := NewPostgresRepository(mock)
	got, err := repo.GetUserByEmail(context.Background(), want.Email)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Email, got.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetUserByEmailNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "username", "hashed_password", "display_name",
			"is_active", "created_at", "last_login_at",
		}))

	repo := NewPostgresRepository(mock)
	_, err = repo.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresRepositoryCreateUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	want := &User{
		ID:             uuid.New(),
		Email:          "maria@example.com",
		Username:       "maria",
		HashedPassword: "hash",
		DisplayName:    "Maria",
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(want.Email, want.Username, want.HashedPassword, want.DisplayName).
		WillReturnRows(userRows(want))

	repo := NewPostgresRepository(mock)
	got, err := repo.CreateUser(context.Background(), want.Email, want.Username, want.HashedPassword, want.DisplayName)
	require.NoError(t, err)
	assert.Equal(t, want.Username, got.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryUpdateLastLogin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE users SET last_login_at`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPostgresRepository(mock)
	require.NoError(t, repo.UpdateLastLogin(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
