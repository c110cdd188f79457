package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetByIDReturnsUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, name, email, phone_number, created_at, updated_at FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone_number", "created_at", "updated_at"}).
			AddRow("u1", "Ann", "ann@example.com", nil, created, created))

	u, err := NewPostgresUserRepository(db).GetByID(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.False(t, u.HasPhone())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM users`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err = NewPostgresUserRepository(db).GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
