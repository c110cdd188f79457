package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var groceryColumns = []string{
	"id", "name", "expiry_date", "user_id", "notification_sent",
	"id", "name", "email", "phone_number", "created_at", "updated_at",
}

func TestFindExpiringUnnotifiedJoinsOwners(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	windowEnd := time.Date(2026, 3, 17, 23, 59, 59, 0, time.UTC)
	expiry := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(groceryColumns).
		AddRow("g1", "Milk", expiry, "u1", false, "u1", "Ann", "ann@example.com", "0771234567", created, created).
		AddRow("g2", "Eggs", expiry, "ghost", false, nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery(`SELECT (.+) FROM groceries g LEFT JOIN users u ON u.id = g.user_id WHERE g.expiry_date <= \$1 AND g.notification_sent IS NOT TRUE`).
		WithArgs(windowEnd).
		WillReturnRows(rows)

	repo := NewPostgresGroceryRepository(db)
	got, err := repo.FindExpiringUnnotified(context.Background(), windowEnd)

	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Owner)
	assert.Equal(t, "ann@example.com", got[0].Owner.Email)
	assert.True(t, got[0].Owner.HasPhone())
	assert.Equal(t, "ghost", got[1].OwnerID)
	assert.Nil(t, got[1].Owner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindExpiringUnnotifiedWrapsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT (.+) FROM groceries g`).WillReturnError(boom)

	_, err = NewPostgresGroceryRepository(db).FindExpiringUnnotified(context.Background(), time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestMarkNotifiedUpdatesSingleRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE groceries SET notification_sent = TRUE, updated_at = NOW\(\) WHERE id = \$1`).
		WithArgs("g1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgresGroceryRepository(db).MarkNotified(context.Background(), "g1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkNotifiedMissingGrocery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE groceries`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresGroceryRepository(db).MarkNotified(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrGroceryNotFound)
}
