package orders

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remarkly/backend/internal/shared"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestPostgresRepository_MarkPaid_Transitions(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("ORDER_1", "paid", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo, err := NewPostgresRepository(db)
	require.NoError(t, err)

	transitioned, err := repo.MarkPaid(context.Background(), "ORDER_1")
	require.NoError(t, err)
	assert.True(t, transitioned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_MarkPaid_AlreadyPaid(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("ORDER_1", "paid", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows := sqlmock.NewRows([]string{"id", "username", "amount", "credits_granted", "status", "created_at"}).
		AddRow("ORDER_1", "alice", "0.50", int64(50), "paid", time.Now())
	mock.ExpectQuery("SELECT id, username").
		WithArgs("ORDER_1").
		WillReturnRows(rows)

	repo, err := NewPostgresRepository(db)
	require.NoError(t, err)

	transitioned, err := repo.MarkPaid(context.Background(), "ORDER_1")
	require.NoError(t, err)
	assert.False(t, transitioned)
}

func TestPostgresRepository_MarkPaid_UnknownOrder(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("ORDER_missing", "paid", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, username").
		WithArgs("ORDER_missing").
		WillReturnError(sql.ErrNoRows)

	repo, err := NewPostgresRepository(db)
	require.NoError(t, err)

	_, err = repo.MarkPaid(context.Background(), "ORDER_missing")
	assert.ErrorIs(t, err, shared.ErrorOrderNotFound)
}

func TestPostgresRepository_DeleteStalePending(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	cutoff := time.Now().Add(-24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id"}).AddRow("ORDER_1").AddRow("ORDER_2")
	mock.ExpectQuery("DELETE FROM orders").
		WithArgs("pending", cutoff).
		WillReturnRows(rows)

	repo, err := NewPostgresRepository(db)
	require.NoError(t, err)

	ids, err := repo.DeleteStalePending(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDER_1", "ORDER_2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
