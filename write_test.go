package sqlserver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlserver "github.com/jchilcher/sqlserver"
)

func TestUpdate_CommitsAndReturnsRowsAffected(t *testing.T) {
	mockDB, mock := newMock(t, false)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE [users] SET [name] = ? WHERE [id] = ?").
		WithArgs("ada", 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := sqlserver.FromDB(mockDB).Update(context.Background(),
		"UPDATE [users] SET [name] = ? WHERE [id] = ?", "ada", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RollsBackOnError(t *testing.T) {
	mockDB, mock := newMock(t, false)
	defer mockDB.Close()

	violation := errors.New("[23000] Violation of PRIMARY KEY constraint")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO [t] ([id]) VALUES (?);").
		WithArgs(1).
		WillReturnError(violation)
	mock.ExpectRollback()

	_, err := sqlserver.FromDB(mockDB).Update(context.Background(), "INSERT INTO [t] ([id]) VALUES (?);", 1)
	assert.ErrorIs(t, err, violation)

	var serr *sqlserver.Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "update", serr.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert(t *testing.T) {
	mockDB, mock := newMock(t, false)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO [users] ([name], [email], [age]) VALUES (?, ?, ?);").
		WithArgs("ada", "ada@example.com", 36).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := sqlserver.FromDB(mockDB).Insert(context.Background(), "users",
		sqlserver.Cols("name", "ada", "email", "ada@example.com", "age", 36))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_NoColumns(t *testing.T) {
	mockDB, mock := newMock(t, false)
	defer mockDB.Close()

	_, err := sqlserver.FromDB(mockDB).Insert(context.Background(), "users", nil)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert(t *testing.T) {
	mockDB, mock := newMock(t, false)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec(
		"IF EXISTS (SELECT * FROM dbo.[t] WHERE [id] = 5) " +
			"UPDATE dbo.[t] SET [name] = ? WHERE [id] = 5; " +
			"ELSE INSERT dbo.[t] ( [name] ) VALUES ( ? );").
		WithArgs("a", "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := sqlserver.FromDB(mockDB).Upsert(context.Background(), "t", "id", 5, sqlserver.Cols("name", "a"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsert_OnePrepareManyExecs(t *testing.T) {
	mockDB, mock := newMock(t, false)
	defer mockDB.Close()

	query := "INSERT INTO [orders] ([id], [total], [placed_at]) VALUES (?, ?, ?);"
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(query)
	prep.ExpectExec().WithArgs(1, "10.5", "2021-03-04 05:06:07.123").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(2, "0.25", "2021-03-05 00:00:00").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(3, "7", "not a date").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rows := []sqlserver.Columns{
		sqlserver.Cols("id", 1, "total", decimal.RequireFromString("10.50"), "placed_at", "2021-03-04T05:06:07.123-00:00"),
		// column order differs from the first row; values are matched by name
		sqlserver.Cols("placed_at", "2021-03-05T00:00:00Z", "id", 2, "total", decimal.RequireFromString("0.25")),
		sqlserver.Cols("id", 3, "total", decimal.NewFromInt(7), "placed_at", "not a date"),
	}

	n, err := sqlserver.FromDB(mockDB).BulkInsert(context.Background(), "orders", rows)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsert_RollsBackOnRowFailure(t *testing.T) {
	mockDB, mock := newMock(t, false)
	defer mockDB.Close()

	query := "INSERT INTO [t] ([id]) VALUES (?);"
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(query)
	prep.ExpectExec().WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(1).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	n, err := sqlserver.FromDB(mockDB).BulkInsert(context.Background(), "t",
		[]sqlserver.Columns{sqlserver.Cols("id", 1), sqlserver.Cols("id", 1)})
	assert.Zero(t, n)
	assert.ErrorContains(t, err, "row 1: duplicate key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsert_Validation(t *testing.T) {
	mockDB, mock := newMock(t, false)
	defer mockDB.Close()
	client := sqlserver.FromDB(mockDB)

	_, err := client.BulkInsert(context.Background(), "t", nil)
	assert.ErrorIs(t, err, sqlserver.ErrNoRows)

	_, err = client.BulkInsert(context.Background(), "t", []sqlserver.Columns{
		sqlserver.Cols("a", 1, "b", 2),
		sqlserver.Cols("a", 1),
	})
	assert.ErrorIs(t, err, sqlserver.ErrNonUniformRows)

	_, err = client.BulkInsert(context.Background(), "t", []sqlserver.Columns{
		sqlserver.Cols("a", 1, "b", 2),
		sqlserver.Cols("a", 1, "c", 2),
	})
	assert.ErrorIs(t, err, sqlserver.ErrNonUniformRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

type denyWrites struct{ sqlserver.LogHooks }

func (denyWrites) BeforeStatement(_ context.Context, op sqlserver.Op, _ string, _ []interface{}) error {
	if op != "select" {
		return errors.New("read-only")
	}
	return nil
}

func TestHooks_BeforeStatementAborts(t *testing.T) {
	mockDB, mock := newMock(t, false)
	defer mockDB.Close()

	client := sqlserver.FromDB(mockDB, sqlserver.WithHooks(denyWrites{}))
	_, err := client.Insert(context.Background(), "t", sqlserver.Cols("a", 1))
	assert.EqualError(t, err, "read-only")
	assert.NoError(t, mock.ExpectationsWereMet())
}
