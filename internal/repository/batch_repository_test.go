package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hq/academics-api/internal/models"
)

func newBatchMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBatchRepositoryOverlapsRollRange(t *testing.T) {
	db, mock, cleanup := newBatchMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM batches WHERE class_id = $1 AND roll_start <= $3 AND roll_end >= $2 LIMIT 1`)).
		WithArgs("c1", 1, 20).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	overlaps, err := repo.OverlapsRollRange(context.Background(), "c1", 1, 20)
	require.NoError(t, err)
	assert.True(t, overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryCreateWithStudents(t *testing.T) {
	db, mock, cleanup := newBatchMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO batches").
		WithArgs(sqlmock.AnyArg(), "c1", "B1", 1, 20, "f1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)UPDATE students SET batch_id = \$1, updated_at = NOW\(\)\s+WHERE class_id = \$2 AND roll_no >= \$3 AND roll_no <= \$4`).
		WithArgs(sqlmock.AnyArg(), "c1", 1, 20).
		WillReturnResult(sqlmock.NewResult(0, 20))
	mock.ExpectExec("INSERT INTO faculty_subjects").
		WithArgs(sqlmock.AnyArg(), "f1", "sub1", "c1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	batch := &models.Batch{ClassID: "c1", Name: "B1", RollStart: 1, RollEnd: 20, FacultyID: "f1"}
	require.NoError(t, repo.CreateWithStudents(context.Background(), batch, "sub1"))
	assert.NotEmpty(t, batch.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newBatchMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO batches").
		WithArgs(sqlmock.AnyArg(), "c1", "B1", 1, 20, "f1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE students SET batch_id = \$1`).
		WithArgs(sqlmock.AnyArg(), "c1", 1, 20).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	batch := &models.Batch{ClassID: "c1", Name: "B1", RollStart: 1, RollEnd: 20, FacultyID: "f1"}
	err := repo.CreateWithStudents(context.Background(), batch, "sub1")
	assert.ErrorContains(t, err, "assign batch students")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryDeleteMissingRowRollsBack(t *testing.T) {
	db, mock, cleanup := newBatchMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE students SET batch_id = NULL`).
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM faculty_subjects WHERE batch_id = \$1`).
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM batches WHERE id = \$1`).
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "b1")
	assert.ErrorContains(t, err, "no rows")
	assert.NoError(t, mock.ExpectationsWereMet())
}
