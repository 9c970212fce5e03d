package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hq/academics-api/internal/models"
)

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "faculty_id", "subject_id", "class_id", "batch_id", "created_at", "subject_name", "subject_code", "subject_type", "class_name", "faculty_name"}).
		AddRow("a1", "f1", "sub1", "c1", nil, time.Now(), "Mathematics", "MA201", models.SubjectTheory, "CSE-2A", "Prof. Rao")
	mock.ExpectQuery(`(?s)SELECT fs\.id, .* FROM faculty_subjects fs.*WHERE fs\.class_id = \$1`).
		WithArgs("c1").
		WillReturnRows(rows)

	assignments, err := repo.ListByClass(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "Mathematics", assignments[0].SubjectName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM faculty_subjects WHERE faculty_id = $1 AND subject_id = $2 LIMIT 1`)).
		WithArgs("f1", "sub1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.Exists(context.Background(), "f1", "sub1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryExistsExactNullBatch(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM faculty_subjects WHERE faculty_id = $1 AND subject_id = $2 AND class_id = $3 AND batch_id IS NULL LIMIT 1`)).
		WithArgs("f1", "sub1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsExact(context.Background(), "f1", "sub1", "c1", nil)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO faculty_subjects").
		WithArgs(sqlmock.AnyArg(), "f1", "sub1", "c1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assignment := &models.SubjectAssignment{FacultyID: "f1", SubjectID: "sub1", ClassID: "c1"}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteChecksOwnership(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM faculty_subjects WHERE id = $1 AND faculty_id = $2`)).
		WithArgs("a1", "f2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "f2", "a1")
	assert.ErrorContains(t, err, "no rows")
	assert.NoError(t, mock.ExpectationsWereMet())
}
