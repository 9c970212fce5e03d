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

func newSubmissionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryTypeByName(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM submission_types WHERE name = $1`)).
		WithArgs(models.SubmissionTypeTA).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", models.SubmissionTypeTA))

	st, err := repo.TypeByName(context.Background(), models.SubmissionTypeTA)
	require.NoError(t, err)
	assert.Equal(t, "t1", st.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO student_submissions .*ON CONFLICT \(student_id, subject_id, submission_type_id\)`).
		WithArgs("s1", "sub1", "t1", models.SubmissionCompleted, "f1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	submission := &models.Submission{
		StudentID:        "s1",
		SubjectID:        "sub1",
		SubmissionTypeID: "t1",
		Status:           models.SubmissionCompleted,
		MarkedBy:         "f1",
	}
	require.NoError(t, repo.Upsert(context.Background(), submission))
	assert.False(t, submission.MarkedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListForPairs(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "subject_id", "submission_type_id", "type_name", "status", "marked_by", "marked_at"}).
		AddRow("s1", "sub1", "t1", models.SubmissionTypeTA, models.SubmissionCompleted, "f1", time.Now())
	mock.ExpectQuery(`(?s)SELECT ss\.student_id, .* WHERE ss\.student_id IN \(\?\) AND ss\.subject_id IN \(\?, \?\)`).
		WithArgs("s1", "sub1", "sub2").
		WillReturnRows(rows)

	submissions, err := repo.ListForPairs(context.Background(), []string{"s1"}, []string{"sub1", "sub2"})
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	assert.Equal(t, models.SubmissionTypeTA, submissions[0].TypeName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListForPairsEmptyInput(t *testing.T) {
	db, _, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	submissions, err := repo.ListForPairs(context.Background(), nil, []string{"sub1"})
	require.NoError(t, err)
	assert.Nil(t, submissions)
}

func newDefaulterMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDefaulterRepositoryCreateStampsDefaults(t *testing.T) {
	db, mock, cleanup := newDefaulterMock(t)
	defer cleanup()
	repo := NewDefaulterRepository(db)

	mock.ExpectExec("INSERT INTO defaulter_submissions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &models.DefaulterSubmission{StudentID: "s1", SubjectID: "sub1", FacultyID: "f1", SubmissionText: "work"}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, models.SubmissionPending, record.Status)
	assert.False(t, record.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaulterRepositoryLatestPerSubject(t *testing.T) {
	db, mock, cleanup := newDefaulterMock(t)
	defer cleanup()
	repo := NewDefaulterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "faculty_id", "submission_text", "reference_link", "skip", "status", "created_at"}).
		AddRow("dw1", "s1", "sub1", "f1", "work", "", false, models.SubmissionPending, time.Now())
	mock.ExpectQuery(`(?s)SELECT DISTINCT ON \(subject_id\) .* WHERE student_id = \$1`).
		WithArgs("s1").
		WillReturnRows(rows)

	records, err := repo.LatestPerSubject(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "dw1", records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaulterRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newDefaulterMock(t)
	defer cleanup()
	repo := NewDefaulterRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE defaulter_submissions SET status = $2 WHERE id = $1`)).
		WithArgs("dw1", models.SubmissionCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "dw1", models.SubmissionCompleted))
	assert.NoError(t, mock.ExpectationsWereMet())
}
