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

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "class_id", "batch_id", "roll_no", "name", "hall_ticket_no", "attendance_percent", "defaulter", "defaulter_override", "password_hash", "created_at", "updated_at"}).
		AddRow("s1", "c1", nil, 1, "Asha", "HT001", 82.5, false, false, "hash", time.Now(), time.Now())
}

func TestStudentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	defaulter := true
	mock.ExpectQuery(`SELECT s\.id, .* FROM students s WHERE s\.class_id = \$1 AND s\.defaulter = \$2 ORDER BY s\.roll_no ASC LIMIT 50 OFFSET 0`).
		WithArgs("c1", true).
		WillReturnRows(studentRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students s WHERE s\.class_id = \$1 AND s\.defaulter = \$2`).
		WithArgs("c1", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{ClassID: "c1", Defaulter: &defaulter})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, class_id, batch_id, roll_no, name, hall_ticket_no, attendance_percent, defaulter, defaulter_override, password_hash, created_at, updated_at FROM students WHERE id = $1`)).
		WithArgs("s1").
		WillReturnRows(studentRows())

	student, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", student.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByIdentity(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM students WHERE (class_id = $1 AND roll_no = $2) OR hall_ticket_no = $3 LIMIT 1`)).
		WithArgs("c1", 1, "HT001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM students WHERE (class_id = $1 AND roll_no = $2) OR hall_ticket_no = $3 LIMIT 1`)).
		WithArgs("c1", 2, "HT002").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsByIdentity(context.Background(), "c1", 1, "HT001")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByIdentity(context.Background(), "c1", 2, "HT002")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{ClassID: "c1", RollNo: 1, Name: "Asha", HallTicketNo: "HT001", AttendancePercent: 82.5, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Student{ID: "missing"})
	assert.ErrorContains(t, err, "no rows")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateAttendance(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE students SET attendance_percent = $2, defaulter = $3, updated_at = NOW() WHERE id = $1`)).
		WithArgs("s1", 70.0, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateAttendance(context.Background(), "s1", 70, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}
