package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

type mockStudentRepo struct {
	students   map[string]*models.Student
	existing   map[string]bool
	created    []*models.Student
	updated    *models.Student
	attendance *float64
	defaulter  *bool
	listFilter models.StudentFilter
}

func (m *mockStudentRepo) List(_ context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.listFilter = filter
	return nil, 0, nil
}

func (m *mockStudentRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByIdentity(_ context.Context, _ string, _ int, hallTicketNo string) (bool, error) {
	return m.existing[hallTicketNo], nil
}

func (m *mockStudentRepo) Create(_ context.Context, student *models.Student) error {
	student.ID = "new-" + student.HallTicketNo
	m.created = append(m.created, student)
	return nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *models.Student) error {
	m.updated = student
	return nil
}

func (m *mockStudentRepo) UpdateAttendance(_ context.Context, _ string, percent float64, defaulter bool) error {
	m.attendance = &percent
	m.defaulter = &defaulter
	return nil
}

func studentFixture(students ...*models.Student) (*StudentService, *mockStudentRepo) {
	repo := &mockStudentRepo{students: map[string]*models.Student{}, existing: map[string]bool{}}
	for _, s := range students {
		repo.students[s.ID] = s
	}
	svc := NewStudentService(repo, &mockClassFinder{class: &models.Class{ID: "c1", Year: 2}}, 3, nil)
	return svc, repo
}

func classTeacher(classID string) models.Actor {
	return models.Actor{ID: "ct1", Role: models.RoleClassTeacher, ClassID: &classID}
}

func TestStudentListScopesClassTeacher(t *testing.T) {
	svc, repo := studentFixture()

	_, _, err := svc.List(context.Background(), classTeacher("c1"), models.StudentFilter{ClassID: "c9"})
	require.NoError(t, err)
	assert.Equal(t, "c1", repo.listFilter.ClassID)
}

func TestStudentGetOutsideClassRejected(t *testing.T) {
	svc, _ := studentFixture(&models.Student{ID: "s1", ClassID: "c2"})

	_, err := svc.Get(context.Background(), classTeacher("c1"), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentGetSelfOnly(t *testing.T) {
	svc, _ := studentFixture(
		&models.Student{ID: "s1", ClassID: "c1"},
		&models.Student{ID: "s2", ClassID: "c1"},
	)
	actor := models.Actor{ID: "s1", Role: models.RoleStudent}

	_, err := svc.Get(context.Background(), actor, "s1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), actor, "s2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStudentUpdateAttendanceRecomputesDefaulter(t *testing.T) {
	svc, repo := studentFixture(&models.Student{ID: "s1", ClassID: "c1", AttendancePercent: 80})

	percent := 60.0
	_, err := svc.Update(context.Background(), classTeacher("c1"), "s1", UpdateStudentRequest{AttendancePercent: &percent})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.True(t, repo.updated.Defaulter)
}

func TestStudentUpdateOverrideFreezesDefaulterFlag(t *testing.T) {
	svc, repo := studentFixture(&models.Student{
		ID: "s1", ClassID: "c1", AttendancePercent: 60,
		Defaulter: false, DefaulterOverride: true,
	})

	percent := 50.0
	_, err := svc.Update(context.Background(), classTeacher("c1"), "s1", UpdateStudentRequest{AttendancePercent: &percent})
	require.NoError(t, err)
	assert.False(t, repo.updated.Defaulter)
}

func TestStudentUpdateExplicitDefaulterSetsOverride(t *testing.T) {
	svc, repo := studentFixture(&models.Student{ID: "s1", ClassID: "c1", AttendancePercent: 90})

	flag := true
	_, err := svc.Update(context.Background(), classTeacher("c1"), "s1", UpdateStudentRequest{Defaulter: &flag})
	require.NoError(t, err)
	assert.True(t, repo.updated.Defaulter)
	assert.True(t, repo.updated.DefaulterOverride)
}

func TestUpdateAttendanceRangeChecked(t *testing.T) {
	svc, repo := studentFixture(&models.Student{ID: "s1", ClassID: "c1"})

	err := svc.UpdateAttendance(context.Background(), classTeacher("c1"), "s1", 120)
	require.Error(t, err)
	assert.Nil(t, repo.attendance)

	require.NoError(t, svc.UpdateAttendance(context.Background(), classTeacher("c1"), "s1", 70))
	require.NotNil(t, repo.defaulter)
	assert.True(t, *repo.defaulter)
}

func TestImportSkipsExistingRows(t *testing.T) {
	svc, repo := studentFixture()
	repo.existing["HT002"] = true

	summary, err := svc.Import(context.Background(), classTeacher("c1"), "c1", []models.ImportRecord{
		{RollNo: 1, Name: "Asha", HallTicketNumber: "HT001", AttendancePercent: 82},
		{RollNo: 2, Name: "Bilal", HallTicketNumber: "HT002", AttendancePercent: 91},
		{RollNo: 3, Name: "Chitra", HallTicketNumber: "HT003", AttendancePercent: 64},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []int{2}, summary.SkippedRolls)
	require.Len(t, repo.created, 2)

	// below-threshold rows come in already flagged
	assert.False(t, repo.created[0].Defaulter)
	assert.True(t, repo.created[1].Defaulter)
}

func TestImportHashesHallTicketCredential(t *testing.T) {
	svc, repo := studentFixture()

	_, err := svc.Import(context.Background(), classTeacher("c1"), "c1", []models.ImportRecord{
		{RollNo: 1, Name: "Asha", HallTicketNumber: "HT001", AttendancePercent: 82},
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created[0].PasswordHash), []byte("HT001")))
}

func TestImportEnforcesBatchLimit(t *testing.T) {
	svc, _ := studentFixture()

	records := make([]models.ImportRecord, 4)
	for i := range records {
		records[i] = models.ImportRecord{RollNo: i + 1, Name: "x", HallTicketNumber: "HT", AttendancePercent: 80}
	}
	_, err := svc.Import(context.Background(), models.Actor{ID: "d1", Role: models.RoleDirector}, "c1", records)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "3 row limit")
}

func TestImportRejectsForeignClass(t *testing.T) {
	svc, _ := studentFixture()

	_, err := svc.Import(context.Background(), classTeacher("c1"), "c2", []models.ImportRecord{
		{RollNo: 1, Name: "Asha", HallTicketNumber: "HT001", AttendancePercent: 82},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
