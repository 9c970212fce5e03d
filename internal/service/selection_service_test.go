package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

const (
	testSubjectID = "11111111-1111-4111-8111-111111111111"
	testFacultyID = "22222222-2222-4222-8222-222222222222"
)

type mockSelectionStore struct {
	selection  *models.StudentSelection
	findErr    error
	upserts    int
	lastCat    models.ElectiveCategory
	lockedSet  *bool
	upsertErr  error
	setLockErr error
}

func (m *mockSelectionStore) FindByStudent(context.Context, string) (*models.StudentSelection, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.selection, nil
}

func (m *mockSelectionStore) UpsertCategory(_ context.Context, studentID string, cat models.ElectiveCategory, subjectID, facultyID string) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	m.lastCat = cat
	m.findErr = nil
	if m.selection == nil {
		m.selection = &models.StudentSelection{StudentID: studentID}
	}
	m.selection.SetCategory(cat, subjectID, facultyID)
	return nil
}

func (m *mockSelectionStore) SetLocked(_ context.Context, _ string, locked bool) error {
	if m.setLockErr != nil {
		return m.setLockErr
	}
	m.lockedSet = &locked
	return nil
}

type mockAssignmentChecker struct {
	exists bool
	err    error
}

func (m *mockAssignmentChecker) Exists(context.Context, string, string) (bool, error) {
	return m.exists, m.err
}

type mockOfferedChecker struct {
	teaches bool
	err     error
}

func (m *mockOfferedChecker) FacultyTeaches(context.Context, string, string) (bool, error) {
	return m.teaches, m.err
}

type mockStudentFinder struct {
	student *models.Student
	err     error
}

func (m *mockStudentFinder) FindByID(context.Context, string) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.student, nil
}

type mockClassFinder struct {
	class *models.Class
	err   error
}

func (m *mockClassFinder) FindByID(context.Context, string) (*models.Class, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.class, nil
}

func newSelectionFixture(year int, selection *models.StudentSelection) (*SelectionService, *mockSelectionStore, *mockAssignmentChecker, *mockOfferedChecker) {
	selections := &mockSelectionStore{selection: selection}
	if selection == nil {
		selections.findErr = sql.ErrNoRows
	}
	assignments := &mockAssignmentChecker{}
	offerings := &mockOfferedChecker{}
	students := &mockStudentFinder{student: &models.Student{ID: "s1", ClassID: "c1"}}
	classes := &mockClassFinder{class: &models.Class{ID: "c1", Year: year, DepartmentID: "d1"}}
	svc := NewSelectionService(selections, assignments, offerings, students, classes, nil, nil)
	return svc, selections, assignments, offerings
}

func TestSelectionSelectRejectsInvisibleCategory(t *testing.T) {
	svc, _, _, _ := newSelectionFixture(2, nil)

	_, err := svc.Select(context.Background(), "s1", SelectRequest{
		Category:  models.CategoryPE,
		SubjectID: testSubjectID,
		FacultyID: testFacultyID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSelectionSelectRejectsWhenLocked(t *testing.T) {
	locked := &models.StudentSelection{StudentID: "s1", SelectionsLocked: true}
	svc, _, assignments, _ := newSelectionFixture(3, locked)
	assignments.exists = true

	_, err := svc.Select(context.Background(), "s1", SelectRequest{
		Category:  models.CategoryOE,
		SubjectID: testSubjectID,
		FacultyID: testFacultyID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSelectionLocked.Code, appErrors.FromError(err).Code)
}

func TestSelectionSelectRejectsNonTeachingFaculty(t *testing.T) {
	svc, selections, _, _ := newSelectionFixture(3, nil)

	_, err := svc.Select(context.Background(), "s1", SelectRequest{
		Category:  models.CategoryMDM,
		SubjectID: testSubjectID,
		FacultyID: testFacultyID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, selections.upserts)
}

func TestSelectionSelectFallsBackToOfferingLink(t *testing.T) {
	svc, selections, assignments, offerings := newSelectionFixture(3, nil)
	assignments.exists = false
	offerings.teaches = true

	selection, err := svc.Select(context.Background(), "s1", SelectRequest{
		Category:  models.CategoryOE,
		SubjectID: testSubjectID,
		FacultyID: testFacultyID,
	})
	require.NoError(t, err)
	require.NotNil(t, selection)
	assert.Equal(t, 1, selections.upserts)
	assert.Equal(t, models.CategoryOE, selections.lastCat)
	require.NotNil(t, selection.OEID)
	assert.Equal(t, testSubjectID, *selection.OEID)
}

func TestSelectionSelectOverwritesBeforeLock(t *testing.T) {
	existing := &models.StudentSelection{StudentID: "s1"}
	existing.SetCategory(models.CategoryOE, "old-subject", "old-faculty")
	svc, selections, assignments, _ := newSelectionFixture(3, existing)
	assignments.exists = true

	selection, err := svc.Select(context.Background(), "s1", SelectRequest{
		Category:  models.CategoryOE,
		SubjectID: testSubjectID,
		FacultyID: testFacultyID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, selections.upserts)
	assert.Equal(t, testSubjectID, *selection.OEID)
	assert.Equal(t, testFacultyID, *selection.OEFacultyID)
}

func TestSelectionLockNamesMissingInFixedOrder(t *testing.T) {
	partial := &models.StudentSelection{StudentID: "s1"}
	partial.SetCategory(models.CategoryMDM, testSubjectID, testFacultyID)
	svc, selections, _, _ := newSelectionFixture(3, partial)

	err := svc.Lock(context.Background(), "s1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrIncompleteSelection.Code, appErr.Code)
	assert.Equal(t, "missing required selections: OE, PE", appErr.Message)
	assert.Nil(t, selections.lockedSet)
}

func TestSelectionLockWithNoRowReportsAllRequired(t *testing.T) {
	svc, _, _, _ := newSelectionFixture(4, nil)

	err := svc.Lock(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, "missing required selections: OE, PE", appErrors.FromError(err).Message)
}

func TestSelectionLockSucceedsWhenComplete(t *testing.T) {
	complete := &models.StudentSelection{StudentID: "s1"}
	complete.SetCategory(models.CategoryOE, testSubjectID, testFacultyID)
	complete.SetCategory(models.CategoryMDM, testSubjectID, testFacultyID)
	complete.SetCategory(models.CategoryPE, testSubjectID, testFacultyID)
	svc, selections, _, _ := newSelectionFixture(3, complete)

	require.NoError(t, svc.Lock(context.Background(), "s1"))
	require.NotNil(t, selections.lockedSet)
	assert.True(t, *selections.lockedSet)
}

func TestSelectionLockRejectedForFirstYear(t *testing.T) {
	svc, _, _, _ := newSelectionFixture(1, nil)

	err := svc.Lock(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSelectionUnlockRestrictedToTeachingStaff(t *testing.T) {
	locked := &models.StudentSelection{StudentID: "s1", SelectionsLocked: true}
	svc, selections, _, _ := newSelectionFixture(3, locked)

	for _, role := range []models.UserRole{models.RoleStudent, models.RoleHOD, models.RoleDirector} {
		err := svc.Unlock(context.Background(), models.Actor{ID: "u1", Role: role}, "s1")
		require.Error(t, err, string(role))
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
	assert.Nil(t, selections.lockedSet)

	require.NoError(t, svc.Unlock(context.Background(), models.Actor{ID: "f1", Role: models.RoleClassTeacher}, "s1"))
	require.NotNil(t, selections.lockedSet)
	assert.False(t, *selections.lockedSet)
}

func TestSelectionUnlockIdempotentWhenUnlocked(t *testing.T) {
	open := &models.StudentSelection{StudentID: "s1"}
	svc, selections, _, _ := newSelectionFixture(3, open)

	require.NoError(t, svc.Unlock(context.Background(), models.Actor{ID: "f1", Role: models.RoleFaculty}, "s1"))
	assert.Nil(t, selections.lockedSet)
}

func TestSelectionStatusStates(t *testing.T) {
	svc, selections, _, _ := newSelectionFixture(3, nil)

	_, state, err := svc.Status(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SelectionUnset, state)

	partial := &models.StudentSelection{StudentID: "s1"}
	partial.SetCategory(models.CategoryOE, testSubjectID, testFacultyID)
	selections.selection = partial
	selections.findErr = nil

	_, state, err = svc.Status(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SelectionPartial, state)

	partial.SetCategory(models.CategoryMDM, testSubjectID, testFacultyID)
	partial.SetCategory(models.CategoryPE, testSubjectID, testFacultyID)
	_, state, err = svc.Status(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SelectionComplete, state)

	partial.SelectionsLocked = true
	_, state, err = svc.Status(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SelectionLocked, state)
}
