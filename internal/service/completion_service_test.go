package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hq/academics-api/internal/dto"
	"github.com/campus-hq/academics-api/internal/models"
)

type mockCompletionSubmissions struct {
	submissions []models.Submission
}

func (m *mockCompletionSubmissions) ListForPairs(context.Context, []string, []string) ([]models.Submission, error) {
	return m.submissions, nil
}

type mockCompletionSubjects struct {
	byClass []models.Subject
	byIDs   []models.Subject
}

func (m *mockCompletionSubjects) ListByClass(context.Context, string) ([]models.Subject, error) {
	return m.byClass, nil
}

func (m *mockCompletionSubjects) ListByIDs(context.Context, []string) ([]models.Subject, error) {
	return m.byIDs, nil
}

type mockCompletionSelections struct {
	selections []models.StudentSelection
}

func (m *mockCompletionSelections) ListByStudentIDs(context.Context, []string) ([]models.StudentSelection, error) {
	return m.selections, nil
}

type mockCompletionStudents struct {
	byClass []models.Student
}

func (m *mockCompletionStudents) ListByClass(context.Context, string) ([]models.Student, error) {
	return m.byClass, nil
}

func completed(studentID, subjectID, typeName string) models.Submission {
	return models.Submission{
		StudentID: studentID,
		SubjectID: subjectID,
		TypeName:  typeName,
		Status:    models.SubmissionCompleted,
	}
}

func TestSubjectCompleteRules(t *testing.T) {
	theory := models.Subject{ID: "s1", Type: models.SubjectTheory}
	practical := models.Subject{ID: "s2", Type: models.SubjectPractical}

	assert.False(t, subjectComplete(theory, markSet{ta: true}))
	assert.True(t, subjectComplete(theory, markSet{ta: true, cie: true}))
	assert.True(t, subjectComplete(practical, markSet{ta: true}))
	assert.False(t, subjectComplete(practical, markSet{cie: true}))
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 0, roundPercent(1, 0))
	assert.Equal(t, 50, roundPercent(1, 2))
	assert.Equal(t, 33, roundPercent(1, 3))
	assert.Equal(t, 67, roundPercent(2, 3))
	assert.Equal(t, 100, roundPercent(3, 3))
}

func TestDashboardDefaulterWeightedSlots(t *testing.T) {
	subjects := []models.Subject{
		{ID: "s1", Type: models.SubjectTheory},
		{ID: "s2", Type: models.SubjectPractical},
	}
	submissions := &mockCompletionSubmissions{submissions: []models.Submission{
		completed("st1", "s1", models.SubmissionTypeTA),
		completed("st1", "s1", models.SubmissionTypeCIE),
		completed("st1", "s2", models.SubmissionTypeTA),
		{StudentID: "st1", SubjectID: "s2", TypeName: models.SubmissionTypeCIE, Status: models.SubmissionPending},
	}}
	svc := NewCompletionService(submissions, &mockCompletionSubjects{}, &mockCompletionSelections{}, &mockCompletionStudents{}, nil)

	regular := models.Student{ID: "st1", AttendancePercent: 90}
	done, total, percent, err := svc.Dashboard(context.Background(), regular, subjects)
	require.NoError(t, err)
	assert.Equal(t, 3, done)
	assert.Equal(t, 4, total)
	assert.Equal(t, 75, percent)

	// A defaulter gets a third slot per subject; pending rows never count.
	defaulter := models.Student{ID: "st1", AttendancePercent: 60}
	done, total, percent, err = svc.Dashboard(context.Background(), defaulter, subjects)
	require.NoError(t, err)
	assert.Equal(t, 3, done)
	assert.Equal(t, 6, total)
	assert.Equal(t, 50, percent)
}

func TestDashboardDefaulterWorkFillsThirdSlot(t *testing.T) {
	subjects := []models.Subject{{ID: "s1", Type: models.SubjectTheory}}
	submissions := &mockCompletionSubmissions{submissions: []models.Submission{
		completed("st1", "s1", models.SubmissionTypeTA),
		completed("st1", "s1", models.SubmissionTypeCIE),
		completed("st1", "s1", models.SubmissionTypeDefaulterWork),
	}}
	svc := NewCompletionService(submissions, &mockCompletionSubjects{}, &mockCompletionSelections{}, &mockCompletionStudents{}, nil)

	defaulter := models.Student{ID: "st1", AttendancePercent: 60}
	done, total, percent, err := svc.Dashboard(context.Background(), defaulter, subjects)
	require.NoError(t, err)
	assert.Equal(t, 3, done)
	assert.Equal(t, 3, total)
	assert.Equal(t, 100, percent)
}

func TestDashboardNoSubjects(t *testing.T) {
	svc := NewCompletionService(&mockCompletionSubmissions{}, &mockCompletionSubjects{}, &mockCompletionSelections{}, &mockCompletionStudents{}, nil)

	done, total, percent, err := svc.Dashboard(context.Background(), models.Student{ID: "st1"}, nil)
	require.NoError(t, err)
	assert.Zero(t, done)
	assert.Zero(t, total)
	assert.Zero(t, percent)
}

func TestAssignedSubjectsUnionsChosenElectives(t *testing.T) {
	selection := models.StudentSelection{StudentID: "st1"}
	selection.SetCategory(models.CategoryOE, "s-el", "f1")
	svc := NewCompletionService(&mockCompletionSubmissions{},
		&mockCompletionSubjects{
			byClass: []models.Subject{{ID: "s1", Type: models.SubjectTheory}},
			byIDs:   []models.Subject{{ID: "s-el", Type: models.SubjectOE}},
		},
		&mockCompletionSelections{selections: []models.StudentSelection{selection}},
		&mockCompletionStudents{}, nil)

	subjects, err := svc.AssignedSubjects(context.Background(), models.Student{ID: "st1", ClassID: "c1"})
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "s1", subjects[0].ID)
	assert.Equal(t, "s-el", subjects[1].ID)
}

func TestForClassUnionsElectives(t *testing.T) {
	selection := models.StudentSelection{StudentID: "st1"}
	selection.SetCategory(models.CategoryOE, "s-el", "f1")
	submissions := &mockCompletionSubmissions{submissions: []models.Submission{
		completed("st1", "s1", models.SubmissionTypeTA),
		completed("st1", "s1", models.SubmissionTypeCIE),
		completed("st1", "s-el", models.SubmissionTypeTA),
		completed("st1", "s-el", models.SubmissionTypeCIE),
		completed("st2", "s1", models.SubmissionTypeTA),
	}}
	svc := NewCompletionService(submissions,
		&mockCompletionSubjects{
			byClass: []models.Subject{{ID: "s1", Name: "Mathematics", Type: models.SubjectTheory}},
			byIDs:   []models.Subject{{ID: "s-el", Name: "Open Elective", Type: models.SubjectOE}},
		},
		&mockCompletionSelections{selections: []models.StudentSelection{selection}},
		&mockCompletionStudents{byClass: []models.Student{
			{ID: "st1", Name: "A", RollNo: 1, AttendancePercent: 90},
			{ID: "st2", Name: "B", RollNo: 2, AttendancePercent: 90},
		}}, nil)

	rows, err := svc.ForClass(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].TotalSubjects, "class subject plus chosen elective")
	assert.Equal(t, 2, rows[0].CompleteCount)
	assert.Equal(t, 100, rows[0].Percent)

	assert.Equal(t, 1, rows[1].TotalSubjects)
	assert.Zero(t, rows[1].CompleteCount, "TA alone does not complete a theory subject")
}

func TestRollupClassCountsFullyCompleteStudents(t *testing.T) {
	submissions := &mockCompletionSubmissions{submissions: []models.Submission{
		completed("st1", "s1", models.SubmissionTypeTA),
		completed("st1", "s1", models.SubmissionTypeCIE),
	}}
	svc := NewCompletionService(submissions,
		&mockCompletionSubjects{byClass: []models.Subject{{ID: "s1", Type: models.SubjectTheory}}},
		&mockCompletionSelections{},
		&mockCompletionStudents{byClass: []models.Student{
			{ID: "st1", AttendancePercent: 90},
			{ID: "st2", AttendancePercent: 90},
		}}, nil)

	rollup, err := svc.RollupClass(context.Background(), models.Class{ID: "c1", Name: "CS-3A", Year: 3})
	require.NoError(t, err)
	assert.Equal(t, "class", rollup.Scope)
	assert.Equal(t, 2, rollup.TotalStudents)
	assert.Equal(t, 1, rollup.CompleteStudents)
	assert.Equal(t, 50, rollup.Percent)
}

func TestMergeRollups(t *testing.T) {
	merged := MergeRollups("department", "d1", "CS", []dto.CompletionRollup{
		{TotalStudents: 10, CompleteStudents: 5},
		{TotalStudents: 20, CompleteStudents: 10},
	})
	assert.Equal(t, 30, merged.TotalStudents)
	assert.Equal(t, 15, merged.CompleteStudents)
	assert.Equal(t, 50, merged.Percent)

	empty := MergeRollups("department", "d1", "CS", nil)
	assert.Zero(t, empty.Percent)
}
