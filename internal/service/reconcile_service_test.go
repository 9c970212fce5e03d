package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hq/academics-api/internal/dto"
	"github.com/campus-hq/academics-api/internal/models"
)

type mockReconcileAssignments struct {
	assignments []models.SubjectAssignment
}

func (m *mockReconcileAssignments) ListByFacultySubject(context.Context, string, string) ([]models.SubjectAssignment, error) {
	return m.assignments, nil
}

type mockReconcileSelections struct {
	selections []models.StudentSelection
}

func (m *mockReconcileSelections) ListByFacultySubject(context.Context, string, string) ([]models.StudentSelection, error) {
	return m.selections, nil
}

type mockReconcileStudents struct {
	byClass map[string][]models.Student
	byBatch map[string][]models.Student
	byIDs   []models.Student
}

func (m *mockReconcileStudents) ListByClass(_ context.Context, classID string) ([]models.Student, error) {
	return m.byClass[classID], nil
}

func (m *mockReconcileStudents) ListByBatch(_ context.Context, batchID string) ([]models.Student, error) {
	return m.byBatch[batchID], nil
}

func (m *mockReconcileStudents) ListByIDs(context.Context, []string) ([]models.Student, error) {
	return m.byIDs, nil
}

func TestReconcileExpandsClassAndBatchAssignments(t *testing.T) {
	batchID := "b1"
	assignments := &mockReconcileAssignments{assignments: []models.SubjectAssignment{
		{ID: "a1", ClassID: "c1", BatchID: &batchID},
		{ID: "a2", ClassID: "c2"},
	}}
	students := &mockReconcileStudents{
		byBatch: map[string][]models.Student{"b1": {{ID: "st1"}, {ID: "st2"}}},
		byClass: map[string][]models.Student{"c2": {{ID: "st3"}}},
	}
	svc := NewReconcileService(assignments, &mockReconcileSelections{}, students, nil)

	roster, err := svc.StudentsFor(context.Background(), "f1", "s1")
	require.NoError(t, err)
	require.Len(t, roster, 3)
	for _, entry := range roster {
		assert.Equal(t, dto.SourceDirect, entry.Source)
	}
}

func TestReconcileAppendsSelfSelectedStudents(t *testing.T) {
	assignments := &mockReconcileAssignments{assignments: []models.SubjectAssignment{
		{ID: "a1", ClassID: "c1"},
	}}
	students := &mockReconcileStudents{
		byClass: map[string][]models.Student{"c1": {{ID: "st1"}}},
		byIDs:   []models.Student{{ID: "st2"}},
	}
	selections := &mockReconcileSelections{selections: []models.StudentSelection{
		{StudentID: "st2"},
	}}
	svc := NewReconcileService(assignments, selections, students, nil)

	roster, err := svc.StudentsFor(context.Background(), "f1", "s1")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, dto.SourceDirect, roster[0].Source)
	assert.Equal(t, dto.SourceSelfSelected, roster[1].Source)
}

func TestReconcileDuplicatesKeepFirstSeenSource(t *testing.T) {
	assignments := &mockReconcileAssignments{assignments: []models.SubjectAssignment{
		{ID: "a1", ClassID: "c1"},
	}}
	students := &mockReconcileStudents{
		byClass: map[string][]models.Student{"c1": {{ID: "st1"}}},
	}
	selections := &mockReconcileSelections{selections: []models.StudentSelection{
		{StudentID: "st1"},
	}}
	svc := NewReconcileService(assignments, selections, students, nil)

	roster, err := svc.StudentsFor(context.Background(), "f1", "s1")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, dto.SourceDirect, roster[0].Source)
}

func TestReconcilePreservesSelectionOrder(t *testing.T) {
	students := &mockReconcileStudents{
		// The store returns rows out of selection order.
		byIDs: []models.Student{{ID: "st3"}, {ID: "st1"}, {ID: "st2"}},
	}
	selections := &mockReconcileSelections{selections: []models.StudentSelection{
		{StudentID: "st1"}, {StudentID: "st2"}, {StudentID: "st3"},
	}}
	svc := NewReconcileService(&mockReconcileAssignments{}, selections, students, nil)

	roster, err := svc.StudentsFor(context.Background(), "f1", "s1")
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "st1", roster[0].Student.ID)
	assert.Equal(t, "st2", roster[1].Student.ID)
	assert.Equal(t, "st3", roster[2].Student.ID)
}

func TestReconcileTeaches(t *testing.T) {
	assignments := &mockReconcileAssignments{assignments: []models.SubjectAssignment{
		{ID: "a1", ClassID: "c1"},
	}}
	students := &mockReconcileStudents{
		byClass: map[string][]models.Student{"c1": {{ID: "st1"}}},
	}
	svc := NewReconcileService(assignments, &mockReconcileSelections{}, students, nil)

	teaches, err := svc.Teaches(context.Background(), "f1", "s1", "st1")
	require.NoError(t, err)
	assert.True(t, teaches)

	teaches, err = svc.Teaches(context.Background(), "f1", "s1", "ghost")
	require.NoError(t, err)
	assert.False(t, teaches)
}
