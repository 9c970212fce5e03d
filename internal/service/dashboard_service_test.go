package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hq/academics-api/internal/dto"
	"github.com/campus-hq/academics-api/internal/models"
)

type mapCache struct {
	entries map[string][]byte
	deleted []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func (m *mapCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(raw, dest)
}

func (m *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mapCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	m.entries = map[string][]byte{}
	return nil
}

type mockCatalogResolver struct {
	buckets *dto.SubjectBuckets
	calls   int
}

func (m *mockCatalogResolver) SubjectsFor(context.Context, models.Actor) (*dto.SubjectBuckets, error) {
	m.calls++
	return m.buckets, nil
}

type mockSelectionResolver struct {
	state models.SelectionState
}

func (m *mockSelectionResolver) Status(context.Context, string) (*models.StudentSelection, models.SelectionState, error) {
	return nil, m.state, nil
}

type mockCompletionResolver struct {
	subjects             []models.Subject
	done, total, percent int
	rollups              map[string]dto.CompletionRollup
}

func (m *mockCompletionResolver) AssignedSubjects(context.Context, models.Student) ([]models.Subject, error) {
	return m.subjects, nil
}

func (m *mockCompletionResolver) Dashboard(context.Context, models.Student, []models.Subject) (int, int, int, error) {
	return m.done, m.total, m.percent, nil
}

func (m *mockCompletionResolver) ForStudents(context.Context, []models.Student, []models.Subject) ([]dto.StudentCompletion, error) {
	return nil, nil
}

func (m *mockCompletionResolver) RollupClass(_ context.Context, class models.Class) (dto.CompletionRollup, error) {
	return m.rollups[class.ID], nil
}

type mockDashboardClasses struct {
	classes []models.Class
}

func (m *mockDashboardClasses) FindByID(_ context.Context, id string) (*models.Class, error) {
	for i := range m.classes {
		if m.classes[i].ID == id {
			return &m.classes[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockDashboardClasses) ListByDepartment(context.Context, string) ([]models.Class, error) {
	return m.classes, nil
}

type mockDepartmentFinder struct {
	department *models.Department
}

func (m *mockDepartmentFinder) FindByID(context.Context, string) (*models.Department, error) {
	return m.department, nil
}

type mockRosterResolver struct {
	students []dto.RosterStudent
}

func (m *mockRosterResolver) StudentsFor(context.Context, string, string) ([]dto.RosterStudent, error) {
	return m.students, nil
}

func TestStudentDashboardComposesView(t *testing.T) {
	catalog := &mockCatalogResolver{buckets: &dto.SubjectBuckets{
		Theory: []dto.CatalogEntry{{Subject: models.Subject{ID: "sub1", Type: models.SubjectTheory}}},
	}}
	completion := &mockCompletionResolver{done: 3, total: 6, percent: 50}
	svc := NewDashboardService(
		&mockStudentFinder{student: &models.Student{ID: "s1", ClassID: "c1", AttendancePercent: 60}},
		&mockDashboardClasses{},
		&mockDepartmentFinder{},
		&mockBatchSubjects{},
		catalog,
		&mockSelectionResolver{state: models.SelectionPartial},
		completion,
		&mockRosterResolver{},
		nil, false, 0, nil)

	dashboard, err := svc.Student(context.Background(), models.Actor{ID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.True(t, dashboard.Defaulter)
	assert.Equal(t, models.SelectionPartial, dashboard.SelectionState)
	assert.Equal(t, 50, dashboard.Percent)
	assert.Equal(t, 3, dashboard.SlotsDone)
	assert.Equal(t, 6, dashboard.SlotsTotal)
}

func TestStudentDashboardIgnoresUnselectedOfferings(t *testing.T) {
	classSubjects := []models.Subject{
		{ID: "s-a", Name: "Mathematics", Type: models.SubjectTheory},
		{ID: "s-b", Name: "Physics", Type: models.SubjectTheory},
	}
	// The catalog shows every visible offering; only the assigned set
	// carries submission slots.
	catalog := &mockCatalogResolver{buckets: &dto.SubjectBuckets{
		Theory: []dto.CatalogEntry{
			{Subject: classSubjects[0]},
			{Subject: classSubjects[1]},
		},
		OE: []dto.CatalogEntry{
			{Subject: models.Subject{ID: "oe1", Type: models.SubjectOE}},
			{Subject: models.Subject{ID: "oe2", Type: models.SubjectOE}},
			{Subject: models.Subject{ID: "oe3", Type: models.SubjectOE}},
		},
	}}
	completion := NewCompletionService(
		&mockCompletionSubmissions{submissions: []models.Submission{
			completed("s1", "s-a", models.SubmissionTypeTA),
			completed("s1", "s-a", models.SubmissionTypeCIE),
			completed("s1", "s-b", models.SubmissionTypeDefaulterWork),
		}},
		&mockCompletionSubjects{byClass: classSubjects},
		&mockCompletionSelections{},
		&mockCompletionStudents{}, nil)
	svc := NewDashboardService(
		&mockStudentFinder{student: &models.Student{ID: "s1", ClassID: "c1", AttendancePercent: 60}},
		&mockDashboardClasses{},
		&mockDepartmentFinder{},
		&mockBatchSubjects{},
		catalog,
		&mockSelectionResolver{state: models.SelectionUnset},
		completion,
		&mockRosterResolver{},
		nil, false, 0, nil)

	dashboard, err := svc.Student(context.Background(), models.Actor{ID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.True(t, dashboard.Defaulter)
	assert.Equal(t, 3, dashboard.SlotsDone)
	assert.Equal(t, 6, dashboard.SlotsTotal, "two assigned subjects, three slots each for a defaulter")
	assert.Equal(t, 50, dashboard.Percent)
	assert.Len(t, dashboard.Subjects.OE, 3, "catalog view still lists the offerings")
}

func TestStudentDashboardServedFromCache(t *testing.T) {
	cache := newMapCache()
	catalog := &mockCatalogResolver{buckets: &dto.SubjectBuckets{}}
	svc := NewDashboardService(
		&mockStudentFinder{student: &models.Student{ID: "s1", ClassID: "c1", AttendancePercent: 90}},
		&mockDashboardClasses{},
		&mockDepartmentFinder{},
		&mockBatchSubjects{},
		catalog,
		&mockSelectionResolver{state: models.SelectionUnset},
		&mockCompletionResolver{},
		&mockRosterResolver{},
		cache, true, time.Minute, nil)

	_, err := svc.Student(context.Background(), models.Actor{ID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	_, err = svc.Student(context.Background(), models.Actor{ID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.calls)

	svc.Invalidate(context.Background())
	assert.Equal(t, []string{"dashboard:*"}, cache.deleted)

	_, err = svc.Student(context.Background(), models.Actor{ID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.calls)
}

func TestDepartmentDashboardMergesYears(t *testing.T) {
	classes := &mockDashboardClasses{classes: []models.Class{
		{ID: "c2a", Name: "CSE-2A", Year: 2, DepartmentID: "d1"},
		{ID: "c2b", Name: "CSE-2B", Year: 2, DepartmentID: "d1"},
		{ID: "c3a", Name: "CSE-3A", Year: 3, DepartmentID: "d1"},
	}}
	completion := &mockCompletionResolver{rollups: map[string]dto.CompletionRollup{
		"c2a": {Scope: "class", ScopeID: "c2a", TotalStudents: 10, CompleteStudents: 5, Percent: 50},
		"c2b": {Scope: "class", ScopeID: "c2b", TotalStudents: 10, CompleteStudents: 10, Percent: 100},
		"c3a": {Scope: "class", ScopeID: "c3a", TotalStudents: 20, CompleteStudents: 5, Percent: 25},
	}}
	svc := NewDashboardService(
		&mockStudentFinder{},
		classes,
		&mockDepartmentFinder{department: &models.Department{ID: "d1", Name: "CSE"}},
		&mockBatchSubjects{},
		&mockCatalogResolver{},
		&mockSelectionResolver{},
		completion,
		&mockRosterResolver{},
		nil, false, 0, nil)

	dashboard, err := svc.Department(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, 40, dashboard.Overall.TotalStudents)
	assert.Equal(t, 20, dashboard.Overall.CompleteStudents)
	assert.Equal(t, 50, dashboard.Overall.Percent)
	require.Len(t, dashboard.Years, 2)
	assert.Equal(t, 2, dashboard.Years[0].Year)
	assert.Equal(t, 75, dashboard.Years[0].Percent)
	assert.Equal(t, 3, dashboard.Years[1].Year)
	assert.Equal(t, 25, dashboard.Years[1].Percent)
}
