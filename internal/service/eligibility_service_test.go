package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hq/academics-api/internal/models"
)

type mockOfferingLister struct {
	offerings []models.OfferedSubjectDetail
	err       error
	lastYear  int
	lastDept  string
}

func (m *mockOfferingLister) ListActiveForYear(_ context.Context, year int, departmentID string) ([]models.OfferedSubjectDetail, error) {
	m.lastYear = year
	m.lastDept = departmentID
	if m.err != nil {
		return nil, m.err
	}
	return m.offerings, nil
}

type mockNameResolver struct {
	names map[string]string
	err   error
}

func (m *mockNameResolver) ResolveNames(context.Context, []string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.names, nil
}

func offeringFixture(id, subjectID, departmentID string, subjectType models.SubjectType, name string, facultyIDs ...string) models.OfferedSubjectDetail {
	return models.OfferedSubjectDetail{
		OfferedSubject: models.OfferedSubject{
			ID:           id,
			SubjectID:    subjectID,
			DepartmentID: departmentID,
			Year:         3,
			Semester:     5,
			FacultyIDs:   facultyIDs,
			IsActive:     true,
		},
		SubjectName: name,
		SubjectCode: "X101",
		SubjectType: subjectType,
	}
}

func TestVisibleCategoriesByYear(t *testing.T) {
	assert.Nil(t, VisibleCategories(1))
	assert.Equal(t, []models.ElectiveCategory{models.CategoryOE, models.CategoryMDM}, VisibleCategories(2))
	assert.Equal(t, []models.ElectiveCategory{models.CategoryOE, models.CategoryMDM, models.CategoryPE}, VisibleCategories(3))
	assert.Equal(t, []models.ElectiveCategory{models.CategoryOE, models.CategoryPE}, VisibleCategories(4))
	assert.Nil(t, VisibleCategories(5))
}

func TestElectivesForFirstYearIsEmpty(t *testing.T) {
	offerings := &mockOfferingLister{}
	svc := NewEligibilityService(offerings, &mockNameResolver{}, nil)

	result, err := svc.ElectivesFor(context.Background(), 1, "d1")
	require.NoError(t, err)
	assert.Empty(t, result.OE)
	assert.Empty(t, result.MDM)
	assert.Empty(t, result.PE)
	assert.Zero(t, offerings.lastYear)
}

func TestElectivesForHidesInvisibleCategories(t *testing.T) {
	offerings := &mockOfferingLister{offerings: []models.OfferedSubjectDetail{
		offeringFixture("o1", "s1", "other-dept", models.SubjectOE, "Open Elective A", "f1"),
		offeringFixture("o2", "s2", "other-dept", models.SubjectMDM, "Minor Degree B", "f1"),
		offeringFixture("o3", "s3", "d1", models.SubjectPE, "Professional C", "f1"),
	}}
	svc := NewEligibilityService(offerings, &mockNameResolver{names: map[string]string{"f1": "Prof. A"}}, nil)

	result, err := svc.ElectivesFor(context.Background(), 2, "d1")
	require.NoError(t, err)
	assert.Len(t, result.OE, 1)
	assert.Len(t, result.MDM, 1)
	assert.Empty(t, result.PE, "PE is not visible to second-year students")
}

func TestElectivesForRestrictsPEToOwnDepartment(t *testing.T) {
	offerings := &mockOfferingLister{offerings: []models.OfferedSubjectDetail{
		offeringFixture("o1", "s1", "other-dept", models.SubjectPE, "Professional A", "f1"),
		offeringFixture("o2", "s2", "d1", models.SubjectPE, "Professional B", "f1"),
		offeringFixture("o3", "s3", "other-dept", models.SubjectOE, "Open Elective C", "f1"),
	}}
	svc := NewEligibilityService(offerings, &mockNameResolver{names: map[string]string{"f1": "Prof. A"}}, nil)

	result, err := svc.ElectivesFor(context.Background(), 3, "d1")
	require.NoError(t, err)
	require.Len(t, result.PE, 1)
	assert.Equal(t, "o2", result.PE[0].OfferedID)
	assert.Len(t, result.OE, 1, "OE stays visible across departments")
}

func TestElectivesForUnknownFacultySentinel(t *testing.T) {
	offerings := &mockOfferingLister{offerings: []models.OfferedSubjectDetail{
		offeringFixture("o1", "s1", "d1", models.SubjectOE, "Open Elective A", "f1", "ghost"),
	}}
	svc := NewEligibilityService(offerings, &mockNameResolver{names: map[string]string{"f1": "Prof. A"}}, nil)

	result, err := svc.ElectivesFor(context.Background(), 3, "d1")
	require.NoError(t, err)
	require.Len(t, result.OE, 1)
	require.Len(t, result.OE[0].FacultyOptions, 2)
	assert.Equal(t, "Prof. A", result.OE[0].FacultyOptions[0].Name)
	assert.Equal(t, UnknownFacultyName, result.OE[0].FacultyOptions[1].Name)
}

func TestElectivesForClassifiesByNameFallback(t *testing.T) {
	offerings := &mockOfferingLister{offerings: []models.OfferedSubjectDetail{
		offeringFixture("o1", "s1", "d1", "", "Multidisciplinary Minor: Robotics", "f1"),
		offeringFixture("o2", "s2", "d1", "", "Open Elective: Economics", "f1"),
		offeringFixture("o3", "s3", "d1", "", "Plain Theory Subject", "f1"),
	}}
	svc := NewEligibilityService(offerings, &mockNameResolver{names: map[string]string{"f1": "Prof. A"}}, nil)

	result, err := svc.ElectivesFor(context.Background(), 3, "d1")
	require.NoError(t, err)
	assert.Len(t, result.MDM, 1)
	assert.Len(t, result.OE, 1)
	assert.Empty(t, result.PE)
}
