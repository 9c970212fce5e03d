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

type mockClassStore struct {
	classes    map[string]*models.Class
	byTeacher  map[string]*models.Class
	lastFilter models.ClassFilter
	setTeacher map[string]*string
	created    []*models.Class
}

func (m *mockClassStore) List(_ context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	m.lastFilter = filter
	return nil, 0, nil
}

func (m *mockClassStore) FindByID(_ context.Context, id string) (*models.Class, error) {
	if class, ok := m.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassStore) FindByClassTeacher(_ context.Context, teacherID string) (*models.Class, error) {
	if class, ok := m.byTeacher[teacherID]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassStore) Create(_ context.Context, class *models.Class) error {
	class.ID = "c-new"
	m.created = append(m.created, class)
	return nil
}

func (m *mockClassStore) Update(_ context.Context, id, _ string, _ int) error {
	if _, ok := m.classes[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (m *mockClassStore) SetClassTeacher(_ context.Context, id string, teacherID *string) error {
	if _, ok := m.classes[id]; !ok {
		return sql.ErrNoRows
	}
	if m.setTeacher == nil {
		m.setTeacher = map[string]*string{}
	}
	m.setTeacher[id] = teacherID
	return nil
}

type mockClassUsers struct {
	users map[string]*models.User
}

func (m *mockClassUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func classServiceFixture() (*ClassService, *mockClassStore, *mockClassUsers) {
	store := &mockClassStore{
		classes: map[string]*models.Class{
			"c1": {ID: "c1", DepartmentID: "d1", Name: "CSE-A", Year: 2},
			"c2": {ID: "c2", DepartmentID: "d1", Name: "CSE-B", Year: 2},
		},
		byTeacher: map[string]*models.Class{},
	}
	users := &mockClassUsers{users: map[string]*models.User{
		"t1": {ID: "t1", Role: models.RoleClassTeacher},
		"f1": {ID: "f1", Role: models.RoleFaculty},
		"s1": {ID: "s1", Role: models.RoleStudent},
	}}
	return NewClassService(store, users, nil), store, users
}

func TestClassListScopesHOD(t *testing.T) {
	svc, store, _ := classServiceFixture()
	dept := "d1"

	_, _, err := svc.List(context.Background(), models.Actor{Role: models.RoleHOD, DepartmentID: &dept}, models.ClassFilter{DepartmentID: "d2"})
	require.NoError(t, err)
	assert.Equal(t, "d1", store.lastFilter.DepartmentID)
}

func TestClassCreateRejectsForeignDepartmentForHOD(t *testing.T) {
	svc, store, _ := classServiceFixture()
	dept := "d1"

	_, err := svc.Create(context.Background(), models.Actor{Role: models.RoleHOD, DepartmentID: &dept}, CreateClassRequest{
		DepartmentID: "99999999-9999-4999-8999-999999999999",
		Name:         "ME-A",
		Year:         3,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside your scope")
	assert.Empty(t, store.created)
}

func TestAssignClassTeacherRejectsStudents(t *testing.T) {
	svc, _, _ := classServiceFixture()

	err := svc.AssignClassTeacher(context.Background(), "c1", "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be a class teacher")
}

func TestAssignClassTeacherConflictsWhenAlreadyHolding(t *testing.T) {
	svc, store, _ := classServiceFixture()
	store.byTeacher["t1"] = store.classes["c2"]

	err := svc.AssignClassTeacher(context.Background(), "c1", "t1")
	assert.ErrorIs(t, err, appErrors.ErrTeacherAssigned)
}

func TestAssignClassTeacherIdempotentOnSameClass(t *testing.T) {
	svc, store, _ := classServiceFixture()
	store.byTeacher["t1"] = store.classes["c1"]

	err := svc.AssignClassTeacher(context.Background(), "c1", "t1")
	require.NoError(t, err)
	require.NotNil(t, store.setTeacher["c1"])
	assert.Equal(t, "t1", *store.setTeacher["c1"])
}

func TestAssignClassTeacherAcceptsFaculty(t *testing.T) {
	svc, store, _ := classServiceFixture()

	err := svc.AssignClassTeacher(context.Background(), "c1", "f1")
	require.NoError(t, err)
	require.NotNil(t, store.setTeacher["c1"])
	assert.Equal(t, "f1", *store.setTeacher["c1"])
}

func TestRemoveClassTeacherClearsLink(t *testing.T) {
	svc, store, _ := classServiceFixture()

	err := svc.RemoveClassTeacher(context.Background(), "c1")
	require.NoError(t, err)
	val, ok := store.setTeacher["c1"]
	require.True(t, ok)
	assert.Nil(t, val)
}

func TestRemoveClassTeacherNotFound(t *testing.T) {
	svc, _, _ := classServiceFixture()

	err := svc.RemoveClassTeacher(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
