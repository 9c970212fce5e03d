package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

// CreateClassRequest creates a class within a department.
type CreateClassRequest struct {
	DepartmentID string `json:"department_id" validate:"required,uuid"`
	Name         string `json:"name" validate:"required,min=1"`
	Year         int    `json:"year" validate:"required,min=1,max=4"`
}

// UpdateClassRequest renames a class or moves it between years.
type UpdateClassRequest struct {
	Name string `json:"name" validate:"required,min=1"`
	Year int    `json:"year" validate:"required,min=1,max=4"`
}

type classStore interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindByClassTeacher(ctx context.Context, teacherID string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, id, name string, year int) error
	SetClassTeacher(ctx context.Context, id string, teacherID *string) error
}

type classUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ClassService manages classes and class-teacher assignment. A teacher can
// hold at most one class.
type ClassService struct {
	classes  classStore
	users    classUserStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(classes classStore, users classUserStore, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{classes: classes, users: users, validate: validator.New(), logger: logger}
}

// List returns classes matching the filter. HODs are scoped to their own
// department.
func (s *ClassService) List(ctx context.Context, actor models.Actor, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	if actor.Role == models.RoleHOD && actor.DepartmentID != nil {
		filter.DepartmentID = *actor.DepartmentID
	}
	classes, total, err := s.classes.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, total, nil
}

// Get returns one class.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create adds a class to the actor's department.
func (s *ClassService) Create(ctx context.Context, actor models.Actor, req CreateClassRequest) (*models.Class, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if actor.Role == models.RoleHOD && (actor.DepartmentID == nil || *actor.DepartmentID != req.DepartmentID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is outside your scope")
	}
	class := &models.Class{
		DepartmentID: req.DepartmentID,
		Name:         req.Name,
		Year:         req.Year,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.logger.Info("class created", zap.String("class_id", class.ID), zap.String("department_id", req.DepartmentID))
	return class, nil
}

// Update renames a class or changes its year.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.classes.Update(ctx, id, req.Name, req.Year); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return nil
}

// AssignClassTeacher links a teacher to a class. The teacher must not
// already hold another class.
func (s *ClassService) AssignClassTeacher(ctx context.Context, classID, teacherID string) error {
	user, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	switch user.Role {
	case models.RoleClassTeacher, models.RoleFaculty:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "user cannot be a class teacher")
	}

	existing, err := s.classes.FindByClassTeacher(ctx, teacherID)
	if err != nil && err != sql.ErrNoRows {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher assignment")
	}
	if existing != nil && existing.ID != classID {
		return appErrors.ErrTeacherAssigned
	}

	if err := s.classes.SetClassTeacher(ctx, classID, &teacherID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign class teacher")
	}
	s.logger.Info("class teacher assigned",
		zap.String("class_id", classID),
		zap.String("teacher_id", teacherID))
	return nil
}

// RemoveClassTeacher clears the class-teacher link.
func (s *ClassService) RemoveClassTeacher(ctx context.Context, classID string) error {
	if err := s.classes.SetClassTeacher(ctx, classID, nil); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove class teacher")
	}
	return nil
}
