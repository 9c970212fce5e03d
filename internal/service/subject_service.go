package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

// CreateSubjectRequest creates a class-scoped subject or a department-level
// elective.
type CreateSubjectRequest struct {
	Name         string             `json:"name" validate:"required,min=1"`
	Code         string             `json:"code" validate:"required,min=2"`
	Type         models.SubjectType `json:"type" validate:"required,oneof=theory practical mdm oe pe"`
	ClassID      *string            `json:"class_id" validate:"omitempty,uuid"`
	DepartmentID *string            `json:"department_id" validate:"omitempty,uuid"`
}

// UpdateSubjectRequest changes mutable subject fields.
type UpdateSubjectRequest struct {
	Name string             `json:"name" validate:"required,min=1"`
	Code string             `json:"code" validate:"required,min=2"`
	Type models.SubjectType `json:"type" validate:"required,oneof=theory practical mdm oe pe"`
}

// CreateOfferingRequest exposes an elective subject to a year level.
type CreateOfferingRequest struct {
	SubjectID    string   `json:"subject_id" validate:"required,uuid"`
	DepartmentID string   `json:"department_id" validate:"required,uuid"`
	Year         int      `json:"year" validate:"required,min=2,max=4"`
	Semester     int      `json:"semester" validate:"required,min=1,max=8"`
	FacultyIDs   []string `json:"faculty_ids" validate:"required,min=1,dive,uuid"`
}

// AssignSubjectRequest links a faculty to a subject for a class.
type AssignSubjectRequest struct {
	FacultyID string  `json:"faculty_id" validate:"required,uuid"`
	SubjectID string  `json:"subject_id" validate:"required,uuid"`
	ClassID   string  `json:"class_id" validate:"required,uuid"`
	BatchID   *string `json:"batch_id" validate:"omitempty,uuid"`
}

type subjectStore interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type offeringStore interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.OfferedSubjectDetail, error)
	FindByID(ctx context.Context, id string) (*models.OfferedSubject, error)
	ExistsForSubjectYear(ctx context.Context, subjectID, departmentID string, year int) (bool, error)
	Create(ctx context.Context, offering *models.OfferedSubject) error
	UpdateFaculty(ctx context.Context, id string, facultyIDs []string) error
	SetActive(ctx context.Context, id string, active bool) error
}

type subjectAssignmentStore interface {
	ExistsExact(ctx context.Context, facultyID, subjectID, classID string, batchID *string) (bool, error)
	Create(ctx context.Context, assignment *models.SubjectAssignment) error
	Delete(ctx context.Context, facultyID, assignmentID string) error
}

// SubjectService manages subjects, elective offerings, and direct
// faculty-subject assignments.
type SubjectService struct {
	subjects    subjectStore
	offerings   offeringStore
	assignments subjectAssignmentStore
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewSubjectService constructs SubjectService.
func NewSubjectService(subjects subjectStore, offerings offeringStore, assignments subjectAssignmentStore, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{
		subjects:    subjects,
		offerings:   offerings,
		assignments: assignments,
		validate:    validator.New(),
		logger:      logger,
	}
}

// List returns subjects matching the filter.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	subjects, total, err := s.subjects.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, total, nil
}

// Get returns one subject.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a subject with a unique code. Exactly one of class_id and
// department_id must be set: class-scoped subjects belong to a class,
// electives to a department.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if (req.ClassID == nil) == (req.DepartmentID == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of class_id and department_id is required")
	}
	exists, err := s.subjects.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}
	if exists {
		return nil, appErrors.ErrDuplicateCode
	}
	subject := &models.Subject{
		Name:         req.Name,
		Code:         req.Code,
		Type:         req.Type,
		ClassID:      req.ClassID,
		DepartmentID: req.DepartmentID,
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.logger.Info("subject created", zap.String("subject_id", subject.ID), zap.String("code", subject.Code))
	return subject, nil
}

// Update changes mutable subject fields keeping the code unique.
func (s *SubjectService) Update(ctx context.Context, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.subjects.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}
	if exists {
		return nil, appErrors.ErrDuplicateCode
	}
	subject.Name = req.Name
	subject.Code = req.Code
	subject.Type = req.Type
	if err := s.subjects.Update(ctx, subject); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if err := s.subjects.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

// ListOfferings returns a department's elective offerings.
func (s *SubjectService) ListOfferings(ctx context.Context, departmentID string) ([]models.OfferedSubjectDetail, error) {
	offerings, err := s.offerings.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	return offerings, nil
}

// CreateOffering exposes an elective subject to a year. The subject must be
// an elective type and not already offered to that year by the department.
func (s *SubjectService) CreateOffering(ctx context.Context, actor models.Actor, req CreateOfferingRequest) (*models.OfferedSubject, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if actor.Role == models.RoleHOD && (actor.DepartmentID == nil || *actor.DepartmentID != req.DepartmentID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is outside your scope")
	}
	subject, err := s.Get(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}
	switch classifySubject(subject.Type, subject.Name) {
	case bucketMDM, bucketOE, bucketPE:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "only elective subjects can be offered")
	}

	exists, err := s.offerings.ExistsForSubjectYear(ctx, req.SubjectID, req.DepartmentID, req.Year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check offering")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject is already offered to this year")
	}

	offering := &models.OfferedSubject{
		SubjectID:    req.SubjectID,
		DepartmentID: req.DepartmentID,
		Year:         req.Year,
		Semester:     req.Semester,
		FacultyIDs:   req.FacultyIDs,
		IsActive:     true,
	}
	if err := s.offerings.Create(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	s.logger.Info("elective offered",
		zap.String("offering_id", offering.ID),
		zap.String("subject_id", req.SubjectID),
		zap.Int("year", req.Year))
	return offering, nil
}

// UpdateOfferingFaculty replaces the approved faculty set of an offering.
func (s *SubjectService) UpdateOfferingFaculty(ctx context.Context, id string, facultyIDs []string) error {
	if len(facultyIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one faculty is required")
	}
	if err := s.offerings.UpdateFaculty(ctx, id, facultyIDs); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offering faculty")
	}
	return nil
}

// SetOfferingActive toggles an offering's visibility to students.
func (s *SubjectService) SetOfferingActive(ctx context.Context, id string, active bool) error {
	if err := s.offerings.SetActive(ctx, id, active); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offering")
	}
	return nil
}

// Assign links a faculty directly to a subject for a class, optionally
// scoped to one batch. Duplicate links are rejected.
func (s *SubjectService) Assign(ctx context.Context, req AssignSubjectRequest) (*models.SubjectAssignment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	exists, err := s.assignments.ExistsExact(ctx, req.FacultyID, req.SubjectID, req.ClassID, req.BatchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment already exists")
	}
	assignment := &models.SubjectAssignment{
		FacultyID: req.FacultyID,
		SubjectID: req.SubjectID,
		ClassID:   req.ClassID,
		BatchID:   req.BatchID,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.logger.Info("subject assigned",
		zap.String("faculty_id", req.FacultyID),
		zap.String("subject_id", req.SubjectID),
		zap.String("class_id", req.ClassID))
	return assignment, nil
}

// Unassign removes a direct faculty-subject link.
func (s *SubjectService) Unassign(ctx context.Context, facultyID, assignmentID string) error {
	if err := s.assignments.Delete(ctx, facultyID, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}
