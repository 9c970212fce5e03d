package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

// UpdateStudentRequest carries the mutable student fields.
type UpdateStudentRequest struct {
	Name              *string  `json:"name" validate:"omitempty,min=1"`
	RollNo            *int     `json:"roll_no" validate:"omitempty,min=1"`
	HallTicketNo      *string  `json:"hall_ticket_no" validate:"omitempty,min=1"`
	AttendancePercent *float64 `json:"attendance_percent" validate:"omitempty,min=0,max=100"`
	Defaulter         *bool    `json:"defaulter"`
}

type studentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByIdentity(ctx context.Context, classID string, rollNo int, hallTicketNo string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateAttendance(ctx context.Context, id string, percent float64, defaulter bool) error
}

type studentClassStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// StudentService manages student records and roster imports. Class teachers
// are scoped to their own class for every operation.
type StudentService struct {
	students     studentStore
	classes      studentClassStore
	validate     *validator.Validate
	maxBatchSize int
	logger       *zap.Logger
}

// NewStudentService constructs StudentService. maxBatchSize caps the rows in
// one import call.
func NewStudentService(students studentStore, classes studentClassStore, maxBatchSize int, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBatchSize <= 0 {
		maxBatchSize = 500
	}
	return &StudentService{
		students:     students,
		classes:      classes,
		validate:     validator.New(),
		maxBatchSize: maxBatchSize,
		logger:       logger,
	}
}

// List returns students matching the filter, with class-teacher scoping
// applied.
func (s *StudentService) List(ctx context.Context, actor models.Actor, filter models.StudentFilter) ([]models.Student, int, error) {
	if actor.Role == models.RoleClassTeacher {
		if actor.ClassID == nil {
			return nil, 0, appErrors.Clone(appErrors.ErrValidation, "class teacher has no class")
		}
		filter.ClassID = *actor.ClassID
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, total, nil
}

// Get returns one student, subject to scoping.
func (s *StudentService) Get(ctx context.Context, actor models.Actor, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.checkScope(actor, student); err != nil {
		return nil, err
	}
	return student, nil
}

// Update changes student fields. Attendance changes recompute the defaulter
// flag unless it was explicitly overridden.
func (s *StudentService) Update(ctx context.Context, actor models.Actor, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	student, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.RollNo != nil {
		student.RollNo = *req.RollNo
	}
	if req.HallTicketNo != nil {
		student.HallTicketNo = *req.HallTicketNo
	}
	if req.AttendancePercent != nil {
		student.AttendancePercent = *req.AttendancePercent
		if !student.DefaulterOverride {
			student.Defaulter = *req.AttendancePercent < models.DefaulterAttendanceThreshold
		}
	}
	if req.Defaulter != nil {
		student.Defaulter = *req.Defaulter
		student.DefaulterOverride = true
	}

	if err := s.students.Update(ctx, student); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// UpdateAttendance sets a student's attendance and recomputes the defaulter
// flag unless overridden.
func (s *StudentService) UpdateAttendance(ctx context.Context, actor models.Actor, id string, percent float64) error {
	if percent < 0 || percent > 100 {
		return appErrors.Clone(appErrors.ErrValidation, "attendance must be between 0 and 100")
	}
	student, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	defaulter := student.Defaulter
	if !student.DefaulterOverride {
		defaulter = percent < models.DefaulterAttendanceThreshold
	}
	if err := s.students.UpdateAttendance(ctx, id, percent, defaulter); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	return nil
}

// Import ingests parsed roster rows for a class. Rows whose roll number or
// hall ticket already exist are skipped; the rest are created with bcrypt
// credentials derived from the hall ticket number.
func (s *StudentService) Import(ctx context.Context, actor models.Actor, classID string, records []models.ImportRecord) (*models.ImportSummary, error) {
	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no records to import")
	}
	if len(records) > s.maxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("import exceeds the %d row limit", s.maxBatchSize))
	}
	if actor.Role == models.RoleClassTeacher && (actor.ClassID == nil || *actor.ClassID != classID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is outside your scope")
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	summary := &models.ImportSummary{}
	for _, record := range records {
		if err := s.validate.Struct(record); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("row for roll %d: %v", record.RollNo, err))
		}
		exists, err := s.students.ExistsByIdentity(ctx, classID, record.RollNo, record.HallTicketNumber)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student identity")
		}
		if exists {
			summary.Skipped++
			summary.SkippedRolls = append(summary.SkippedRolls, record.RollNo)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(record.HallTicketNumber), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash credentials")
		}
		student := &models.Student{
			ClassID:           classID,
			RollNo:            record.RollNo,
			Name:              record.Name,
			HallTicketNo:      record.HallTicketNumber,
			AttendancePercent: record.AttendancePercent,
			Defaulter:         record.AttendancePercent < models.DefaulterAttendanceThreshold,
			PasswordHash:      string(hash),
		}
		if err := s.students.Create(ctx, student); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
		}
		summary.Imported++
		summary.CreatedIDs = append(summary.CreatedIDs, student.ID)
	}

	s.logger.Info("roster imported",
		zap.String("class_id", classID),
		zap.Int("imported", summary.Imported),
		zap.Int("skipped", summary.Skipped),
		zap.String("imported_by", actor.ID))
	return summary, nil
}

func (s *StudentService) checkScope(actor models.Actor, student *models.Student) error {
	if actor.Role == models.RoleClassTeacher {
		if actor.ClassID == nil || *actor.ClassID != student.ClassID {
			return appErrors.Clone(appErrors.ErrValidation, "student is outside your class")
		}
	}
	if actor.Role == models.RoleStudent && actor.ID != student.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "students can only view their own record")
	}
	return nil
}
