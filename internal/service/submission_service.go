package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

// MarkSubmissionRequest marks one submission slot for a student.
type MarkSubmissionRequest struct {
	StudentID string                  `json:"student_id" validate:"required,uuid"`
	SubjectID string                  `json:"subject_id" validate:"required,uuid"`
	TypeName  string                  `json:"type_name" validate:"required"`
	Status    models.SubmissionStatus `json:"status" validate:"required,oneof=pending completed"`
}

// DefaulterWorkRequest assigns extra work to a defaulter for one subject.
type DefaulterWorkRequest struct {
	StudentID      string `json:"student_id" validate:"required,uuid"`
	SubjectID      string `json:"subject_id" validate:"required,uuid"`
	SubmissionText string `json:"submission_text" validate:"required_without=Skip"`
	ReferenceLink  string `json:"reference_link" validate:"omitempty,url"`
	Skip           bool   `json:"skip"`
}

type submissionStore interface {
	TypeByName(ctx context.Context, name string) (*models.SubmissionType, error)
	ListTypes(ctx context.Context) ([]models.SubmissionType, error)
	Upsert(ctx context.Context, submission *models.Submission) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Submission, error)
}

type defaulterStore interface {
	Create(ctx context.Context, record *models.DefaulterSubmission) error
	FindByID(ctx context.Context, id string) (*models.DefaulterSubmission, error)
	LatestPerSubject(ctx context.Context, studentID string) ([]models.DefaulterSubmission, error)
	UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) error
}

type submissionStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type rosterChecker interface {
	Teaches(ctx context.Context, facultyID, subjectID, studentID string) (bool, error)
}

// SubmissionService handles faculty marking actions and defaulter work
// assignments. All writes go through the reconciled roster check so a faculty
// can only touch students they actually teach for the subject.
type SubmissionService struct {
	submissions submissionStore
	defaulters  defaulterStore
	students    submissionStudentStore
	roster      rosterChecker
	metrics     *MetricsService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewSubmissionService constructs SubmissionService. metrics may be nil.
func NewSubmissionService(submissions submissionStore, defaulters defaulterStore, students submissionStudentStore, roster rosterChecker, metrics *MetricsService, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		submissions: submissions,
		defaulters:  defaulters,
		students:    students,
		roster:      roster,
		metrics:     metrics,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Mark upserts one submission row. The type name must be in the fixed
// vocabulary and the acting faculty must teach the student for the subject.
func (s *SubmissionService) Mark(ctx context.Context, actor models.Actor, req MarkSubmissionRequest) (*models.Submission, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	submissionType, err := s.submissions.TypeByName(ctx, req.TypeName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown submission type")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve submission type")
	}

	if err := s.requireTeaches(ctx, actor, req.SubjectID, req.StudentID); err != nil {
		return nil, err
	}

	submission := &models.Submission{
		StudentID:        req.StudentID,
		SubjectID:        req.SubjectID,
		SubmissionTypeID: submissionType.ID,
		TypeName:         submissionType.Name,
		Status:           req.Status,
		MarkedBy:         actor.ID,
		MarkedAt:         time.Now().UTC(),
	}
	if err := s.submissions.Upsert(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save submission")
	}
	s.metrics.RecordSubmissionMark(submissionType.Name)
	s.logger.Info("submission marked",
		zap.String("student_id", req.StudentID),
		zap.String("subject_id", req.SubjectID),
		zap.String("type", submissionType.Name),
		zap.String("status", string(req.Status)),
		zap.String("marked_by", actor.ID))
	return submission, nil
}

// Types lists the submission-type vocabulary.
func (s *SubmissionService) Types(ctx context.Context) ([]models.SubmissionType, error) {
	types, err := s.submissions.ListTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submission types")
	}
	return types, nil
}

// ListForStudent returns all submission rows for a student.
func (s *SubmissionService) ListForStudent(ctx context.Context, studentID string) ([]models.Submission, error) {
	rows, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return rows, nil
}

// AssignDefaulterWork appends an extra-work record. The target must be a
// defaulter taught by the acting faculty for the subject; the latest record
// per subject supersedes earlier ones.
func (s *SubmissionService) AssignDefaulterWork(ctx context.Context, actor models.Actor, req DefaulterWorkRequest) (*models.DefaulterSubmission, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.IsDefaulter() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not a defaulter")
	}

	if err := s.requireTeaches(ctx, actor, req.SubjectID, req.StudentID); err != nil {
		return nil, err
	}

	record := &models.DefaulterSubmission{
		StudentID:      req.StudentID,
		SubjectID:      req.SubjectID,
		FacultyID:      actor.ID,
		SubmissionText: req.SubmissionText,
		ReferenceLink:  req.ReferenceLink,
		Skip:           req.Skip,
		Status:         models.SubmissionPending,
	}
	if err := s.defaulters.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save defaulter work")
	}
	s.logger.Info("defaulter work assigned",
		zap.String("student_id", req.StudentID),
		zap.String("subject_id", req.SubjectID),
		zap.Bool("skip", req.Skip),
		zap.String("assigned_by", actor.ID))
	return record, nil
}

// CurrentDefaulterWork returns the latest extra-work record per subject.
func (s *SubmissionService) CurrentDefaulterWork(ctx context.Context, studentID string) ([]models.DefaulterSubmission, error) {
	records, err := s.defaulters.LatestPerSubject(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defaulter work")
	}
	return records, nil
}

// CompleteDefaulterWork marks an extra-work record completed and fills the
// student's defaulter-work submission slot for the subject.
func (s *SubmissionService) CompleteDefaulterWork(ctx context.Context, actor models.Actor, id string) error {
	record, err := s.defaulters.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "defaulter work not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defaulter work")
	}
	if err := s.requireTeaches(ctx, actor, record.SubjectID, record.StudentID); err != nil {
		return err
	}
	if err := s.defaulters.UpdateStatus(ctx, record.ID, models.SubmissionCompleted); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update defaulter work")
	}

	submissionType, err := s.submissions.TypeByName(ctx, models.SubmissionTypeDefaulterWork)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve submission type")
	}
	submission := &models.Submission{
		StudentID:        record.StudentID,
		SubjectID:        record.SubjectID,
		SubmissionTypeID: submissionType.ID,
		TypeName:         submissionType.Name,
		Status:           models.SubmissionCompleted,
		MarkedBy:         actor.ID,
		MarkedAt:         time.Now().UTC(),
	}
	if err := s.submissions.Upsert(ctx, submission); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save submission")
	}
	return nil
}

func (s *SubmissionService) requireTeaches(ctx context.Context, actor models.Actor, subjectID, studentID string) error {
	// HODs and the director can correct records outside their own roster.
	if actor.Role == models.RoleHOD || actor.Role == models.RoleDirector {
		return nil
	}
	teaches, err := s.roster.Teaches(ctx, actor.ID, subjectID, studentID)
	if err != nil {
		return err
	}
	if !teaches {
		return appErrors.Clone(appErrors.ErrValidation, "student is not on your roster for this subject")
	}
	return nil
}
