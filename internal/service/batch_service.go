package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

// CreateBatchRequest creates a batch and links it to a practical subject.
type CreateBatchRequest struct {
	ClassID   string `json:"class_id" validate:"required,uuid"`
	Name      string `json:"name" validate:"required,min=1"`
	RollStart int    `json:"roll_start" validate:"required,min=1"`
	RollEnd   int    `json:"roll_end" validate:"required,min=1"`
	FacultyID string `json:"faculty_id" validate:"required,uuid"`
	SubjectID string `json:"subject_id" validate:"required,uuid"`
}

type batchStore interface {
	ListByClass(ctx context.Context, classID string) ([]models.BatchDetail, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	OverlapsRollRange(ctx context.Context, classID string, rollStart, rollEnd int) (bool, error)
	CreateWithStudents(ctx context.Context, batch *models.Batch, subjectID string) error
	Delete(ctx context.Context, id string) error
}

type batchClassStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type batchSubjectStore interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// BatchService manages roll-range batches. Creation stamps the students in
// range and links the faculty to the subject in one transaction.
type BatchService struct {
	batches  batchStore
	classes  batchClassStore
	subjects batchSubjectStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBatchService constructs BatchService.
func NewBatchService(batches batchStore, classes batchClassStore, subjects batchSubjectStore, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{
		batches:  batches,
		classes:  classes,
		subjects: subjects,
		validate: validator.New(),
		logger:   logger,
	}
}

// ListByClass returns the batches of a class.
func (s *BatchService) ListByClass(ctx context.Context, classID string) ([]models.BatchDetail, error) {
	batches, err := s.batches.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, nil
}

// Create validates the roll range against existing batches and creates the
// batch, student stamps, and faculty-subject link atomically.
func (s *BatchService) Create(ctx context.Context, actor models.Actor, req CreateBatchRequest) (*models.Batch, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if req.RollStart > req.RollEnd {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roll_start must not exceed roll_end")
	}
	if actor.Role == models.RoleClassTeacher && (actor.ClassID == nil || *actor.ClassID != req.ClassID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is outside your scope")
	}

	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if classifySubject(subject.Type, subject.Name) != bucketPractical {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batches can only be linked to practical subjects")
	}

	overlaps, err := s.batches.OverlapsRollRange(ctx, req.ClassID, req.RollStart, req.RollEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roll ranges")
	}
	if overlaps {
		return nil, appErrors.Clone(appErrors.ErrConflict, "roll range overlaps an existing batch")
	}

	batch := &models.Batch{
		ClassID:   req.ClassID,
		Name:      req.Name,
		RollStart: req.RollStart,
		RollEnd:   req.RollEnd,
		FacultyID: req.FacultyID,
	}
	if err := s.batches.CreateWithStudents(ctx, batch, req.SubjectID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	s.logger.Info("batch created",
		zap.String("batch_id", batch.ID),
		zap.String("class_id", req.ClassID),
		zap.Int("roll_start", req.RollStart),
		zap.Int("roll_end", req.RollEnd))
	return batch, nil
}

// Delete removes a batch, detaching its students and faculty link.
func (s *BatchService) Delete(ctx context.Context, actor models.Actor, id string) error {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	if actor.Role == models.RoleClassTeacher && (actor.ClassID == nil || *actor.ClassID != batch.ClassID) {
		return appErrors.Clone(appErrors.ErrValidation, "class is outside your scope")
	}
	if err := s.batches.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete batch")
	}
	s.logger.Info("batch deleted", zap.String("batch_id", id))
	return nil
}
