package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/dto"
	"github.com/campus-hq/academics-api/internal/models"
	"github.com/campus-hq/academics-api/internal/repository"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
	"github.com/campus-hq/academics-api/pkg/export"
	"github.com/campus-hq/academics-api/pkg/jobs"
)

const reportJobType = "report.generate"

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

type reportCompletionSource interface {
	ForClass(ctx context.Context, classID string) ([]dto.StudentCompletion, error)
}

type reportStudentSource interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Student, error)
	ListByDepartmentAndYear(ctx context.Context, departmentID string, year int) ([]models.Student, error)
}

type reportClassSource interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Class, error)
	ListByDepartmentAndYear(ctx context.Context, departmentID string, year int) ([]models.Class, error)
}

type reportFileStore interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type reportURLSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

// ReportService queues and processes asynchronous CSV/PDF exports of the
// completion and defaulter datasets.
type ReportService struct {
	reports    reportJobStore
	completion reportCompletionSource
	students   reportStudentSource
	classes    reportClassSource
	files      reportFileStore
	signer     reportURLSigner
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	queue      *jobs.Queue
	metrics    *MetricsService
	fileTTL    time.Duration
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewReportService constructs ReportService and its worker queue.
func NewReportService(
	reports reportJobStore,
	completion reportCompletionSource,
	students reportStudentSource,
	classes reportClassSource,
	files reportFileStore,
	signer reportURLSigner,
	metrics *MetricsService,
	fileTTL time.Duration,
	workers, retries int,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		reports:    reports,
		completion: completion,
		students:   students,
		classes:    classes,
		files:      files,
		signer:     signer,
		metrics:    metrics,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		fileTTL:    fileTTL,
		validate:   validator.New(),
		logger:     logger,
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return s
}

// Start launches the report workers and requeues jobs left queued by a
// previous run.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	queued, err := s.reports.ListQueued(ctx, 100)
	if err != nil {
		s.logger.Warn("failed to recover queued reports", zap.Error(err))
		return
	}
	for _, job := range queued {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType}); err != nil {
			s.logger.Warn("failed to requeue report", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// Stop drains the worker pool.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Create validates scope, persists a queued job, and hands it to the workers.
func (s *ReportService) Create(ctx context.Context, actor models.Actor, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if req.ClassID == "" && req.DepartmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id or department_id is required")
	}

	switch actor.Role {
	case models.RoleDirector:
	case models.RoleHOD:
		if req.DepartmentID != "" && (actor.DepartmentID == nil || *actor.DepartmentID != req.DepartmentID) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department is outside your scope")
		}
	case models.RoleClassTeacher:
		if req.ClassID == "" || actor.ClassID == nil || *actor.ClassID != req.ClassID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class is outside your scope")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot request reports")
	}

	job := &models.ReportJob{
		Type: req.Type,
		Params: models.ReportJobParams{
			ClassID:      req.ClassID,
			DepartmentID: req.DepartmentID,
			Year:         req.Year,
			Format:       req.Format,
		},
		Status:    models.ReportStatusQueued,
		CreatedBy: actor.ID,
	}
	if err := s.reports.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType}); err != nil {
		s.logger.Warn("failed to enqueue report; recovery will pick it up", zap.String("job_id", job.ID), zap.Error(err))
	}
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// Status reports job state to the creator (or directors and HODs).
func (s *ReportService) Status(ctx context.Context, actor models.Actor, id string) (*dto.ReportStatusResponse, error) {
	job, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.CreatedBy != actor.ID && actor.Role != models.RoleDirector && actor.Role != models.RoleHOD {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your report")
	}
	return &dto.ReportStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
		Error:     job.ErrorMessage,
	}, nil
}

// ResolveDownload validates a signed token and returns the absolute path of
// the rendered file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	job, err := s.reports.GetByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusDone || job.FilePath == nil || *job.FilePath != relPath {
		return "", appErrors.Clone(appErrors.ErrNotFound, "report file not available")
	}
	return s.files.Path(relPath), nil
}

// Cleanup deletes rendered files past their TTL.
func (s *ReportService) Cleanup(ctx context.Context) {
	removed, err := s.files.CleanupOlderThan(s.fileTTL)
	if err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("report files cleaned up", zap.Int("count", len(removed)))
	}
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	record, err := s.reports.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", job.ID, err)
	}
	if record.Status == models.ReportStatusDone {
		return nil
	}

	processing := models.ReportStatusProcessing
	progress := 10
	if err := s.reports.Update(ctx, record.ID, repository.UpdateReportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return fmt.Errorf("mark report processing: %w", err)
	}

	dataset, title, err := s.buildDataset(ctx, record)
	if err != nil {
		s.markFailed(ctx, record.ID, err)
		return err
	}

	var data []byte
	switch record.Params.Format {
	case models.ReportFormatPDF:
		data, err = s.pdf.Render(dataset, title)
	default:
		data, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.markFailed(ctx, record.ID, err)
		return err
	}

	filename := fmt.Sprintf("%s_%s.%s", record.ID, record.Type, record.Params.Format)
	relPath, err := s.files.Save(filename, data)
	if err != nil {
		s.markFailed(ctx, record.ID, err)
		return err
	}
	url, _, err := s.signer.Generate(record.ID, relPath)
	if err != nil {
		s.markFailed(ctx, record.ID, err)
		return err
	}

	done := models.ReportStatusDone
	full := 100
	now := time.Now().UTC()
	if err := s.reports.Update(ctx, record.ID, repository.UpdateReportJobParams{
		Status:     &done,
		Progress:   &full,
		FilePath:   &relPath,
		ResultURL:  &url,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("mark report done: %w", err)
	}
	s.metrics.RecordReportJob(string(models.ReportStatusDone))
	s.logger.Info("report generated",
		zap.String("job_id", record.ID),
		zap.String("type", string(record.Type)),
		zap.String("format", string(record.Params.Format)))
	return nil
}

func (s *ReportService) markFailed(ctx context.Context, id string, cause error) {
	failed := models.ReportStatusFailed
	message := cause.Error()
	now := time.Now().UTC()
	if err := s.reports.Update(ctx, id, repository.UpdateReportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Error("failed to mark report failed", zap.String("job_id", id), zap.Error(err))
	}
	s.metrics.RecordReportJob(string(models.ReportStatusFailed))
}

func (s *ReportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportCompletion:
		return s.completionDataset(ctx, job.Params)
	case models.ReportDefaulters:
		return s.defaulterDataset(ctx, job.Params)
	}
	return export.Dataset{}, "", fmt.Errorf("unknown report type %q", job.Type)
}

func (s *ReportService) completionDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	classes, title, err := s.scopeClasses(ctx, params, "Submission Completion")
	if err != nil {
		return export.Dataset{}, "", err
	}

	dataset := export.Dataset{Headers: []string{"Class", "Roll No", "Student", "Complete", "Total", "Percent"}}
	for _, class := range classes {
		rows, err := s.completion.ForClass(ctx, class.ID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, row := range rows {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Class":   class.Name,
				"Roll No": strconv.Itoa(row.RollNo),
				"Student": row.StudentName,
				"Complete": strconv.Itoa(row.CompleteCount),
				"Total":   strconv.Itoa(row.TotalSubjects),
				"Percent": strconv.Itoa(row.Percent),
			})
		}
	}
	return dataset, title, nil
}

func (s *ReportService) defaulterDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	var students []models.Student
	var err error
	title := "Attendance Defaulters"
	switch {
	case params.ClassID != "":
		students, err = s.students.ListByClass(ctx, params.ClassID)
	case params.Year > 0:
		students, err = s.students.ListByDepartmentAndYear(ctx, params.DepartmentID, params.Year)
	default:
		students, err = s.students.ListByDepartment(ctx, params.DepartmentID)
	}
	if err != nil {
		return export.Dataset{}, "", err
	}

	dataset := export.Dataset{Headers: []string{"Roll No", "Student", "Hall Ticket", "Attendance %"}}
	for _, student := range students {
		if !student.IsDefaulter() {
			continue
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Roll No":      strconv.Itoa(student.RollNo),
			"Student":      student.Name,
			"Hall Ticket":  student.HallTicketNo,
			"Attendance %": strconv.FormatFloat(student.AttendancePercent, 'f', 1, 64),
		})
	}
	return dataset, title, nil
}

func (s *ReportService) scopeClasses(ctx context.Context, params models.ReportJobParams, title string) ([]models.Class, string, error) {
	if params.ClassID != "" {
		class, err := s.classes.FindByID(ctx, params.ClassID)
		if err != nil {
			return nil, "", fmt.Errorf("load class: %w", err)
		}
		return []models.Class{*class}, fmt.Sprintf("%s - %s", title, class.Name), nil
	}
	if params.Year > 0 {
		classes, err := s.classes.ListByDepartmentAndYear(ctx, params.DepartmentID, params.Year)
		if err != nil {
			return nil, "", fmt.Errorf("list classes: %w", err)
		}
		return classes, fmt.Sprintf("%s - Year %d", title, params.Year), nil
	}
	classes, err := s.classes.ListByDepartment(ctx, params.DepartmentID)
	if err != nil {
		return nil, "", fmt.Errorf("list classes: %w", err)
	}
	return classes, title, nil
}
