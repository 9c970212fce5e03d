package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-hq/academics-api/internal/models"
)

// DefaulterRepository persists append-only defaulter-work instruction records.
type DefaulterRepository struct {
	db *sqlx.DB
}

// NewDefaulterRepository constructs the repository.
func NewDefaulterRepository(db *sqlx.DB) *DefaulterRepository {
	return &DefaulterRepository{db: db}
}

const defaulterColumns = `id, student_id, subject_id, faculty_id, submission_text, reference_link, skip, status, created_at`

// Create appends a new instruction record. Records are never updated in
// place; a newer row supersedes older ones for the same subject.
func (r *DefaulterRepository) Create(ctx context.Context, record *models.DefaulterSubmission) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Status == "" {
		record.Status = models.SubmissionPending
	}
	const query = `INSERT INTO defaulter_submissions (id, student_id, subject_id, faculty_id, submission_text, reference_link, skip, status, created_at)
		VALUES (:id, :student_id, :subject_id, :faculty_id, :submission_text, :reference_link, :skip, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create defaulter record: %w", err)
	}
	return nil
}

// FindByID fetches one record.
func (r *DefaulterRepository) FindByID(ctx context.Context, id string) (*models.DefaulterSubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM defaulter_submissions WHERE id = $1`, defaulterColumns)
	var record models.DefaulterSubmission
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByStudent returns the full history for a student, newest first.
func (r *DefaulterRepository) ListByStudent(ctx context.Context, studentID string) ([]models.DefaulterSubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM defaulter_submissions WHERE student_id = $1 ORDER BY created_at DESC`, defaulterColumns)
	var records []models.DefaulterSubmission
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list defaulter records: %w", err)
	}
	return records, nil
}

// LatestPerSubject returns the current-assignment view: the newest record for
// each subject of the student.
func (r *DefaulterRepository) LatestPerSubject(ctx context.Context, studentID string) ([]models.DefaulterSubmission, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ON (subject_id) %s
FROM defaulter_submissions WHERE student_id = $1
ORDER BY subject_id, created_at DESC`, defaulterColumns)
	var records []models.DefaulterSubmission
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list current defaulter records: %w", err)
	}
	return records, nil
}

// UpdateStatus flips the status on a specific record.
func (r *DefaulterRepository) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) error {
	const query = `UPDATE defaulter_submissions SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update defaulter status: %w", err)
	}
	return nil
}
