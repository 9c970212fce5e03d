package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campus-hq/academics-api/internal/models"
)

// SubmissionRepository persists per-(student, subject, type) submission rows.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// TypeByName resolves a submission type from the fixed vocabulary.
func (r *SubmissionRepository) TypeByName(ctx context.Context, name string) (*models.SubmissionType, error) {
	const query = `SELECT id, name FROM submission_types WHERE name = $1`
	var st models.SubmissionType
	if err := r.db.GetContext(ctx, &st, query, name); err != nil {
		return nil, err
	}
	return &st, nil
}

// ListTypes returns the full submission-type vocabulary.
func (r *SubmissionRepository) ListTypes(ctx context.Context) ([]models.SubmissionType, error) {
	const query = `SELECT id, name FROM submission_types ORDER BY name ASC`
	var types []models.SubmissionType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list submission types: %w", err)
	}
	return types, nil
}

// Upsert writes the submission row for (student, subject, type). Rows are
// only ever status-flipped, never deleted.
func (r *SubmissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	if submission.MarkedAt.IsZero() {
		submission.MarkedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_submissions (student_id, subject_id, submission_type_id, status, marked_by, marked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, subject_id, submission_type_id)
		DO UPDATE SET status = $4, marked_by = $5, marked_at = $6`
	if _, err := r.db.ExecContext(ctx, query,
		submission.StudentID, submission.SubjectID, submission.SubmissionTypeID,
		submission.Status, submission.MarkedBy, submission.MarkedAt); err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

// ListForPairs returns submission rows (with type names) for the cross product
// of the given student and subject ids. Feeds the completion aggregator.
func (r *SubmissionRepository) ListForPairs(ctx context.Context, studentIDs, subjectIDs []string) ([]models.Submission, error) {
	if len(studentIDs) == 0 || len(subjectIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT ss.student_id, ss.subject_id, ss.submission_type_id, st.name AS type_name, ss.status, ss.marked_by, ss.marked_at
FROM student_submissions ss
JOIN submission_types st ON st.id = ss.submission_type_id
WHERE ss.student_id IN (?) AND ss.subject_id IN (?)`, studentIDs, subjectIDs)
	if err != nil {
		return nil, fmt.Errorf("build submissions query: %w", err)
	}
	query = r.db.Rebind(query)
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// ListByStudent returns every submission row of one student.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Submission, error) {
	const query = `SELECT ss.student_id, ss.subject_id, ss.submission_type_id, st.name AS type_name, ss.status, ss.marked_by, ss.marked_at
FROM student_submissions ss
JOIN submission_types st ON st.id = ss.submission_type_id
WHERE ss.student_id = $1`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, studentID); err != nil {
		return nil, fmt.Errorf("list student submissions: %w", err)
	}
	return submissions, nil
}
