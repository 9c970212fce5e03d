package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-hq/academics-api/internal/models"
)

// AssignmentRepository persists faculty-subject links (faculty_subjects).
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentDetailColumns = `fs.id, fs.faculty_id, fs.subject_id, fs.class_id, fs.batch_id, fs.created_at,
       s.name AS subject_name, s.code AS subject_code, s.type AS subject_type,
       c.name AS class_name, u.full_name AS faculty_name`

// ListByFaculty returns all assignments owned by a faculty.
func (r *AssignmentRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.SubjectAssignmentDetail, error) {
	query := `SELECT ` + assignmentDetailColumns + `
FROM faculty_subjects fs
JOIN subjects s ON s.id = fs.subject_id
JOIN classes c ON c.id = fs.class_id
JOIN users u ON u.id = fs.faculty_id
WHERE fs.faculty_id = $1
ORDER BY c.name ASC, s.code ASC`
	var assignments []models.SubjectAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty assignments: %w", err)
	}
	return assignments, nil
}

// ListByFacultySubject returns the assignment rows linking a faculty to a subject.
func (r *AssignmentRepository) ListByFacultySubject(ctx context.Context, facultyID, subjectID string) ([]models.SubjectAssignment, error) {
	const query = `SELECT id, faculty_id, subject_id, class_id, batch_id, created_at
		FROM faculty_subjects WHERE faculty_id = $1 AND subject_id = $2 ORDER BY created_at ASC`
	var assignments []models.SubjectAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, facultyID, subjectID); err != nil {
		return nil, fmt.Errorf("list faculty subject assignments: %w", err)
	}
	return assignments, nil
}

// ListByClass returns assignments scoped to a class.
func (r *AssignmentRepository) ListByClass(ctx context.Context, classID string) ([]models.SubjectAssignmentDetail, error) {
	query := `SELECT ` + assignmentDetailColumns + `
FROM faculty_subjects fs
JOIN subjects s ON s.id = fs.subject_id
JOIN classes c ON c.id = fs.class_id
JOIN users u ON u.id = fs.faculty_id
WHERE fs.class_id = $1
ORDER BY s.code ASC`
	var assignments []models.SubjectAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, classID); err != nil {
		return nil, fmt.Errorf("list class assignments: %w", err)
	}
	return assignments, nil
}

// Exists reports whether any row links the faculty to the subject.
func (r *AssignmentRepository) Exists(ctx context.Context, facultyID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM faculty_subjects WHERE faculty_id = $1 AND subject_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, facultyID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// ExistsExact checks the full tuple before insert.
func (r *AssignmentRepository) ExistsExact(ctx context.Context, facultyID, subjectID, classID string, batchID *string) (bool, error) {
	query := `SELECT 1 FROM faculty_subjects WHERE faculty_id = $1 AND subject_id = $2 AND class_id = $3`
	args := []interface{}{facultyID, subjectID, classID}
	if batchID != nil {
		query += fmt.Sprintf(" AND batch_id = $%d", len(args)+1)
		args = append(args, *batchID)
	} else {
		query += " AND batch_id IS NULL"
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment tuple: %w", err)
	}
	return true, nil
}

// Create inserts a new faculty-subject link.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.SubjectAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO faculty_subjects (id, faculty_id, subject_id, class_id, batch_id, created_at)
		VALUES (:id, :faculty_id, :subject_id, :class_id, :batch_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment verifying ownership.
func (r *AssignmentRepository) Delete(ctx context.Context, facultyID, assignmentID string) error {
	const query = `DELETE FROM faculty_subjects WHERE id = $1 AND faculty_id = $2`
	result, err := r.db.ExecContext(ctx, query, assignmentID, facultyID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
