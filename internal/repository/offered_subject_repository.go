package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campus-hq/academics-api/internal/models"
)

// OfferedSubjectRepository persists department-level elective offerings.
type OfferedSubjectRepository struct {
	db *sqlx.DB
}

// NewOfferedSubjectRepository constructs the repository.
func NewOfferedSubjectRepository(db *sqlx.DB) *OfferedSubjectRepository {
	return &OfferedSubjectRepository{db: db}
}

const offeredDetailColumns = `o.id, o.subject_id, o.department_id, o.year, o.semester, o.faculty_ids, o.is_active, o.created_at,
       s.name AS subject_name, s.code AS subject_code, s.type AS subject_type`

// ListActiveForYear returns active offerings visible to the given year.
// Electives are offered per department; the department filter is optional so
// department-agnostic categories (MDM/OE) can see every department's rows.
func (r *OfferedSubjectRepository) ListActiveForYear(ctx context.Context, year int, departmentID string) ([]models.OfferedSubjectDetail, error) {
	base := `SELECT ` + offeredDetailColumns + `
FROM department_offered_subjects o
JOIN subjects s ON s.id = o.subject_id
WHERE o.is_active = TRUE AND o.year = $1`
	args := []interface{}{year}
	if departmentID != "" {
		base += fmt.Sprintf(" AND o.department_id = $%d", len(args)+1)
		args = append(args, departmentID)
	}
	base += " ORDER BY s.code ASC"
	var offerings []models.OfferedSubjectDetail
	if err := r.db.SelectContext(ctx, &offerings, base, args...); err != nil {
		return nil, fmt.Errorf("list active offerings: %w", err)
	}
	return offerings, nil
}

// ListByDepartment returns every offering of a department.
func (r *OfferedSubjectRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.OfferedSubjectDetail, error) {
	query := `SELECT ` + offeredDetailColumns + `
FROM department_offered_subjects o
JOIN subjects s ON s.id = o.subject_id
WHERE o.department_id = $1
ORDER BY o.year ASC, s.code ASC`
	var offerings []models.OfferedSubjectDetail
	if err := r.db.SelectContext(ctx, &offerings, query, departmentID); err != nil {
		return nil, fmt.Errorf("list department offerings: %w", err)
	}
	return offerings, nil
}

// ListByFaculty returns active offerings whose faculty set contains the id.
func (r *OfferedSubjectRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.OfferedSubjectDetail, error) {
	query := `SELECT ` + offeredDetailColumns + `
FROM department_offered_subjects o
JOIN subjects s ON s.id = o.subject_id
WHERE o.is_active = TRUE AND $1 = ANY(o.faculty_ids)
ORDER BY s.code ASC`
	var offerings []models.OfferedSubjectDetail
	if err := r.db.SelectContext(ctx, &offerings, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty offerings: %w", err)
	}
	return offerings, nil
}

// FindBySubject returns the active offering for a subject, if any.
func (r *OfferedSubjectRepository) FindBySubject(ctx context.Context, subjectID string) (*models.OfferedSubject, error) {
	const query = `SELECT id, subject_id, department_id, year, semester, faculty_ids, is_active, created_at
		FROM department_offered_subjects WHERE subject_id = $1 AND is_active = TRUE LIMIT 1`
	var offering models.OfferedSubject
	if err := r.db.GetContext(ctx, &offering, query, subjectID); err != nil {
		return nil, err
	}
	return &offering, nil
}

// FindByID returns an offering by id.
func (r *OfferedSubjectRepository) FindByID(ctx context.Context, id string) (*models.OfferedSubject, error) {
	const query = `SELECT id, subject_id, department_id, year, semester, faculty_ids, is_active, created_at
		FROM department_offered_subjects WHERE id = $1`
	var offering models.OfferedSubject
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// FacultyTeaches reports whether the subject's active offering lists the faculty.
func (r *OfferedSubjectRepository) FacultyTeaches(ctx context.Context, facultyID, subjectID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM department_offered_subjects
		WHERE subject_id = $1 AND is_active = TRUE AND $2 = ANY(faculty_ids)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subjectID, facultyID); err != nil {
		return false, fmt.Errorf("check offered faculty: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new offering.
func (r *OfferedSubjectRepository) Create(ctx context.Context, offering *models.OfferedSubject) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	if offering.CreatedAt.IsZero() {
		offering.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO department_offered_subjects (id, subject_id, department_id, year, semester, faculty_ids, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		offering.ID, offering.SubjectID, offering.DepartmentID, offering.Year, offering.Semester,
		pq.Array([]string(offering.FacultyIDs)), offering.IsActive, offering.CreatedAt); err != nil {
		return fmt.Errorf("create offering: %w", err)
	}
	return nil
}

// UpdateFaculty replaces the approved faculty set.
func (r *OfferedSubjectRepository) UpdateFaculty(ctx context.Context, id string, facultyIDs []string) error {
	const query = `UPDATE department_offered_subjects SET faculty_ids = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, pq.Array(facultyIDs)); err != nil {
		return fmt.Errorf("update offering faculty: %w", err)
	}
	return nil
}

// SetActive toggles offering visibility.
func (r *OfferedSubjectRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE department_offered_subjects SET is_active = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active); err != nil {
		return fmt.Errorf("set offering active: %w", err)
	}
	return nil
}

// ExistsForSubjectYear guards against duplicate offerings of one subject to
// the same department/year.
func (r *OfferedSubjectRepository) ExistsForSubjectYear(ctx context.Context, subjectID, departmentID string, year int) (bool, error) {
	const query = `SELECT COUNT(*) FROM department_offered_subjects WHERE subject_id = $1 AND department_id = $2 AND year = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subjectID, departmentID, year); err != nil {
		return false, fmt.Errorf("check offering exists: %w", err)
	}
	return count > 0, nil
}
