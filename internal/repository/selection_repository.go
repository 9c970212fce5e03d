package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campus-hq/academics-api/internal/models"
)

// SelectionRepository persists student elective selections.
type SelectionRepository struct {
	db *sqlx.DB
}

// NewSelectionRepository constructs the repository.
func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

const selectionColumns = `student_id, mdm_id, mdm_faculty_id, oe_id, oe_faculty_id, pe_id, pe_faculty_id, selections_locked, updated_at`

// categoryColumns whitelists the column pair per elective category. Dynamic
// SQL only ever interpolates values from this map.
var categoryColumns = map[models.ElectiveCategory][2]string{
	models.CategoryMDM: {"mdm_id", "mdm_faculty_id"},
	models.CategoryOE:  {"oe_id", "oe_faculty_id"},
	models.CategoryPE:  {"pe_id", "pe_faculty_id"},
}

// FindByStudent returns the selection row for a student, if any.
func (r *SelectionRepository) FindByStudent(ctx context.Context, studentID string) (*models.StudentSelection, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_subject_selection WHERE student_id = $1`, selectionColumns)
	var selection models.StudentSelection
	if err := r.db.GetContext(ctx, &selection, query, studentID); err != nil {
		return nil, err
	}
	return &selection, nil
}

// UpsertCategory writes one category's subject/faculty pair, creating the
// selection row lazily on first pick.
func (r *SelectionRepository) UpsertCategory(ctx context.Context, studentID string, category models.ElectiveCategory, subjectID, facultyID string) error {
	cols, ok := categoryColumns[category]
	if !ok {
		return fmt.Errorf("unknown elective category %q", category)
	}
	query := fmt.Sprintf(`INSERT INTO student_subject_selection (student_id, %s, %s, selections_locked, updated_at)
		VALUES ($1, $2, $3, FALSE, $4)
		ON CONFLICT (student_id) DO UPDATE SET %s = $2, %s = $3, updated_at = $4`,
		cols[0], cols[1], cols[0], cols[1])
	if _, err := r.db.ExecContext(ctx, query, studentID, subjectID, facultyID, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert %s selection: %w", category, err)
	}
	return nil
}

// SetLocked flips the lock flag on an existing selection row.
func (r *SelectionRepository) SetLocked(ctx context.Context, studentID string, locked bool) error {
	const query = `UPDATE student_subject_selection SET selections_locked = $2, updated_at = NOW() WHERE student_id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, locked); err != nil {
		return fmt.Errorf("set selection lock: %w", err)
	}
	return nil
}

// ListByFacultySubject returns selections where any category pairs the given
// faculty with the given subject. Feeds the self-selected reconciler source.
func (r *SelectionRepository) ListByFacultySubject(ctx context.Context, facultyID, subjectID string) ([]models.StudentSelection, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_subject_selection
		WHERE (mdm_id = $1 AND mdm_faculty_id = $2)
		   OR (oe_id = $1 AND oe_faculty_id = $2)
		   OR (pe_id = $1 AND pe_faculty_id = $2)
		ORDER BY updated_at ASC`, selectionColumns)
	var selections []models.StudentSelection
	if err := r.db.SelectContext(ctx, &selections, query, subjectID, facultyID); err != nil {
		return nil, fmt.Errorf("list selections by faculty subject: %w", err)
	}
	return selections, nil
}

// ListByStudentIDs returns selection rows for the provided students.
func (r *SelectionRepository) ListByStudentIDs(ctx context.Context, studentIDs []string) ([]models.StudentSelection, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM student_subject_selection WHERE student_id IN (?)`, selectionColumns), studentIDs)
	if err != nil {
		return nil, fmt.Errorf("build selections query: %w", err)
	}
	query = r.db.Rebind(query)
	var selections []models.StudentSelection
	if err := r.db.SelectContext(ctx, &selections, query, args...); err != nil {
		return nil, fmt.Errorf("list selections by students: %w", err)
	}
	return selections, nil
}
