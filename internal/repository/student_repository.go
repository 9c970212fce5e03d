package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-hq/academics-api/internal/models"
)

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, class_id, batch_id, roll_no, name, hall_ticket_no, attendance_percent, defaulter, defaulter_override, password_hash, created_at, updated_at`

// List returns students filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := `FROM students s`
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("s.batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}
	if filter.Defaulter != nil {
		conditions = append(conditions, fmt.Sprintf("s.defaulter = $%d", len(args)+1))
		args = append(args, *filter.Defaulter)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(s.name ILIKE $%d OR s.hall_ticket_no ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"roll_no":    "s.roll_no",
		"name":       "s.name",
		"attendance": "s.attendance_percent",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "s.roll_no"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.%s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		strings.ReplaceAll(studentColumns, ", ", ", s."), base+clause, orderBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByClass returns all students of a class ordered by roll number.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE class_id = $1 ORDER BY roll_no ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

// ListByBatch returns students stamped with a batch ordered by roll number.
func (r *StudentRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE batch_id = $1 ORDER BY roll_no ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, batchID); err != nil {
		return nil, fmt.Errorf("list batch students: %w", err)
	}
	return students, nil
}

// ListByClassAndRollRange returns students of a class within a roll range.
func (r *StudentRepository) ListByClassAndRollRange(ctx context.Context, classID string, rollStart, rollEnd int) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE class_id = $1 AND roll_no >= $2 AND roll_no <= $3 ORDER BY roll_no ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID, rollStart, rollEnd); err != nil {
		return nil, fmt.Errorf("list roll range students: %w", err)
	}
	return students, nil
}

// ListByIDs returns students for the provided ids.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM students WHERE id IN (?)`, studentColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build students query: %w", err)
	}
	query = r.db.Rebind(query)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	return students, nil
}

// ListByDepartment returns every student whose class belongs to the department.
func (r *StudentRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT s.%s FROM students s JOIN classes c ON c.id = s.class_id WHERE c.department_id = $1 ORDER BY s.roll_no ASC`,
		strings.ReplaceAll(studentColumns, ", ", ", s."))
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, departmentID); err != nil {
		return nil, fmt.Errorf("list department students: %w", err)
	}
	return students, nil
}

// ListByDepartmentAndYear returns students of one year level in a department.
func (r *StudentRepository) ListByDepartmentAndYear(ctx context.Context, departmentID string, year int) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT s.%s FROM students s JOIN classes c ON c.id = s.class_id WHERE c.department_id = $1 AND c.year = $2 ORDER BY s.roll_no ASC`,
		strings.ReplaceAll(studentColumns, ", ", ", s."))
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, departmentID, year); err != nil {
		return nil, fmt.Errorf("list year students: %w", err)
	}
	return students, nil
}

// ExistsByIdentity checks whether a roll number (within the class) or a hall
// ticket number (anywhere) is already present. Used for import deduplication.
func (r *StudentRepository) ExistsByIdentity(ctx context.Context, classID string, rollNo int, hallTicketNo string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE (class_id = $1 AND roll_no = $2) OR hall_ticket_no = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classID, rollNo, hallTicketNo); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student identity: %w", err)
	}
	return true, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, class_id, batch_id, roll_no, name, hall_ticket_no, attendance_percent, defaulter, defaulter_override, password_hash, created_at, updated_at)
		VALUES (:id, :class_id, :batch_id, :roll_no, :name, :hall_ticket_no, :attendance_percent, :defaulter, :defaulter_override, :password_hash, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update changes mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, roll_no = :roll_no, hall_ticket_no = :hall_ticket_no,
		attendance_percent = :attendance_percent, defaulter = :defaulter, defaulter_override = :defaulter_override,
		batch_id = :batch_id, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateAttendance sets attendance and the derived defaulter flag.
func (r *StudentRepository) UpdateAttendance(ctx context.Context, id string, percent float64, defaulter bool) error {
	const query = `UPDATE students SET attendance_percent = $2, defaulter = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, percent, defaulter); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}
