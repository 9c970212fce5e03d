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

// ClassRepository handles persistence of classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes filtered by the provided criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	base := `FROM classes c
LEFT JOIN departments d ON d.id = c.department_id
LEFT JOIN users u ON u.id = c.class_teacher_id`
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("c.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("c.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("c.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name": "c.name",
		"year": "c.year",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.year"
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
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.department_id, c.year, c.name, c.class_teacher_id, c.created_at, c.updated_at,
        d.name AS department_name, u.full_name AS class_teacher_name
        %s ORDER BY %s %s, c.name ASC LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, department_id, year, name, class_teacher_id, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListByDepartment returns all classes of a department.
func (r *ClassRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.Class, error) {
	const query = `SELECT id, department_id, year, name, class_teacher_id, created_at, updated_at
		FROM classes WHERE department_id = $1 ORDER BY year ASC, name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, departmentID); err != nil {
		return nil, fmt.Errorf("list department classes: %w", err)
	}
	return classes, nil
}

// ListByDepartmentAndYear returns classes for a department/year pair.
func (r *ClassRepository) ListByDepartmentAndYear(ctx context.Context, departmentID string, year int) ([]models.Class, error) {
	const query = `SELECT id, department_id, year, name, class_teacher_id, created_at, updated_at
		FROM classes WHERE department_id = $1 AND year = $2 ORDER BY name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, departmentID, year); err != nil {
		return nil, fmt.Errorf("list year classes: %w", err)
	}
	return classes, nil
}

// FindByClassTeacher returns the class a teacher leads, if any.
func (r *ClassRepository) FindByClassTeacher(ctx context.Context, teacherID string) (*models.Class, error) {
	const query = `SELECT id, department_id, year, name, class_teacher_id, created_at, updated_at
		FROM classes WHERE class_teacher_id = $1 LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, teacherID); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, department_id, year, name, class_teacher_id, created_at, updated_at)
		VALUES (:id, :department_id, :year, :name, :class_teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update changes mutable class fields.
func (r *ClassRepository) Update(ctx context.Context, id, name string, year int) error {
	const query = `UPDATE classes SET name = $2, year = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, name, year); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// SetClassTeacher assigns or clears the class teacher.
func (r *ClassRepository) SetClassTeacher(ctx context.Context, id string, teacherID *string) error {
	const query = `UPDATE classes SET class_teacher_id = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, teacherID)
	if err != nil {
		return fmt.Errorf("set class teacher: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check class teacher rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
