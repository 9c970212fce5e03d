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

// BatchRepository persists roll-number-range batches.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs the repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// ListByClass returns batches of a class with faculty info.
func (r *BatchRepository) ListByClass(ctx context.Context, classID string) ([]models.BatchDetail, error) {
	const query = `SELECT b.id, b.class_id, b.name, b.roll_start, b.roll_end, b.faculty_id, b.created_at,
       u.full_name AS faculty_name, c.name AS class_name
FROM batches b
JOIN classes c ON c.id = b.class_id
LEFT JOIN users u ON u.id = b.faculty_id
WHERE b.class_id = $1
ORDER BY b.roll_start ASC`
	var batches []models.BatchDetail
	if err := r.db.SelectContext(ctx, &batches, query, classID); err != nil {
		return nil, fmt.Errorf("list class batches: %w", err)
	}
	return batches, nil
}

// FindByID returns a batch by id.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	const query = `SELECT id, class_id, name, roll_start, roll_end, faculty_id, created_at FROM batches WHERE id = $1`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, err
	}
	return &batch, nil
}

// OverlapsRollRange reports whether an existing batch of the class overlaps
// the given roll range.
func (r *BatchRepository) OverlapsRollRange(ctx context.Context, classID string, rollStart, rollEnd int) (bool, error) {
	const query = `SELECT 1 FROM batches WHERE class_id = $1 AND roll_start <= $3 AND roll_end >= $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classID, rollStart, rollEnd); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check batch overlap: %w", err)
	}
	return true, nil
}

// CreateWithStudents runs the whole batch-creation sequence in one
// transaction: insert the batch, stamp the batch onto students in the roll
// range, and link the faculty to the practical subject. A failure at any step
// rolls the entire sequence back.
func (r *BatchRepository) CreateWithStudents(ctx context.Context, batch *models.Batch, subjectID string) (err error) {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertBatch = `INSERT INTO batches (id, class_id, name, roll_start, roll_end, faculty_id, created_at)
		VALUES (:id, :class_id, :name, :roll_start, :roll_end, :faculty_id, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertBatch, batch); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	const stampStudents = `UPDATE students SET batch_id = $1, updated_at = NOW()
		WHERE class_id = $2 AND roll_no >= $3 AND roll_no <= $4`
	if _, err = tx.ExecContext(ctx, stampStudents, batch.ID, batch.ClassID, batch.RollStart, batch.RollEnd); err != nil {
		return fmt.Errorf("assign batch students: %w", err)
	}

	if subjectID != "" {
		const linkFaculty = `INSERT INTO faculty_subjects (id, faculty_id, subject_id, class_id, batch_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err = tx.ExecContext(ctx, linkFaculty, uuid.NewString(), batch.FacultyID, subjectID, batch.ClassID, batch.ID, time.Now().UTC()); err != nil {
			return fmt.Errorf("link batch faculty: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch transaction: %w", err)
	}
	return nil
}

// Delete removes a batch and detaches its students in one transaction.
func (r *BatchRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE students SET batch_id = NULL, updated_at = NOW() WHERE batch_id = $1`, id); err != nil {
		return fmt.Errorf("detach batch students: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM faculty_subjects WHERE batch_id = $1`, id); err != nil {
		return fmt.Errorf("unlink batch faculty: %w", err)
	}
	var result sql.Result
	if result, err = tx.ExecContext(ctx, `DELETE FROM batches WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	affected, aerr := result.RowsAffected()
	if aerr != nil {
		err = fmt.Errorf("check deleted batch rows: %w", aerr)
		return err
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch delete: %w", err)
	}
	return nil
}
