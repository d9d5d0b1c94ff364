package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusetu/tuition-admin-api/internal/models"
)

const extraClassColumns = `e.id, e.class_label, e.subject, e.teacher_id, e.created_by, e.topic, e.starts_at, e.ends_at, e.created_at, e.updated_at`

// ExtraClassRepository manages persistence for scheduled extra classes.
type ExtraClassRepository struct {
	db *sqlx.DB
}

// NewExtraClassRepository constructs an ExtraClassRepository.
func NewExtraClassRepository(db *sqlx.DB) *ExtraClassRepository {
	return &ExtraClassRepository{db: db}
}

// List returns extra classes matching the filter joined with the teacher's
// display name, ordered by start time.
func (r *ExtraClassRepository) List(ctx context.Context, filter models.ExtraClassFilter) ([]models.ExtraClassView, error) {
	query := fmt.Sprintf(`SELECT %s, u.full_name AS teacher_name
		FROM extra_classes e JOIN users u ON u.id = e.teacher_id WHERE 1=1`, extraClassColumns)
	var conditions []string
	var args []interface{}

	if filter.ClassLabel != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_label = $%d", len(args)+1))
		args = append(args, filter.ClassLabel)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("e.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("e.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("e.ends_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("e.starts_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.starts_at ASC"

	var views []models.ExtraClassView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("list extra classes: %w", err)
	}
	return views, nil
}

// FindByID fetches a single extra class.
func (r *ExtraClassRepository) FindByID(ctx context.Context, id string) (*models.ExtraClass, error) {
	const query = `SELECT id, class_label, subject, teacher_id, created_by, topic, starts_at, ends_at, created_at, updated_at FROM extra_classes WHERE id = $1 LIMIT 1`
	var record models.ExtraClass
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find extra class: %w", err)
	}
	return &record, nil
}

// Create inserts a new extra class.
func (r *ExtraClassRepository) Create(ctx context.Context, record *models.ExtraClass) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO extra_classes (id, class_label, subject, teacher_id, created_by, topic, starts_at, ends_at, created_at, updated_at)
		VALUES (:id, :class_label, :subject, :teacher_id, :created_by, :topic, :starts_at, :ends_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create extra class: %w", err)
	}
	return nil
}

// Update modifies an existing extra class.
func (r *ExtraClassRepository) Update(ctx context.Context, record *models.ExtraClass) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE extra_classes SET class_label = :class_label, subject = :subject, teacher_id = :teacher_id, topic = :topic, starts_at = :starts_at, ends_at = :ends_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update extra class: %w", err)
	}
	return nil
}

// Delete removes an extra class permanently.
func (r *ExtraClassRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM extra_classes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete extra class: %w", err)
	}
	return nil
}
