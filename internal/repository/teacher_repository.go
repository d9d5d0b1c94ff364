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

// TeacherRepository manages persistence for teacher role profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByUserID fetches the profile attached to a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, subject, class_assigned, created_at, updated_at FROM teachers WHERE user_id = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher by user id: %w", err)
	}
	return &teacher, nil
}

// Create inserts a new teacher profile.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, user_id, subject, class_assigned, created_at, updated_at)
		VALUES (:id, :user_id, :subject, :class_assigned, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher profile.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET subject = :subject, class_assigned = :class_assigned, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// ListWithUsers returns permanent, active teachers joined with identity
// records. Search matches name or email case-insensitively.
func (r *TeacherRepository) ListWithUsers(ctx context.Context, search string) ([]models.TeacherWithUser, error) {
	query := `SELECT t.id, t.user_id, t.subject, t.class_assigned, t.created_at, t.updated_at,
		u.id AS "user.id", u.email AS "user.email", u.full_name AS "user.full_name", u.mobile AS "user.mobile", u.role AS "user.role", u.plan_status AS "user.plan_status", u.active AS "user.active", u.created_at AS "user.created_at", u.updated_at AS "user.updated_at"
		FROM teachers t JOIN users u ON u.id = t.user_id
		WHERE u.active = TRUE AND u.plan_status = 'permanent'`
	var args []interface{}
	if search != "" {
		query += " AND (LOWER(u.full_name) LIKE $1 OR LOWER(u.email) LIKE $1)"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY u.full_name ASC"

	var teachers []models.TeacherWithUser
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindEligible returns active teachers whose subject list contains the
// subject and whose assigned class list contains the label. Both columns are
// comma-joined lists, so both sides split the same way.
func (r *TeacherRepository) FindEligible(ctx context.Context, classLabel, subject string) ([]models.TeacherWithUser, error) {
	const query = `SELECT t.id, t.user_id, t.subject, t.class_assigned, t.created_at, t.updated_at,
		u.id AS "user.id", u.email AS "user.email", u.full_name AS "user.full_name", u.mobile AS "user.mobile", u.role AS "user.role", u.plan_status AS "user.plan_status", u.active AS "user.active", u.created_at AS "user.created_at", u.updated_at AS "user.updated_at"
		FROM teachers t JOIN users u ON u.id = t.user_id
		WHERE u.active = TRUE AND $1 = ANY(string_to_array(t.subject, ','))
		AND $2 = ANY(string_to_array(t.class_assigned, ','))
		ORDER BY u.full_name ASC`
	var teachers []models.TeacherWithUser
	if err := r.db.SelectContext(ctx, &teachers, query, subject, classLabel); err != nil {
		return nil, fmt.Errorf("find eligible teachers: %w", err)
	}
	return teachers, nil
}
