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

// StudentRepository manages persistence for student role profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByUserID fetches the profile attached to a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT id, user_id, class_label, subjects, guardian_name, guardian_mobile, fee_structure_id, address, date_of_birth, created_at, updated_at FROM students WHERE user_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user id: %w", err)
	}
	return &student, nil
}

// Create inserts a new student profile.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, user_id, class_label, subjects, guardian_name, guardian_mobile, fee_structure_id, address, date_of_birth, created_at, updated_at)
		VALUES (:id, :user_id, :class_label, :subjects, :guardian_name, :guardian_mobile, :fee_structure_id, :address, :date_of_birth, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student profile.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET class_label = :class_label, subjects = :subjects, guardian_name = :guardian_name, guardian_mobile = :guardian_mobile, fee_structure_id = :fee_structure_id, address = :address, date_of_birth = :date_of_birth, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// ListWithUsers returns permanent, active students joined with identity
// records. Search matches name or email case-insensitively.
func (r *StudentRepository) ListWithUsers(ctx context.Context, search string) ([]models.StudentWithUser, error) {
	query := `SELECT s.id, s.user_id, s.class_label, s.subjects, s.guardian_name, s.guardian_mobile, s.fee_structure_id, s.address, s.date_of_birth, s.created_at, s.updated_at,
		u.id AS "user.id", u.email AS "user.email", u.full_name AS "user.full_name", u.mobile AS "user.mobile", u.role AS "user.role", u.plan_status AS "user.plan_status", u.active AS "user.active", u.created_at AS "user.created_at", u.updated_at AS "user.updated_at"
		FROM students s JOIN users u ON u.id = s.user_id
		WHERE u.active = TRUE AND u.plan_status = 'permanent'`
	var args []interface{}
	if search != "" {
		query += " AND (LOWER(u.full_name) LIKE $1 OR LOWER(u.email) LIKE $1)"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY u.full_name ASC"

	var students []models.StudentWithUser
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
