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

// StaffRepository manages persistence for admin/support staff profiles.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// FindByUserID fetches the profile attached to a user account.
func (r *StaffRepository) FindByUserID(ctx context.Context, userID string) (*models.AdminStaff, error) {
	const query = `SELECT id, user_id, department, created_at, updated_at FROM admin_staff WHERE user_id = $1 LIMIT 1`
	var staff models.AdminStaff
	if err := r.db.GetContext(ctx, &staff, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by user id: %w", err)
	}
	return &staff, nil
}

// Create inserts a new staff profile.
func (r *StaffRepository) Create(ctx context.Context, staff *models.AdminStaff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now

	const query = `INSERT INTO admin_staff (id, user_id, department, created_at, updated_at)
		VALUES (:id, :user_id, :department, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// Update modifies an existing staff profile.
func (r *StaffRepository) Update(ctx context.Context, staff *models.AdminStaff) error {
	staff.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admin_staff SET department = :department, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	return nil
}

// ListWithUsers returns active admin/support staff joined with identity
// records. Search matches name or email case-insensitively.
func (r *StaffRepository) ListWithUsers(ctx context.Context, search string) ([]models.AdminStaffWithUser, error) {
	query := `SELECT s.id, s.user_id, s.department, s.created_at, s.updated_at,
		u.id AS "user.id", u.email AS "user.email", u.full_name AS "user.full_name", u.mobile AS "user.mobile", u.role AS "user.role", u.plan_status AS "user.plan_status", u.active AS "user.active", u.created_at AS "user.created_at", u.updated_at AS "user.updated_at"
		FROM admin_staff s JOIN users u ON u.id = s.user_id
		WHERE u.active = TRUE AND u.role IN ('admin', 'support_staff')`
	var args []interface{}
	if search != "" {
		query += " AND (LOWER(u.full_name) LIKE $1 OR LOWER(u.email) LIKE $1)"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY u.full_name ASC"

	var staff []models.AdminStaffWithUser
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}
