package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/edusetu/tuition-admin-api/internal/models"
)

// ProfileRepository bundles the three role-profile repositories behind one
// creation surface for registration.
type ProfileRepository struct {
	students *StudentRepository
	teachers *TeacherRepository
	staff    *StaffRepository
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{
		students: NewStudentRepository(db),
		teachers: NewTeacherRepository(db),
		staff:    NewStaffRepository(db),
	}
}

// CreateStudent inserts a student profile.
func (r *ProfileRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	return r.students.Create(ctx, student)
}

// CreateTeacher inserts a teacher profile.
func (r *ProfileRepository) CreateTeacher(ctx context.Context, teacher *models.Teacher) error {
	return r.teachers.Create(ctx, teacher)
}

// CreateStaff inserts a staff profile.
func (r *ProfileRepository) CreateStaff(ctx context.Context, staff *models.AdminStaff) error {
	return r.staff.Create(ctx, staff)
}
