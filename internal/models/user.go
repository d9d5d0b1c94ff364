package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin        UserRole = "admin"
	RoleSupportStaff UserRole = "support_staff"
	RoleTeacher      UserRole = "teacher"
	RoleStudent      UserRole = "student"
)

// PlanStatus is the lifecycle marker on a user account.
type PlanStatus string

const (
	PlanDemo      PlanStatus = "demo"
	PlanPermanent PlanStatus = "permanent"
)

// User represents an account stored in the users table. The nullable
// class/subjects/guardian/department columns are flattened leftovers from
// the demo-signup era; role profiles hold the authoritative values and
// these act only as fallbacks when a profile field is empty.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Mobile       string     `db:"mobile" json:"mobile"`
	Role         UserRole   `db:"role" json:"role"`
	PlanStatus   PlanStatus `db:"plan_status" json:"plan_status"`
	Active       bool       `db:"active" json:"active"`

	ClassLabel   *string `db:"class_label" json:"class_label,omitempty"`
	Subjects     *string `db:"subjects" json:"subjects,omitempty"`
	GuardianName *string `db:"guardian_name" json:"guardian_name,omitempty"`
	Department   *string `db:"department" json:"department,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing user collections.
type UserFilter struct {
	Role       *UserRole
	PlanStatus *PlanStatus
	Active     *bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
