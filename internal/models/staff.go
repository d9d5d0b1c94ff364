package models

import "time"

// AdminStaff is the role profile shared by admin and support staff users.
type AdminStaff struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// AdminStaffWithUser joins a staff profile with its identity record.
type AdminStaffWithUser struct {
	AdminStaff
	User User `json:"user"`
}
