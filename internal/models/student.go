package models

import "time"

// Student is the role profile for a learner, back-referencing its User.
type Student struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	ClassLabel     string     `db:"class_label" json:"class_label"`
	Subjects       string     `db:"subjects" json:"subjects"`
	GuardianName   string     `db:"guardian_name" json:"guardian_name"`
	GuardianMobile string     `db:"guardian_mobile" json:"guardian_mobile"`
	FeeStructureID *string    `db:"fee_structure_id" json:"fee_structure_id,omitempty"`
	Address        *string    `db:"address" json:"address,omitempty"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentWithUser joins a student profile with its identity record.
type StudentWithUser struct {
	Student
	User User `json:"user"`
}
