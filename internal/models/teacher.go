package models

import (
	"strings"
	"time"
)

// Teacher is the role profile for an instructor, back-referencing its User.
// Subject and ClassAssigned are both comma-separated lists
// ("Mathematics,Science", "Class 8,Class 9"); registration writes whatever
// set the wizard collected.
type Teacher struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Subject       string    `db:"subject" json:"subject"`
	ClassAssigned string    `db:"class_assigned" json:"class_assigned"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// AssignedClasses splits the comma-separated class list, dropping blanks.
func (t Teacher) AssignedClasses() []string {
	if strings.TrimSpace(t.ClassAssigned) == "" {
		return nil
	}
	parts := strings.Split(t.ClassAssigned, ",")
	classes := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			classes = append(classes, trimmed)
		}
	}
	return classes
}

// TeachesClass reports whether the label appears in the assigned list.
func (t Teacher) TeachesClass(label string) bool {
	for _, c := range t.AssignedClasses() {
		if c == label {
			return true
		}
	}
	return false
}

// Subjects splits the comma-separated subject list, dropping blanks.
func (t Teacher) Subjects() []string {
	if strings.TrimSpace(t.Subject) == "" {
		return nil
	}
	parts := strings.Split(t.Subject, ",")
	subjects := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			subjects = append(subjects, trimmed)
		}
	}
	return subjects
}

// TeachesSubject reports whether the subject appears in the subject list.
func (t Teacher) TeachesSubject(subject string) bool {
	for _, s := range t.Subjects() {
		if s == subject {
			return true
		}
	}
	return false
}

// TeacherWithUser joins a teacher profile with its identity record.
type TeacherWithUser struct {
	Teacher
	User User `json:"user"`
}
