package models

// EditableUser is a transient projection unifying a User with at most one
// role profile, assembled when an edit begins and discarded afterwards. The
// role tag determines which payload pointer is populated; exactly one is
// non-nil for student/teacher, staff covers both admin and support staff.
type EditableUser struct {
	UserID     string     `json:"user_id"`
	Role       UserRole   `json:"role"`
	PlanStatus PlanStatus `json:"plan_status"`

	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`

	Student *EditableStudent `json:"student,omitempty"`
	Teacher *EditableTeacher `json:"teacher,omitempty"`
	Staff   *EditableStaff   `json:"staff,omitempty"`
}

// EditableStudent holds the student-specific edit fields.
type EditableStudent struct {
	ClassLabel     string `json:"class_label"`
	Subjects       string `json:"subjects"`
	GuardianName   string `json:"guardian_name"`
	GuardianMobile string `json:"guardian_mobile"`
	FeeStructureID string `json:"fee_structure_id"`
	Address        string `json:"address"`
	DateOfBirth    string `json:"date_of_birth"`
}

// EditableTeacher holds the teacher-specific edit fields.
type EditableTeacher struct {
	Subject       string `json:"subject"`
	ClassAssigned string `json:"class_assigned"`
}

// EditableStaff holds the staff-specific edit fields.
type EditableStaff struct {
	Department string `json:"department"`
}

// FeeStructureEditable reports whether the actor may change the subject's
// fee structure: locked once the plan is permanent unless the actor is an
// admin.
func (e EditableUser) FeeStructureEditable(actor UserRole) bool {
	if e.PlanStatus != PlanPermanent {
		return true
	}
	return actor == RoleAdmin
}

// Derive implements the edit-form initialisation policy: the role profile's
// value wins, then the flattened user-level value, then empty string.
func Derive(profile string, fallback *string) string {
	if profile != "" {
		return profile
	}
	if fallback != nil {
		return *fallback
	}
	return ""
}
