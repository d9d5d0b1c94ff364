package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RegistrationStep enumerates the wizard states. Transitions are guarded by
// Draft.Advance and Draft.Back so an illegal jump (e.g. submitting before
// verification) is rejected by the state machine itself.
type RegistrationStep int

const (
	StepBasicInfo RegistrationStep = iota
	StepEmailVerify
	StepAdditionalDetails
	StepSubmitted
)

// String names the step for logs and responses.
func (s RegistrationStep) String() string {
	switch s {
	case StepBasicInfo:
		return "basic_info"
	case StepEmailVerify:
		return "email_verify"
	case StepAdditionalDetails:
		return "additional_details"
	case StepSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Transition errors reported by the draft state machine.
var (
	ErrStepNotVerified  = errors.New("email must be verified before advancing")
	ErrStepOutOfRange   = errors.New("no further step in that direction")
	ErrAlreadySubmitted = errors.New("registration already submitted")
)

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// RegistrationDraft is the server-held wizard state, stored in Redis for the
// lifetime of the flow and destroyed on completion or TTL expiry. Only the
// password hash is ever stored.
type RegistrationDraft struct {
	Email         string           `json:"email"`
	FullName      string           `json:"full_name"`
	PasswordHash  string           `json:"password_hash"`
	Mobile        string           `json:"mobile"`
	Role          UserRole         `json:"role"`
	Step          RegistrationStep `json:"step"`
	EmailVerified bool             `json:"email_verified"`

	ClassLabel     string   `json:"class_label,omitempty"`
	Subjects       []string `json:"subjects,omitempty"`
	GuardianName   string   `json:"guardian_name,omitempty"`
	GuardianMobile string   `json:"guardian_mobile,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Advance moves the draft one step forward, enforcing the verification gate.
func (d *RegistrationDraft) Advance() error {
	switch d.Step {
	case StepBasicInfo:
		d.Step = StepEmailVerify
		return nil
	case StepEmailVerify:
		if !d.EmailVerified {
			return ErrStepNotVerified
		}
		d.Step = StepAdditionalDetails
		return nil
	case StepAdditionalDetails:
		if !d.EmailVerified {
			return ErrStepNotVerified
		}
		d.Step = StepSubmitted
		return nil
	default:
		return ErrAlreadySubmitted
	}
}

// Back moves one step backward from any non-initial step. Field values and
// the verification flag are preserved.
func (d *RegistrationDraft) Back() error {
	if d.Step == StepSubmitted {
		return ErrAlreadySubmitted
	}
	if d.Step <= StepBasicInfo {
		return ErrStepOutOfRange
	}
	d.Step--
	return nil
}

// Rollback forces the draft to the email-verification step and clears the
// verified flag. Used when the stored verification has expired by the time
// the final submission arrives.
func (d *RegistrationDraft) Rollback() {
	d.EmailVerified = false
	d.Step = StepEmailVerify
}

// ValidateBasicInfo checks the step-0 fields: everything required, mobile
// exactly 10 digits. The returned error enumerates the offending fields.
func (d *RegistrationDraft) ValidateBasicInfo() error {
	var missing []string
	if strings.TrimSpace(d.FullName) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(d.Email) == "" {
		missing = append(missing, "email")
	}
	if d.PasswordHash == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(d.Mobile) == "" {
		missing = append(missing, "mobile")
	}
	switch d.Role {
	case RoleStudent, RoleTeacher, RoleSupportStaff:
	default:
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !mobilePattern.MatchString(d.Mobile) {
		return errors.New("mobile must be exactly 10 digits")
	}
	return nil
}

// ValidateAdditionalInfo checks the role-dependent step-2 fields: class,
// subjects and guardian name for students and teachers, guardian mobile for
// students only, nothing for support staff.
func (d *RegistrationDraft) ValidateAdditionalInfo() error {
	if d.Role != RoleStudent && d.Role != RoleTeacher {
		return nil
	}
	var missing []string
	if strings.TrimSpace(d.ClassLabel) == "" {
		missing = append(missing, "class")
	}
	if len(d.Subjects) == 0 {
		missing = append(missing, "subjects")
	}
	if strings.TrimSpace(d.GuardianName) == "" {
		missing = append(missing, "guardian name")
	}
	if d.Role == RoleStudent && strings.TrimSpace(d.GuardianMobile) == "" {
		missing = append(missing, "guardian mobile")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidMobile reports whether raw is exactly 10 digits.
func ValidMobile(raw string) bool {
	return mobilePattern.MatchString(raw)
}
