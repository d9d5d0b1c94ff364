package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() *RegistrationDraft {
	return &RegistrationDraft{
		Email:        "student@example.com",
		FullName:     "A Student",
		PasswordHash: "$2a$10$hash",
		Mobile:       "9876543210",
		Role:         RoleStudent,
	}
}

func TestValidateBasicInfoAccepted(t *testing.T) {
	require.NoError(t, validDraft().ValidateBasicInfo())
}

func TestValidateBasicInfoMissingFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegistrationDraft)
		expect string
	}{
		{"name", func(d *RegistrationDraft) { d.FullName = "  " }, "name"},
		{"email", func(d *RegistrationDraft) { d.Email = "" }, "email"},
		{"password", func(d *RegistrationDraft) { d.PasswordHash = "" }, "password"},
		{"mobile", func(d *RegistrationDraft) { d.Mobile = "" }, "mobile"},
		{"role", func(d *RegistrationDraft) { d.Role = "" }, "role"},
		{"admin role rejected", func(d *RegistrationDraft) { d.Role = RoleAdmin }, "role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(draft)
			err := draft.ValidateBasicInfo()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expect)
		})
	}
}

func TestValidateBasicInfoMobileFormat(t *testing.T) {
	for _, mobile := range []string{"12345", "123456789012", "98765asdfg", "98765 4321"} {
		draft := validDraft()
		draft.Mobile = mobile
		err := draft.ValidateBasicInfo()
		require.Error(t, err, mobile)
		assert.Contains(t, err.Error(), "10 digits")
	}
}

func TestValidateAdditionalInfoStudent(t *testing.T) {
	draft := validDraft()
	draft.ClassLabel = "Class 8"
	draft.Subjects = []string{"Mathematics"}
	draft.GuardianName = "Parent"
	draft.GuardianMobile = "9988776655"
	require.NoError(t, draft.ValidateAdditionalInfo())

	draft.GuardianMobile = ""
	err := draft.ValidateAdditionalInfo()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guardian mobile")
}

func TestValidateAdditionalInfoTeacherSkipsGuardianMobile(t *testing.T) {
	draft := validDraft()
	draft.Role = RoleTeacher
	draft.ClassLabel = "Class 9"
	draft.Subjects = []string{"Science"}
	draft.GuardianName = "Contact"
	require.NoError(t, draft.ValidateAdditionalInfo())

	draft.GuardianName = ""
	err := draft.ValidateAdditionalInfo()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guardian name")
	assert.NotContains(t, err.Error(), "guardian mobile")
}

func TestValidateAdditionalInfoSupportStaffNeedsNothing(t *testing.T) {
	draft := validDraft()
	draft.Role = RoleSupportStaff
	require.NoError(t, draft.ValidateAdditionalInfo())
}

func TestDraftAdvanceRequiresVerification(t *testing.T) {
	draft := validDraft()
	require.Equal(t, StepBasicInfo, draft.Step)
	require.NoError(t, draft.Advance())
	require.Equal(t, StepEmailVerify, draft.Step)

	err := draft.Advance()
	require.ErrorIs(t, err, ErrStepNotVerified)
	assert.Equal(t, StepEmailVerify, draft.Step)

	draft.EmailVerified = true
	require.NoError(t, draft.Advance())
	require.Equal(t, StepAdditionalDetails, draft.Step)
	require.NoError(t, draft.Advance())
	require.Equal(t, StepSubmitted, draft.Step)

	require.ErrorIs(t, draft.Advance(), ErrAlreadySubmitted)
}

func TestDraftBackPreservesVerification(t *testing.T) {
	draft := validDraft()
	draft.EmailVerified = true
	draft.Step = StepAdditionalDetails

	require.NoError(t, draft.Back())
	assert.Equal(t, StepEmailVerify, draft.Step)
	assert.True(t, draft.EmailVerified)

	require.NoError(t, draft.Back())
	assert.Equal(t, StepBasicInfo, draft.Step)
	require.ErrorIs(t, draft.Back(), ErrStepOutOfRange)
}

func TestDraftRollback(t *testing.T) {
	draft := validDraft()
	draft.EmailVerified = true
	draft.Step = StepAdditionalDetails

	draft.Rollback()
	assert.False(t, draft.EmailVerified)
	assert.Equal(t, StepEmailVerify, draft.Step)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "basic_info", StepBasicInfo.String())
	assert.Equal(t, "email_verify", StepEmailVerify.String())
	assert.Equal(t, "additional_details", StepAdditionalDetails.String())
	assert.Equal(t, "submitted", StepSubmitted.String())
	assert.Equal(t, "unknown", RegistrationStep(9).String())
}
