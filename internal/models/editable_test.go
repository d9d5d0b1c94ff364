package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivePrefersProfileValue(t *testing.T) {
	fallback := "Class 7"
	assert.Equal(t, "Class 9", Derive("Class 9", &fallback))
	assert.Equal(t, "Class 7", Derive("", &fallback))
	assert.Equal(t, "", Derive("", nil))
}

func TestFeeStructureEditable(t *testing.T) {
	cases := []struct {
		plan  PlanStatus
		actor UserRole
		want  bool
	}{
		{PlanDemo, RoleAdmin, true},
		{PlanDemo, RoleSupportStaff, true},
		{PlanDemo, RoleTeacher, true},
		{PlanPermanent, RoleAdmin, true},
		{PlanPermanent, RoleSupportStaff, false},
		{PlanPermanent, RoleTeacher, false},
		{PlanPermanent, RoleStudent, false},
	}
	for _, tc := range cases {
		e := EditableUser{PlanStatus: tc.plan}
		assert.Equal(t, tc.want, e.FeeStructureEditable(tc.actor), "%s/%s", tc.plan, tc.actor)
	}
}
