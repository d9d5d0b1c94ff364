package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraClassBucket(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		starts time.Time
		ends   time.Time
		want   ClassBucket
	}{
		{"in progress", now.Add(-time.Hour), now.Add(time.Hour), BucketCurrent},
		{"starts now", now, now.Add(time.Hour), BucketCurrent},
		{"ends now", now.Add(-time.Hour), now, BucketCurrent},
		{"instantaneous at now", now, now, BucketCurrent},
		{"future", now.Add(time.Minute), now.Add(time.Hour), BucketUpcoming},
		{"finished", now.Add(-time.Hour), now.Add(-time.Minute), BucketPast},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ec := ExtraClass{StartsAt: tc.starts, EndsAt: tc.ends}
			assert.Equal(t, tc.want, ec.Bucket(now))
		})
	}
}

func TestPartitionExtraClasses(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	records := []ExtraClassView{
		{ExtraClass: ExtraClass{ID: "past", StartsAt: now.Add(-2 * time.Hour), EndsAt: now.Add(-time.Hour)}},
		{ExtraClass: ExtraClass{ID: "current", StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}},
		{ExtraClass: ExtraClass{ID: "upcoming", StartsAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour)}},
	}

	list := PartitionExtraClasses(records, now)
	require.Len(t, list.Current, 1)
	require.Len(t, list.Upcoming, 1)
	require.Len(t, list.Past, 1)
	assert.Equal(t, "current", list.Current[0].ID)
	assert.Equal(t, BucketCurrent, list.Current[0].Bucket)
	assert.Equal(t, "upcoming", list.Upcoming[0].ID)
	assert.Equal(t, "past", list.Past[0].ID)
}

func TestCanModifyExtraClass(t *testing.T) {
	record := ExtraClass{CreatedBy: "creator-1", TeacherID: "teacher-9"}

	assert.True(t, CanModifyExtraClass(&JWTClaims{UserID: "x", Role: RoleAdmin}, record))
	assert.True(t, CanModifyExtraClass(&JWTClaims{UserID: "x", Role: RoleSupportStaff}, record))
	assert.True(t, CanModifyExtraClass(&JWTClaims{UserID: "creator-1", Role: RoleTeacher}, record))
	// Being the assigned teacher is not enough; ownership follows created_by.
	assert.False(t, CanModifyExtraClass(&JWTClaims{UserID: "teacher-9", Role: RoleTeacher}, record))
	assert.False(t, CanModifyExtraClass(&JWTClaims{UserID: "creator-1", Role: RoleStudent}, record))
	assert.False(t, CanModifyExtraClass(nil, record))
}

func TestCanMarkAttendance(t *testing.T) {
	assert.True(t, CanMarkAttendance(&JWTClaims{Role: RoleAdmin}))
	assert.True(t, CanMarkAttendance(&JWTClaims{Role: RoleSupportStaff}))
	assert.False(t, CanMarkAttendance(&JWTClaims{Role: RoleTeacher}))
	assert.False(t, CanMarkAttendance(&JWTClaims{Role: RoleStudent}))
	assert.False(t, CanMarkAttendance(nil))
}

func TestTeacherAssignedClasses(t *testing.T) {
	teacher := Teacher{ClassAssigned: "Class 8,Class 9, Class 10"}
	assert.Equal(t, []string{"Class 8", "Class 9", "Class 10"}, teacher.AssignedClasses())
	assert.True(t, teacher.TeachesClass("Class 9"))
	assert.False(t, teacher.TeachesClass("Class 11"))

	assert.Nil(t, Teacher{}.AssignedClasses())
}

func TestTeacherSubjects(t *testing.T) {
	// Registration stores every subject the wizard collected, comma-joined
	// like the class list.
	teacher := Teacher{Subject: "Mathematics,Science"}
	assert.Equal(t, []string{"Mathematics", "Science"}, teacher.Subjects())
	assert.True(t, teacher.TeachesSubject("Mathematics"))
	assert.True(t, teacher.TeachesSubject("Science"))
	assert.False(t, teacher.TeachesSubject("Hindi"))

	single := Teacher{Subject: "Science"}
	assert.True(t, single.TeachesSubject("Science"))

	assert.Nil(t, Teacher{}.Subjects())
	assert.False(t, Teacher{}.TeachesSubject("Science"))
}
