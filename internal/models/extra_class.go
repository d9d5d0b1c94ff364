package models

import "time"

// ClassBucket partitions an extra class relative to a point in time.
type ClassBucket string

const (
	BucketCurrent  ClassBucket = "current"
	BucketUpcoming ClassBucket = "upcoming"
	BucketPast     ClassBucket = "past"
)

// ExtraClass is an ad-hoc session scheduled outside the regular timetable.
// CreatedBy records the user who scheduled it; ownership checks compare the
// acting teacher against CreatedBy, never against TeacherID.
type ExtraClass struct {
	ID         string    `db:"id" json:"id"`
	ClassLabel string    `db:"class_label" json:"class_label"`
	Subject    string    `db:"subject" json:"subject"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	CreatedBy  string    `db:"created_by" json:"created_by"`
	Topic      *string   `db:"topic" json:"topic,omitempty"`
	StartsAt   time.Time `db:"starts_at" json:"starts_at"`
	EndsAt     time.Time `db:"ends_at" json:"ends_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Bucket classifies the class against now using closed-interval comparisons:
// start <= now <= end is current, start > now upcoming, end < now past. A
// session whose start and end both equal now is therefore current.
func (e ExtraClass) Bucket(now time.Time) ClassBucket {
	if e.EndsAt.Before(now) {
		return BucketPast
	}
	if e.StartsAt.After(now) {
		return BucketUpcoming
	}
	return BucketCurrent
}

// ExtraClassView is an ExtraClass annotated with its bucket at read time.
type ExtraClassView struct {
	ExtraClass
	Bucket      ClassBucket `db:"-" json:"bucket"`
	TeacherName string      `db:"teacher_name" json:"teacher_name,omitempty"`
}

// ExtraClassList groups views by bucket for list responses.
type ExtraClassList struct {
	Current  []ExtraClassView `json:"current"`
	Upcoming []ExtraClassView `json:"upcoming"`
	Past     []ExtraClassView `json:"past"`
}

// PartitionExtraClasses buckets every record against the given instant.
// Buckets are recomputed from the latest fetch on each call, never
// maintained incrementally.
func PartitionExtraClasses(records []ExtraClassView, now time.Time) ExtraClassList {
	var list ExtraClassList
	for _, rec := range records {
		rec.Bucket = rec.ExtraClass.Bucket(now)
		switch rec.Bucket {
		case BucketCurrent:
			list.Current = append(list.Current, rec)
		case BucketUpcoming:
			list.Upcoming = append(list.Upcoming, rec)
		default:
			list.Past = append(list.Past, rec)
		}
	}
	return list
}

// ExtraClassFilter captures list criteria.
type ExtraClassFilter struct {
	ClassLabel string
	Subject    string
	TeacherID  string
	From       *time.Time
	To         *time.Time
}

// CanModifyExtraClass reports whether the actor may edit or delete the
// record: admins and support staff always, a teacher only when they created
// it themselves.
func CanModifyExtraClass(actor *JWTClaims, record ExtraClass) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case RoleAdmin, RoleSupportStaff:
		return true
	case RoleTeacher:
		return actor.UserID == record.CreatedBy
	default:
		return false
	}
}

// CanMarkAttendance is restricted to admin and support staff.
func CanMarkAttendance(actor *JWTClaims) bool {
	if actor == nil {
		return false
	}
	return actor.Role == RoleAdmin || actor.Role == RoleSupportStaff
}
