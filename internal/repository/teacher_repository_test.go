package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/edusetu/tuition-admin-api/internal/models"
)

func newTeacherRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func teacherJoinedRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "subject", "class_assigned", "created_at", "updated_at",
		"user.id", "user.email", "user.full_name", "user.mobile", "user.role", "user.plan_status", "user.active", "user.created_at", "user.updated_at",
	}).AddRow(
		"t-1", "u-9", "Science", "Class 8,Class 9", now, now,
		"u-9", "prof@example.com", "Science Prof", "9876543210", "teacher", "permanent", true, now, now,
	)
}

func TestTeacherRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, subject, class_assigned, created_at, updated_at FROM teachers WHERE user_id = $1")).
		WithArgs("u-9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "subject", "class_assigned", "created_at", "updated_at"}).
			AddRow("t-1", "u-9", "Science", "Class 8,Class 9", now, now))

	teacher, err := repo.FindByUserID(context.Background(), "u-9")
	require.NoError(t, err)
	require.Equal(t, "Science", teacher.Subject)
	require.Equal(t, []string{"Class 8", "Class 9"}, teacher.AssignedClasses())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByUserIDMissing(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	mock.ExpectQuery("SELECT .* FROM teachers WHERE user_id").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUserID(context.Background(), "ghost")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindEligible(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	// Both stored lists are split on the bare comma, so subject and label
	// are matched exactly as written at profile save time.
	mock.ExpectQuery(regexp.QuoteMeta(`$1 = ANY(string_to_array(t.subject, ','))`)).
		WithArgs("Science", "Class 9").
		WillReturnRows(teacherJoinedRows())

	teachers, err := repo.FindEligible(context.Background(), "Class 9", "Science")
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	require.Equal(t, "Science Prof", teachers[0].User.FullName)
	require.Equal(t, "u-9", teachers[0].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListWithUsers(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("u.plan_status = 'permanent'")).
		WillReturnRows(teacherJoinedRows())

	teachers, err := repo.ListWithUsers(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	require.Equal(t, models.RoleTeacher, teachers[0].User.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListWithUsersSearch(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("LOWER(u.full_name) LIKE $1")).
		WithArgs("%prof%").
		WillReturnRows(teacherJoinedRows())

	teachers, err := repo.ListWithUsers(context.Background(), "Prof")
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teachers")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := &models.Teacher{UserID: "u-9", Subject: "Science", ClassAssigned: "Class 8,Class 9"}
	require.NoError(t, repo.Create(context.Background(), teacher))
	require.NotEmpty(t, teacher.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
