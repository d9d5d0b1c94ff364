package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusetu/tuition-admin-api/internal/models"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
)

type usersAccountMock struct {
	users       map[string]*models.User
	baseUpdates int
	planSets    []models.PlanStatus
	deactivated []string
	reactivated []string
	auditLogs   []*models.AuditLog
}

func newUsersAccountMock(users ...*models.User) *usersAccountMock {
	m := &usersAccountMock{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *usersAccountMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *usersAccountMock) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *usersAccountMock) UpdateBase(ctx context.Context, id, fullName, email, mobile string) error {
	m.baseUpdates++
	return nil
}

func (m *usersAccountMock) SetPlanStatus(ctx context.Context, id string, status models.PlanStatus) error {
	m.planSets = append(m.planSets, status)
	return nil
}

func (m *usersAccountMock) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *usersAccountMock) Reactivate(ctx context.Context, id string) error {
	m.reactivated = append(m.reactivated, id)
	return nil
}

func (m *usersAccountMock) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	return nil, 0, nil
}

func (m *usersAccountMock) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type studentsMock struct {
	profile *models.Student
	created []*models.Student
	updated []*models.Student
}

func (m *studentsMock) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if m.profile == nil {
		return nil, sql.ErrNoRows
	}
	copied := *m.profile
	return &copied, nil
}

func (m *studentsMock) Create(ctx context.Context, s *models.Student) error {
	m.created = append(m.created, s)
	return nil
}

func (m *studentsMock) Update(ctx context.Context, s *models.Student) error {
	m.updated = append(m.updated, s)
	return nil
}

func (m *studentsMock) ListWithUsers(ctx context.Context, search string) ([]models.StudentWithUser, error) {
	return nil, nil
}

type teachersServiceMock struct {
	profile *models.Teacher
	created []*models.Teacher
	updated []*models.Teacher
}

func (m *teachersServiceMock) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	if m.profile == nil {
		return nil, sql.ErrNoRows
	}
	copied := *m.profile
	return &copied, nil
}

func (m *teachersServiceMock) Create(ctx context.Context, t *models.Teacher) error {
	m.created = append(m.created, t)
	return nil
}

func (m *teachersServiceMock) Update(ctx context.Context, t *models.Teacher) error {
	m.updated = append(m.updated, t)
	return nil
}

func (m *teachersServiceMock) ListWithUsers(ctx context.Context, search string) ([]models.TeacherWithUser, error) {
	return nil, nil
}

type staffServiceMock struct {
	profile *models.AdminStaff
	created []*models.AdminStaff
	updated []*models.AdminStaff
}

func (m *staffServiceMock) FindByUserID(ctx context.Context, userID string) (*models.AdminStaff, error) {
	if m.profile == nil {
		return nil, sql.ErrNoRows
	}
	copied := *m.profile
	return &copied, nil
}

func (m *staffServiceMock) Create(ctx context.Context, s *models.AdminStaff) error {
	m.created = append(m.created, s)
	return nil
}

func (m *staffServiceMock) Update(ctx context.Context, s *models.AdminStaff) error {
	m.updated = append(m.updated, s)
	return nil
}

func (m *staffServiceMock) ListWithUsers(ctx context.Context, search string) ([]models.AdminStaffWithUser, error) {
	return nil, nil
}

type feesMock struct {
	structures map[string]*models.FeeStructure
}

func (m *feesMock) FindByID(ctx context.Context, id string) (*models.FeeStructure, error) {
	f, ok := m.structures[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return f, nil
}

func strPtr(s string) *string { return &s }

func studentUser() *models.User {
	return &models.User{
		ID:         "u1",
		Email:      "kid@example.com",
		FullName:   "Kid",
		Mobile:     "9876543210",
		Role:       models.RoleStudent,
		PlanStatus: models.PlanPermanent,
		Active:     true,
		ClassLabel: strPtr("Class 6"),
	}
}

func newUserFixture(user *models.User, students *studentsMock, teachers *teachersServiceMock, staff *staffServiceMock, fees *feesMock) (*UserService, *usersAccountMock) {
	if students == nil {
		students = &studentsMock{}
	}
	if teachers == nil {
		teachers = &teachersServiceMock{}
	}
	if staff == nil {
		staff = &staffServiceMock{}
	}
	if fees == nil {
		fees = &feesMock{structures: map[string]*models.FeeStructure{}}
	}
	users := newUsersAccountMock(user)
	return NewUserService(users, students, teachers, staff, fees, nil, nil, nil), users
}

func TestBuildEditableDerivesFromFlattenedUser(t *testing.T) {
	// No profile row; the flattened user value fills the class field.
	svc, _ := newUserFixture(studentUser(), &studentsMock{}, nil, nil, nil)

	editable, err := svc.BuildEditable(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, editable.Student)
	assert.Equal(t, "Class 6", editable.Student.ClassLabel)
	assert.Nil(t, editable.Teacher)
	assert.Nil(t, editable.Staff)
}

func TestBuildEditableProfileWins(t *testing.T) {
	students := &studentsMock{profile: &models.Student{
		ID: "s1", UserID: "u1", ClassLabel: "Class 9", Subjects: "Mathematics",
		GuardianName: "Parent", GuardianMobile: "9988776655",
	}}
	svc, _ := newUserFixture(studentUser(), students, nil, nil, nil)

	editable, err := svc.BuildEditable(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Class 9", editable.Student.ClassLabel)
	assert.Equal(t, "9988776655", editable.Student.GuardianMobile)
}

func TestBuildEditableUnknownUser(t *testing.T) {
	svc, _ := newUserFixture(studentUser(), nil, nil, nil, nil)
	_, err := svc.BuildEditable(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func validStudentUpdate() UpdateProfileRequest {
	return UpdateProfileRequest{
		Name:   "Kid Renamed",
		Email:  "kid@example.com",
		Mobile: "9876543210",
		Student: &StudentProfileRequest{
			ClassLabel:     "Class 7",
			Subjects:       []string{"Mathematics", "Science"},
			GuardianName:   "Parent",
			GuardianMobile: "9988776655",
		},
	}
}

func TestUpdateProfileFeeGateDropsSilently(t *testing.T) {
	students := &studentsMock{profile: &models.Student{
		ID: "s1", UserID: "u1", ClassLabel: "Class 6", Subjects: "Science",
		GuardianName: "Parent", GuardianMobile: "9988776655",
		FeeStructureID: strPtr("fee-old"),
	}}
	svc, users := newUserFixture(studentUser(), students, nil, nil, nil)

	req := validStudentUpdate()
	req.Student.FeeStructureID = "fee-new"

	// Permanent plan, non-admin actor: the fee change is ignored, the rest
	// of the update goes through.
	_, err := svc.UpdateProfile(context.Background(), &models.JWTClaims{UserID: "staff", Role: models.RoleSupportStaff}, "u1", req)
	require.NoError(t, err)
	require.Len(t, students.updated, 1)
	require.NotNil(t, students.updated[0].FeeStructureID)
	assert.Equal(t, "fee-old", *students.updated[0].FeeStructureID)
	assert.Equal(t, 1, users.baseUpdates)
}

func TestUpdateProfileFeeChangeAllowedForAdmin(t *testing.T) {
	students := &studentsMock{profile: &models.Student{
		ID: "s1", UserID: "u1", ClassLabel: "Class 6", Subjects: "Science",
		GuardianName: "Parent", GuardianMobile: "9988776655",
		FeeStructureID: strPtr("fee-old"),
	}}
	fees := &feesMock{structures: map[string]*models.FeeStructure{
		"fee-new": {ID: "fee-new", Name: "Monthly", Amount: 1200},
	}}
	svc, _ := newUserFixture(studentUser(), students, nil, nil, fees)

	req := validStudentUpdate()
	req.Student.FeeStructureID = "fee-new"

	_, err := svc.UpdateProfile(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "u1", req)
	require.NoError(t, err)
	require.Len(t, students.updated, 1)
	assert.Equal(t, "fee-new", *students.updated[0].FeeStructureID)
}

func TestUpdateProfileUnknownFeeRejected(t *testing.T) {
	students := &studentsMock{profile: &models.Student{
		ID: "s1", UserID: "u1", ClassLabel: "Class 6", Subjects: "Science",
		GuardianName: "Parent", GuardianMobile: "9988776655",
	}}
	svc, users := newUserFixture(studentUser(), students, nil, nil, nil)

	req := validStudentUpdate()
	req.Student.FeeStructureID = "no-such-fee"

	_, err := svc.UpdateProfile(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "u1", req)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, users.baseUpdates, "rejected submission must not write anything")
	assert.Empty(t, students.updated)
}

func TestUpdateProfileRejectsSubjectOutsideClass(t *testing.T) {
	svc, users := newUserFixture(studentUser(), &studentsMock{}, nil, nil, nil)

	req := validStudentUpdate()
	req.Student.Subjects = []string{"Physics"} // stream subject, Class 7

	_, err := svc.UpdateProfile(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "u1", req)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, users.baseUpdates)
}

func TestUpdateProfileTeacherValidatedBeforeWrite(t *testing.T) {
	teacher := &models.User{
		ID: "t1", Email: "prof@example.com", FullName: "Prof", Mobile: "9876543210",
		Role: models.RoleTeacher, PlanStatus: models.PlanPermanent, Active: true,
	}
	teachers := &teachersServiceMock{}
	svc, users := newUserFixture(teacher, nil, teachers, nil, nil)

	req := UpdateProfileRequest{
		Name:   "Prof",
		Email:  "prof@example.com",
		Mobile: "9876543210",
		Teacher: &TeacherProfileRequest{
			Subject:       "Hindi",
			ClassAssigned: []string{"Class 11", "Class 12"}, // Hindi not offered
		},
	}
	_, err := svc.UpdateProfile(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "t1", req)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, users.baseUpdates)
	assert.Empty(t, teachers.created)

	req.Teacher.Subject = "Physics"
	_, err = svc.UpdateProfile(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "t1", req)
	require.NoError(t, err)
	require.Len(t, teachers.created, 1)
	assert.Equal(t, "Class 11,Class 12", teachers.created[0].ClassAssigned)
}

func TestUpdateProfileRequiresMatchingPayload(t *testing.T) {
	svc, _ := newUserFixture(studentUser(), nil, nil, nil, nil)

	req := UpdateProfileRequest{
		Name:    "Kid",
		Email:   "kid@example.com",
		Mobile:  "9876543210",
		Teacher: &TeacherProfileRequest{Subject: "Science", ClassAssigned: []string{"Class 7"}},
	}
	_, err := svc.UpdateProfile(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "u1", req)
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDeactivateRules(t *testing.T) {
	svc, users := newUserFixture(studentUser(), nil, nil, nil, nil)

	err := svc.Deactivate(context.Background(), &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, "u1")
	require.ErrorIs(t, err, appErrors.ErrForbidden, "self-deactivation is refused")

	err = svc.Deactivate(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users.deactivated)
	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserDeactivate, users.auditLogs[0].Action)
}

func TestDeactivateAlreadyInactive(t *testing.T) {
	inactive := studentUser()
	inactive.Active = false
	svc, _ := newUserFixture(inactive, nil, nil, nil, nil)

	err := svc.Deactivate(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "u1")
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestReactivate(t *testing.T) {
	inactive := studentUser()
	inactive.Active = false
	svc, users := newUserFixture(inactive, nil, nil, nil, nil)

	err := svc.Reactivate(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users.reactivated)
}

func TestUpgradeDemoOnly(t *testing.T) {
	demo := studentUser()
	demo.PlanStatus = models.PlanDemo
	students := &studentsMock{}
	svc, users := newUserFixture(demo, students, nil, nil, nil)

	err := svc.Upgrade(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.PlanStatus{models.PlanPermanent}, users.planSets)
	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserUpgrade, users.auditLogs[0].Action)

	// A demo signup without a profile row gets one seeded from the
	// flattened columns.
	require.Len(t, students.created, 1)
	assert.Equal(t, "Class 6", students.created[0].ClassLabel)
}

func TestUpgradePermanentRejected(t *testing.T) {
	svc, users := newUserFixture(studentUser(), nil, nil, nil, nil)

	err := svc.Upgrade(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "u1")
	require.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, users.planSets)
}
