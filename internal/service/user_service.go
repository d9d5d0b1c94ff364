package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusetu/tuition-admin-api/internal/models"
	"github.com/edusetu/tuition-admin-api/internal/repository"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
)

type userAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateBase(ctx context.Context, id, fullName, email, mobile string) error
	SetPlanStatus(ctx context.Context, id string, status models.PlanStatus) error
	Deactivate(ctx context.Context, id string) error
	Reactivate(ctx context.Context, id string) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type studentProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	ListWithUsers(ctx context.Context, search string) ([]models.StudentWithUser, error)
}

type teacherProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	ListWithUsers(ctx context.Context, search string) ([]models.TeacherWithUser, error)
}

type staffProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.AdminStaff, error)
	Create(ctx context.Context, staff *models.AdminStaff) error
	Update(ctx context.Context, staff *models.AdminStaff) error
	ListWithUsers(ctx context.Context, search string) ([]models.AdminStaffWithUser, error)
}

type feeStructureReader interface {
	FindByID(ctx context.Context, id string) (*models.FeeStructure, error)
}

// collectionPageSize caps the flat console collections; the admin console
// renders them unpaginated.
const collectionPageSize = 100

// UserService implements the user management console: the five listing
// collections, role-conditional profile editing and account lifecycle.
type UserService struct {
	users     userAccountRepository
	students  studentProfileRepository
	teachers  teacherProfileRepository
	staff     staffProfileRepository
	fees      feeStructureReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(
	users userAccountRepository,
	students studentProfileRepository,
	teachers teacherProfileRepository,
	staff staffProfileRepository,
	fees feeStructureReader,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:     users,
		students:  students,
		teachers:  teachers,
		staff:     staff,
		fees:      fees,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// ListDemoUsers returns active accounts still on the demo plan, any role.
// The boolean reports whether the collection was served from cache.
func (s *UserService) ListDemoUsers(ctx context.Context, search string) ([]models.User, bool, error) {
	if search == "" && s.cache.Enabled() {
		var cached []models.User
		if hit, _ := s.cache.Get(ctx, repository.CacheKeyDemoUsers, &cached); hit {
			return cached, true, nil
		}
	}

	demo := models.PlanDemo
	active := true
	users, _, err := s.users.List(ctx, models.UserFilter{
		PlanStatus: &demo,
		Active:     &active,
		Search:     search,
		Page:       1,
		PageSize:   collectionPageSize,
		SortBy:     "full_name",
		SortOrder:  "ASC",
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list demo users")
	}

	if search == "" {
		s.cacheSet(ctx, repository.CacheKeyDemoUsers, users)
	}
	return users, false, nil
}

// ListStudents returns permanent, active students with their identities.
func (s *UserService) ListStudents(ctx context.Context, search string) ([]models.StudentWithUser, bool, error) {
	if search == "" && s.cache.Enabled() {
		var cached []models.StudentWithUser
		if hit, _ := s.cache.Get(ctx, repository.CacheKeyStudents, &cached); hit {
			return cached, true, nil
		}
	}

	students, err := s.students.ListWithUsers(ctx, search)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	if search == "" {
		s.cacheSet(ctx, repository.CacheKeyStudents, students)
	}
	return students, false, nil
}

// ListTeachers returns permanent, active teachers with their identities.
func (s *UserService) ListTeachers(ctx context.Context, search string) ([]models.TeacherWithUser, bool, error) {
	if search == "" && s.cache.Enabled() {
		var cached []models.TeacherWithUser
		if hit, _ := s.cache.Get(ctx, repository.CacheKeyTeachers, &cached); hit {
			return cached, true, nil
		}
	}

	teachers, err := s.teachers.ListWithUsers(ctx, search)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	if search == "" {
		s.cacheSet(ctx, repository.CacheKeyTeachers, teachers)
	}
	return teachers, false, nil
}

// ListAdminStaff returns active admin and support staff with their identities.
func (s *UserService) ListAdminStaff(ctx context.Context, search string) ([]models.AdminStaffWithUser, bool, error) {
	if search == "" && s.cache.Enabled() {
		var cached []models.AdminStaffWithUser
		if hit, _ := s.cache.Get(ctx, repository.CacheKeyAdminStaff, &cached); hit {
			return cached, true, nil
		}
	}

	staff, err := s.staff.ListWithUsers(ctx, search)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admin staff")
	}

	if search == "" {
		s.cacheSet(ctx, repository.CacheKeyAdminStaff, staff)
	}
	return staff, false, nil
}

// ListInactiveUsers returns deactivated accounts of any role.
func (s *UserService) ListInactiveUsers(ctx context.Context, search string) ([]models.User, bool, error) {
	if search == "" && s.cache.Enabled() {
		var cached []models.User
		if hit, _ := s.cache.Get(ctx, repository.CacheKeyInactiveUsers, &cached); hit {
			return cached, true, nil
		}
	}

	inactive := false
	users, _, err := s.users.List(ctx, models.UserFilter{
		Active:    &inactive,
		Search:    search,
		Page:      1,
		PageSize:  collectionPageSize,
		SortBy:    "full_name",
		SortOrder: "ASC",
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inactive users")
	}

	if search == "" {
		s.cacheSet(ctx, repository.CacheKeyInactiveUsers, users)
	}
	return users, false, nil
}

// BuildEditable assembles the edit projection for a user: identity fields
// plus the role-matching profile, with profile values falling back to the
// flattened user columns.
func (s *UserService) BuildEditable(ctx context.Context, userID string) (*models.EditableUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	editable := &models.EditableUser{
		UserID:     user.ID,
		Role:       user.Role,
		PlanStatus: user.PlanStatus,
		Name:       user.FullName,
		Email:      user.Email,
		Mobile:     user.Mobile,
	}

	switch user.Role {
	case models.RoleStudent:
		profile, err := s.students.FindByUserID(ctx, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student profile")
		}
		if profile == nil {
			profile = &models.Student{}
		}
		student := &models.EditableStudent{
			ClassLabel:     models.Derive(profile.ClassLabel, user.ClassLabel),
			Subjects:       models.Derive(profile.Subjects, user.Subjects),
			GuardianName:   models.Derive(profile.GuardianName, user.GuardianName),
			GuardianMobile: profile.GuardianMobile,
		}
		if profile.FeeStructureID != nil {
			student.FeeStructureID = *profile.FeeStructureID
		}
		if profile.Address != nil {
			student.Address = *profile.Address
		}
		if profile.DateOfBirth != nil {
			student.DateOfBirth = profile.DateOfBirth.Format("2006-01-02")
		}
		editable.Student = student

	case models.RoleTeacher:
		profile, err := s.teachers.FindByUserID(ctx, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher profile")
		}
		if profile == nil {
			profile = &models.Teacher{}
		}
		editable.Teacher = &models.EditableTeacher{
			Subject:       models.Derive(profile.Subject, user.Subjects),
			ClassAssigned: models.Derive(profile.ClassAssigned, user.ClassLabel),
		}

	case models.RoleAdmin, models.RoleSupportStaff:
		profile, err := s.staff.FindByUserID(ctx, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch staff profile")
		}
		if profile == nil {
			profile = &models.AdminStaff{}
		}
		editable.Staff = &models.EditableStaff{
			Department: models.Derive(profile.Department, user.Department),
		}
	}

	return editable, nil
}

// StudentProfileRequest carries the student-specific edit fields.
type StudentProfileRequest struct {
	ClassLabel     string   `json:"class_label" validate:"required"`
	Subjects       []string `json:"subjects" validate:"required,min=1"`
	GuardianName   string   `json:"guardian_name" validate:"required"`
	GuardianMobile string   `json:"guardian_mobile" validate:"required"`
	FeeStructureID string   `json:"fee_structure_id"`
	Address        string   `json:"address"`
	DateOfBirth    string   `json:"date_of_birth"`
}

// TeacherProfileRequest carries the teacher-specific edit fields.
type TeacherProfileRequest struct {
	Subject       string   `json:"subject" validate:"required"`
	ClassAssigned []string `json:"class_assigned" validate:"required,min=1"`
}

// StaffProfileRequest carries the staff-specific edit fields.
type StaffProfileRequest struct {
	Department string `json:"department"`
}

// UpdateProfileRequest is the full edit submission: common identity fields
// plus exactly one role payload matching the target user's role.
type UpdateProfileRequest struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Mobile string `json:"mobile" validate:"required"`

	Student *StudentProfileRequest `json:"student,omitempty"`
	Teacher *TeacherProfileRequest `json:"teacher,omitempty"`
	Staff   *StaffProfileRequest   `json:"staff,omitempty"`
}

// UpdateProfile applies an edit submission. All role-specific validation
// runs before the first write so a rejected submission leaves both the
// account and the profile untouched.
func (s *UserService) UpdateProfile(ctx context.Context, actor *models.JWTClaims, userID string, req UpdateProfileRequest) (*models.EditableUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	if !models.ValidMobile(req.Mobile) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mobile must be a 10-digit number")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !strings.EqualFold(req.Email, user.Email) {
		exists, err := s.users.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already in use")
		}
	}

	// Phase one of the two-phase submission: validate everything the role
	// payload will touch before any write happens.
	var apply func(context.Context) error
	switch user.Role {
	case models.RoleStudent:
		apply, err = s.prepareStudentUpdate(ctx, actor, user, req.Student)
	case models.RoleTeacher:
		apply, err = s.prepareTeacherUpdate(ctx, user, req.Teacher)
	case models.RoleAdmin, models.RoleSupportStaff:
		apply, err = s.prepareStaffUpdate(ctx, user, req.Staff)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported role %q", user.Role))
	}
	if err != nil {
		return nil, err
	}

	// Phase two: persist identity fields, then the role profile.
	if err := s.users.UpdateBase(ctx, user.ID, req.Name, req.Email, req.Mobile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	if err := apply(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	s.audit(ctx, actor, models.AuditActionUserUpdate, user.ID)
	s.invalidateCollections(ctx, user)

	return s.BuildEditable(ctx, user.ID)
}

func (s *UserService) prepareStudentUpdate(ctx context.Context, actor *models.JWTClaims, user *models.User, req *StudentProfileRequest) (func(context.Context) error, error) {
	if req == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student profile payload is required")
	}
	if _, ok := models.ParseClassLabel(req.ClassLabel); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid class label %q", req.ClassLabel))
	}
	for _, subject := range req.Subjects {
		if !models.ValidSubjectForClass(req.ClassLabel, subject) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %q is not offered for %s", subject, req.ClassLabel))
		}
	}
	if !models.ValidMobile(req.GuardianMobile) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "guardian mobile must be a 10-digit number")
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date of birth must use the YYYY-MM-DD format")
		}
		dob = &parsed
	}

	existing, err := s.students.FindByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student profile")
	}

	// The fee field is dropped silently, not rejected, when the gate is
	// closed: permanent plan and a non-admin actor.
	currentFee := ""
	if existing != nil && existing.FeeStructureID != nil {
		currentFee = *existing.FeeStructureID
	}
	requestedFee := req.FeeStructureID
	gate := models.EditableUser{PlanStatus: user.PlanStatus}
	if requestedFee != currentFee && !gate.FeeStructureEditable(actor.Role) {
		requestedFee = currentFee
	}
	if requestedFee != currentFee && requestedFee != "" {
		if _, err := s.fees.FindByID(ctx, requestedFee); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown fee structure")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch fee structure")
		}
	}

	var feeID *string
	if requestedFee != "" {
		feeID = &requestedFee
	}
	var address *string
	if req.Address != "" {
		address = &req.Address
	}

	return func(ctx context.Context) error {
		if existing == nil {
			return s.students.Create(ctx, &models.Student{
				UserID:         user.ID,
				ClassLabel:     req.ClassLabel,
				Subjects:       strings.Join(req.Subjects, ","),
				GuardianName:   req.GuardianName,
				GuardianMobile: req.GuardianMobile,
				FeeStructureID: feeID,
				Address:        address,
				DateOfBirth:    dob,
			})
		}
		existing.ClassLabel = req.ClassLabel
		existing.Subjects = strings.Join(req.Subjects, ",")
		existing.GuardianName = req.GuardianName
		existing.GuardianMobile = req.GuardianMobile
		existing.FeeStructureID = feeID
		existing.Address = address
		existing.DateOfBirth = dob
		return s.students.Update(ctx, existing)
	}, nil
}

func (s *UserService) prepareTeacherUpdate(ctx context.Context, user *models.User, req *TeacherProfileRequest) (func(context.Context) error, error) {
	if req == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher profile payload is required")
	}
	subjectOffered := false
	for _, label := range req.ClassAssigned {
		if _, ok := models.ParseClassLabel(label); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid class label %q", label))
		}
		if models.ValidSubjectForClass(label, req.Subject) {
			subjectOffered = true
		}
	}
	if !subjectOffered {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %q is not offered for any assigned class", req.Subject))
	}

	existing, err := s.teachers.FindByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher profile")
	}

	// class_assigned is stored comma-joined without spaces; eligibility
	// lookups split on the bare comma.
	assigned := make([]string, 0, len(req.ClassAssigned))
	for _, label := range req.ClassAssigned {
		assigned = append(assigned, strings.TrimSpace(label))
	}
	classAssigned := strings.Join(assigned, ",")

	return func(ctx context.Context) error {
		if existing == nil {
			return s.teachers.Create(ctx, &models.Teacher{
				UserID:        user.ID,
				Subject:       req.Subject,
				ClassAssigned: classAssigned,
			})
		}
		existing.Subject = req.Subject
		existing.ClassAssigned = classAssigned
		return s.teachers.Update(ctx, existing)
	}, nil
}

func (s *UserService) prepareStaffUpdate(ctx context.Context, user *models.User, req *StaffProfileRequest) (func(context.Context) error, error) {
	if req == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staff profile payload is required")
	}

	existing, err := s.staff.FindByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch staff profile")
	}

	return func(ctx context.Context) error {
		if existing == nil {
			return s.staff.Create(ctx, &models.AdminStaff{
				UserID:     user.ID,
				Department: req.Department,
			})
		}
		existing.Department = req.Department
		return s.staff.Update(ctx, existing)
	}, nil
}

// Deactivate moves an active account to the inactive collection.
func (s *UserService) Deactivate(ctx context.Context, actor *models.JWTClaims, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if !user.Active {
		return appErrors.Clone(appErrors.ErrConflict, "user is already inactive")
	}
	if actor != nil && actor.UserID == user.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "you cannot deactivate your own account")
	}

	if err := s.users.Deactivate(ctx, user.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}

	s.audit(ctx, actor, models.AuditActionUserDeactivate, user.ID)
	s.invalidateCollections(ctx, user)
	s.cacheInvalidate(ctx, repository.CacheKeyInactiveUsers)
	return nil
}

// Reactivate restores an inactive account to its previous collection.
func (s *UserService) Reactivate(ctx context.Context, actor *models.JWTClaims, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.Active {
		return appErrors.Clone(appErrors.ErrConflict, "user is already active")
	}

	if err := s.users.Reactivate(ctx, user.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate user")
	}

	s.audit(ctx, actor, models.AuditActionUserReactivate, user.ID)
	s.invalidateCollections(ctx, user)
	s.cacheInvalidate(ctx, repository.CacheKeyInactiveUsers)
	return nil
}

// Upgrade promotes a demo account to the permanent plan.
func (s *UserService) Upgrade(ctx context.Context, actor *models.JWTClaims, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.PlanStatus != models.PlanDemo {
		return appErrors.Clone(appErrors.ErrConflict, "user is not on a demo plan")
	}

	if err := s.users.SetPlanStatus(ctx, user.ID, models.PlanPermanent); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upgrade user")
	}
	if err := s.ensureRoleProfile(ctx, user); err != nil {
		s.logger.Warn("failed to materialise role profile on upgrade", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.audit(ctx, actor, models.AuditActionUserUpgrade, user.ID)
	s.cacheInvalidate(ctx, repository.CacheKeyDemoUsers)
	s.cacheInvalidate(ctx, s.roleCollectionKey(user.Role))
	return nil
}

// ensureRoleProfile seeds the role profile from the flattened demo-signup
// columns when the upgraded account never got one.
func (s *UserService) ensureRoleProfile(ctx context.Context, user *models.User) error {
	switch user.Role {
	case models.RoleStudent:
		if _, err := s.students.FindByUserID(ctx, user.ID); !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return s.students.Create(ctx, &models.Student{
			UserID:       user.ID,
			ClassLabel:   models.Derive("", user.ClassLabel),
			Subjects:     models.Derive("", user.Subjects),
			GuardianName: models.Derive("", user.GuardianName),
		})
	case models.RoleTeacher:
		if _, err := s.teachers.FindByUserID(ctx, user.ID); !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return s.teachers.Create(ctx, &models.Teacher{
			UserID:        user.ID,
			Subject:       models.Derive("", user.Subjects),
			ClassAssigned: models.Derive("", user.ClassLabel),
		})
	case models.RoleAdmin, models.RoleSupportStaff:
		if _, err := s.staff.FindByUserID(ctx, user.ID); !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return s.staff.Create(ctx, &models.AdminStaff{
			UserID:     user.ID,
			Department: models.Derive("", user.Department),
		})
	}
	return nil
}

func (s *UserService) audit(ctx context.Context, actor *models.JWTClaims, action, resourceID string) {
	log := &models.AuditLog{
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
	}
	if actor != nil {
		log.UserID = &actor.UserID
	}
	if err := s.users.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

// invalidateCollections drops the cached collections the user can appear in:
// the role collection, plus the demo collection while the plan is demo.
func (s *UserService) invalidateCollections(ctx context.Context, user *models.User) {
	s.cacheInvalidate(ctx, s.roleCollectionKey(user.Role))
	if user.PlanStatus == models.PlanDemo {
		s.cacheInvalidate(ctx, repository.CacheKeyDemoUsers)
	}
}

func (s *UserService) roleCollectionKey(role models.UserRole) string {
	switch role {
	case models.RoleStudent:
		return repository.CacheKeyStudents
	case models.RoleTeacher:
		return repository.CacheKeyTeachers
	default:
		return repository.CacheKeyAdminStaff
	}
}

func (s *UserService) cacheSet(ctx context.Context, key string, value interface{}) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.logger.Warn("failed to cache collection", zap.String("key", key), zap.Error(err))
	}
}

func (s *UserService) cacheInvalidate(ctx context.Context, key string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn("failed to invalidate collection cache", zap.String("key", key), zap.Error(err))
	}
}
