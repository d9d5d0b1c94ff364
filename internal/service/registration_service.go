package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edusetu/tuition-admin-api/internal/models"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
)

type draftRepository interface {
	Save(ctx context.Context, draft *models.RegistrationDraft) error
	Get(ctx context.Context, email string) (*models.RegistrationDraft, error)
	Delete(ctx context.Context, email string) error
}

type registrationUserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type registrationProfileRepository interface {
	CreateStudent(ctx context.Context, student *models.Student) error
	CreateTeacher(ctx context.Context, teacher *models.Teacher) error
	CreateStaff(ctx context.Context, staff *models.AdminStaff) error
}

type otpManager interface {
	Generate(ctx context.Context, req models.GenerateOTPRequest) error
	Verify(ctx context.Context, req models.VerifyOTPRequest) error
	IsVerified(ctx context.Context, otpType models.OTPType, identifier string) (bool, error)
	ClearVerified(ctx context.Context, otpType models.OTPType, identifier string) error
}

// BasicInfoRequest carries the step-0 wizard fields.
type BasicInfoRequest struct {
	Name     string          `json:"name" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	Mobile   string          `json:"mobile" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=student teacher support_staff"`
}

// CompleteRegistrationRequest carries the role-dependent step-2 fields.
type CompleteRegistrationRequest struct {
	Email          string   `json:"email" validate:"required,email"`
	ClassLabel     string   `json:"class"`
	Subjects       []string `json:"subjects"`
	GuardianName   string   `json:"guardian_name"`
	GuardianMobile string   `json:"guardian_mobile"`
}

// WizardState reports the draft's progress back to the client.
type WizardState struct {
	Email         string `json:"email"`
	Step          string `json:"step"`
	EmailVerified bool   `json:"email_verified"`
	// OTPDispatchError is set when the step transition succeeded but the
	// verification email could not be dispatched.
	OTPDispatchError string `json:"otp_dispatch_error,omitempty"`
}

// RegistrationService drives the three-step signup wizard. The draft is the
// single source of wizard state; every operation loads it, applies a guarded
// transition and saves it back.
type RegistrationService struct {
	drafts    draftRepository
	users     registrationUserRepository
	profiles  registrationProfileRepository
	otp       otpManager
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(drafts draftRepository, users registrationUserRepository, profiles registrationProfileRepository, otp otpManager, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{drafts: drafts, users: users, profiles: profiles, otp: otp, validator: validate, logger: logger}
}

// SubmitBasicInfo validates step 0, advances the draft to the verification
// step and dispatches an OTP. A dispatch failure is surfaced on the state
// but does not undo the transition already made.
func (s *RegistrationService) SubmitBasicInfo(ctx context.Context, req BasicInfoRequest) (*WizardState, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	draft := &models.RegistrationDraft{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Mobile:       strings.TrimSpace(req.Mobile),
		Role:         req.Role,
		Step:         models.StepBasicInfo,
		CreatedAt:    time.Now().UTC(),
	}

	if err := draft.ValidateBasicInfo(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	taken, err := s.users.ExistsByEmail(ctx, draft.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	}

	if err := draft.Advance(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, err.Error())
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save registration draft")
	}

	state := &WizardState{Email: draft.Email, Step: draft.Step.String(), EmailVerified: draft.EmailVerified}
	if err := s.otp.Generate(ctx, models.GenerateOTPRequest{Identifier: draft.Email, Type: models.OTPTypeEmail}); err != nil {
		s.logger.Warn("otp dispatch failed after basic info", zap.String("email", draft.Email), zap.Error(err))
		state.OTPDispatchError = appErrors.FromError(err).Message
	}
	return state, nil
}

// ResendOTP issues another code for an in-flight draft. No cooldown applies;
// each call is an independent request.
func (s *RegistrationService) ResendOTP(ctx context.Context, req models.GenerateOTPRequest) error {
	if _, err := s.drafts.Get(ctx, req.Identifier); err != nil {
		return err
	}
	return s.otp.Generate(ctx, req)
}

// VerifyEmail checks the submitted code and advances the draft past the
// verification gate. On failure the step is unchanged.
func (s *RegistrationService) VerifyEmail(ctx context.Context, req models.VerifyOTPRequest) (*WizardState, error) {
	draft, err := s.drafts.Get(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}

	if err := s.otp.Verify(ctx, req); err != nil {
		return nil, err
	}

	draft.EmailVerified = true
	if draft.Step == models.StepEmailVerify {
		if err := draft.Advance(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, err.Error())
		}
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save registration draft")
	}
	return &WizardState{Email: draft.Email, Step: draft.Step.String(), EmailVerified: draft.EmailVerified}, nil
}

// Back moves the wizard one step backwards, keeping field values and the
// verification flag intact.
func (s *RegistrationService) Back(ctx context.Context, email string) (*WizardState, error) {
	draft, err := s.drafts.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := draft.Back(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, err.Error())
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save registration draft")
	}
	return &WizardState{Email: draft.Email, Step: draft.Step.String(), EmailVerified: draft.EmailVerified}, nil
}

// Complete finishes registration. Submission is blocked whenever the email
// has not been verified, regardless of draft step or field completeness;
// an expired verification rolls the draft back to the verification step.
func (s *RegistrationService) Complete(ctx context.Context, req CompleteRegistrationRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	draft, err := s.drafts.Get(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if !draft.EmailVerified {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email must be verified before submitting registration")
	}

	verified, err := s.otp.IsVerified(ctx, models.OTPTypeEmail, draft.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check verification")
	}
	if !verified {
		draft.Rollback()
		if saveErr := s.drafts.Save(ctx, draft); saveErr != nil {
			s.logger.Warn("failed to save rolled-back draft", zap.Error(saveErr))
		}
		return nil, appErrors.Clone(appErrors.ErrOTPExpired, "email verification has expired, please verify again")
	}

	draft.ClassLabel = strings.TrimSpace(req.ClassLabel)
	draft.Subjects = req.Subjects
	draft.GuardianName = strings.TrimSpace(req.GuardianName)
	draft.GuardianMobile = strings.TrimSpace(req.GuardianMobile)

	if err := draft.ValidateAdditionalInfo(); err != nil {
		if saveErr := s.drafts.Save(ctx, draft); saveErr != nil {
			s.logger.Warn("failed to save draft after validation failure", zap.Error(saveErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	for draft.Step != models.StepSubmitted {
		if err := draft.Advance(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, err.Error())
		}
	}

	user := &models.User{
		Email:        draft.Email,
		PasswordHash: draft.PasswordHash,
		FullName:     draft.FullName,
		Mobile:       draft.Mobile,
		Role:         draft.Role,
		PlanStatus:   models.PlanDemo,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	if err := s.createProfile(ctx, user, draft); err != nil {
		return nil, err
	}

	if err := s.drafts.Delete(ctx, draft.Email); err != nil {
		s.logger.Warn("failed to delete completed draft", zap.Error(err))
	}
	if err := s.otp.ClearVerified(ctx, models.OTPTypeEmail, draft.Email); err != nil {
		s.logger.Warn("failed to clear verification marker", zap.Error(err))
	}
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionRegister,
		Resource:   "users",
		ResourceID: &user.ID,
		NewValues:  []byte(`{"role":"` + string(user.Role) + `"}`),
	}); err != nil {
		s.logger.Warn("failed to record registration audit log", zap.Error(err))
	}

	return &models.UserInfo{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		Role:       user.Role,
		PlanStatus: user.PlanStatus,
	}, nil
}

func (s *RegistrationService) createProfile(ctx context.Context, user *models.User, draft *models.RegistrationDraft) error {
	switch draft.Role {
	case models.RoleStudent:
		student := &models.Student{
			UserID:         user.ID,
			ClassLabel:     draft.ClassLabel,
			Subjects:       strings.Join(draft.Subjects, ","),
			GuardianName:   draft.GuardianName,
			GuardianMobile: draft.GuardianMobile,
		}
		if err := s.profiles.CreateStudent(ctx, student); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student profile")
		}
	case models.RoleTeacher:
		teacher := &models.Teacher{
			UserID:        user.ID,
			Subject:       strings.Join(draft.Subjects, ","),
			ClassAssigned: draft.ClassLabel,
		}
		if err := s.profiles.CreateTeacher(ctx, teacher); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher profile")
		}
	case models.RoleSupportStaff:
		staff := &models.AdminStaff{UserID: user.ID}
		if err := s.profiles.CreateStaff(ctx, staff); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create staff profile")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unsupported role")
	}
	return nil
}

// State returns the current progress of a draft without mutating it.
func (s *RegistrationService) State(ctx context.Context, email string) (*WizardState, error) {
	draft, err := s.drafts.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	return &WizardState{Email: draft.Email, Step: draft.Step.String(), EmailVerified: draft.EmailVerified}, nil
}
