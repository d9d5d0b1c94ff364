package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusetu/tuition-admin-api/internal/middleware"
	"github.com/edusetu/tuition-admin-api/internal/models"
	"github.com/edusetu/tuition-admin-api/internal/service"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
)

type regDraftsStub struct {
	drafts map[string]*models.RegistrationDraft
}

func (s *regDraftsStub) Save(ctx context.Context, draft *models.RegistrationDraft) error {
	s.drafts[draft.Email] = draft
	return nil
}

func (s *regDraftsStub) Get(ctx context.Context, email string) (*models.RegistrationDraft, error) {
	draft, ok := s.drafts[email]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no registration in progress")
	}
	return draft, nil
}

func (s *regDraftsStub) Delete(ctx context.Context, email string) error {
	delete(s.drafts, email)
	return nil
}

type regUsersStub struct{}

func (regUsersStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}
func (regUsersStub) Create(ctx context.Context, user *models.User) error { return nil }

func (regUsersStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error { return nil }

type regProfilesStub struct{}

func (regProfilesStub) CreateStudent(ctx context.Context, student *models.Student) error { return nil }
func (regProfilesStub) CreateTeacher(ctx context.Context, teacher *models.Teacher) error { return nil }
func (regProfilesStub) CreateStaff(ctx context.Context, staff *models.AdminStaff) error  { return nil }

type regOTPStub struct{}

func (regOTPStub) Generate(ctx context.Context, req models.GenerateOTPRequest) error { return nil }
func (regOTPStub) Verify(ctx context.Context, req models.VerifyOTPRequest) error     { return nil }
func (regOTPStub) IsVerified(ctx context.Context, otpType models.OTPType, identifier string) (bool, error) {
	return true, nil
}
func (regOTPStub) ClearVerified(ctx context.Context, otpType models.OTPType, identifier string) error {
	return nil
}

func newRegistrationStateRouter(drafts *regDraftsStub, actor *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if actor != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserKey, actor)
		})
	}
	svc := service.NewRegistrationService(drafts, regUsersStub{}, regProfilesStub{}, regOTPStub{}, nil, nil)
	h := NewRegistrationHandler(svc)
	r.GET("/auth/register/state", h.State)
	return r
}

func TestRegistrationStateRequiresEmailWhenAnonymous(t *testing.T) {
	drafts := &regDraftsStub{drafts: map[string]*models.RegistrationDraft{}}
	router := newRegistrationStateRouter(drafts, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/register/state", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationStateFallsBackToClaims(t *testing.T) {
	// A logged-in caller resumes their own draft without the email query.
	drafts := &regDraftsStub{drafts: map[string]*models.RegistrationDraft{
		"resume@example.com": {
			Email:         "resume@example.com",
			Step:          models.StepEmailVerify,
			EmailVerified: true,
		},
	}}
	actor := &models.JWTClaims{UserID: "user-1", Email: "resume@example.com", Role: models.RoleStudent}
	router := newRegistrationStateRouter(drafts, actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/register/state", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "resume@example.com")
	assert.Contains(t, w.Body.String(), "email_verify")
}

func TestRegistrationStateQueryOverridesClaims(t *testing.T) {
	drafts := &regDraftsStub{drafts: map[string]*models.RegistrationDraft{
		"other@example.com": {Email: "other@example.com", Step: models.StepBasicInfo},
	}}
	actor := &models.JWTClaims{UserID: "user-1", Email: "resume@example.com", Role: models.RoleStudent}
	router := newRegistrationStateRouter(drafts, actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/register/state?email=other@example.com", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "other@example.com")
}
