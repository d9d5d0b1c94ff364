package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edusetu/tuition-admin-api/internal/models"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
)

type authUsersMock struct {
	byEmail map[string]*models.User
	audits  []*models.AuditLog
}

func (m *authUsersMock) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *authUsersMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *authUsersMock) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *authUsersMock) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &authUsersMock{byEmail: map[string]*models.User{
		"admin@example.com": {
			ID:           "u-admin",
			Email:        "admin@example.com",
			PasswordHash: string(hash),
			FullName:     "Root Admin",
			Role:         models.RoleAdmin,
			PlanStatus:   models.PlanPermanent,
			Active:       true,
		},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "tuition-admin-api",
	})
	return svc, repo
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-admin", resp.User.ID)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.EqualValues(t, 3600, resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-admin", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "admin@example.com", claims.Email)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogin, repo.audits[0].Action)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.com",
		Password: "wrong",
	})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Empty(t, repo.audits)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	// Unknown email and bad password collapse to the same message.
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.byEmail["admin@example.com"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.com",
		Password: "correct-horse",
	})
	require.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestLoginValidatesPayload(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := NewAuthService(&authUsersMock{}, nil, nil, AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Hour,
	})
	_, err = other.ValidateToken(resp.AccessToken)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, _ := newAuthFixture(t)
	expired := NewAuthService(&authUsersMock{byEmail: map[string]*models.User{}}, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: -time.Minute,
	})

	user := &models.User{ID: "u-admin", Email: "admin@example.com", Role: models.RoleAdmin}
	token, err := expired.generateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
