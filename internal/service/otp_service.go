package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusetu/tuition-admin-api/internal/models"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
	"github.com/edusetu/tuition-admin-api/pkg/jobs"
	"github.com/edusetu/tuition-admin-api/pkg/mailer"
)

type otpRepository interface {
	Save(ctx context.Context, entry models.OTPEntry, ttl time.Duration) error
	Get(ctx context.Context, otpType models.OTPType, identifier string) (*models.OTPEntry, error)
	Delete(ctx context.Context, otpType models.OTPType, identifier string) error
	MarkVerified(ctx context.Context, otpType models.OTPType, identifier string, ttl time.Duration) error
	IsVerified(ctx context.Context, otpType models.OTPType, identifier string) (bool, error)
	ClearVerified(ctx context.Context, otpType models.OTPType, identifier string) error
}

// OTPConfig tunes code generation, expiry, and the wrong-code allowance.
type OTPConfig struct {
	Length          int
	TTL             time.Duration
	VerificationTTL time.Duration
	MaxAttempts     int
}

// OTPService issues and checks one-time verification codes. Delivery runs
// through the background dispatcher so a slow or failing mail provider never
// blocks the caller; repeated resends issue independent codes with no
// cooldown.
type OTPService struct {
	repo       otpRepository
	mail       mailer.Mailer
	dispatcher *jobs.Dispatcher
	validator  *validator.Validate
	logger     *zap.Logger
	config     OTPConfig
}

// NewOTPService constructs an OTPService. Call StartDispatch before issuing
// codes so the delivery workers are running.
func NewOTPService(repo otpRepository, mail mailer.Mailer, validate *validator.Validate, logger *zap.Logger, config OTPConfig) *OTPService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Length <= 0 {
		config.Length = 6
	}
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	if config.VerificationTTL <= 0 {
		config.VerificationTTL = 30 * time.Minute
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	s := &OTPService{repo: repo, mail: mail, validator: validate, logger: logger, config: config}
	s.dispatcher = jobs.NewDispatcher("otp-mail", s.deliver, jobs.DispatcherConfig{Workers: 1, Logger: logger})
	return s
}

// StartDispatch launches the delivery workers.
func (s *OTPService) StartDispatch(ctx context.Context) {
	s.dispatcher.Start(ctx)
}

// StopDispatch drains the delivery workers.
func (s *OTPService) StopDispatch() {
	s.dispatcher.Stop()
}

// Generate issues a fresh code for the identifier, replacing any previous
// one, and enqueues delivery. Enqueue failures are reported but the code
// remains valid; the client may resend.
func (s *OTPService) Generate(ctx context.Context, req models.GenerateOTPRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid otp request")
	}

	code, err := s.randomCode()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
	}

	now := time.Now().UTC()
	entry := models.OTPEntry{
		Identifier: req.Identifier,
		Type:       req.Type,
		Code:       code,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.config.TTL),
	}
	if err := s.repo.Save(ctx, entry, s.config.TTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store code")
	}

	job := jobs.MailJob{
		ID:        uuid.NewString(),
		Kind:      "otp-verification",
		Recipient: req.Identifier,
		Subject:   "Your verification code",
		Body:      fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.config.TTL.Minutes())),
	}
	if err := s.dispatcher.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue otp delivery", zap.String("identifier", req.Identifier), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dispatch verification email")
	}
	return nil
}

// Verify checks a submitted code. Success consumes the code and records a
// verification marker with its own TTL. Each wrong guess counts against the
// attempt allowance; hitting it invalidates the code so a fresh one has to
// be requested.
func (s *OTPService) Verify(ctx context.Context, req models.VerifyOTPRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid otp request")
	}

	entry, err := s.repo.Get(ctx, req.Type, req.Identifier)
	if err != nil {
		return err
	}
	if entry.Code != req.Code {
		entry.Attempts++
		if entry.Attempts >= s.config.MaxAttempts {
			if err := s.repo.Delete(ctx, req.Type, req.Identifier); err != nil {
				s.logger.Warn("failed to delete locked otp", zap.Error(err))
			}
			return appErrors.Clone(appErrors.ErrOTPInvalid, "too many incorrect attempts, request a new code")
		}
		remaining := time.Until(entry.ExpiresAt)
		if remaining > 0 {
			if err := s.repo.Save(ctx, *entry, remaining); err != nil {
				s.logger.Warn("failed to record otp attempt", zap.Error(err))
			}
		}
		return appErrors.ErrOTPInvalid
	}

	if err := s.repo.Delete(ctx, req.Type, req.Identifier); err != nil {
		s.logger.Warn("failed to delete consumed otp", zap.Error(err))
	}
	if err := s.repo.MarkVerified(ctx, req.Type, req.Identifier, s.config.VerificationTTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record verification")
	}
	return nil
}

// IsVerified reports whether the identifier carries a live verification.
func (s *OTPService) IsVerified(ctx context.Context, otpType models.OTPType, identifier string) (bool, error) {
	return s.repo.IsVerified(ctx, otpType, identifier)
}

// ClearVerified drops the verification marker after use.
func (s *OTPService) ClearVerified(ctx context.Context, otpType models.OTPType, identifier string) error {
	return s.repo.ClearVerified(ctx, otpType, identifier)
}

func (s *OTPService) deliver(ctx context.Context, job jobs.MailJob) error {
	return s.mail.Send(ctx, mailer.Message{
		ToAddress: job.Recipient,
		Subject:   job.Subject,
		Body:      job.Body,
	})
}

func (s *OTPService) randomCode() (string, error) {
	digits := make([]byte, s.config.Length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
