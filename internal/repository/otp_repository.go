package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edusetu/tuition-admin-api/internal/models"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
)

// OTPRepository stores verification codes and verification markers in
// Redis. Expiry is delegated entirely to key TTLs.
type OTPRepository struct {
	client *redis.Client
}

// NewOTPRepository constructs an OTPRepository.
func NewOTPRepository(client *redis.Client) *OTPRepository {
	return &OTPRepository{client: client}
}

func otpKey(otpType models.OTPType, identifier string) string {
	return fmt.Sprintf("otp:%s:%s", otpType, identifier)
}

func verifiedKey(otpType models.OTPType, identifier string) string {
	return fmt.Sprintf("otp_verified:%s:%s", otpType, identifier)
}

// Save stores a code, replacing any previous one for the identifier.
func (r *OTPRepository) Save(ctx context.Context, entry models.OTPEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal otp entry: %w", err)
	}
	if err := r.client.Set(ctx, otpKey(entry.Type, entry.Identifier), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set otp: %w", err)
	}
	return nil
}

// Get returns the stored code for an identifier. A missing key means the
// code expired or was never issued.
func (r *OTPRepository) Get(ctx context.Context, otpType models.OTPType, identifier string) (*models.OTPEntry, error) {
	raw, err := r.client.Get(ctx, otpKey(otpType, identifier)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrOTPExpired
		}
		return nil, fmt.Errorf("redis get otp: %w", err)
	}
	var entry models.OTPEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal otp entry: %w", err)
	}
	return &entry, nil
}

// Delete removes a consumed code.
func (r *OTPRepository) Delete(ctx context.Context, otpType models.OTPType, identifier string) error {
	if err := r.client.Del(ctx, otpKey(otpType, identifier)).Err(); err != nil {
		return fmt.Errorf("redis delete otp: %w", err)
	}
	return nil
}

// MarkVerified records a successful verification with its own TTL. When the
// marker lapses before final submission the registration flow rolls back to
// the verification step.
func (r *OTPRepository) MarkVerified(ctx context.Context, otpType models.OTPType, identifier string, ttl time.Duration) error {
	if err := r.client.Set(ctx, verifiedKey(otpType, identifier), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis mark verified: %w", err)
	}
	return nil
}

// IsVerified reports whether a still-valid verification marker exists.
func (r *OTPRepository) IsVerified(ctx context.Context, otpType models.OTPType, identifier string) (bool, error) {
	n, err := r.client.Exists(ctx, verifiedKey(otpType, identifier)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check verified: %w", err)
	}
	return n > 0, nil
}

// ClearVerified drops the verification marker once registration completes.
func (r *OTPRepository) ClearVerified(ctx context.Context, otpType models.OTPType, identifier string) error {
	if err := r.client.Del(ctx, verifiedKey(otpType, identifier)).Err(); err != nil {
		return fmt.Errorf("redis clear verified: %w", err)
	}
	return nil
}
