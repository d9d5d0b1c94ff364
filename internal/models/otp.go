package models

import "time"

// OTPType identifies the channel an OTP targets. Only email verification
// exists in the registration flow today.
type OTPType string

const (
	OTPTypeEmail OTPType = "email"
)

// OTPEntry is the Redis-held verification code for an identifier. Expiry is
// enforced by the key TTL; ExpiresAt is kept alongside so a wrong-guess
// re-save can preserve the remaining window. Attempts counts wrong guesses
// against the configured allowance.
type OTPEntry struct {
	Identifier string    `json:"identifier"`
	Type       OTPType   `json:"type"`
	Code       string    `json:"code"`
	Attempts   int       `json:"attempts"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// GenerateOTPRequest asks for a fresh code to be sent to an identifier.
type GenerateOTPRequest struct {
	Identifier string  `json:"identifier" validate:"required"`
	Type       OTPType `json:"type" validate:"required,oneof=email"`
}

// VerifyOTPRequest checks a code against the stored entry.
type VerifyOTPRequest struct {
	Identifier string  `json:"identifier" validate:"required"`
	Type       OTPType `json:"type" validate:"required,oneof=email"`
	Code       string  `json:"code" validate:"required"`
}
