package otp

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrBadSecret indicates a secret that is not valid lowercase/uppercase hex.
var ErrBadSecret = errors.New("otp: secret is not valid hex")

// OTP defines the contract for TOTP operations against hex-encoded secrets.
type OTP interface {
	// GenerateSecret returns a fresh random secret as a hex string.
	GenerateSecret() (string, error)
	// Validate checks whether code is valid for the secret at the given time.
	Validate(code, hexSecret string, digits int, at time.Time) bool
	// GenerateCode creates the code for the secret at the given time.
	GenerateCode(hexSecret string, digits int, at time.Time) (string, error)
}

// TOTP implements OTP using the time-based one-time password algorithm with
// SHA-1, a 30-second period, and a clock skew allowance of one period either
// side. Secrets are hex strings of arbitrary even length; 20 random bytes
// (40 hex chars) is the generated default.
type TOTP struct {
	period     uint
	skew       uint
	secretSize int
}

// NewTOTP constructs a TOTP instance. A zero period falls back to 30 seconds.
func NewTOTP(period, skew uint) *TOTP {
	if period == 0 {
		period = 30
	}

	return &TOTP{
		period:     period,
		skew:       skew,
		secretSize: 20, // RFC 4226/6238 recommendation
	}
}

// GenerateSecret returns a new random secret, hex encoded.
func (o *TOTP) GenerateSecret() (string, error) {
	raw := make([]byte, o.secretSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("otp: secret generation failed: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Validate checks whether code is valid for the secret at the given time.
// digits other than 8 validate as 6-digit codes.
func (o *TOTP) Validate(code, hexSecret string, digits int, at time.Time) bool {
	secret, err := toBase32(hexSecret)
	if err != nil {
		return false
	}

	rv, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    o.period,
		Skew:      o.skew,
		Digits:    toDigits(digits),
		Algorithm: otp.AlgorithmSHA1,
	})

	return rv && err == nil
}

// GenerateCode creates the code for the secret at the given time.
func (o *TOTP) GenerateCode(hexSecret string, digits int, at time.Time) (string, error) {
	secret, err := toBase32(hexSecret)
	if err != nil {
		return "", err
	}

	return totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    o.period,
		Skew:      o.skew,
		Digits:    toDigits(digits),
		Algorithm: otp.AlgorithmSHA1,
	})
}

func toDigits(digits int) otp.Digits {
	if digits == 8 {
		return otp.DigitsEight
	}
	return otp.DigitsSix
}

// toBase32 converts a hex secret to the unpadded base32 form the underlying
// library expects.
func toBase32(hexSecret string) (string, error) {
	raw, err := hex.DecodeString(hexSecret)
	if err != nil || len(raw) == 0 {
		return "", ErrBadSecret
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}
