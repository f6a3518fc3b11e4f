package otp

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"
)

func randomHex(t *testing.T, n int) string {
	t.Helper()

	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return hex.EncodeToString(raw)
}

func TestTOTPValidateMatchesGenerated(t *testing.T) {
	o := NewTOTP(30, 1)
	now := time.Now()

	for _, digits := range []int{6, 8} {
		secret := randomHex(t, 20)

		code, err := o.GenerateCode(secret, digits, now)
		if err != nil {
			t.Fatalf("GenerateCode(digits=%d): %v", digits, err)
		}
		if len(code) != digits {
			t.Fatalf("code %q has %d digits, want %d", code, len(code), digits)
		}
		if !o.Validate(code, secret, digits, now) {
			t.Errorf("generated %d-digit code %q did not validate", digits, code)
		}
	}
}

func TestTOTPValidateRejectsBadCodes(t *testing.T) {
	o := NewTOTP(30, 1)
	secret := randomHex(t, 20)
	now := time.Now()

	cases := []string{"-1", "foobar", "", "1000000"}
	for _, code := range cases {
		if o.Validate(code, secret, 6, now) {
			t.Errorf("Validate(%q) = true, want false", code)
		}
	}
}

func TestTOTPStringAndPaddedFormsAgree(t *testing.T) {
	o := NewTOTP(30, 1)
	secret := randomHex(t, 20)
	now := time.Now()

	code, err := o.GenerateCode(secret, 6, now)
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	// The zero-padded string and its numeric value rendered back with
	// leading zeros must both validate.
	n, err := strconv.Atoi(code)
	if err != nil {
		t.Fatalf("code %q is not numeric: %v", code, err)
	}
	padded := fmt.Sprintf("%06d", n)

	if !o.Validate(padded, secret, 6, now) {
		t.Errorf("padded numeric form %q did not validate", padded)
	}
}

func TestTOTPSkewWindow(t *testing.T) {
	o := NewTOTP(30, 1)
	secret := randomHex(t, 20)
	now := time.Now()

	prev, err := o.GenerateCode(secret, 6, now.Add(-30*time.Second))
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if !o.Validate(prev, secret, 6, now) {
		t.Errorf("code from previous period did not validate within skew")
	}

	old, err := o.GenerateCode(secret, 6, now.Add(-120*time.Second))
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if o.Validate(old, secret, 6, now) && old != prev {
		t.Errorf("code from four periods ago validated, want rejection")
	}
}

func TestTOTPRejectsBadSecret(t *testing.T) {
	o := NewTOTP(30, 1)

	if o.Validate("123456", "not-hex", 6, time.Now()) {
		t.Error("Validate with non-hex secret = true, want false")
	}
	if _, err := o.GenerateCode("zz", 6, time.Now()); err == nil {
		t.Error("GenerateCode with non-hex secret returned nil error")
	}
}

func TestGenerateSecret(t *testing.T) {
	o := NewTOTP(30, 1)

	secret, err := o.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	if len(secret) != 40 {
		t.Fatalf("secret length = %d, want 40 hex chars", len(secret))
	}
	if _, err := hex.DecodeString(secret); err != nil {
		t.Fatalf("secret is not hex: %v", err)
	}
}
