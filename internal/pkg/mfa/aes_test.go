package mfa

import (
	"bytes"
	"strings"
	"testing"
)

func testEncryptor(t *testing.T) *AESGCMEncryptor {
	t.Helper()
	key := bytes.Repeat([]byte{0xA7}, 32)
	return NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: key})
}

func TestAESGCMRoundTrip(t *testing.T) {
	e := testEncryptor(t)
	scope := Scope{UserID: 42, Purpose: PurposePhoneSecret}
	plain := []byte("73e33a1b4e0ddd7ee2d1f442a45d0f2ab3ef2f85")

	ct, err := e.Encrypt(plain, scope)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(ct, plain) {
		t.Fatal("ciphertext contains plaintext")
	}

	got, err := e.Decrypt(ct, scope)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("round trip mismatch: got %q want %q", got, plain)
	}
}

func TestAESGCMScopeBinding(t *testing.T) {
	e := testEncryptor(t)
	plain := []byte("secret")

	ct, err := e.Encrypt(plain, Scope{UserID: 1, Purpose: PurposePhoneSecret})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := e.Decrypt(ct, Scope{UserID: 2, Purpose: PurposePhoneSecret}); err == nil {
		t.Error("decrypt with wrong user succeeded")
	}
	if _, err := e.Decrypt(ct, Scope{UserID: 1, Purpose: PurposeBackupCode}); err == nil {
		t.Error("decrypt with wrong purpose succeeded")
	}
}

func TestAESGCMRejectsBadInput(t *testing.T) {
	e := testEncryptor(t)
	scope := Scope{UserID: 1, Purpose: PurposePhoneSecret}

	if _, err := e.Encrypt(nil, scope); err == nil {
		t.Error("Encrypt(nil) succeeded")
	}
	if _, err := e.Decrypt([]byte{0, 1, 2}, scope); err == nil {
		t.Error("Decrypt of truncated ciphertext succeeded")
	}

	ct, err := e.Encrypt([]byte("x"), scope)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ct[0] = 0xFF // corrupt version
	if _, err := e.Decrypt(ct, scope); err == nil {
		t.Error("Decrypt of wrong-version ciphertext succeeded")
	}
}

func TestBackupCodeGenerate(t *testing.T) {
	gen := NewBackupCode(10)

	codes, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(codes) != 10 {
		t.Fatalf("got %d codes, want 10", len(codes))
	}

	seen := map[string]struct{}{}
	for _, c := range codes {
		parts := strings.Split(c, "-")
		if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 4 || len(parts[2]) != 4 {
			t.Errorf("code %q not in XXXX-XXXX-XXXX form", c)
		}
		if _, ok := seen[c]; ok {
			t.Errorf("duplicate code %q", c)
		}
		seen[c] = struct{}{}
	}
}
