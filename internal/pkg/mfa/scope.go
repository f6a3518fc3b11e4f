package mfa

// Purpose identifies what kind of secret is being protected.
type Purpose string

const (
	// PurposePhoneSecret scopes encryption to phone device TOTP secrets.
	PurposePhoneSecret Purpose = "phone_secret"
	// PurposeBackupCode scopes encryption to backup code material.
	PurposeBackupCode Purpose = "backup_code"
)

// Scope binds a ciphertext to a user and purpose. It feeds the AES-GCM AAD,
// so a secret encrypted for one user or purpose cannot be decrypted as
// another.
type Scope struct {
	UserID  int64
	Purpose Purpose
}
