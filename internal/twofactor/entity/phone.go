package entity

import "time"

// Device names. The default device is managed by the upstream identity flow
// and is never deletable here; wizard-created devices are backups.
const (
	DeviceNameDefault = "default"
	DeviceNameBackup  = "backup"
)

// PhoneDevice is a registered phone that can receive OTP tokens by SMS or
// voice call. Key holds the device TOTP secret; in storage it is AES-GCM
// ciphertext, in memory after load it is the hex-encoded secret.
type PhoneDevice struct {
	ID        int64
	UserID    int64
	Name      string
	Method    Method
	Number    string
	Extension string
	Key       string
	Digits    int
	CreatedAt time.Time
}

// IsDefault reports whether the device is the protected default device.
func (d PhoneDevice) IsDefault() bool {
	return d.Name == DeviceNameDefault
}

// WizardSession is the server-held state of a setup wizard, stored in the
// cache under an HMAC of the opaque session token.
type WizardSession struct {
	UserID    int64      `json:"user_id"`
	Step      WizardStep `json:"step"`
	Method    Method     `json:"method"`
	Number    string     `json:"number"`
	Extension string     `json:"extension,omitempty"`
	Key       string     `json:"key,omitempty"`
	Digits    int        `json:"digits,omitempty"`
}

// BackupCode is a single-use static recovery code, stored Argon2id-hashed.
type BackupCode struct {
	ID        int64
	UserID    int64
	Code      string
	UsedAt    time.Time
	CreatedAt time.Time
}

// IsUsed reports whether the code has already been consumed.
func (c BackupCode) IsUsed() bool {
	return !c.UsedAt.IsZero()
}
