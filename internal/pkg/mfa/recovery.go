package mfa

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// BackupCodeGenerator produces one-time backup codes for account recovery
// when the phone is unreachable.
type BackupCodeGenerator interface {
	// Generate returns a set of unique codes or an error when the random
	// source fails.
	Generate() ([]string, error)
}

// backupAlphabet mixes digits and both letter cases for 62 symbols per
// position, keeping codes short but high entropy.
const backupAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// BackupCode generates codes formatted as XXXX-XXXX-XXXX using crypto/rand.
type BackupCode struct {
	count int
}

// NewBackupCode returns a generator producing count codes per batch.
func NewBackupCode(count int) *BackupCode {
	if count <= 0 {
		count = 10
	}
	return &BackupCode{count: count}
}

// Generate produces a batch of unique codes.
func (bc *BackupCode) Generate() ([]string, error) {
	out := make([]string, 0, bc.count)
	seen := make(map[string]struct{}, bc.count)

	for len(out) < bc.count {
		code, err := bc.one()
		if err != nil {
			return nil, err
		}

		// duplicates are astronomically unlikely, but cheap to skip
		if _, ok := seen[code]; ok {
			continue
		}

		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}

func (bc *BackupCode) one() (string, error) {
	var sb strings.Builder
	sb.Grow(14)

	for i := 0; i < 12; i++ {
		if i > 0 && i%4 == 0 {
			sb.WriteByte('-')
		}

		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(backupAlphabet))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(backupAlphabet[idx.Int64()])
	}

	return sb.String(), nil
}
