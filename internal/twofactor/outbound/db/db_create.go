package db

import (
	"context"

	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

func (s *DB) CreatePhoneDevice(ctx context.Context, device entity.PhoneDevice) (err error) {
	ctx, span := s.startSpan(ctx, "CreatePhoneDevice")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO phone_devices (id, user_id, name, method, number, extension, secret_key, digits, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		device.ID, device.UserID, device.Name, device.Method, device.Number,
		device.Extension, device.Key, device.Digits, device.CreatedAt)

	err = s.mapError(err)
	return err
}

// ReplaceBackupCodes drops the user's previous codes and inserts the new
// batch in one transaction, so rotation can never leave a mixed set.
func (s *DB) ReplaceBackupCodes(ctx context.Context, userID int64, codes []entity.BackupCode) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceBackupCodes")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return s.mapError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID); err != nil {
		err = s.mapError(err)
		return err
	}

	for i := range codes {
		_, err = tx.Exec(ctx, `
			INSERT INTO backup_codes (id, user_id, code_hash)
			VALUES ($1, $2, $3)`,
			codes[i].ID, userID, codes[i].Code)
		if err != nil {
			err = s.mapError(err)
			return err
		}
	}

	err = s.mapError(tx.Commit(ctx))
	return err
}
