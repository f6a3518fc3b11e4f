package db

import (
	"context"

	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

// DeleteBackupPhoneDevice removes the device only when it is not the default
// one. A false return covers both a missing row and the protected default
// device, which callers must treat the same way.
func (s *DB) DeleteBackupPhoneDevice(ctx context.Context, id, userID int64) (deleted bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteBackupPhoneDevice")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		DELETE FROM phone_devices
		WHERE id = $1 AND user_id = $2 AND name <> $3`,
		id, userID, entity.DeviceNameDefault)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
