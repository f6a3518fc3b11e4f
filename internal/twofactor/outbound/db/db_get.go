package db

import (
	"context"
	"time"

	"github.com/dominichul/phonefactor/internal/twofactor/entity"
	"github.com/jackc/pgx/v5"
)

const phoneDeviceColumns = `id, user_id, name, method, number, extension, secret_key, digits, created_at`

func scanPhoneDevice(row pgx.Row) (*entity.PhoneDevice, error) {
	var d entity.PhoneDevice
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Method, &d.Number, &d.Extension, &d.Key, &d.Digits, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DB) GetPhoneDeviceByID(ctx context.Context, id, userID int64) (device *entity.PhoneDevice, err error) {
	ctx, span := s.startSpan(ctx, "GetPhoneDeviceByID")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT `+phoneDeviceColumns+`
		FROM phone_devices
		WHERE id = $1 AND user_id = $2`,
		id, userID)

	device, err = scanPhoneDevice(row)
	if err != nil {
		return nil, s.mapError(err)
	}
	return device, nil
}

func (s *DB) GetBackupPhoneDevices(ctx context.Context, userID int64) (devices []entity.PhoneDevice, err error) {
	ctx, span := s.startSpan(ctx, "GetBackupPhoneDevices")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+phoneDeviceColumns+`
		FROM phone_devices
		WHERE user_id = $1 AND name <> $2
		ORDER BY id`,
		userID, entity.DeviceNameDefault)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		device, err := scanPhoneDevice(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		devices = append(devices, *device)
	}

	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return devices, nil
}

func (s *DB) GetPhoneDevicePage(ctx context.Context, afterID int64, size int32) (devices []entity.PhoneDevice, err error) {
	ctx, span := s.startSpan(ctx, "GetPhoneDevicePage")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+phoneDeviceColumns+`
		FROM phone_devices
		WHERE id > $1
		ORDER BY id
		LIMIT $2`,
		afterID, size)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		device, err := scanPhoneDevice(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		devices = append(devices, *device)
	}

	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return devices, nil
}

func (s *DB) GetBackupCodesByUserID(ctx context.Context, userID int64) (codes []entity.BackupCode, err error) {
	ctx, span := s.startSpan(ctx, "GetBackupCodesByUserID")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT id, user_id, code_hash, used_at, created_at
		FROM backup_codes
		WHERE user_id = $1
		ORDER BY id`,
		userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var c entity.BackupCode
		var usedAt *time.Time
		if err = rows.Scan(&c.ID, &c.UserID, &c.Code, &usedAt, &c.CreatedAt); err != nil {
			return nil, s.mapError(err)
		}
		if usedAt != nil {
			c.UsedAt = *usedAt
		}
		codes = append(codes, c)
	}

	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return codes, nil
}
