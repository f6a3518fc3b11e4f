package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"strconv"
	"time"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/pkg/storage"
	"github.com/dominichul/phonefactor/internal/shared/constant"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

const deviceExportPageSize int32 = 1_000

type DeviceExportOutput struct {
	URL       string
	ExpiresAt time.Time
}

// DeviceExport writes a CSV of every registered phone device to object
// storage and returns a presigned download URL. Device keys are never
// included.
func (s *Usecase) DeviceExport(ctx context.Context) (*DeviceExportOutput, error) {
	ctx, span := s.startSpan(ctx, "DeviceExport")
	defer span.End()

	_, err := s.authenticatedAndAuthorized(ctx, constant.PermTwoFactorDevices, constant.PermActExport)
	if err != nil {
		return nil, err
	}

	var (
		devices []entity.PhoneDevice
		afterID int64
	)

	for {
		page, err := s.repoDB.GetPhoneDevicePage(ctx, afterID, deviceExportPageSize)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo export phone devices", "error", err)
			return nil, goerror.NewServer(err)
		}

		devices = append(devices, page...)

		if int32(len(page)) < deviceExportPageSize {
			break
		}
		afterID = page[len(page)-1].ID
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{{"id", "user_id", "name", "method", "number", "extension", "digits", "created_at"}}
	for i := range devices {
		records = append(records, []string{
			strconv.FormatInt(devices[i].ID, 10),
			strconv.FormatInt(devices[i].UserID, 10),
			devices[i].Name,
			devices[i].Method.String(),
			devices[i].Number,
			devices[i].Extension,
			strconv.Itoa(devices[i].Digits),
			devices[i].CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	if err := w.WriteAll(records); err != nil {
		slog.ErrorContext(ctx, "failed to build export csv", "error", err)
		return nil, goerror.NewServer(err)
	}

	bucket := s.cfg.GetString("modules.twofactor.export_bucket")
	objectKey := "exports/phone-devices-" + s.clock.Now().UTC().Format("20060102T150405") + ".csv"

	if _, err := s.storage.PutObject(ctx, bucket, objectKey, &buf, storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "text/csv",
	}); err != nil {
		slog.ErrorContext(ctx, "failed to upload export csv", "bucket", bucket, "key", objectKey, "error", err)
		return nil, goerror.NewServer(err)
	}

	expiry := s.cfg.GetMinute("modules.twofactor.export_url_ttl_minutes")
	url, err := s.storage.PresignGet(ctx, bucket, objectKey, expiry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign export url", "bucket", bucket, "key", objectKey, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &DeviceExportOutput{
		URL:       url,
		ExpiresAt: s.clock.Now().Add(expiry),
	}, nil
}
