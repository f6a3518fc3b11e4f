package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/pkg/idempotency"
)

type ChallengeSendInput struct {
	DeviceID int64 `validate:"required,gt=0"`
}

type ChallengeSendOutput struct {
	DeviceID int64
	Method   string
}

func (s *Usecase) ChallengeSend(ctx context.Context, in ChallengeSendInput) (*ChallengeSendOutput, error) {
	ctx, span := s.startSpan(ctx, "ChallengeSend")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	device, err := s.repoDB.GetPhoneDeviceByID(ctx, in.DeviceID, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "phone device not found", "user_id", clm.UserID, "device_id", in.DeviceID)
		return nil, goerror.NewBusiness("Phone device not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get phone device", "user_id", clm.UserID, "device_id", in.DeviceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	deviceKey, err := s.decryptDeviceKey(clm.UserID, device.Key)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt device key", "user_id", clm.UserID, "device_id", device.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := s.totp.GenerateCode(deviceKey, device.Digits, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate challenge token", "user_id", clm.UserID, "device_id", device.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// One delivery per device per lock window; duplicate submissions from a
	// retrying login page must not fan out extra SMS or calls.
	lock := s.cfg.GetSecond("modules.twofactor.challenge_lock_seconds")
	idemKey := fmt.Sprintf("twofactor:challenge:%d:%d", clm.UserID, device.ID)

	err = s.idemp.Exec(ctx, idemKey, func(ctx context.Context) error {
		return s.deliverToken(ctx, device, code)
	}, idempotency.WithLockDuration(lock), idempotency.WithStateTTL(lock))

	switch {
	case err == nil:
	case errors.Is(err, idempotency.ErrAlreadyInProgress),
		errors.Is(err, idempotency.ErrAlreadyCompleted),
		errors.Is(err, idempotency.ErrAlreadyFailed):
		slog.WarnContext(ctx, "challenge send suppressed by idempotency guard", "user_id", clm.UserID, "device_id", device.ID)
		return nil, goerror.NewBusiness("A token was just sent to this device", goerror.CodeTooManyRequest)
	default:
		slog.ErrorContext(ctx, "failed to deliver challenge token", "user_id", clm.UserID, "device_id", device.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ChallengeSendOutput{
		DeviceID: device.ID,
		Method:   device.Method.String(),
	}, nil
}
