package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
)

type ChallengeVerifyInput struct {
	DeviceID int64  `validate:"required,gt=0"`
	Token    string `validate:"required"`
}

type ChallengeVerifyOutput struct {
	DeviceID int64
	Method   string
}

func (s *Usecase) ChallengeVerify(ctx context.Context, in ChallengeVerifyInput) (*ChallengeVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "ChallengeVerify")
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

	if !s.totp.Validate(in.Token, deviceKey, device.Digits, s.clock.Now()) {
		slog.WarnContext(ctx, "challenge token did not validate", "user_id", clm.UserID, "device_id", device.ID)
		return nil, goerror.NewInvalidInput(nil, "token", "Entered token is not valid.")
	}

	return &ChallengeVerifyOutput{
		DeviceID: device.ID,
		Method:   device.Method.String(),
	}, nil
}
