package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

type SetupValidateInput struct {
	SessionToken string `validate:"required"`
	Token        string `validate:"required"`
}

type SetupValidateOutput struct {
	DeviceID   int64
	SuccessURL string
}

func (s *Usecase) SetupValidate(ctx context.Context, in SetupValidateInput) (*SetupValidateOutput, error) {
	ctx, span := s.startSpan(ctx, "SetupValidate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	key, sess, err := s.loadWizardSession(ctx, clm.UserID, in.SessionToken)
	if err != nil {
		return nil, err
	}

	if sess.Step != entity.WizardStepValidation {
		slog.WarnContext(ctx, "wizard session is not at the validation step", "user_id", clm.UserID, "step", sess.Step)
		return nil, goerror.NewBusiness("Setup session is not at the validation step", goerror.CodeConflict)
	}

	if !s.totp.Validate(in.Token, sess.Key, sess.Digits, s.clock.Now()) {
		slog.WarnContext(ctx, "wizard token did not validate", "user_id", clm.UserID)
		return nil, goerror.NewInvalidInput(nil, "token", "Entered token is not valid.")
	}

	encryptedKey, err := s.encryptDeviceKey(clm.UserID, sess.Key)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt device key", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	device := entity.PhoneDevice{
		ID:        s.uid.Generate(),
		UserID:    clm.UserID,
		Name:      entity.DeviceNameBackup,
		Method:    sess.Method,
		Number:    sess.Number,
		Extension: sess.Extension,
		Key:       encryptedKey,
		Digits:    sess.Digits,
		CreatedAt: s.clock.Now(),
	}

	if err := s.repoDB.CreatePhoneDevice(ctx, device); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.NewBusiness("Phone device already registered", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to create phone device", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoCache.DeleteWizardSession(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to drop wizard session", "user_id", clm.UserID, "error", err)
	}

	successURL, err := s.successURL.Path()
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve success url", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SetupValidateOutput{
		DeviceID:   device.ID,
		SuccessURL: successURL,
	}, nil
}
