package usecase

import (
	"context"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

type SetupNumberInput struct {
	SessionToken string `validate:"required"`
	Number       string `validate:"required,e164"`
	Extension    string `validate:"omitempty,extension"`
}

type SetupNumberOutput struct {
	Step entity.WizardStep
}

func (s *Usecase) SetupNumber(ctx context.Context, in SetupNumberInput) (*SetupNumberOutput, error) {
	ctx, span := s.startSpan(ctx, "SetupNumber")
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

	if !sess.Step.IsNumberStep() {
		slog.WarnContext(ctx, "wizard session is not at the number step", "user_id", clm.UserID, "step", sess.Step)
		return nil, goerror.NewBusiness("Setup session is not at the number step", goerror.CodeConflict)
	}

	// Extensions that are switched off are silently dropped, not rejected.
	if !s.cfg.GetBool("modules.twofactor.extensions_enabled") {
		in.Extension = ""
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate device secret", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	digits := s.tokenDigits()
	code, err := s.totp.GenerateCode(secret, digits, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification token", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	pending := &entity.PhoneDevice{
		UserID:    clm.UserID,
		Name:      entity.DeviceNameBackup,
		Method:    sess.Method,
		Number:    in.Number,
		Extension: in.Extension,
		Key:       secret,
		Digits:    digits,
	}

	if err := s.deliverToken(ctx, pending, code); err != nil {
		slog.ErrorContext(ctx, "failed to deliver verification token", "user_id", clm.UserID, "method", sess.Method.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	sess.Number = in.Number
	sess.Extension = in.Extension
	sess.Key = secret
	sess.Digits = digits
	sess.Step = entity.WizardStepValidation

	if err := s.repoCache.SaveWizardSession(ctx, key, *sess, s.wizardTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to save wizard session", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SetupNumberOutput{Step: entity.WizardStepValidation}, nil
}
