package usecase

import (
	"context"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

type SetupMethodInput struct {
	SessionToken string `validate:"required"`
	Method       string `validate:"required,oneof=sms call"`
}

type SetupMethodOutput struct {
	Step entity.WizardStep
}

func (s *Usecase) SetupMethod(ctx context.Context, in SetupMethodInput) (*SetupMethodOutput, error) {
	ctx, span := s.startSpan(ctx, "SetupMethod")
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

	if sess.Step != entity.WizardStepSetup {
		slog.WarnContext(ctx, "wizard session is past the method step", "user_id", clm.UserID, "step", sess.Step)
		return nil, goerror.NewBusiness("Setup session is past the method step", goerror.CodeConflict)
	}

	sess.Method = entity.MethodFromString(in.Method)
	sess.Step = entity.WizardStep(in.Method)

	if err := s.repoCache.SaveWizardSession(ctx, key, *sess, s.wizardTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to save wizard session", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SetupMethodOutput{Step: sess.Step}, nil
}
