package usecase

import (
	"context"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

type SetupStartOutput struct {
	SessionToken string
	Step         entity.WizardStep
}

func (s *Usecase) SetupStart(ctx context.Context) (*SetupStartOutput, error) {
	ctx, span := s.startSpan(ctx, "SetupStart")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	token := s.oid.Generate()
	key, err := s.sessionCacheKey(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash wizard session token", "error", err)
		return nil, goerror.NewServer(err)
	}

	sess := entity.WizardSession{
		UserID: clm.UserID,
		Step:   entity.WizardStepSetup,
	}

	if err := s.repoCache.SaveWizardSession(ctx, key, sess, s.wizardTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to save wizard session", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SetupStartOutput{
		SessionToken: token,
		Step:         entity.WizardStepSetup,
	}, nil
}
