package usecase

import (
	"context"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
)

type BackupCodeVerifyInput struct {
	Code string `validate:"required"`
}

func (s *Usecase) BackupCodeVerify(ctx context.Context, in BackupCodeVerifyInput) error {
	ctx, span := s.startSpan(ctx, "BackupCodeVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	codes, err := s.repoDB.GetBackupCodesByUserID(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get backup codes", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	for i := range codes {
		if codes[i].IsUsed() || !s.argon2id.Verify(codes[i].Code, in.Code) {
			continue
		}

		used, err := s.repoDB.MarkBackupCodeUsed(ctx, codes[i].ID, clm.UserID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to mark backup code used", "user_id", clm.UserID, "error", err)
			return goerror.NewServer(err)
		}

		// Lost the race with a concurrent consume of the same code.
		if !used {
			break
		}

		return nil
	}

	slog.WarnContext(ctx, "backup code did not validate", "user_id", clm.UserID)
	return goerror.NewInvalidInput(nil, "code", "Entered code is not valid.")
}
