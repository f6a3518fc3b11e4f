package usecase

import (
	"context"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

type BackupCodeRotateOutput struct {
	Codes []string
}

func (s *Usecase) BackupCodeRotate(ctx context.Context) (*BackupCodeRotateOutput, error) {
	ctx, span := s.startSpan(ctx, "BackupCodeRotate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	plainCodes, err := s.mfaBackupCode.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate backup codes", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codes := make([]entity.BackupCode, 0, len(plainCodes))
	for _, code := range plainCodes {
		hashed, err := s.argon2id.Hash(code)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash backup code", "user_id", clm.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}

		codes = append(codes, entity.BackupCode{
			ID:     s.uid.Generate(),
			UserID: clm.UserID,
			Code:   string(hashed),
		})
	}

	if err := s.repoDB.ReplaceBackupCodes(ctx, clm.UserID, codes); err != nil {
		slog.ErrorContext(ctx, "failed to rotate backup codes", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &BackupCodeRotateOutput{Codes: plainCodes}, nil
}
