package usecase

import (
	"context"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
)

type PhoneDeleteInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) PhoneDelete(ctx context.Context, in PhoneDeleteInput) error {
	ctx, span := s.startSpan(ctx, "PhoneDelete")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	// The delete statement only matches non-default devices, so an attempt
	// against the default device is indistinguishable from a missing row.
	deleted, err := s.repoDB.DeleteBackupPhoneDevice(ctx, in.ID, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete phone device", "user_id", clm.UserID, "device_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	if !deleted {
		slog.WarnContext(ctx, "phone device not deletable", "user_id", clm.UserID, "device_id", in.ID)
		return goerror.NewBusiness("Phone device not found", goerror.CodeNotFound)
	}

	return nil
}
