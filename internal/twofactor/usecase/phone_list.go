package usecase

import (
	"context"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

type PhoneListOutput struct {
	Devices []entity.PhoneDevice
}

func (s *Usecase) PhoneList(ctx context.Context) (*PhoneListOutput, error) {
	ctx, span := s.startSpan(ctx, "PhoneList")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	devices, err := s.repoDB.GetBackupPhoneDevices(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get backup phone devices", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// Device keys never leave the usecase layer.
	for i := range devices {
		devices[i].Key = ""
	}

	return &PhoneListOutput{Devices: devices}, nil
}
