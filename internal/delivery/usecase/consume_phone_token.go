package usecase

import (
	"context"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/delivery/entity"
	"github.com/dominichul/phonefactor/internal/pkg/valueobject"
)

type ConsumePhoneTokenInput struct {
	DeviceID  int64
	UserID    int64  `validate:"required,gt=0"`
	Method    string `validate:"required,oneof=sms call"`
	Number    string `validate:"required,e164"`
	Extension string `validate:"omitempty,extension"`
	Token     string `validate:"required"`
}

// ConsumePhoneToken delivers a token from the broker and records a receipt
// either way. A malformed event is dropped, not retried; a carrier failure
// is returned so the broker redelivers.
func (s *Usecase) ConsumePhoneToken(ctx context.Context, in ConsumePhoneTokenInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePhoneToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "phone token event failed validation", "user_id", in.UserID, "error", err)
		return nil
	}

	deliverErr := s.carrier.Deliver(ctx, in.Method, in.Number, in.Extension, in.Token)

	metadata := valueobject.JSONMap{}
	if in.Extension != "" {
		metadata.Set("extension", in.Extension)
	}

	receipt := entity.Receipt{
		ID:       s.uid.Generate(),
		DeviceID: in.DeviceID,
		UserID:   in.UserID,
		Method:   in.Method,
		Number:   in.Number,
		Driver:   s.carrier.Name(),
		Status:   entity.ReceiptStatusSent,
		Metadata: metadata,
	}
	if deliverErr != nil {
		receipt.Status = entity.ReceiptStatusFailed
		receipt.Metadata.Set("error", deliverErr.Error())
	}

	if err := s.repoDB.CreateReceipt(ctx, receipt); err != nil {
		slog.ErrorContext(ctx, "failed to repo create delivery receipt", "user_id", in.UserID, "error", err)
		return err
	}

	if deliverErr != nil {
		slog.ErrorContext(ctx, "failed to deliver phone token", "user_id", in.UserID, "method", in.Method, "error", deliverErr)
		return deliverErr
	}

	return nil
}
