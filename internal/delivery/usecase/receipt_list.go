package usecase

import (
	"context"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/delivery/entity"
	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/shared/constant"
)

const receiptListDefaultSize int32 = 50
const receiptListMaxSize int32 = 500

type ReceiptListInput struct {
	AfterID int64
	Size    int32
}

type ReceiptListOutput struct {
	Receipts []entity.Receipt
}

func (s *Usecase) ReceiptList(ctx context.Context, in ReceiptListInput) (*ReceiptListOutput, error) {
	ctx, span := s.startSpan(ctx, "ReceiptList")
	defer span.End()

	_, err := s.authenticatedAndAuthorized(ctx, constant.PermDeliveryReceipts, constant.PermActRead)
	if err != nil {
		return nil, err
	}

	if in.Size <= 0 {
		in.Size = receiptListDefaultSize
	}
	if in.Size > receiptListMaxSize {
		in.Size = receiptListMaxSize
	}

	receipts, err := s.repoDB.GetReceiptPage(ctx, in.AfterID, in.Size)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get delivery receipts", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ReceiptListOutput{Receipts: receipts}, nil
}
