package inbound

import (
	"context"

	"github.com/dominichul/phonefactor/internal/delivery/usecase"
	"github.com/dominichul/phonefactor/internal/pkg/router"
)

type uc interface {
	ConsumePhoneToken(ctx context.Context, in usecase.ConsumePhoneTokenInput) error
	ReceiptList(ctx context.Context, in usecase.ReceiptListInput) (*usecase.ReceiptListOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Admin (authorization enforced in the usecase)
	r.GET("/api/v1/delivery/receipts", end.ReceiptList)
}
