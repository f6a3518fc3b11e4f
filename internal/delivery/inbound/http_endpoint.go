package inbound

import (
	"strconv"
	"time"

	"github.com/dominichul/phonefactor/internal/delivery/entity"
	"github.com/dominichul/phonefactor/internal/delivery/usecase"
	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/pkg/router"
	"github.com/dominichul/phonefactor/internal/pkg/valueobject"
	"github.com/samber/lo"
)

// HTTPEndpoint exposes HTTP handlers for delivery receipts.
type HTTPEndpoint struct {
	uc uc
}

type ReceiptResponse struct {
	ID        int64               `json:"id,string"`
	DeviceID  int64               `json:"device_id,string"`
	UserID    int64               `json:"user_id,string"`
	Method    string              `json:"method"`
	Number    string              `json:"number"`
	Driver    string              `json:"driver"`
	Status    string              `json:"status"`
	Metadata  valueobject.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// ReceiptList returns delivery receipts, oldest first, keyed by after_id.
func (h *HTTPEndpoint) ReceiptList(r *router.Request) (any, error) {
	var afterID int64
	if raw := r.GetQuery("after_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, goerror.NewInvalidFormat("Invalid query after_id")
		}
		afterID = v
	}

	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ReceiptList(r.Context(), usecase.ReceiptListInput{
		AfterID: afterID,
		Size:    size,
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(resp.Receipts, func(rc entity.Receipt, _ int) ReceiptResponse {
		return ReceiptResponse{
			ID:        rc.ID,
			DeviceID:  rc.DeviceID,
			UserID:    rc.UserID,
			Method:    rc.Method,
			Number:    rc.Number,
			Driver:    rc.Driver,
			Status:    rc.Status.String(),
			Metadata:  rc.Metadata,
			CreatedAt: rc.CreatedAt,
		}
	}), nil
}
