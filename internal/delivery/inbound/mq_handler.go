package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/delivery/usecase"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/messaging"
	"github.com/dominichul/phonefactor/internal/pkg/uid"
	"github.com/dominichul/phonefactor/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) PhoneTokenDelivery(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("delivery.inbound.mq").Start(ctx, "PhoneTokenDelivery")
	defer span.End()

	// Token values must not reach the logs.
	slog.InfoContext(ctx, "consume: phone token delivery", "msg_id", msg.ID())

	var payload event.PhoneTokenMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of phone token delivery", "msg_id", msg.ID(), "error", err)
		return nil
	}

	if err := h.uc.ConsumePhoneToken(ctx, usecase.ConsumePhoneTokenInput{
		DeviceID:  payload.DeviceID,
		UserID:    payload.UserID,
		Method:    payload.Method,
		Number:    payload.Number,
		Extension: payload.Extension,
		Token:     payload.Token,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume phone token", "msg_id", msg.ID(), "error", err)
		return err
	}

	return nil
}
