package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/messaging"
	"github.com/dominichul/phonefactor/internal/shared/event"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

const publishMaxRetries uint64 = 3

// Messaging publishes phone-token delivery events to the broker. The
// delivery module consumes them and performs the actual send.
type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) SendSMS(ctx context.Context, device *entity.PhoneDevice, token string) error {
	return m.publish(ctx, "PublishSMSToken", device, token)
}

func (m *Messaging) MakeCall(ctx context.Context, device *entity.PhoneDevice, token string) error {
	return m.publish(ctx, "PublishCallToken", device, token)
}

func (m *Messaging) publish(ctx context.Context, spanName string, device *entity.PhoneDevice, token string) error {
	ctx, span := m.ins.Tracer("twofactor.outbound.gateway").Start(ctx, spanName)
	defer span.End()

	body, err := json.Marshal(event.PhoneTokenMessage{
		DeviceID:  device.ID,
		UserID:    device.UserID,
		Method:    device.Method.String(),
		Number:    device.Number,
		Extension: device.Extension,
		Token:     token,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	backoff := retry.WithMaxRetries(publishMaxRetries, retry.NewFibonacci(200*time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := m.client.Publish(ctx, event.PhoneTokenDestination, messaging.OutgoingMessage{
			Body:    body,
			Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
		}); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
