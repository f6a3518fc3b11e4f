package gateway

import (
	"context"
	"fmt"

	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/messaging"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

// Gateway delivers a computed token to a phone device. The device may be a
// pending wizard device that has no ID yet.
type Gateway interface {
	SendSMS(ctx context.Context, device *entity.PhoneDevice, token string) error
	MakeCall(ctx context.Context, device *entity.PhoneDevice, token string) error
}

// Supported drivers.
const (
	DriverFake      = "fake"
	DriverMessaging = "messaging"
)

// NewFromDriver builds a gateway for the configured driver.
func NewFromDriver(driver string, client messaging.Messaging, ins instrument.Instrumentation) (Gateway, error) {
	switch driver {
	case DriverFake:
		return NewFake(ins), nil
	case DriverMessaging:
		return NewMessaging(client, ins), nil
	default:
		return nil, fmt.Errorf("gateway: unsupported driver %q", driver)
	}
}
