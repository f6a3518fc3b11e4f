package carrier

import (
	"context"
	"fmt"

	"github.com/dominichul/phonefactor/internal/pkg/config"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/mail"
)

// Carrier pushes a token to a phone number through some delivery channel.
type Carrier interface {
	// Name reports the driver name recorded on receipts.
	Name() string
	// Deliver sends the token to the number using the given method.
	Deliver(ctx context.Context, method, number, extension, token string) error
}

// Supported drivers.
const (
	DriverSMTP = "smtp"
	DriverLog  = "log"
)

// NewFromDriver builds a carrier for the configured driver.
func NewFromDriver(driver string, client mail.Mail, cfg config.Config, ins instrument.Instrumentation) (Carrier, error) {
	switch driver {
	case DriverSMTP:
		return NewSMTP(client, cfg, ins), nil
	case DriverLog:
		return NewLog(ins), nil
	default:
		return nil, fmt.Errorf("carrier: unsupported driver %q", driver)
	}
}
