package carrier

import (
	"context"
	"log/slog"

	"github.com/dominichul/phonefactor/internal/pkg/instrument"
)

// Log writes deliveries to the log instead of sending them. Development
// driver.
type Log struct {
	ins instrument.Instrumentation
}

func NewLog(ins instrument.Instrumentation) *Log {
	return &Log{ins: ins}
}

func (l *Log) Name() string {
	return DriverLog
}

func (l *Log) Deliver(ctx context.Context, method, number, extension, token string) error {
	ctx, span := l.ins.Tracer("delivery.outbound.carrier").Start(ctx, "LogDeliver")
	defer span.End()

	slog.InfoContext(ctx, "log carrier delivery", "method", method, "number", number, "extension", extension, "token", token)
	return nil
}
