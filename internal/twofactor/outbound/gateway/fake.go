package gateway

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
	"go.uber.org/atomic"
)

// FakeCall records one delivery made through the fake gateway.
type FakeCall struct {
	Method string
	Number string
	Token  string
}

// Fake logs deliveries instead of sending them and keeps a record of every
// call. Used in development and in tests.
type Fake struct {
	ins instrument.Instrumentation

	smsCount  atomic.Int64
	callCount atomic.Int64

	mu    sync.Mutex
	calls []FakeCall
}

func NewFake(ins instrument.Instrumentation) *Fake {
	return &Fake{ins: ins}
}

func (f *Fake) SendSMS(ctx context.Context, device *entity.PhoneDevice, token string) error {
	ctx, span := f.ins.Tracer("twofactor.outbound.gateway").Start(ctx, "FakeSendSMS")
	defer span.End()

	f.smsCount.Inc()
	f.record(entity.MethodSMS, device, token)
	slog.InfoContext(ctx, "fake gateway sms", "number", device.Number, "token", token)
	return nil
}

func (f *Fake) MakeCall(ctx context.Context, device *entity.PhoneDevice, token string) error {
	ctx, span := f.ins.Tracer("twofactor.outbound.gateway").Start(ctx, "FakeMakeCall")
	defer span.End()

	f.callCount.Inc()
	f.record(entity.MethodCall, device, token)
	slog.InfoContext(ctx, "fake gateway call", "number", device.Number, "token", token)
	return nil
}

func (f *Fake) record(method entity.Method, device *entity.PhoneDevice, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, FakeCall{
		Method: method.String(),
		Number: device.Number,
		Token:  token,
	})
}

// Calls returns a copy of the recorded deliveries.
func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// SMSCount returns how many SMS deliveries were made.
func (f *Fake) SMSCount() int64 {
	return f.smsCount.Load()
}

// CallCount returns how many voice deliveries were made.
func (f *Fake) CallCount() int64 {
	return f.callCount.Load()
}
