package gateway

import (
	"context"
	"testing"

	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
)

func TestFakeRecordsDeliveries(t *testing.T) {
	f := NewFake(instrument.NewNoop())
	ctx := context.Background()

	sms := &entity.PhoneDevice{Number: "+15551234567", Method: entity.MethodSMS}
	voice := &entity.PhoneDevice{Number: "+442071234567", Method: entity.MethodCall}

	if err := f.SendSMS(ctx, sms, "123456"); err != nil {
		t.Fatalf("SendSMS: %v", err)
	}
	if err := f.MakeCall(ctx, voice, "654321"); err != nil {
		t.Fatalf("MakeCall: %v", err)
	}
	if err := f.SendSMS(ctx, sms, "111111"); err != nil {
		t.Fatalf("SendSMS: %v", err)
	}

	if got := f.SMSCount(); got != 2 {
		t.Errorf("SMSCount() = %d, want 2", got)
	}
	if got := f.CallCount(); got != 1 {
		t.Errorf("CallCount() = %d, want 1", got)
	}

	calls := f.Calls()
	if len(calls) != 3 {
		t.Fatalf("recorded %d calls, want 3", len(calls))
	}
	if calls[1].Method != "call" || calls[1].Number != "+442071234567" || calls[1].Token != "654321" {
		t.Errorf("second call = %+v, want the voice delivery", calls[1])
	}
}

func TestNewFromDriver(t *testing.T) {
	ins := instrument.NewNoop()

	if _, err := NewFromDriver(DriverFake, nil, ins); err != nil {
		t.Errorf("NewFromDriver(fake): %v", err)
	}
	if _, err := NewFromDriver("telegraph", nil, ins); err == nil {
		t.Error("NewFromDriver(telegraph) did not fail")
	}
}
