package carrier

import (
	"context"
	"testing"

	"github.com/dominichul/phonefactor/internal/pkg/config"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/mail"
)

type fakeMail struct {
	sent []mail.Message
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMail) Close() error { return nil }

const carrierConfigYAML = `
modules:
  delivery:
    sms_domain: "sms.example.net"
    voice_domain: "voice.example.net"
    from: "no-reply@example.net"
`

func newCarrierConfig(t *testing.T) config.Config {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(carrierConfigYAML))
	if err != nil {
		t.Fatalf("config.NewViperFromBytes: %v", err)
	}
	return cfg
}

func TestBridgeAddress(t *testing.T) {
	if got := bridgeAddress("+15551234567", "sms.example.net"); got != "15551234567@sms.example.net" {
		t.Errorf("bridgeAddress = %q", got)
	}
}

func TestSMTPDeliver(t *testing.T) {
	client := &fakeMail{}
	c := NewSMTP(client, newCarrierConfig(t), instrument.NewNoop())

	if err := c.Deliver(context.Background(), "sms", "+15551234567", "", "123456"); err != nil {
		t.Fatalf("Deliver(sms): %v", err)
	}
	if err := c.Deliver(context.Background(), "call", "+442071234567", "9", "654321"); err != nil {
		t.Fatalf("Deliver(call): %v", err)
	}

	if len(client.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(client.sent))
	}

	sms := client.sent[0]
	if sms.To[0] != "15551234567@sms.example.net" {
		t.Errorf("sms recipient = %q", sms.To[0])
	}
	if sms.TextBody != "Your token is: 123456" {
		t.Errorf("sms body = %q", sms.TextBody)
	}

	voice := client.sent[1]
	if voice.To[0] != "442071234567@voice.example.net" {
		t.Errorf("voice recipient = %q", voice.To[0])
	}
	if voice.TextBody != "Your token is: 654321 (ext 9)" {
		t.Errorf("voice body = %q", voice.TextBody)
	}
}

func TestNewFromDriver(t *testing.T) {
	cfg := newCarrierConfig(t)
	ins := instrument.NewNoop()

	if _, err := NewFromDriver(DriverLog, nil, cfg, ins); err != nil {
		t.Errorf("NewFromDriver(log): %v", err)
	}
	if _, err := NewFromDriver(DriverSMTP, &fakeMail{}, cfg, ins); err != nil {
		t.Errorf("NewFromDriver(smtp): %v", err)
	}
	if _, err := NewFromDriver("pigeon", nil, cfg, ins); err != nil {
		t.Error("NewFromDriver(pigeon) did not fail")
	}
}
