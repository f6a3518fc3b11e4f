package carrier

import (
	"context"
	"strings"

	"github.com/dominichul/phonefactor/internal/pkg/config"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

// SMTP bridges tokens onto carrier email-to-SMS gateways: the message is
// mailed to <number>@<carrier domain> and the carrier forwards it to the
// handset. Voice-method tokens go through the carrier's voice domain.
type SMTP struct {
	client mail.Mail
	cfg    config.Config
	ins    instrument.Instrumentation
}

func NewSMTP(client mail.Mail, cfg config.Config, ins instrument.Instrumentation) *SMTP {
	return &SMTP{client: client, cfg: cfg, ins: ins}
}

func (s *SMTP) Name() string {
	return DriverSMTP
}

func (s *SMTP) Deliver(ctx context.Context, method, number, extension, token string) error {
	ctx, span := s.ins.Tracer("delivery.outbound.carrier").Start(ctx, "SMTPDeliver")
	defer span.End()

	domain := s.cfg.GetString("modules.delivery.sms_domain")
	if method == "call" {
		domain = s.cfg.GetString("modules.delivery.voice_domain")
	}

	body := "Your token is: " + token
	if extension != "" {
		body += " (ext " + extension + ")"
	}

	err := s.client.Send(ctx, mail.Message{
		From:     s.cfg.GetString("modules.delivery.from"),
		To:       []string{bridgeAddress(number, domain)},
		Subject:  "Verification token",
		TextBody: body,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// bridgeAddress builds the gateway address. Carrier gateways expect the bare
// subscriber number, so the E.164 plus sign is dropped.
func bridgeAddress(number, domain string) string {
	return strings.TrimPrefix(number, "+") + "@" + domain
}
