package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/voltgrid/billnotify/internal/transport"
)

// smtpSubject is the subject line used for direct SMTP delivery. The email
// API sets its own subject, so only this provider needs one.
const smtpSubject = "Scheduled Payment Failed - Action Required"

// SMTPConfig holds connection parameters for the SMTP provider.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string // "none", "starttls", "ssl_tls"
}

// SMTPProvider delivers notifications over SMTP using go-mail, for
// deployments that send directly instead of through the email API.
type SMTPProvider struct {
	config SMTPConfig
}

// NewSMTPProvider creates a new SMTPProvider with the given configuration.
func NewSMTPProvider(config SMTPConfig) *SMTPProvider {
	return &SMTPProvider{config: config}
}

// Name returns the provider identifier.
func (p *SMTPProvider) Name() string { return "smtp" }

// Send delivers msg through the configured SMTP server. SMTP has no HTTP
// status to classify, so any acceptance is a success outcome and any
// rejection surfaces as a transport-level error.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) (transport.Outcome[json.RawMessage], error) {
	var zero transport.Outcome[json.RawMessage]

	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return zero, fmt.Errorf("invalid from address: %w", err)
	}
	for _, r := range msg.To {
		if err := m.To(r); err != nil {
			return zero, fmt.Errorf("invalid recipient %q: %w", r, err)
		}
	}
	m.Subject(smtpSubject)
	m.SetBodyString(mail.TypeTextPlain, msg.MessageBody)

	c, err := mail.NewClient(p.config.Host,
		mail.WithPort(p.config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(p.config.Username),
		mail.WithPassword(p.config.Password),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(p.config.Encryption)),
	)
	if err != nil {
		return zero, fmt.Errorf("creating smtp client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return zero, fmt.Errorf("sending mail: %w", err)
	}
	return transport.Outcome[json.RawMessage]{}, nil
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
