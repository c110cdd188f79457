package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPConfig describes the outbound mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPTransport delivers HTML emails over SMTP.
// A fresh client is built for each message so concurrent sends never share a connection.
type SMTPTransport struct {
	cfg SMTPConfig
}

func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("sender address is required")
	}
	return &SMTPTransport{cfg: cfg}, nil
}

func (t *SMTPTransport) SendEmail(ctx context.Context, to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	msg := mail.NewMsg()
	if err := msg.From(t.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", t.cfg.From, err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := t.newClient()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to deliver email: %w", err)
	}
	return nil
}

func (t *SMTPTransport) newClient() (*mail.Client, error) {
	opts := []mail.Option{mail.WithPort(t.cfg.Port)}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}
	client, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client, nil
}
