package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig configures the SMTP mailer.
type SMTPConfig struct {
	Host     string // SMTP server hostname
	Port     int    // SMTP server port (typically 587)
	Username string // authentication username (empty disables AUTH)
	Password string
	From     string // sender address, e.g. "Notewell <no-reply@notewell.app>"
}

// SMTPMailer sends mail through a plain SMTP relay.
//
// The connection is established per message via smtp.SendMail — at the
// volume of a login-code mailer there is nothing to gain from keeping
// a connection pool, and failures stay isolated per send.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

var errSMTPConfig = errors.New("mail: SMTP host, port, and from address are required")

// NewSMTPMailer constructs an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return nil, errSMTPConfig
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
		auth: auth,
	}, nil
}

// Send delivers a plain-text message.
//
// Headers and body are assembled by hand because net/smtp only speaks
// raw RFC 5322: CRLF line endings, a blank line between headers and
// body.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return errors.New("mail: recipient is required")
	}

	headers := []string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	raw := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(raw)); err != nil {
		return fmt.Errorf("mail: sending to %s: %w", to, err)
	}
	return nil
}
