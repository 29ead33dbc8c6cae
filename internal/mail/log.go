package mail

import (
	"context"
	"log/slog"
)

// LogMailer "delivers" mail by writing it to the log. It is the
// development fallback used when no SMTP relay is configured, so the
// login flow stays usable locally — the code shows up in the server
// output instead of an inbox.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("mail (log delivery)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
