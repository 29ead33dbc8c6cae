// Package mail delivers transactional email. The only message this
// application ever sends is the login code, so the interface is a
// single narrow Send call.
package mail

import "context"

// Mailer abstracts the delivery mechanism (SMTP in production, a
// logger in development, a fake in tests).
type Mailer interface {
	// Send delivers a plain-text email or returns an error. There is no
	// internal retry — a failure surfaces synchronously to the caller.
	Send(ctx context.Context, to, subject, body string) error
}
