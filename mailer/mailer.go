// Package mailer sends the new-member notification emails over SMTP with
// STARTTLS and plain authentication.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/fsu-jena/matrix-notify/notify"
)

// SMTPMailer implements notify.Mailer against a single SMTP account. Every
// send dials a fresh session; the service emails rarely enough that holding
// a connection open would only give the server a reason to drop it.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string

	Subject string
	From    string
	To      string
	ReplyTo string
}

// Body renders the message text for a notification.
func Body(n notify.Notification) string {
	return fmt.Sprintf("New member %q (%s) joined the matrix %s %s", n.DisplayName, n.UserID, n.RoomKind, n.RoomName)
}

// Send composes and delivers one notification email. Success or failure is
// binary from the caller's perspective; the reactor logs and absorbs errors.
func (m *SMTPMailer) Send(ctx context.Context, n notify.Notification) error {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	if m.ReplyTo != "" {
		if err := msg.ReplyTo(m.ReplyTo); err != nil {
			return fmt.Errorf("reply-to address: %w", err)
		}
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, Body(n))

	client, err := mail.NewClient(m.Host,
		mail.WithPort(m.Port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.Username),
		mail.WithPassword(m.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
