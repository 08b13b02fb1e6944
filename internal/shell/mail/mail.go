// Package mail sends transactional email.
package mail

import (
	"context"
	"errors"
	"log/slog"
)

var (
	// ErrSendFailed is returned when the provider does not accept a message.
	ErrSendFailed = errors.New("email delivery failed")

	// ErrNoRecipient is returned for messages without a recipient.
	ErrNoRecipient = errors.New("email has no recipient")
)

// Provider names.
const (
	ProviderSendGrid = "sendgrid"
	ProviderLog      = "log"
)

// =============================================================================
// Types
// =============================================================================

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outgoing email.
type Message struct {
	To          string
	From        string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Provider() string
}

// =============================================================================
// Messages
// =============================================================================

// RegistrationMessage is the email sent to a newly registered address.
func RegistrationMessage(to string) Message {
	return Message{
		To:      to,
		Subject: "Welcome to Strive",
		Text:    "Your registration was received. Welcome aboard!",
		HTML:    "<strong>Your registration was received. Welcome aboard!</strong>",
	}
}

// CatalogueMessage carries the generated book catalogue PDF.
func CatalogueMessage(to string, pdf []byte) Message {
	return Message{
		To:      to,
		Subject: "Your book catalogue",
		Text:    "The current book catalogue is attached.",
		HTML:    "<p>The current book catalogue is attached.</p>",
		Attachments: []Attachment{{
			Filename:    "catalogue.pdf",
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	}
}

// =============================================================================
// Log Mailer
// =============================================================================

// LogMailer writes messages to the log instead of sending them. It is used in
// development and whenever no provider key is configured.
type LogMailer struct {
	from   string
	logger *slog.Logger
}

// NewLogMailer creates a log mailer.
func NewLogMailer(from string, logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{from: from, logger: logger}
}

// Send logs the message.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if msg.From == "" {
		msg.From = m.from
	}
	m.logger.InfoContext(ctx, "email not sent, log provider active",
		"to", msg.To,
		"from", msg.From,
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
	)
	return nil
}

// Provider returns "log".
func (m *LogMailer) Provider() string {
	return ProviderLog
}
