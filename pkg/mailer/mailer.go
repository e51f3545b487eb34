// Package mailer delivers workflow notifications over email.
package mailer

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/pkg/config"
)

// ErrNoRecipient is returned when a message has no destination address.
var ErrNoRecipient = errors.New("mailer: recipient address is empty")

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mailer: subject is empty")
	}
	if m.HTML == "" && m.Text == "" {
		return errors.New("mailer: body is empty")
	}
	return nil
}

// Sender performs one delivery attempt. Implementations report transport
// failures through the returned error and never retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the SMTP sender when a host is configured, otherwise a sender
// that only logs the message.
func New(cfg config.MailConfig, logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		logger.Info("smtp host not configured, notifications will be logged only")
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg, logger)
}

// LogSender writes messages to the logger instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.Info("email (not delivered)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
