package mailer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/noah-isme/transcript-clearance-api/pkg/config"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	dialer  dialer
	from    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSMTPSender builds a gomail backed sender.
func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPSender{dialer: d, from: cfg.From, timeout: timeout, logger: logger}
}

// Send implements Sender. The call is bounded by the configured timeout and
// the context, whichever ends first. gomail offers no cancellation, so a send
// abandoned on timeout keeps running in the background and the message may
// still be delivered after an error was returned. Only the connection attempt
// itself is capped by gomail, at ten seconds.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m := s.buildMessage(msg)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		s.log().Debug("email delivered", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	case <-ctx.Done():
		s.log().Warn("smtp send abandoned, delivery may still complete", zap.String("to", msg.To), zap.Error(ctx.Err()))
		return fmt.Errorf("smtp send to %s: %w", msg.To, ctx.Err())
	}
}

func (s *SMTPSender) log() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

func (s *SMTPSender) buildMessage(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	return m
}
