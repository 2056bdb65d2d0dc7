package channel

import (
	"context"
	"errors"
	"fmt"

	"condo-automation/config"
	"condo-automation/internal/core/domain"

	"gopkg.in/gomail.v2"
)

// EmailSender delivers notifications over SMTP.
type EmailSender struct {
	from string
	dial func() (gomail.SendCloser, error)
}

// NewEmailSender creates an SMTP sender from channel config.
func NewEmailSender(cfg config.EmailConfig) *EmailSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &EmailSender{from: cfg.From, dial: d.Dial}
}

func (s *EmailSender) Channel() domain.NotificationChannel {
	return domain.ChannelEmail
}

// Send builds a plain-text message and relays it. gomail does not take a context,
// so the relay runs in its own goroutine and ctx bounds the wait. The message is
// only handed to the relay if ctx is still live once the connection is up; a
// dial that outlives ctx is closed without sending.
func (s *EmailSender) Send(ctx context.Context, n domain.NotificationRecord) error {
	if n.Recipient == "" {
		return errors.New("email: empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", n.Recipient)
	m.SetHeader("Subject", n.Payload.Subject)
	m.SetBody("text/plain", n.Payload.Body)

	done := make(chan error, 1)
	go func() { done <- s.relay(ctx, m) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("email: %w", ctx.Err())
	}
}

func (s *EmailSender) relay(ctx context.Context, m *gomail.Message) error {
	sc, err := s.dial()
	if err != nil {
		return fmt.Errorf("email: dial: %w", err)
	}
	defer sc.Close()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	if err := gomail.Send(sc, m); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}

// EmailHealthCheck dials the SMTP relay and closes the connection.
type EmailHealthCheck struct {
	dial func() (gomail.SendCloser, error)
}

// NewEmailHealthCheck creates an SMTP health checker.
func NewEmailHealthCheck(cfg config.EmailConfig) *EmailHealthCheck {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &EmailHealthCheck{dial: d.Dial}
}

func (h *EmailHealthCheck) Name() string {
	return "email"
}

func (h *EmailHealthCheck) Ping(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		sc, err := h.dial()
		if err == nil {
			err = sc.Close()
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
