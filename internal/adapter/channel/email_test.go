package channel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"condo-automation/config"
	"condo-automation/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestEmailSender_BuildsMessage(t *testing.T) {
	sc := &fakeSendCloser{}
	s := &EmailSender{from: "no-reply@condo.example", dial: sc.dial}

	err := s.Send(context.Background(), domain.NotificationRecord{
		Recipient: "ana@example.com",
		Channel:   domain.ChannelEmail,
		Payload:   domain.NotificationPayload{Subject: "Invoice due", Body: "Your invoice is due in 3 days."},
	})
	require.NoError(t, err)
	require.Equal(t, 1, sc.sentCount())
	assert.Equal(t, "no-reply@condo.example", sc.from)
	assert.Equal(t, []string{"ana@example.com"}, sc.to)
	assert.Contains(t, sc.body, "Subject: Invoice due")
	assert.Contains(t, sc.body, "Your invoice is due in 3 days.")
	assert.True(t, sc.isClosed())
	assert.Equal(t, domain.ChannelEmail, s.Channel())
}

func TestEmailSender_RelayError(t *testing.T) {
	sc := &fakeSendCloser{sendErr: errors.New("550 mailbox unavailable")}
	s := &EmailSender{from: "a@b.c", dial: sc.dial}

	err := s.Send(context.Background(), domain.NotificationRecord{Recipient: "x@y.z"})
	assert.ErrorContains(t, err, "550")
	assert.True(t, sc.isClosed())
}

func TestEmailSender_DialError(t *testing.T) {
	s := &EmailSender{from: "a@b.c", dial: func() (gomail.SendCloser, error) { return nil, errors.New("dial tcp: refused") }}

	err := s.Send(context.Background(), domain.NotificationRecord{Recipient: "x@y.z"})
	assert.ErrorContains(t, err, "email: dial")
}

func TestEmailSender_EmptyRecipient(t *testing.T) {
	s := NewEmailSender(config.EmailConfig{Host: "localhost", Port: 25, From: "a@b.c"})

	err := s.Send(context.Background(), domain.NotificationRecord{})
	assert.ErrorContains(t, err, "empty recipient")
}

func TestEmailSender_SlowDialNeverSends(t *testing.T) {
	release := make(chan struct{})
	sc := &fakeSendCloser{}
	dialed := make(chan struct{})
	s := &EmailSender{from: "a@b.c", dial: func() (gomail.SendCloser, error) {
		defer close(dialed)
		<-release
		return sc, nil
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Send(ctx, domain.NotificationRecord{Recipient: "x@y.z"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The connection comes up after the deadline: it is closed unused.
	close(release)
	<-dialed
	assert.Eventually(t, sc.isClosed, time.Second, 5*time.Millisecond)
	assert.Zero(t, sc.sentCount())
}

type fakeSendCloser struct {
	mu      sync.Mutex
	sendErr error
	sent    int
	closed  bool
	from    string
	to      []string
	body    string
}

func (f *fakeSendCloser) dial() (gomail.SendCloser, error) { return f, nil }

func (f *fakeSendCloser) Send(from string, to []string, msg io.WriterTo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}
	f.sent++
	f.from, f.to, f.body = from, to, buf.String()
	return nil
}

func (f *fakeSendCloser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSendCloser) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSendCloser) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

func TestEmailHealthCheck(t *testing.T) {
	sc := &fakeSendCloser{}
	h := &EmailHealthCheck{dial: func() (gomail.SendCloser, error) { return sc, nil }}
	assert.Equal(t, "email", h.Name())
	assert.NoError(t, h.Ping(context.Background()))
	assert.True(t, sc.isClosed())

	h = &EmailHealthCheck{dial: func() (gomail.SendCloser, error) { return nil, errors.New("dial tcp: refused") }}
	assert.ErrorContains(t, h.Ping(context.Background()), "refused")
}
