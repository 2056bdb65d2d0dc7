package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"condo-automation/config"
	"condo-automation/internal/core/domain"
)

// PushSender delivers device notifications through an FCM-style HTTP API.
type PushSender struct {
	baseURL   string
	serverKey string
	client    *http.Client
}

// NewPushSender creates a push sender. client may be nil.
func NewPushSender(cfg config.PushConfig, client *http.Client) *PushSender {
	if client == nil {
		client = &http.Client{}
	}
	return &PushSender{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		serverKey: cfg.ServerKey,
		client:    client,
	}
}

func (s *PushSender) Channel() domain.NotificationChannel {
	return domain.ChannelPush
}

type pushMessage struct {
	To              string            `json:"to,omitempty"`
	RegistrationIDs []string          `json:"registration_ids,omitempty"`
	DryRun          bool              `json:"dry_run,omitempty"`
	Notification    *pushContent      `json:"notification,omitempty"`
	Data            map[string]string `json:"data,omitempty"`
}

type pushContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *PushSender) Send(ctx context.Context, n domain.NotificationRecord) error {
	if n.Recipient == "" {
		return errors.New("push: empty device token")
	}

	msg := pushMessage{
		To:           n.Recipient,
		Notification: &pushContent{Title: n.Payload.Subject, Body: n.Payload.Body},
		Data:         n.Payload.Data,
	}
	if err := postJSON(ctx, s.client, s.baseURL+"/send", s.authHeader(), msg); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

func (s *PushSender) Name() string {
	return "push"
}

// Ping issues a dry-run send, which validates credentials without delivering.
func (s *PushSender) Ping(ctx context.Context) error {
	msg := pushMessage{RegistrationIDs: []string{"health-check"}, DryRun: true}
	return postJSON(ctx, s.client, s.baseURL+"/send", s.authHeader(), msg)
}

func (s *PushSender) authHeader() http.Header {
	h := http.Header{}
	h.Set("Authorization", "key="+s.serverKey)
	return h
}
