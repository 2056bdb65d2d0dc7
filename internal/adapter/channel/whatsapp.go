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

// WhatsAppSender delivers text messages through a WhatsApp Cloud-style API.
type WhatsAppSender struct {
	baseURL  string
	token    string
	senderID string
	client   *http.Client
}

// NewWhatsAppSender creates a WhatsApp sender. client may be nil.
func NewWhatsAppSender(cfg config.WhatsAppConfig, client *http.Client) *WhatsAppSender {
	if client == nil {
		client = &http.Client{}
	}
	return &WhatsAppSender{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		senderID: cfg.SenderID,
		client:   client,
	}
}

func (s *WhatsAppSender) Channel() domain.NotificationChannel {
	return domain.ChannelWhatsApp
}

type whatsAppMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (s *WhatsAppSender) Send(ctx context.Context, n domain.NotificationRecord) error {
	if n.Recipient == "" {
		return errors.New("whatsapp: empty recipient")
	}

	msg := whatsAppMessage{MessagingProduct: "whatsapp", To: n.Recipient, Type: "text"}
	msg.Text.Body = n.Payload.Body
	if n.Payload.Subject != "" {
		msg.Text.Body = "*" + n.Payload.Subject + "*\n" + n.Payload.Body
	}

	if err := postJSON(ctx, s.client, s.baseURL+"/"+s.senderID+"/messages", s.authHeader(), msg); err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	return nil
}

func (s *WhatsAppSender) Name() string {
	return "whatsapp"
}

// Ping reads the sender phone number resource.
func (s *WhatsAppSender) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+s.senderID, nil)
	if err != nil {
		return err
	}
	req.Header = s.authHeader()
	return do(s.client, req)
}

func (s *WhatsAppSender) authHeader() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+s.token)
	return h
}
