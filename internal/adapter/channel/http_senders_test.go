package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"condo-automation/config"
	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppSender_Send(t *testing.T) {
	var body whatsAppMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/5511999/messages", r.URL.Path)
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWhatsAppSender(config.WhatsAppConfig{BaseURL: srv.URL + "/", Token: "wa-token", SenderID: "5511999"}, srv.Client())
	err := s.Send(context.Background(), domain.NotificationRecord{
		Recipient: "+5511988887777",
		Payload:   domain.NotificationPayload{Subject: "Aviso", Body: "Boleto disponível"},
	})
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", body.MessagingProduct)
	assert.Equal(t, "+5511988887777", body.To)
	assert.Equal(t, "*Aviso*\nBoleto disponível", body.Text.Body)
	assert.Equal(t, domain.ChannelWhatsApp, s.Channel())
}

func TestWhatsAppSender_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid recipient"}}`))
	}))
	defer srv.Close()

	s := NewWhatsAppSender(config.WhatsAppConfig{BaseURL: srv.URL, Token: "t", SenderID: "1"}, srv.Client())
	err := s.Send(context.Background(), domain.NotificationRecord{Recipient: "123"})
	assert.ErrorContains(t, err, "unexpected HTTP 400")
	assert.ErrorContains(t, err, "invalid recipient")
}

func TestWhatsAppSender_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/42", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer srv.Close()

	good := NewWhatsAppSender(config.WhatsAppConfig{BaseURL: srv.URL, Token: "good", SenderID: "42"}, srv.Client())
	assert.NoError(t, good.Ping(context.Background()))

	bad := NewWhatsAppSender(config.WhatsAppConfig{BaseURL: srv.URL, Token: "bad", SenderID: "42"}, srv.Client())
	assert.Error(t, bad.Ping(context.Background()))
}

func TestPushSender_Send(t *testing.T) {
	var body pushMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, "key=push-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"success":1}`))
	}))
	defer srv.Close()

	s := NewPushSender(config.PushConfig{BaseURL: srv.URL, ServerKey: "push-key"}, srv.Client())
	err := s.Send(context.Background(), domain.NotificationRecord{
		Recipient: "device-token",
		Payload: domain.NotificationPayload{
			Subject: "Reserva confirmada",
			Body:    "Salão de festas, sábado",
			Data:    map[string]string{"booking_id": "b-1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "device-token", body.To)
	require.NotNil(t, body.Notification)
	assert.Equal(t, "Reserva confirmada", body.Notification.Title)
	assert.Equal(t, "b-1", body.Data["booking_id"])
	assert.False(t, body.DryRun)
}

func TestPushSender_PingIsDryRun(t *testing.T) {
	var body pushMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	}))
	defer srv.Close()

	s := NewPushSender(config.PushConfig{BaseURL: srv.URL, ServerKey: "k"}, srv.Client())
	require.NoError(t, s.Ping(context.Background()))
	assert.True(t, body.DryRun)
	assert.Equal(t, "push", s.Name())
}

func TestPushSender_EmptyToken(t *testing.T) {
	s := NewPushSender(config.PushConfig{BaseURL: "http://unused", ServerKey: "k"}, nil)
	assert.ErrorContains(t, s.Send(context.Background(), domain.NotificationRecord{}), "empty device token")
}

func TestFromConfig(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		set := FromConfig(config.ChannelsConfig{}, nil)
		assert.Empty(t, set.Senders)
		require.Len(t, set.Checkers, 3)
		for _, c := range set.Checkers {
			assert.True(t, errors.Is(c.Ping(context.Background()), ports.ErrNotConfigured), c.Name())
		}
	})

	t.Run("all configured", func(t *testing.T) {
		set := FromConfig(config.ChannelsConfig{
			Email:    config.EmailConfig{Host: "smtp.local", Port: 25, From: "a@b.c"},
			WhatsApp: config.WhatsAppConfig{BaseURL: "http://wa", Token: "t", SenderID: "1"},
			Push:     config.PushConfig{BaseURL: "http://push", ServerKey: "k"},
		}, nil)
		require.Len(t, set.Senders, 3)
		assert.Equal(t, domain.ChannelEmail, set.Senders[0].Channel())
		assert.Equal(t, domain.ChannelWhatsApp, set.Senders[1].Channel())
		assert.Equal(t, domain.ChannelPush, set.Senders[2].Channel())

		names := []string{}
		for _, c := range set.Checkers {
			names = append(names, c.Name())
		}
		assert.Equal(t, []string{"email", "whatsapp", "push"}, names)
	})
}
