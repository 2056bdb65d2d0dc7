// Package channel holds the outbound notification senders and their health checks.
package channel

import (
	"context"
	"net/http"

	"condo-automation/config"
	"condo-automation/internal/core/ports"
)

// Set is the senders and checkers built from configuration.
type Set struct {
	Senders  []ports.ChannelSender
	Checkers []ports.HealthChecker
}

// FromConfig builds a sender for every configured channel. Absent channels get
// no sender and a checker that reports not_configured.
func FromConfig(cfg config.ChannelsConfig, client *http.Client) Set {
	var set Set

	if cfg.Email.Configured() {
		set.Senders = append(set.Senders, NewEmailSender(cfg.Email))
		set.Checkers = append(set.Checkers, NewEmailHealthCheck(cfg.Email))
	} else {
		set.Checkers = append(set.Checkers, NotConfigured("email"))
	}

	if cfg.WhatsApp.Configured() {
		wa := NewWhatsAppSender(cfg.WhatsApp, client)
		set.Senders = append(set.Senders, wa)
		set.Checkers = append(set.Checkers, wa)
	} else {
		set.Checkers = append(set.Checkers, NotConfigured("whatsapp"))
	}

	if cfg.Push.Configured() {
		p := NewPushSender(cfg.Push, client)
		set.Senders = append(set.Senders, p)
		set.Checkers = append(set.Checkers, p)
	} else {
		set.Checkers = append(set.Checkers, NotConfigured("push"))
	}

	return set
}

type notConfigured string

// NotConfigured returns a checker for a dependency without credentials.
func NotConfigured(name string) ports.HealthChecker {
	return notConfigured(name)
}

func (n notConfigured) Name() string { return string(n) }

func (n notConfigured) Ping(context.Context) error { return ports.ErrNotConfigured }
