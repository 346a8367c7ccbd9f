// Package gateway contains outbound transport implementations for the
// notification interfaces.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/menuflow/menuflow/internal/domain/notify"
)

// WebPushConfig holds the VAPID credentials used to sign push requests.
type WebPushConfig struct {
	Subscriber      string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	TTL             int
}

// WebPush delivers messages to browser push endpoints over the Web Push
// protocol.
type WebPush struct {
	cfg WebPushConfig
}

// NewWebPush creates a WebPush gateway with the given VAPID configuration.
func NewWebPush(cfg WebPushConfig) *WebPush {
	if cfg.TTL == 0 {
		cfg.TTL = 60
	}
	return &WebPush{cfg: cfg}
}

var _ notify.Gateway = (*WebPush)(nil)

// Send pushes one message to one subscription endpoint. Gone endpoints
// (HTTP 404/410) are reported as errors so callers can log and, eventually,
// prune them.
func (g *WebPush) Send(ctx context.Context, sub notify.Subscription, msg notify.Message) error {
	payload, err := json.Marshal(map[string]string{
		"title": msg.Title,
		"body":  msg.Body,
		"url":   msg.URL,
	})
	if err != nil {
		return fmt.Errorf("encoding push payload: %w", err)
	}

	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		Subscriber:      g.cfg.Subscriber,
		VAPIDPublicKey:  g.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: g.cfg.VAPIDPrivateKey,
		TTL:             g.cfg.TTL,
	})
	if err != nil {
		return fmt.Errorf("sending push to %q: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push endpoint %q responded %d", sub.Endpoint, resp.StatusCode)
	}
	return nil
}
