package service

import (
	"context"
	"io"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/spec-kit/chat-service/internal/config"
	"github.com/spec-kit/chat-service/internal/domain"
)

// WebPushSender delivers notifications over the Web Push protocol with
// VAPID authentication.
type WebPushSender struct {
	cfg config.PushConfig
}

// NewWebPushSender constructs the sender.
func NewWebPushSender(cfg config.PushConfig) *WebPushSender {
	return &WebPushSender{cfg: cfg}
}

// Send encrypts and posts the payload to the subscription's endpoint.
func (s *WebPushSender) Send(ctx context.Context, sub domain.PushSubscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.cfg.Subject,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTLSeconds,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
