package notify

import (
	"context"
	"fmt"

	"modelhub-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

type apnsClient interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// APNsPusher sends alerts through Apple Push Notification service
type APNsPusher struct {
	client apnsClient
	topic  string
}

// NewAPNsPusher creates a token-authenticated APNs pusher
func NewAPNsPusher(cfg config.APNsConfig) (*APNsPusher, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	log.Info().Bool("production", cfg.Production).Str("topic", cfg.Topic).Msg("APNs client initialized")

	return &APNsPusher{client: client, topic: cfg.Topic}, nil
}

// Push sends alert to a device
func (p *APNsPusher) Push(ctx context.Context, deviceToken string, alert Alert) error {
	pl := payload.NewPayload().
		AlertTitle(alert.Title).
		AlertBody(alert.Body).
		Sound("default")
	for k, v := range alert.Data {
		pl = pl.Custom(k, v)
	}

	res, err := p.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     pl,
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}
