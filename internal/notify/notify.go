// Package notify tells model owners about downloads of their models.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"modelhub-backend/internal/models"

	"github.com/rs/zerolog/log"
)

const deliveryTimeout = 10 * time.Second

// Alert is a push notification
type Alert struct {
	Title string
	Body  string
	Data  map[string]string
}

// Pusher delivers an alert to a device
type Pusher interface {
	Push(ctx context.Context, deviceToken string, alert Alert) error
}

// Hub is the live connection registry
type Hub interface {
	IsOnline(accountID string) bool
	NotifyModelDownloaded(tally *models.DownloadTally, downloaderID string) error
}

// ProfileLookup resolves the profile holding an owner's push token
type ProfileLookup interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Dispatcher delivers download notices over the websocket hub, falling
// back to a push notification when the owner is offline
type Dispatcher struct {
	hub      Hub
	profiles ProfileLookup
	pusher   Pusher
	wg       sync.WaitGroup
}

// NewDispatcher creates a new dispatcher. pusher may be nil.
func NewDispatcher(hub Hub, profiles ProfileLookup, pusher Pusher) *Dispatcher {
	return &Dispatcher{hub: hub, profiles: profiles, pusher: pusher}
}

// NotifyModelDownloaded delivers the notice in the background
func (d *Dispatcher) NotifyModelDownloaded(_ context.Context, tally *models.DownloadTally, downloaderID string) {
	t := *tally
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if err := d.deliver(ctx, &t, downloaderID); err != nil {
			log.Warn().Err(err).Str("model_id", t.ModelID).Str("user_id", t.OwnerID).Msg("Failed to deliver download notification")
		}
	}()
}

// Wait blocks until background deliveries finish
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, tally *models.DownloadTally, downloaderID string) error {
	if d.hub != nil && d.hub.IsOnline(tally.OwnerID) {
		err := d.hub.NotifyModelDownloaded(tally, downloaderID)
		if err == nil {
			return nil
		}
		log.Debug().Err(err).Str("user_id", tally.OwnerID).Msg("Websocket delivery failed, trying push")
	}

	if d.pusher == nil {
		return nil
	}

	profile, err := d.profiles.GetProfile(ctx, tally.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to get owner profile: %w", err)
	}
	if profile.PushToken == nil || *profile.PushToken == "" {
		return nil
	}

	return d.pusher.Push(ctx, *profile.PushToken, downloadAlert(tally))
}

func downloadAlert(tally *models.DownloadTally) Alert {
	downloads := "1 download"
	if tally.DownloadsCount != 1 {
		downloads = fmt.Sprintf("%d downloads", tally.DownloadsCount)
	}
	return Alert{
		Title: "New download",
		Body:  fmt.Sprintf("%s now has %s", tally.Title, downloads),
		Data: map[string]string{
			"type":     "model_downloaded",
			"model_id": tally.ModelID,
		},
	}
}
