package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"modelhub-backend/internal/models"

	"github.com/sideshow/apns2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	online  bool
	failing bool
	sent    []string
}

func (h *fakeHub) IsOnline(string) bool { return h.online }

func (h *fakeHub) NotifyModelDownloaded(tally *models.DownloadTally, _ string) error {
	if h.failing {
		return errors.New("connection closed")
	}
	h.sent = append(h.sent, tally.ModelID)
	return nil
}

type fakeProfiles struct {
	profile *models.Profile
	err     error
}

func (f *fakeProfiles) GetProfile(context.Context, string) (*models.Profile, error) {
	return f.profile, f.err
}

type fakePusher struct {
	mu     sync.Mutex
	tokens []string
	alerts []Alert
}

func (p *fakePusher) Push(_ context.Context, deviceToken string, alert Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, deviceToken)
	p.alerts = append(p.alerts, alert)
	return nil
}

func strPtr(s string) *string { return &s }

var tally = &models.DownloadTally{ModelID: "m1", OwnerID: "owner", Title: "Test Cube", DownloadsCount: 3}

func TestDispatcher_PrefersWebsocket(t *testing.T) {
	hub := &fakeHub{online: true}
	pusher := &fakePusher{}
	d := NewDispatcher(hub, &fakeProfiles{profile: &models.Profile{PushToken: strPtr("device")}}, pusher)

	require.NoError(t, d.deliver(context.Background(), tally, "downloader"))
	assert.Equal(t, []string{"m1"}, hub.sent)
	assert.Empty(t, pusher.tokens)
}

func TestDispatcher_FallsBackToPush(t *testing.T) {
	for name, hub := range map[string]*fakeHub{
		"offline":        {online: false},
		"websocket fail": {online: true, failing: true},
	} {
		t.Run(name, func(t *testing.T) {
			pusher := &fakePusher{}
			d := NewDispatcher(hub, &fakeProfiles{profile: &models.Profile{PushToken: strPtr("device")}}, pusher)

			require.NoError(t, d.deliver(context.Background(), tally, "downloader"))
			require.Equal(t, []string{"device"}, pusher.tokens)
			assert.Equal(t, "Test Cube now has 3 downloads", pusher.alerts[0].Body)
			assert.Equal(t, "m1", pusher.alerts[0].Data["model_id"])
		})
	}
}

func TestDispatcher_SkipsWithoutPushToken(t *testing.T) {
	pusher := &fakePusher{}
	d := NewDispatcher(&fakeHub{}, &fakeProfiles{profile: &models.Profile{}}, pusher)

	require.NoError(t, d.deliver(context.Background(), tally, "downloader"))
	assert.Empty(t, pusher.tokens)

	d = NewDispatcher(&fakeHub{}, &fakeProfiles{err: errors.New("db down")}, pusher)
	assert.Error(t, d.deliver(context.Background(), tally, "downloader"))

	d = NewDispatcher(&fakeHub{}, nil, nil)
	assert.NoError(t, d.deliver(context.Background(), tally, "downloader"))
}

func TestDispatcher_NotifyRunsInBackground(t *testing.T) {
	pusher := &fakePusher{}
	d := NewDispatcher(&fakeHub{}, &fakeProfiles{profile: &models.Profile{PushToken: strPtr("device")}}, pusher)

	d.NotifyModelDownloaded(context.Background(), tally, "downloader")
	d.Wait()

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	assert.Len(t, pusher.tokens, 1)
}

func TestDownloadAlert_Singular(t *testing.T) {
	alert := downloadAlert(&models.DownloadTally{Title: "Chair", DownloadsCount: 1})
	assert.Equal(t, "Chair now has 1 download", alert.Body)
}

type fakeAPNs struct {
	sent     *apns2.Notification
	response *apns2.Response
	err      error
}

func (f *fakeAPNs) PushWithContext(_ apns2.Context, n *apns2.Notification) (*apns2.Response, error) {
	f.sent = n
	return f.response, f.err
}

func TestAPNsPusher_Push(t *testing.T) {
	client := &fakeAPNs{response: &apns2.Response{StatusCode: http.StatusOK}}
	p := &APNsPusher{client: client, topic: "com.example.modelhub"}

	err := p.Push(context.Background(), "device", Alert{
		Title: "New download",
		Body:  "Chair now has 1 download",
		Data:  map[string]string{"model_id": "m1"},
	})
	require.NoError(t, err)
	require.NotNil(t, client.sent)
	assert.Equal(t, "device", client.sent.DeviceToken)
	assert.Equal(t, "com.example.modelhub", client.sent.Topic)

	raw, err := json.Marshal(client.sent.Payload)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "m1", body["model_id"])
	aps := body["aps"].(map[string]interface{})
	alert := aps["alert"].(map[string]interface{})
	assert.Equal(t, "New download", alert["title"])
	assert.Equal(t, "default", aps["sound"])
}

func TestAPNsPusher_PushRejected(t *testing.T) {
	p := &APNsPusher{client: &fakeAPNs{response: &apns2.Response{StatusCode: http.StatusBadRequest, Reason: apns2.ReasonBadDeviceToken}}}
	err := p.Push(context.Background(), "device", Alert{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), apns2.ReasonBadDeviceToken)

	p = &APNsPusher{client: &fakeAPNs{err: errors.New("tls handshake")}}
	assert.Error(t, p.Push(context.Background(), "device", Alert{Title: "x"}))
}
