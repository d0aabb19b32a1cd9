package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danya1a/Reminder-bot/internal/profile"
	pluginreminder "github.com/danya1a/Reminder-bot/plugin/reminder"
	apiv1 "github.com/danya1a/Reminder-bot/server/router/api/v1"
	"github.com/danya1a/Reminder-bot/store"
	teststore "github.com/danya1a/Reminder-bot/store/test"
)

type webhookRecorder struct {
	mu       sync.Mutex
	payloads []pluginreminder.WebhookPayload
}

func (r *webhookRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	var payload pluginreminder.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	r.mu.Lock()
	r.payloads = append(r.payloads, payload)
	r.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (r *webhookRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.payloads))
	for _, p := range r.payloads {
		out = append(out, p.Message)
	}
	return out
}

func testProfile(webhookURL string) *profile.Profile {
	return &profile.Profile{
		Mode:            "prod",
		Addr:            "127.0.0.1",
		Port:            0,
		DefaultTimezone: "UTC",
		WebhookURL:      webhookURL,
		DeliveryTimeout: 2 * time.Second,
		RateLimit:       100,
	}
}

func TestNewDispatcher(t *testing.T) {
	p := testProfile("")
	assert.Equal(t, []pluginreminder.Channel{pluginreminder.ChannelLog}, newDispatcher(p, nil).Channels())

	p.TelegramBotToken = "123:abc"
	p.WebhookURL = "http://localhost/hook"
	assert.Equal(t,
		[]pluginreminder.Channel{pluginreminder.ChannelTelegram, pluginreminder.ChannelWebhook},
		newDispatcher(p, nil).Channels())

	p.Mode = "dev"
	assert.Len(t, newDispatcher(p, nil).Channels(), 3)
}

func TestNewDispatcher_WarnsWhenOnlyLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	newDispatcher(testProfile(""), logger)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "no chat delivery channel configured")

	buf.Reset()
	newDispatcher(testProfile("http://localhost/hook"), logger)
	assert.NotContains(t, buf.String(), "no chat delivery channel configured")

	// Logging delivery is expected in development.
	dev := testProfile("")
	dev.Mode = "dev"
	newDispatcher(dev, logger)
	assert.NotContains(t, buf.String(), "no chat delivery channel configured")
}

func TestServer_StartDeliversMissedReminders(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hook := &webhookRecorder{}
	hookServer := httptest.NewServer(hook)
	defer hookServer.Close()

	ts := teststore.NewTestingStore(ctx, t)
	missed, err := ts.CreateReminder(ctx, &store.Reminder{
		OwnerID:  7,
		Text:     "Stand-up",
		FireAt:   time.Now().Add(-time.Hour),
		Timezone: "UTC",
	})
	require.NoError(t, err)
	_, err = ts.CreateReminder(ctx, &store.Reminder{
		OwnerID:  7,
		Text:     "Tomorrow",
		FireAt:   time.Now().Add(24 * time.Hour),
		Timezone: "UTC",
	})
	require.NoError(t, err)

	s, err := NewServer(ctx, testProfile(hookServer.URL), ts, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		return len(hook.messages()) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "🔔 <b>Reminder:</b> Stand-up", hook.messages()[0])

	require.Eventually(t, func() bool {
		got, err := ts.GetReminder(ctx, &store.FindReminder{ID: &missed.ID})
		return err == nil && got != nil && got.IsDelivered()
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, s.Scheduler.Len())

	snapshot := s.Metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot.DeliveredLate)

	rec := httptest.NewRecorder()
	s.echoServer.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health apiv1.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.True(t, health.Healthy)
	assert.Equal(t, 1, health.PendingJobs)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, s.Scheduler.IsRunning())
}
