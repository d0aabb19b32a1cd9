package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danya1a/Reminder-bot/internal/profile"
	pluginreminder "github.com/danya1a/Reminder-bot/plugin/reminder"
	reminderrors "github.com/danya1a/Reminder-bot/server/internal/errors"
	"github.com/danya1a/Reminder-bot/server/internal/observability"
	"github.com/danya1a/Reminder-bot/server/router/bot"
	"github.com/danya1a/Reminder-bot/server/service/reminder"
	teststore "github.com/danya1a/Reminder-bot/store/test"
)

type testServer struct {
	echo      *echo.Echo
	api       *APIV1Service
	scheduler *pluginreminder.Scheduler
}

func newTestServer(t *testing.T, rateLimit float64) *testServer {
	t.Helper()
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)

	dispatcher := pluginreminder.NewNotificationDispatcher()
	dispatcher.Register(pluginreminder.ChannelLog, pluginreminder.NewLogSender(nil))

	var svc reminder.Service
	scheduler := pluginreminder.NewScheduler(func(ctx context.Context, payload pluginreminder.Payload, firedAt time.Time) {
		svc.Deliver(ctx, payload, firedAt)
	})
	require.NoError(t, scheduler.Start(ctx))
	t.Cleanup(scheduler.Stop)

	metrics := observability.NewMetrics()
	svc = reminder.NewService(reminder.Config{
		Store:     ts,
		Scheduler: scheduler,
		Notifier:  dispatcher,
		Metrics:   metrics,
	})

	api := NewAPIV1Service(&profile.Profile{Mode: "dev", RateLimit: rateLimit}, svc, scheduler, metrics)
	e := echo.New()
	api.RegisterRoutes(e)
	return &testServer{echo: e, api: api, scheduler: scheduler}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeReplies(t *testing.T, rec *httptest.ResponseRecorder) []bot.Reply {
	t.Helper()
	var resp RepliesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Replies
}

// futureDate returns a DD.MM.YYYY date two days ahead, so explicit-date
// reminders are always in the future.
func futureDate() string {
	return time.Now().UTC().Add(48 * time.Hour).Format("02.01.2006")
}

func TestMessageFlow(t *testing.T) {
	s := newTestServer(t, 0)

	rec := s.do(t, http.MethodPost, "/api/v1/messages", `{"owner_id":11,"text":"/start"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	replies := decodeReplies(t, rec)
	require.Len(t, replies, 1)
	assert.Len(t, replies[0].Buttons, 3)

	rec = s.do(t, http.MethodPost, "/api/v1/callbacks", `{"owner_id":11,"data":"lang:uk"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeReplies(t, rec)[0].Text, "Мову встановлено")

	body := fmt.Sprintf(`{"owner_id":11,"text":"Купити молоко %s о 18:30","language_code":"uk"}`, futureDate())
	rec = s.do(t, http.MethodPost, "/api/v1/messages", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "✅ Нагадування збережено!", decodeReplies(t, rec)[0].Text)
	assert.Equal(t, 1, s.scheduler.Len())

	rec = s.do(t, http.MethodPost, "/api/v1/messages", `{"owner_id":11,"text":"/reminders"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	replies = decodeReplies(t, rec)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "<b>Купити молоко</b>")
	assert.Contains(t, replies[0].Text, "18:30")
	require.Len(t, replies[0].Buttons, 1)
	deleteData := replies[0].Buttons[0].Data
	assert.True(t, strings.HasPrefix(deleteData, "del:"))

	rec = s.do(t, http.MethodPost, "/api/v1/callbacks", fmt.Sprintf(`{"owner_id":11,"data":%q}`, deleteData))
	require.Equal(t, http.StatusOK, rec.Code)
	replies = decodeReplies(t, rec)
	assert.Equal(t, "🗑️ Нагадування видалено.", replies[0].Text)
	assert.True(t, replies[0].Replace)
	assert.Equal(t, 0, s.scheduler.Len())
}

func TestPostMessage_InvalidFormat(t *testing.T) {
	s := newTestServer(t, 0)

	rec := s.do(t, http.MethodPost, "/api/v1/messages", `{"owner_id":1,"text":"Buy milk"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeReplies(t, rec)[0].Text, "Invalid format")
	assert.Equal(t, 0, s.scheduler.Len())
}

func TestPostMessage_BadRequest(t *testing.T) {
	s := newTestServer(t, 0)

	for _, body := range []string{`{"text":"hi"}`, `not json`} {
		rec := s.do(t, http.MethodPost, "/api/v1/messages", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	rec := s.do(t, http.MethodPost, "/api/v1/callbacks", `{"owner_id":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessage_RateLimited(t *testing.T) {
	s := newTestServer(t, 0.001)

	statuses := map[int]int{}
	for i := 0; i < 8; i++ {
		rec := s.do(t, http.MethodPost, "/api/v1/messages", `{"owner_id":3,"text":"/reminders"}`)
		statuses[rec.Code]++
		if rec.Code == http.StatusTooManyRequests {
			assert.Contains(t, decodeReplies(t, rec)[0].Text, "Too many messages")
		}
	}
	assert.Equal(t, 5, statuses[http.StatusOK])
	assert.Equal(t, 3, statuses[http.StatusTooManyRequests])

	// Another owner is unaffected.
	rec := s.do(t, http.MethodPost, "/api/v1/messages", `{"owner_id":4,"text":"/reminders"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The slow-down reply follows the client's language, callbacks included.
	rec = s.do(t, http.MethodPost, "/api/v1/callbacks", `{"owner_id":3,"data":"del:1","language_code":"ru"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "⏳ Слишком много сообщений. Подождите немного.", decodeReplies(t, rec)[0].Text)
}

func TestReminderEndpoints(t *testing.T) {
	s := newTestServer(t, 0)

	body := fmt.Sprintf(`{"owner_id":21,"text":"Pay rent %s at 09:00"}`, futureDate())
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/messages", body).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/owners/21/reminders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ReminderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Pay rent", list[0].Text)
	assert.Equal(t, "UTC", list[0].Timezone)
	assert.Equal(t, futureDate()+" 09:00", list[0].LocalTime)
	assert.False(t, list[0].Delivered)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/owners/21/reminders/%d", list[0].ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var single ReminderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &single))
	assert.Equal(t, list[0], single)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/owners/22/reminders/%d", list[0].ID), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, reminderrors.ErrCodeNotFound, errResp.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/owners/21/feed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/atom+xml")
	assert.Contains(t, rec.Body.String(), "<feed")
	assert.Contains(t, rec.Body.String(), "Pay rent")
	assert.Contains(t, rec.Body.String(), futureDate()+" 09:00 UTC (scheduled)")

	// Another owner cannot delete it.
	path := fmt.Sprintf("/api/v1/owners/22/reminders/%d", list[0].ID)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, "").Code)
	assert.Equal(t, 1, s.scheduler.Len())

	path = fmt.Sprintf("/api/v1/owners/21/reminders/%d", list[0].ID)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, "").Code)
	assert.Equal(t, 0, s.scheduler.Len())

	rec = s.do(t, http.MethodGet, "/api/v1/owners/21/reminders", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/owners/abc/reminders", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodDelete, "/api/v1/owners/21/reminders/0", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/owners/21/reminders/x", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, "").Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, 0)

	rec := s.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.True(t, health.Healthy)
	assert.Equal(t, 0, health.PendingJobs)
	require.NotNil(t, health.Metrics)
	assert.Equal(t, 100.0, health.DeliverySuccessRate)

	s.scheduler.Stop()
	rec = s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
