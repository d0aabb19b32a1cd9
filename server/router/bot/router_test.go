package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pluginreminder "github.com/danya1a/Reminder-bot/plugin/reminder"
	"github.com/danya1a/Reminder-bot/plugin/timeparse"
	reminderrors "github.com/danya1a/Reminder-bot/server/internal/errors"
	"github.com/danya1a/Reminder-bot/server/service/reminder"
	"github.com/danya1a/Reminder-bot/store"
)

// fakeService records calls and returns canned results.
type fakeService struct {
	created   []*reminder.CreateReminderRequest
	createErr error
	views     []*reminder.ReminderView
	listErr   error
	deleted   [][2]int64
	deleteErr error
	languages map[int64]string
}

func newFakeService() *fakeService {
	return &fakeService{languages: map[int64]string{}}
}

func (f *fakeService) CreateReminder(_ context.Context, create *reminder.CreateReminderRequest) (*store.Reminder, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, create)
	return &store.Reminder{ID: int64(len(f.created)), OwnerID: create.OwnerID}, nil
}

func (f *fakeService) ListReminders(_ context.Context, _ int64) ([]*reminder.ReminderView, error) {
	return f.views, f.listErr
}

func (f *fakeService) GetReminder(_ context.Context, _, reminderID int64) (*reminder.ReminderView, error) {
	for _, view := range f.views {
		if view.ID == reminderID {
			return view, nil
		}
	}
	return nil, reminderrors.NotFound("missing")
}

func (f *fakeService) DeleteReminder(_ context.Context, ownerID, reminderID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, [2]int64{ownerID, reminderID})
	return nil
}

func (f *fakeService) Deliver(context.Context, pluginreminder.Payload, time.Time) {}

func (f *fakeService) Reconcile(context.Context) (*reminder.ReconcileResult, error) {
	return &reminder.ReconcileResult{}, nil
}

func (f *fakeService) SetLanguage(ownerID int64, language string) {
	f.languages[ownerID] = language
}

func (f *fakeService) Language(ownerID int64) (string, bool) {
	language, ok := f.languages[ownerID]
	return language, ok
}

func TestHandleMessage_Start(t *testing.T) {
	router := NewRouter(newFakeService())

	replies := router.HandleMessage(context.Background(), &Message{OwnerID: 1, Text: "/start"})
	require.Len(t, replies, 1)
	assert.Equal(t, chooseLanguage, replies[0].Text)
	assert.Equal(t, []Button{
		{Text: "English", Data: "lang:en"},
		{Text: "Русский", Data: "lang:ru"},
		{Text: "Українська", Data: "lang:uk"},
	}, replies[0].Buttons)
}

func TestHandleCallback_Language(t *testing.T) {
	svc := newFakeService()
	router := NewRouter(svc)

	replies := router.HandleCallback(context.Background(), &Callback{OwnerID: 1, Data: "lang:uk"})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Мову встановлено")
	assert.Equal(t, "uk", svc.languages[1])

	replies = router.HandleCallback(context.Background(), &Callback{OwnerID: 2, Data: "lang:xx"})
	assert.Contains(t, replies[0].Text, "Language set")
	assert.Equal(t, "en", svc.languages[2])
}

func TestHandleMessage_CreateReminder(t *testing.T) {
	svc := newFakeService()
	svc.languages[1] = "ru"
	router := NewRouter(svc)

	replies := router.HandleMessage(context.Background(), &Message{OwnerID: 1, Text: "  Купить молоко в 18:30 ", LanguageCode: "ru"})
	require.Len(t, replies, 1)
	assert.Equal(t, "✅ Напоминание сохранено!", replies[0].Text)

	require.Len(t, svc.created, 1)
	assert.Equal(t, &reminder.CreateReminderRequest{OwnerID: 1, Text: "Купить молоко в 18:30", LocaleHint: "ru"}, svc.created[0])
}

func TestHandleMessage_CreateErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no delimiter", reminderrors.InvalidFormat(timeparse.ErrNoDelimiter), "❌ Invalid format. Use:\n1. Buy milk at 18:30\n2. Buy milk 28.07.2025 at 18:30"},
		{"bad date time", reminderrors.InvalidFormat(timeparse.ErrBadDateTime), "❌ Invalid date/time format. Example:\nBuy milk 28.07.2025 at 18:30"},
		{"empty task", reminderrors.InvalidFormat(timeparse.ErrEmptyTask), "❌ Invalid format. Use:\n1. Buy milk at 18:30\n2. Buy milk 28.07.2025 at 18:30"},
		{"in the past", reminderrors.InstantInPast("passed"), "❌ This date and time has already passed."},
		{"storage", reminderrors.StorageUnavailable(errors.New("down")), "⚠️ Something went wrong. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.createErr = tt.err
			router := NewRouter(svc)

			replies := router.HandleMessage(context.Background(), &Message{OwnerID: 1, Text: "whatever"})
			require.Len(t, replies, 1)
			assert.Equal(t, tt.want, replies[0].Text)
		})
	}
}

func TestHandleMessage_UnknownCommand(t *testing.T) {
	svc := newFakeService()
	svc.languages[1] = "uk"
	router := NewRouter(svc)

	replies := router.HandleMessage(context.Background(), &Message{OwnerID: 1, Text: "/help"})
	require.Len(t, replies, 1)
	assert.Equal(t, "❌ Невірний формат. Використовуйте:\n1. /start\n2. /reminders", replies[0].Text)
	assert.Empty(t, svc.created)
}

func TestHandleMessage_Reminders(t *testing.T) {
	svc := newFakeService()
	router := NewRouter(svc)

	replies := router.HandleMessage(context.Background(), &Message{OwnerID: 1, Text: "/reminders"})
	require.Len(t, replies, 1)
	assert.Equal(t, "ℹ️ No reminders found.", replies[0].Text)

	svc.views = []*reminder.ReminderView{
		{ID: 3, Text: "Buy milk", LocalTime: "18:30"},
		{ID: 8, Text: "Tom & Jerry", LocalTime: "01.08.2025 09:00"},
	}
	replies = router.HandleMessage(context.Background(), &Message{OwnerID: 1, Text: "/reminders"})
	require.Len(t, replies, 2)
	assert.Equal(t, "⏰ <b>Buy milk</b> — <code>18:30</code>", replies[0].Text)
	assert.Equal(t, []Button{{Text: "❌ Delete", Data: "del:3"}}, replies[0].Buttons)
	assert.Equal(t, "⏰ <b>Tom &amp; Jerry</b> — <code>01.08.2025 09:00</code>", replies[1].Text)
	assert.Equal(t, "del:8", replies[1].Buttons[0].Data)
}

func TestHandleMessage_LanguageFromClientTag(t *testing.T) {
	svc := newFakeService()
	router := NewRouter(svc)

	replies := router.HandleMessage(context.Background(), &Message{OwnerID: 1, Text: "/reminders", LanguageCode: "ru"})
	require.Len(t, replies, 1)
	assert.Equal(t, "ℹ️ Напоминаний нет.", replies[0].Text)

	replies = router.HandleMessage(context.Background(), &Message{OwnerID: 1, Text: "/reminders", LanguageCode: "uk-UA"})
	assert.Equal(t, "ℹ️ Нагадувань немає.", replies[0].Text)

	replies = router.HandleMessage(context.Background(), &Message{OwnerID: 1, Text: "/reminders", LanguageCode: "de"})
	assert.Equal(t, "ℹ️ No reminders found.", replies[0].Text)

	// A stored choice wins over the client tag.
	svc.languages[1] = "en"
	replies = router.HandleMessage(context.Background(), &Message{OwnerID: 1, Text: "/reminders", LanguageCode: "ru"})
	assert.Equal(t, "ℹ️ No reminders found.", replies[0].Text)
}

func TestHandleCallback_LanguageFromClientTag(t *testing.T) {
	svc := newFakeService()
	router := NewRouter(svc)

	replies := router.HandleCallback(context.Background(), &Callback{OwnerID: 5, Data: "del:42", LanguageCode: "uk"})
	require.Len(t, replies, 1)
	assert.Equal(t, "🗑️ Нагадування видалено.", replies[0].Text)

	replies = router.HandleCallback(context.Background(), &Callback{OwnerID: 5, Data: "noop", LanguageCode: "ru"})
	assert.Equal(t, "❌ Неизвестное действие.", replies[0].Text)
}

func TestErrorReply(t *testing.T) {
	svc := newFakeService()
	router := NewRouter(svc)

	reply := router.ErrorReply(1, "ru", reminderrors.RateLimitExceeded("slow down"))
	assert.Equal(t, "⏳ Слишком много сообщений. Подождите немного.", reply.Text)

	svc.languages[1] = "en"
	reply = router.ErrorReply(1, "ru", reminderrors.RateLimitExceeded("slow down"))
	assert.Equal(t, "⏳ Too many messages. Please slow down.", reply.Text)

	reply = router.ErrorReply(2, "", reminderrors.NotFound("missing"))
	assert.Equal(t, "⚠️ Something went wrong. Please try again later.", reply.Text)
}

func TestHandleCallback_Delete(t *testing.T) {
	svc := newFakeService()
	router := NewRouter(svc)

	replies := router.HandleCallback(context.Background(), &Callback{OwnerID: 5, Data: "del:42"})
	require.Len(t, replies, 1)
	assert.Equal(t, "🗑️ Reminder deleted.", replies[0].Text)
	assert.True(t, replies[0].Replace)
	assert.Equal(t, [][2]int64{{5, 42}}, svc.deleted)
}

func TestHandleCallback_Malformed(t *testing.T) {
	svc := newFakeService()
	router := NewRouter(svc)

	for _, data := range []string{"del:abc", "del:", "noop", ""} {
		replies := router.HandleCallback(context.Background(), &Callback{OwnerID: 5, Data: data})
		require.Len(t, replies, 1)
		assert.Equal(t, "❌ Unknown action.", replies[0].Text)
	}
	assert.Empty(t, svc.deleted)
}

func TestHandleCallback_DeleteStorageFailure(t *testing.T) {
	svc := newFakeService()
	svc.deleteErr = reminderrors.StorageUnavailable(errors.New("down"))
	router := NewRouter(svc)

	replies := router.HandleCallback(context.Background(), &Callback{OwnerID: 5, Data: "del:1"})
	assert.False(t, replies[0].Replace)
	assert.Equal(t, "⚠️ Something went wrong. Please try again later.", replies[0].Text)
}

func TestCataloguesComplete(t *testing.T) {
	english := catalogues[DefaultLanguage]
	for _, lang := range Languages {
		catalogue, ok := catalogues[lang.Code]
		require.Truef(t, ok, "missing catalogue %s", lang.Code)
		assert.Lenf(t, catalogue, len(english), "catalogue %s is incomplete", lang.Code)
	}
	assert.Equal(t, english[msgReminderSet], message("de", msgReminderSet))
}
