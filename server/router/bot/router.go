// Package bot turns chat messages and button callbacks into reminder
// operations and renders the replies. The chat transport itself lives
// outside this package.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"github.com/danya1a/Reminder-bot/plugin/timeparse"
	reminderrors "github.com/danya1a/Reminder-bot/server/internal/errors"
	"github.com/danya1a/Reminder-bot/server/internal/observability"
	"github.com/danya1a/Reminder-bot/server/service/reminder"
)

const (
	CommandStart     = "/start"
	CommandReminders = "/reminders"

	CallbackLanguagePrefix = "lang:"
	CallbackDeletePrefix   = "del:"
)

// Message is an inbound chat message.
type Message struct {
	OwnerID      int64  `json:"owner_id"`
	Text         string `json:"text"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Callback is an inbound button press.
type Callback struct {
	OwnerID      int64  `json:"owner_id"`
	Data         string `json:"data"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Button is an inline action attached to a reply.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Reply is one outbound chat message. Replace asks the transport to edit the
// message the callback came from instead of sending a new one.
type Reply struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
	Replace bool     `json:"replace,omitempty"`
}

// Router dispatches chat input to the reminder service.
type Router struct {
	service reminder.Service
	logger  *slog.Logger
}

// NewRouter creates a new chat router.
func NewRouter(service reminder.Service) *Router {
	return &Router{service: service, logger: slog.Default()}
}

// SetLogger sets a custom logger.
func (r *Router) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// HandleMessage handles a command or a free-text reminder.
func (r *Router) HandleMessage(ctx context.Context, msg *Message) []Reply {
	text := strings.TrimSpace(msg.Text)
	language := r.language(msg.OwnerID, msg.LanguageCode)

	switch {
	case text == CommandStart:
		return []Reply{r.languageMenu()}
	case text == CommandReminders:
		return r.listReminders(ctx, msg.OwnerID, language)
	case strings.HasPrefix(text, "/"):
		return []Reply{{Text: message(language, msgUnknownCommand)}}
	}

	_, err := r.service.CreateReminder(ctx, &reminder.CreateReminderRequest{
		OwnerID:    msg.OwnerID,
		Text:       text,
		LocaleHint: msg.LanguageCode,
	})
	if err != nil {
		return []Reply{{Text: message(language, errorMessage(err))}}
	}
	return []Reply{{Text: message(language, msgReminderSet)}}
}

// HandleCallback handles a language choice or a delete button.
func (r *Router) HandleCallback(ctx context.Context, cb *Callback) []Reply {
	logger := observability.LoggerFromContext(ctx, r.logger)

	switch {
	case strings.HasPrefix(cb.Data, CallbackLanguagePrefix):
		code := strings.TrimPrefix(cb.Data, CallbackLanguagePrefix)
		if !IsSupportedLanguage(code) {
			logger.Warn("unsupported language requested", "language", code)
			code = DefaultLanguage
		}
		r.service.SetLanguage(cb.OwnerID, code)
		return []Reply{{Text: message(code, msgLanguageSet)}}

	case strings.HasPrefix(cb.Data, CallbackDeletePrefix):
		language := r.language(cb.OwnerID, cb.LanguageCode)
		id, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, CallbackDeletePrefix), 10, 64)
		if err != nil {
			logger.Warn("malformed delete callback", "data", cb.Data)
			return []Reply{{Text: message(language, msgUnknownAction)}}
		}
		if err := r.service.DeleteReminder(ctx, cb.OwnerID, id); err != nil {
			return []Reply{{Text: message(language, errorMessage(err))}}
		}
		return []Reply{{Text: message(language, msgReminderDeleted), Replace: true}}
	}

	logger.Warn("unknown callback", "data", cb.Data)
	return []Reply{{Text: message(r.language(cb.OwnerID, cb.LanguageCode), msgUnknownAction)}}
}

func (r *Router) languageMenu() Reply {
	buttons := make([]Button, 0, len(Languages))
	for _, lang := range Languages {
		buttons = append(buttons, Button{Text: lang.Name, Data: CallbackLanguagePrefix + lang.Code})
	}
	return Reply{Text: message(DefaultLanguage, msgChooseLanguage), Buttons: buttons}
}

func (r *Router) listReminders(ctx context.Context, ownerID int64, language string) []Reply {
	views, err := r.service.ListReminders(ctx, ownerID)
	if err != nil {
		return []Reply{{Text: message(language, errorMessage(err))}}
	}
	if len(views) == 0 {
		return []Reply{{Text: message(language, msgNoReminders)}}
	}

	replies := make([]Reply, 0, len(views))
	for _, view := range views {
		replies = append(replies, Reply{
			Text: FormatReminderLine(view),
			Buttons: []Button{{
				Text: message(language, msgDeleteButton),
				Data: fmt.Sprintf("%s%d", CallbackDeletePrefix, view.ID),
			}},
		})
	}
	return replies
}

// FormatReminderLine renders one entry of the /reminders list.
func FormatReminderLine(view *reminder.ReminderView) string {
	return fmt.Sprintf("⏰ <b>%s</b> — <code>%s</code>", html.EscapeString(view.Text), view.LocalTime)
}

// language prefers the stored choice, then the client's language tag.
func (r *Router) language(ownerID int64, hint string) string {
	if language, ok := r.service.Language(ownerID); ok {
		return language
	}
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(hint)), "-")
	if IsSupportedLanguage(base) {
		return base
	}
	return DefaultLanguage
}

func errorMessage(err error) messageKey {
	switch reminderrors.GetCodeFromError(err, reminderrors.ErrCodeStorageUnavailable) {
	case reminderrors.ErrCodeInvalidFormat:
		if errors.Is(err, timeparse.ErrNoDelimiter) || errors.Is(err, timeparse.ErrEmptyTask) {
			return msgInvalidFormat
		}
		return msgInvalidDateTime
	case reminderrors.ErrCodeInstantInPast:
		return msgInstantInPast
	case reminderrors.ErrCodeRateLimitExceeded:
		return msgRateLimited
	default:
		return msgStorageFailure
	}
}

// ErrorReply renders err in the owner's language. Transports use it for
// failures raised before the router sees the input, such as rate limiting.
func (r *Router) ErrorReply(ownerID int64, languageHint string, err error) Reply {
	return Reply{Text: message(r.language(ownerID, languageHint), errorMessage(err))}
}
