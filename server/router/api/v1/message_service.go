package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	reminderrors "github.com/danya1a/Reminder-bot/server/internal/errors"
	"github.com/danya1a/Reminder-bot/server/internal/observability"
	"github.com/danya1a/Reminder-bot/server/router/bot"
)

// RepliesResponse carries the chat replies for one inbound update.
type RepliesResponse struct {
	Replies []bot.Reply `json:"replies"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    reminderrors.ErrorCode `json:"code"`
	Message string                 `json:"message"`
}

// PostMessage handles an inbound chat message.
// POST /api/v1/messages
func (s *APIV1Service) PostMessage(c echo.Context) error {
	var msg bot.Message
	if err := c.Bind(&msg); err != nil || msg.OwnerID == 0 {
		return errorJSON(c, http.StatusBadRequest, reminderrors.InvalidArgument("owner_id and text are required"))
	}

	reqCtx := s.requestContext(c, "message", msg.OwnerID)
	if !s.RateLimiter.AllowOwner(msg.OwnerID) {
		return s.rateLimited(c, reqCtx, msg.LanguageCode)
	}

	ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)
	replies := s.Router.HandleMessage(ctx, &msg)
	reqCtx.Info("message handled", slog.Int64(observability.LogFieldDuration, reqCtx.Duration().Milliseconds()))
	return c.JSON(http.StatusOK, RepliesResponse{Replies: replies})
}

// PostCallback handles an inbound button press.
// POST /api/v1/callbacks
func (s *APIV1Service) PostCallback(c echo.Context) error {
	var cb bot.Callback
	if err := c.Bind(&cb); err != nil || cb.OwnerID == 0 || cb.Data == "" {
		return errorJSON(c, http.StatusBadRequest, reminderrors.InvalidArgument("owner_id and data are required"))
	}

	reqCtx := s.requestContext(c, "callback", cb.OwnerID)
	if !s.RateLimiter.AllowOwner(cb.OwnerID) {
		return s.rateLimited(c, reqCtx, cb.LanguageCode)
	}

	ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)
	replies := s.Router.HandleCallback(ctx, &cb)
	reqCtx.Debug("callback handled", slog.Int64(observability.LogFieldDuration, reqCtx.Duration().Milliseconds()))
	return c.JSON(http.StatusOK, RepliesResponse{Replies: replies})
}

// rateLimited answers with the localized slow-down reply so the transport can
// still relay something to the chat.
func (s *APIV1Service) rateLimited(c echo.Context, reqCtx *observability.RequestContext, languageHint string) error {
	err := reminderrors.RateLimitExceeded("too many messages")
	reqCtx.Warn("owner rate limited", slog.String(observability.LogFieldErrorCode, string(err.Code)))
	return c.JSON(statusFromError(err), RepliesResponse{
		Replies: []bot.Reply{s.Router.ErrorReply(reqCtx.OwnerID, languageHint, err)},
	})
}

// requestContext reuses the id assigned by the RequestID middleware.
func (s *APIV1Service) requestContext(c echo.Context, operation string, ownerID int64) *observability.RequestContext {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return observability.NewRequestContextWithID(s.Logger, id, operation, ownerID)
	}
	return observability.NewRequestContext(s.Logger, operation, ownerID)
}

func errorJSON(c echo.Context, status int, err *reminderrors.ReminderError) error {
	return c.JSON(status, ErrorResponse{Code: err.Code, Message: err.Message})
}

func statusFromError(err error) int {
	switch reminderrors.GetCodeFromError(err, reminderrors.ErrCodeStorageUnavailable) {
	case reminderrors.ErrCodeInvalidArgument, reminderrors.ErrCodeInvalidFormat, reminderrors.ErrCodeInstantInPast:
		return http.StatusBadRequest
	case reminderrors.ErrCodeNotFound:
		return http.StatusNotFound
	case reminderrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusServiceUnavailable
	}
}
