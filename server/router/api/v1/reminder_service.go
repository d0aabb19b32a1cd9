package v1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	reminderrors "github.com/danya1a/Reminder-bot/server/internal/errors"
	"github.com/danya1a/Reminder-bot/server/internal/observability"
	"github.com/danya1a/Reminder-bot/server/service/reminder"
	"github.com/danya1a/Reminder-bot/server/timezone"
)

// ReminderResponse is the JSON form of a reminder.
type ReminderResponse struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	FireAt    time.Time `json:"fire_at"`
	Timezone  string    `json:"timezone"`
	LocalTime string    `json:"local_time"`
	Delivered bool      `json:"delivered"`
}

// ListReminders returns an owner's reminders in creation order.
// GET /api/v1/owners/:owner/reminders
func (s *APIV1Service) ListReminders(c echo.Context) error {
	ownerID, err := parseID(c.Param("owner"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, reminderrors.InvalidArgument("invalid owner id"))
	}

	reqCtx := s.requestContext(c, "list_reminders", ownerID)
	views, err := s.Service.ListReminders(c.Request().Context(), ownerID)
	if err != nil {
		return s.failed(c, reqCtx, err)
	}

	list := make([]ReminderResponse, 0, len(views))
	for _, view := range views {
		list = append(list, newReminderResponse(view))
	}
	return c.JSON(http.StatusOK, list)
}

// GetReminder returns one of the owner's reminders.
// GET /api/v1/owners/:owner/reminders/:id
func (s *APIV1Service) GetReminder(c echo.Context) error {
	ownerID, err := parseID(c.Param("owner"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, reminderrors.InvalidArgument("invalid owner id"))
	}
	reminderID, err := parseID(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, reminderrors.InvalidArgument("invalid reminder id"))
	}

	reqCtx := s.requestContext(c, "get_reminder", ownerID)
	view, err := s.Service.GetReminder(c.Request().Context(), ownerID, reminderID)
	if err != nil {
		return s.failed(c, reqCtx, err)
	}
	return c.JSON(http.StatusOK, newReminderResponse(view))
}

func newReminderResponse(view *reminder.ReminderView) ReminderResponse {
	return ReminderResponse{
		ID:        view.ID,
		Text:      view.Text,
		FireAt:    view.FireAt,
		Timezone:  view.Timezone,
		LocalTime: view.LocalTime,
		Delivered: view.Delivered,
	}
}

// DeleteReminder deletes one of the owner's reminders. Missing ids succeed.
// DELETE /api/v1/owners/:owner/reminders/:id
func (s *APIV1Service) DeleteReminder(c echo.Context) error {
	ownerID, err := parseID(c.Param("owner"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, reminderrors.InvalidArgument("invalid owner id"))
	}
	reminderID, err := parseID(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, reminderrors.InvalidArgument("invalid reminder id"))
	}

	reqCtx := s.requestContext(c, "delete_reminder", ownerID)
	ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)
	if err := s.Service.DeleteReminder(ctx, ownerID, reminderID); err != nil {
		return s.failed(c, reqCtx, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetFeed renders an owner's reminders as an Atom feed.
// GET /api/v1/owners/:owner/feed
func (s *APIV1Service) GetFeed(c echo.Context) error {
	ownerID, err := parseID(c.Param("owner"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, reminderrors.InvalidArgument("invalid owner id"))
	}

	reqCtx := s.requestContext(c, "feed", ownerID)
	views, err := s.Service.ListReminders(c.Request().Context(), ownerID)
	if err != nil {
		return s.failed(c, reqCtx, err)
	}

	atom, err := renderFeed(c.Scheme()+"://"+c.Request().Host, ownerID, views)
	if err != nil {
		reqCtx.Error("failed to render feed", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render feed")
	}
	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(atom))
}

const feedTimeLayout = "02.01.2006 15:04"

func renderFeed(baseURL string, ownerID int64, views []*reminder.ReminderView) (string, error) {
	link := fmt.Sprintf("%s/api/v1/owners/%d/reminders", baseURL, ownerID)
	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Reminders of %d", ownerID),
		Link:        &feeds.Link{Href: link},
		Description: "Scheduled reminders",
		Id:          link,
	}

	feed.Items = make([]*feeds.Item, 0, len(views))
	for _, view := range views {
		status := "scheduled"
		if view.Delivered {
			status = "delivered"
		}
		item := &feeds.Item{
			Title:       view.Text,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/%d", link, view.ID)},
			Id:          fmt.Sprintf("reminder-%d-%d", ownerID, view.ID),
			Description: fmt.Sprintf("%s %s (%s)", timezone.FormatInZone(view.FireAt, timezone.LoadOrUTC(view.Timezone), feedTimeLayout), view.Timezone, status),
			Created:     view.FireAt,
			Updated:     view.FireAt,
		}
		feed.Items = append(feed.Items, item)
		if view.FireAt.After(feed.Updated) {
			feed.Updated = view.FireAt
		}
	}
	return feed.ToAtom()
}

func (s *APIV1Service) failed(c echo.Context, reqCtx *observability.RequestContext, err error) error {
	var reminderErr *reminderrors.ReminderError
	if !errors.As(err, &reminderErr) {
		reminderErr = reminderrors.StorageUnavailable(err)
	}

	status := statusFromError(err)
	attrs := []slog.Attr{slog.String("path", c.Path()), slog.String(observability.LogFieldErrorCode, string(reminderErr.Code))}
	if status >= http.StatusInternalServerError {
		reqCtx.Error("request failed", err, attrs...)
	} else {
		reqCtx.Warn("request rejected", append(attrs, slog.String("error", err.Error()))...)
	}
	return errorJSON(c, status, reminderErr)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
