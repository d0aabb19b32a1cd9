// Package reminder implements the reminder lifecycle: parsing inbound text,
// persisting reminders, arming their jobs and delivering them at fire time.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	pluginreminder "github.com/danya1a/Reminder-bot/plugin/reminder"
	"github.com/danya1a/Reminder-bot/plugin/timeparse"
	reminderrors "github.com/danya1a/Reminder-bot/server/internal/errors"
	"github.com/danya1a/Reminder-bot/server/internal/observability"
	"github.com/danya1a/Reminder-bot/server/timezone"
	"github.com/danya1a/Reminder-bot/store"
)

// DeliveryPrefix starts every delivered reminder message.
const DeliveryPrefix = "🔔 <b>Reminder:</b> "

// DefaultDeliveryTimeout bounds one delivery across all channels.
const DefaultDeliveryTimeout = 10 * time.Second

// Config wires the service to its collaborators.
type Config struct {
	Store     Store
	Scheduler Scheduler
	Notifier  Notifier
	Resolver  *timezone.Resolver
	Parser    *timeparse.Parser
	Sessions  *SessionStore
	Metrics   *observability.Metrics
	Logger    *slog.Logger

	DeliveryTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type service struct {
	store     Store
	scheduler Scheduler
	notifier  Notifier
	resolver  *timezone.Resolver
	parser    *timeparse.Parser
	sessions  *SessionStore
	metrics   *observability.Metrics
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time

	// jobs maps owner id -> reminder id -> armed job. It is only used to
	// cancel; a missing entry is never an error.
	jobsMu sync.Mutex
	jobs   map[int64]map[int64]pluginreminder.JobHandle
}

// NewService creates a new reminder service.
func NewService(config Config) Service {
	s := &service{
		store:     config.Store,
		scheduler: config.Scheduler,
		notifier:  config.Notifier,
		resolver:  config.Resolver,
		parser:    config.Parser,
		sessions:  config.Sessions,
		metrics:   config.Metrics,
		logger:    config.Logger,
		timeout:   config.DeliveryTimeout,
		now:       config.Now,
		jobs:      make(map[int64]map[int64]pluginreminder.JobHandle),
	}
	if s.resolver == nil {
		s.resolver = timezone.NewResolver(timezone.TimezoneUTC)
	}
	if s.parser == nil {
		s.parser = timeparse.NewParser()
	}
	if s.sessions == nil {
		s.sessions = NewSessionStore()
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultDeliveryTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// FormatDeliveryMessage renders the text sent when a reminder fires.
func FormatDeliveryMessage(text string) string {
	return DeliveryPrefix + html.EscapeString(text)
}

func (s *service) CreateReminder(ctx context.Context, create *CreateReminderRequest) (*store.Reminder, error) {
	logger := observability.LoggerFromContext(ctx, s.logger)

	hint := create.LocaleHint
	if hint == "" {
		if session, ok := s.sessions.Get(create.OwnerID); ok {
			hint = session.Language
		}
	}
	zone, loc := s.resolver.ResolveLocation(hint)
	nowLocal := s.now().In(loc)

	parsed, err := s.parser.Parse(create.Text, nowLocal)
	if err != nil {
		s.metrics.RecordParseFailed()
		logger.Debug("failed to parse reminder", "error", err)
		return nil, reminderrors.InvalidFormat(err)
	}
	if !parsed.Instant.After(nowLocal) {
		return nil, reminderrors.InstantInPast(fmt.Sprintf("%s has already passed",
			parsed.Instant.Format(timeparse.DateLayout+" "+timeparse.ClockLayout)))
	}

	reminder, err := s.store.CreateReminder(ctx, &store.Reminder{
		OwnerID:   create.OwnerID,
		Text:      parsed.Task,
		FireAt:    timezone.ToUTC(parsed.Instant),
		Timezone:  zone,
		CreatedTs: s.now().Unix(),
	})
	if err != nil {
		logger.Error("failed to create reminder", "error", err)
		return nil, reminderrors.StorageUnavailable(err)
	}
	s.metrics.RecordCreated()

	// Persist first, then arm: an arm failure leaves the reminder for the
	// next reconciliation pass.
	if err := s.arm(reminder); err != nil {
		s.metrics.RecordArmFailed()
		logger.Error("failed to arm reminder job",
			"reminder_id", reminder.ID,
			"error", reminderrors.SchedulerFailed(err),
		)
		return reminder, nil
	}

	logger.Info("reminder created",
		"reminder_id", reminder.ID,
		"fire_at", reminder.FireAt,
		"timezone", zone,
		"explicit_date", parsed.ExplicitDate,
	)
	return reminder, nil
}

// arm schedules the reminder and records its handle. The lock is held across
// Arm so a job firing immediately cannot clear its entry before it is recorded.
func (s *service) arm(reminder *store.Reminder) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	handle, err := s.scheduler.Arm(reminder.FireAt, pluginreminder.Payload{
		OwnerID:    reminder.OwnerID,
		ReminderID: reminder.ID,
		Text:       reminder.Text,
	})
	if err != nil {
		return err
	}
	owned, ok := s.jobs[reminder.OwnerID]
	if !ok {
		owned = make(map[int64]pluginreminder.JobHandle)
		s.jobs[reminder.OwnerID] = owned
	}
	owned[reminder.ID] = handle
	return nil
}

func (s *service) hasJob(ownerID, reminderID int64) bool {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	_, ok := s.jobs[ownerID][reminderID]
	return ok
}

func (s *service) takeJob(ownerID, reminderID int64) (pluginreminder.JobHandle, bool) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	owned, ok := s.jobs[ownerID]
	if !ok {
		return "", false
	}
	handle, ok := owned[reminderID]
	if !ok {
		return "", false
	}
	delete(owned, reminderID)
	if len(owned) == 0 {
		delete(s.jobs, ownerID)
	}
	return handle, true
}

func (s *service) ListReminders(ctx context.Context, ownerID int64) ([]*ReminderView, error) {
	list, err := s.store.ListReminders(ctx, &store.FindReminder{OwnerID: &ownerID})
	if err != nil {
		return nil, reminderrors.StorageUnavailable(err)
	}

	now := s.now()
	views := make([]*ReminderView, 0, len(list))
	for _, reminder := range list {
		views = append(views, newReminderView(reminder, now))
	}
	return views, nil
}

func (s *service) GetReminder(ctx context.Context, ownerID, reminderID int64) (*ReminderView, error) {
	reminder, err := s.store.GetReminder(ctx, &store.FindReminder{ID: &reminderID, OwnerID: &ownerID})
	if err != nil {
		return nil, reminderrors.StorageUnavailable(err)
	}
	if reminder == nil {
		return nil, reminderrors.NotFound(fmt.Sprintf("reminder %d not found", reminderID))
	}
	return newReminderView(reminder, s.now()), nil
}

func newReminderView(reminder *store.Reminder, now time.Time) *ReminderView {
	loc := reminder.Location()
	return &ReminderView{
		ID:        reminder.ID,
		Text:      reminder.Text,
		FireAt:    reminder.FireAt,
		Timezone:  reminder.Timezone,
		LocalTime: timezone.FormatReminderTime(reminder.FireAt, loc, now.In(loc)),
		Delivered: reminder.IsDelivered(),
	}
}

func (s *service) DeleteReminder(ctx context.Context, ownerID, reminderID int64) error {
	if err := s.store.DeleteReminder(ctx, &store.DeleteReminder{ID: reminderID, OwnerID: &ownerID}); err != nil {
		return reminderrors.StorageUnavailable(err)
	}
	s.metrics.RecordDeleted()

	if handle, ok := s.takeJob(ownerID, reminderID); ok {
		s.scheduler.Cancel(handle)
	}
	observability.LoggerFromContext(ctx, s.logger).Info("reminder deleted", "reminder_id", reminderID)
	return nil
}

func (s *service) Deliver(ctx context.Context, payload pluginreminder.Payload, firedAt time.Time) {
	s.takeJob(payload.OwnerID, payload.ReminderID)

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger := s.logger.With("owner_id", payload.OwnerID, "reminder_id", payload.ReminderID)
	errs := s.notifier.Broadcast(sendCtx, payload.OwnerID, FormatDeliveryMessage(payload.Text))
	if len(errs) > 0 {
		// No retry: a failed delivery is logged and the reminder is still
		// marked so it is not delivered again on restart.
		s.metrics.RecordDeliveryFailed()
		logger.Error("failed to deliver reminder", "error", errors.Join(errs...))
	} else {
		s.metrics.RecordDelivered()
	}

	if err := s.store.MarkReminderDelivered(ctx, payload.ReminderID, firedAt); err != nil {
		logger.Error("failed to mark reminder delivered", "error", err)
	}
}

func (s *service) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	pending, err := s.store.ListReminders(ctx, &store.FindReminder{Pending: true})
	if err != nil {
		return nil, reminderrors.StorageUnavailable(err)
	}

	result := &ReconcileResult{}
	now := s.now()
	for _, reminder := range pending {
		if s.hasJob(reminder.OwnerID, reminder.ID) {
			continue
		}
		// Overdue reminders are armed too: the scheduler fires them without
		// delay, so a slow channel cannot hold up startup.
		if err := s.arm(reminder); err != nil {
			result.Failed++
			s.metrics.RecordArmFailed()
			s.logger.Error("failed to re-arm reminder",
				"owner_id", reminder.OwnerID,
				"reminder_id", reminder.ID,
				"error", err,
			)
			continue
		}
		if reminder.FireAt.After(now) {
			result.Rearmed++
			continue
		}

		result.Overdue++
		s.metrics.RecordDeliveredLate()
		s.logger.Warn("delivering reminder missed while offline",
			"owner_id", reminder.OwnerID,
			"reminder_id", reminder.ID,
			"fire_at", reminder.FireAt,
			"lateness", now.Sub(reminder.FireAt).String(),
		)
	}

	s.logger.Info("reminders reconciled",
		"rearmed", result.Rearmed,
		"overdue", result.Overdue,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *service) SetLanguage(ownerID int64, language string) {
	s.sessions.Update(ownerID, func(session *Session) {
		session.Language = language
	})
}

func (s *service) Language(ownerID int64) (string, bool) {
	session, ok := s.sessions.Get(ownerID)
	if !ok || session.Language == "" {
		return "", false
	}
	return session.Language, true
}
