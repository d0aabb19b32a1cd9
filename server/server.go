// Package server assembles the reminder bot: storage, scheduler, delivery
// channels and the HTTP ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/danya1a/Reminder-bot/internal/profile"
	pluginreminder "github.com/danya1a/Reminder-bot/plugin/reminder"
	"github.com/danya1a/Reminder-bot/plugin/timeparse"
	"github.com/danya1a/Reminder-bot/server/internal/observability"
	apiv1 "github.com/danya1a/Reminder-bot/server/router/api/v1"
	"github.com/danya1a/Reminder-bot/server/service/reminder"
	"github.com/danya1a/Reminder-bot/server/timezone"
	"github.com/danya1a/Reminder-bot/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	Service    reminder.Service
	Scheduler  *pluginreminder.Scheduler
	Dispatcher *pluginreminder.NotificationDispatcher
	Metrics    *observability.Metrics

	echoServer *echo.Echo
	logger     *slog.Logger
}

// NewServer wires every component around an already migrated store.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Profile: profile,
		Store:   store,
		Metrics: observability.NewMetrics(),
		logger:  logger,
	}

	s.Dispatcher = newDispatcher(profile, logger)

	s.Scheduler = pluginreminder.NewScheduler(func(ctx context.Context, payload pluginreminder.Payload, firedAt time.Time) {
		s.Service.Deliver(ctx, payload, firedAt)
	})
	s.Scheduler.SetLogger(logger)

	s.Service = reminder.NewService(reminder.Config{
		Store:           store,
		Scheduler:       s.Scheduler,
		Notifier:        s.Dispatcher,
		Resolver:        timezone.NewResolver(profile.DefaultTimezone),
		Parser:          timeparse.NewParser(),
		Sessions:        reminder.NewSessionStore(),
		Metrics:         s.Metrics,
		Logger:          logger,
		DeliveryTimeout: profile.DeliveryTimeout,
	})

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestID())
	s.echoServer = echoServer

	api := apiv1.NewAPIV1Service(profile, s.Service, s.Scheduler, s.Metrics)
	api.Logger = logger
	api.Router.SetLogger(logger)
	api.RegisterRoutes(echoServer)

	return s, nil
}

func newDispatcher(profile *profile.Profile, logger *slog.Logger) *pluginreminder.NotificationDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	dispatcher := pluginreminder.NewNotificationDispatcher()
	dispatcher.SetLogger(logger)
	if profile.IsTelegramEnabled() {
		dispatcher.Register(pluginreminder.ChannelTelegram, pluginreminder.NewTelegramSender(pluginreminder.TelegramConfig{
			Token:   profile.TelegramBotToken,
			BaseURL: profile.TelegramBaseURL,
			Timeout: profile.DeliveryTimeout,
		}))
	}
	if profile.IsWebhookEnabled() {
		dispatcher.Register(pluginreminder.ChannelWebhook, pluginreminder.NewWebhookSender(pluginreminder.WebhookConfig{
			URL:     profile.WebhookURL,
			Secret:  profile.WebhookSecret,
			Timeout: profile.DeliveryTimeout,
		}))
	}
	if len(dispatcher.Channels()) == 0 && !profile.IsDev() {
		logger.Warn("no chat delivery channel configured, reminders will only be logged",
			"mode", profile.Mode,
		)
	}
	if profile.IsDev() || len(dispatcher.Channels()) == 0 {
		dispatcher.Register(pluginreminder.ChannelLog, pluginreminder.NewLogSender(logger))
	}
	return dispatcher
}

// Start arms the scheduler, re-arms persisted reminders and serves HTTP until
// ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Scheduler.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start scheduler")
	}

	if _, err := s.Service.Reconcile(ctx); err != nil {
		return errors.Wrap(err, "failed to reconcile reminders")
	}

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener
	s.logger.Info("reminder server listening", "address", listener.Addr().String(), "mode", s.Profile.Mode)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)
		return nil
	})
	return g.Wait()
}

// Shutdown stops the HTTP ingress, drains in-flight deliveries and closes the
// store. Pending reminders stay persisted and are re-armed on the next start.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.echoServer.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shutdown http server", "error", err)
	}
	s.Scheduler.Stop()
	if err := s.Store.Close(); err != nil {
		s.logger.Error("failed to close store", "error", err)
	}
	s.logger.Info("reminder server stopped")
}
