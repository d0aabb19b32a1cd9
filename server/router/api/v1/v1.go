package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/danya1a/Reminder-bot/internal/profile"
	"github.com/danya1a/Reminder-bot/server/internal/observability"
	ratelimit "github.com/danya1a/Reminder-bot/server/middleware"
	"github.com/danya1a/Reminder-bot/server/router/bot"
	"github.com/danya1a/Reminder-bot/server/service/reminder"
)

// SchedulerStatus reports scheduler health.
type SchedulerStatus interface {
	IsRunning() bool
	Len() int
}

// APIV1Service exposes the chat router and the reminder service over HTTP so
// an external chat transport can push messages and callbacks.
type APIV1Service struct {
	Profile     *profile.Profile
	Service     reminder.Service
	Router      *bot.Router
	RateLimiter *ratelimit.RateLimiter
	Scheduler   SchedulerStatus
	Metrics     *observability.Metrics
	Logger      *slog.Logger
}

func NewAPIV1Service(profile *profile.Profile, service reminder.Service, scheduler SchedulerStatus, metrics *observability.Metrics) *APIV1Service {
	return &APIV1Service{
		Profile:     profile,
		Service:     service,
		Router:      bot.NewRouter(service),
		RateLimiter: ratelimit.NewRateLimiter(profile.RateLimit, 5),
		Scheduler:   scheduler,
		Metrics:     metrics,
		Logger:      slog.Default(),
	}
}

// RegisterRoutes registers the HTTP routes with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/healthz", s.Healthz)

	group := echoServer.Group("/api/v1")
	group.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))
	group.POST("/messages", s.PostMessage)
	group.POST("/callbacks", s.PostCallback)
	group.GET("/owners/:owner/reminders", s.ListReminders)
	group.GET("/owners/:owner/reminders/:id", s.GetReminder)
	group.DELETE("/owners/:owner/reminders/:id", s.DeleteReminder)
	group.GET("/owners/:owner/feed", s.GetFeed)
}
