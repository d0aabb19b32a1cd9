package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/danya1a/Reminder-bot/internal/profile"
	"github.com/danya1a/Reminder-bot/internal/version"
	"github.com/danya1a/Reminder-bot/server"
	"github.com/danya1a/Reminder-bot/store"
	"github.com/danya1a/Reminder-bot/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "reminder-bot",
		Short: "A chat bot that schedules one-shot reminders from plain text.",
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile := newProfile()
			if err := instanceProfile.Validate(); err != nil {
				slog.Error("invalid profile", "error", err)
				os.Exit(1)
			}

			logger := newLogger(instanceProfile)
			slog.SetDefault(logger)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				logger.Error("failed to create db driver", "error", err)
				os.Exit(1)
			}

			storeInstance := store.New(dbDriver, instanceProfile)
			if err := storeInstance.Migrate(ctx); err != nil {
				logger.Error("failed to migrate", "error", err)
				os.Exit(1)
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance, logger)
			if err != nil {
				logger.Error("failed to create server", "error", err)
				os.Exit(1)
			}

			printGreetings(instanceProfile)

			if err := s.Start(ctx); err != nil {
				logger.Error("server stopped with error", "error", err)
				os.Exit(1)
			}
		},
	}
)

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("timezone", profile.DefaultTimezone)

	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver, sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().String("timezone", profile.DefaultTimezone, "timezone for owners without a recognised language")
	rootCmd.PersistentFlags().String("telegram-token", "", "Telegram bot token used to deliver reminders")
	rootCmd.PersistentFlags().String("webhook-url", "", "webhook receiving delivered reminders")
	rootCmd.PersistentFlags().String("webhook-secret", "", "secret sent in the X-Webhook-Secret header")
	rootCmd.PersistentFlags().Duration("delivery-timeout", profile.DefaultDeliveryTimeout, "timeout of one reminder delivery")
	rootCmd.PersistentFlags().Float64("rate-limit", profile.DefaultRateLimit, "inbound messages per second allowed per owner")

	for _, name := range []string{
		"mode", "addr", "port", "data", "driver", "dsn", "timezone",
		"telegram-token", "webhook-url", "webhook-secret", "delivery-timeout", "rate-limit",
	} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("reminder")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	// Keys whose documented variable differs from the flag name.
	if err := viper.BindEnv("timezone", "REMINDER_DEFAULT_TIMEZONE", "REMINDER_TIMEZONE"); err != nil {
		panic(err)
	}
	if err := viper.BindEnv("telegram-token", "REMINDER_TELEGRAM_BOT_TOKEN", "REMINDER_TELEGRAM_TOKEN"); err != nil {
		panic(err)
	}
}

// newProfile reads flags and REMINDER_* variables. Flags win over variables.
func newProfile() *profile.Profile {
	instanceProfile := &profile.Profile{
		Mode:             viper.GetString("mode"),
		Addr:             viper.GetString("addr"),
		Port:             viper.GetInt("port"),
		Data:             viper.GetString("data"),
		Driver:           viper.GetString("driver"),
		DSN:              viper.GetString("dsn"),
		DefaultTimezone:  viper.GetString("timezone"),
		TelegramBotToken: viper.GetString("telegram-token"),
		WebhookURL:       viper.GetString("webhook-url"),
		WebhookSecret:    viper.GetString("webhook-secret"),
		DeliveryTimeout:  viper.GetDuration("delivery-timeout"),
		RateLimit:        viper.GetFloat64("rate-limit"),
		Version:          version.Version,
	}
	instanceProfile.FromEnv()
	return instanceProfile
}

func newLogger(p *profile.Profile) *slog.Logger {
	if p.IsDev() {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("Reminder bot %s started successfully!\n", p.Version)
	fmt.Printf("Mode: %s, driver: %s, default timezone: %s\n", p.Mode, p.Driver, p.DefaultTimezone)
	if p.IsDev() {
		fmt.Fprintf(os.Stderr, "Development mode is enabled\n")
		fmt.Fprintf(os.Stderr, "Database: %s\n", p.DSN)
	}
	fmt.Printf("Listening on %s:%d\n", p.Addr, p.Port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
