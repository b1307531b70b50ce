package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"gastos/internal/amqp"
	"gastos/internal/bot"
	"gastos/internal/cache"
	"gastos/internal/cli"
	"gastos/internal/dialog"
	apphttp "gastos/internal/http"
	"gastos/internal/log"
	"gastos/internal/services"

	"golang.org/x/sync/errgroup"
)

const sessionCleanupInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	logger.Info("Starting gastos")

	cfg, err := cli.LoadAndValidateConfig("BOT_TOKEN")
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	var opts []services.Option
	if cfg.EventsEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			opts = append(opts, services.WithEvents(amqpClient))
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledger, err := cli.OpenLedger(ctx, cfg, logger, opts...)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err)
		os.Exit(1)
	}
	defer ledger.Close()

	sessions := dialog.NewSessions(cfg.DialogMaxSessions, cfg.DialogTTL)
	tracker := dialog.NewTracker(sessions, ledger, logger.WithComponent(log.ComponentDialog))
	dispatcher := bot.NewDispatcher(ledger, tracker, logger.WithComponent(log.ComponentBot))

	telegram, err := bot.NewTelegram(cfg.BotToken, cfg.TelegramDebug, dispatcher, logger.WithComponent(log.ComponentBot))
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger, logger.WithComponent(log.ComponentHTTP))
	scheduler := services.NewRolloverScheduler(ledger, cfg.RolloverInterval, logger.WithComponent(log.ComponentRollover))
	janitor := cache.NewJanitor(logger.WithComponent(log.ComponentCache).Logger)
	janitor.Register(sessions)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return telegram.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error { return janitor.Run(gctx, sessionCleanupInterval) })

	logger.Info("gastos running",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"time_zone", cfg.TZName,
		"events", cfg.EventsEnabled())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("gastos stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("gastos stopped gracefully")
}
