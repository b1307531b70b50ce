package main

import (
	"context"
	"os"
	_ "time/tzdata"

	"gastos/internal/amqp"
	"gastos/internal/cli"
	"gastos/internal/commands"
	"gastos/internal/log"
	"gastos/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stderr)

	open := func(ctx context.Context) (commands.Ledger, error) {
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return nil, err
		}
		var opts []services.Option
		var events *amqp.Client
		if cfg.EventsEnabled() {
			events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Warn("AMQP unavailable, changes will not reach the mirror", log.FieldError, err)
			} else {
				opts = append(opts, services.WithEvents(events))
			}
		}
		ledger, err := cli.OpenLedger(ctx, cfg, logger, opts...)
		if err != nil {
			if events != nil {
				_ = events.Close()
			}
			return nil, err
		}
		return &closingLedger{LedgerService: ledger, events: events}, nil
	}

	if err := commands.NewRootCommand(open).Execute(); err != nil {
		os.Exit(1)
	}
}

// closingLedger also closes the AMQP connection opened for the command.
type closingLedger struct {
	*services.LedgerService
	events *amqp.Client
}

func (l *closingLedger) Close() error {
	if l.events != nil {
		_ = l.events.Close()
	}
	return l.LedgerService.Close()
}
