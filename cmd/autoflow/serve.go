package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/cmd"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/events"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/log"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/otelhelper"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/scheduler"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/services"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/web"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/workflow"
)

const defaultPort = 8080

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API with the scheduler running alongside",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.DurationFlag{
				Name:    "tick",
				Usage:   "Polling interval for time-based schedules",
				Value:   time.Minute,
				Sources: cli.EnvVars("SCHEDULER_TICK"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP HTTP",
				Sources: cli.EnvVars("AUTOFLOW_TRACING"),
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("serve")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cmd.NewStore(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() { _ = store.Close(ctx) }()

	bus := events.NewInMemoryBus()
	defer func() { _ = bus.Close() }()

	tracer := otelhelper.NoopTracer()

	if command.Bool("tracing") {
		tracer, err = otelhelper.NewTracer(ctx, "autoflow")
		if err != nil {
			return err
		}
	}

	registry := services.Default(logger)
	executor := workflow.NewExecutor(registry, logger,
		workflow.WithEventBus(bus),
		workflow.WithTracer(tracer),
	)

	sched := scheduler.New(store, storeRunner(store, executor, logger), logger,
		scheduler.WithTick(command.Duration("tick")),
		scheduler.WithEventBus(bus),
	)

	if err := sched.Start(ctx); err != nil {
		return err
	}

	defer sched.Stop()

	importer, err := workflow.NewImporter()
	if err != nil {
		return err
	}

	app := fiber.New()
	web.NewAPIHandlers(sched, executor, importer, logger).Register(app)

	go func() {
		<-ctx.Done()

		if err := app.Shutdown(); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	}()

	return app.Listen(fmt.Sprintf(":%d", command.Int("port")))
}
