package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/cmd"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/events"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/log"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/persistence"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/scheduler"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/services"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/workflow"
)

func schedulerCommand() *cli.Command {
	return &cli.Command{
		Name:  "scheduler",
		Usage: "Run the schedule polling loop",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "tick",
				Usage:   "Polling interval for time-based schedules",
				Value:   time.Minute,
				Sources: cli.EnvVars("SCHEDULER_TICK"),
			},
		},
		Action: runScheduler,
	}
}

func runScheduler(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("scheduler")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cmd.NewStore(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() { _ = store.Close(ctx) }()

	bus := events.NewInMemoryBus()
	defer func() { _ = bus.Close() }()

	registry := services.Default(logger)
	executor := workflow.NewExecutor(registry, logger, workflow.WithEventBus(bus))

	sched := scheduler.New(store, storeRunner(store, executor, logger), logger,
		scheduler.WithTick(command.Duration("tick")),
		scheduler.WithEventBus(bus),
	)

	if err := sched.Start(ctx); err != nil {
		return err
	}

	logger.Info("Scheduler running, Ctrl-C to stop")

	<-ctx.Done()
	sched.Stop()

	return nil
}

// storeRunner loads workflows by id from the store and executes them.
func storeRunner(store persistence.Store, executor *workflow.Executor, logger *slog.Logger) scheduler.RunnerFunc {
	return func(ctx context.Context, workflowID string) error {
		var wf models.Workflow
		if err := store.Get(ctx, "workflows/"+workflowID, &wf); err != nil {
			return fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
		}

		_, err := executor.Execute(ctx, &wf, nil)
		if err != nil {
			logger.Error("Scheduled workflow failed", "workflow_id", workflowID, "error", err)
		}

		return err
	}
}
