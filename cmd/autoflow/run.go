package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/log"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/replay"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/services"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/workflow"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Execute a workflow document once",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Workflow document to execute",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "with-browser",
				Usage: "Launch a browser so graphs using the browser capability can run",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "Run the browser headless",
				Value: true,
			},
		},
		Action: runWorkflowOnce,
	}
}

func runWorkflowOnce(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("run")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	raw, err := os.ReadFile(command.String("file"))
	if err != nil {
		return err
	}

	importer, err := workflow.NewImporter()
	if err != nil {
		return err
	}

	wf, err := importer.Import(raw)
	if err != nil {
		return err
	}

	registry := services.Default(logger)

	if command.Bool("with-browser") {
		driverCfg := replay.DefaultRodConfig()
		driverCfg.Headless = command.Bool("headless")

		driver, err := replay.NewRodDriver(driverCfg)
		if err != nil {
			return err
		}

		defer func() { _ = driver.Close() }()

		registry.Register(replay.NewBrowserFactory(driver))
	}

	executor := workflow.NewExecutor(registry, logger)

	ectx, err := executor.Execute(ctx, wf, func(nodeID string, status models.NodeStatus, nodeErr error) {
		if nodeErr != nil {
			logger.Error("Node failed", "node_id", nodeID, "error", nodeErr)

			return
		}

		logger.Info("Node progress", "node_id", nodeID, "status", status)
	})

	if ectx != nil {
		out, marshalErr := json.MarshalIndent(ectx, "", "  ")
		if marshalErr == nil {
			fmt.Fprintln(os.Stdout, string(out))
		}
	}

	return err
}
