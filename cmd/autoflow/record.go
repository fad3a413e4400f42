package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/cmd"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/log"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/recorder"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/recorder/browser"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/replay"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/script"
)

func recordCommand() *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Record interactions on a page until Escape or interrupt",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "url",
				Usage:    "Page to open for recording",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "File the generated replay script is written to",
				Value:   "replay.autoflow",
			},
			&cli.StringFlag{
				Name:  "actions-output",
				Usage: "File the raw action list is written to as JSON",
				Value: "actions.json",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "Run the browser headless",
			},
		},
		Action: runRecord,
	}
}

func runRecord(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("record")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cmd.NewStore(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() { _ = store.Close(ctx) }()

	driverCfg := replay.DefaultRodConfig()
	driverCfg.Headless = command.Bool("headless")

	driver, err := replay.NewRodDriver(driverCfg)
	if err != nil {
		return err
	}

	defer func() { _ = driver.Close() }()

	if err := driver.Navigate(ctx, command.String("url")); err != nil {
		return err
	}

	surface := browser.NewSurface(driver.Page(), logger)
	rec := recorder.NewRecorder(surface, logger, recorder.WithStore(store))

	var captured []models.Action

	rec.OnComplete(func(actions []models.Action) {
		captured = actions
	})

	if err := rec.Start(ctx); err != nil {
		return err
	}

	logger.Info("Recording, press Escape in the page or Ctrl-C here to stop")

	waitForStop(ctx, rec)

	// Escape in the page may already have finalized the session; in that
	// case OnComplete has the buffer and Stop reports ErrNotRecording.
	if _, err := rec.Stop(); err != nil && !errors.Is(err, recorder.ErrNotRecording) {
		return err
	}

	return writeCapture(command, logger, captured)
}

// waitForStop blocks until the session ends in the page or the process is
// interrupted.
func waitForStop(ctx context.Context, rec *recorder.Recorder) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !rec.Recording() {
				return
			}
		}
	}
}

func writeCapture(command *cli.Command, logger *slog.Logger, actions []models.Action) error {
	generated := script.Generate(actions)
	if err := os.WriteFile(command.String("output"), []byte(generated), 0o644); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}

	raw, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(command.String("actions-output"), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write actions: %w", err)
	}

	logger.Info("Capture written",
		"actions", len(actions),
		"script", command.String("output"),
	)

	return nil
}
