package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/cmd"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/log"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/replay"
)

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Replay a captured action list against a live browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "JSON file holding the action list",
			},
			&cli.StringFlag{
				Name:  "session-id",
				Usage: "Load the action list from a persisted session instead",
			},
			&cli.DurationFlag{
				Name:  "pause",
				Usage: "Wait between dispatched actions",
				Value: 500 * time.Millisecond,
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "Run the browser headless",
			},
		},
		Action: runReplay,
	}
}

func runReplay(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("replay")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	actions, err := loadActions(ctx, command)
	if err != nil {
		return err
	}

	if len(actions) == 0 {
		return fmt.Errorf("no actions to replay")
	}

	driverCfg := replay.DefaultRodConfig()
	driverCfg.Headless = command.Bool("headless")

	driver, err := replay.NewRodDriver(driverCfg)
	if err != nil {
		return err
	}

	defer func() { _ = driver.Close() }()

	replayer := replay.NewReplayer(driver, logger, replay.WithPause(command.Duration("pause")))

	return replayer.Run(ctx, actions)
}

func loadActions(ctx context.Context, command *cli.Command) ([]models.Action, error) {
	if path := command.String("file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		var actions []models.Action
		if err := json.Unmarshal(raw, &actions); err != nil {
			return nil, fmt.Errorf("failed to decode action list: %w", err)
		}

		return actions, nil
	}

	sessionID := command.String("session-id")
	if sessionID == "" {
		return nil, fmt.Errorf("either --file or --session-id is required")
	}

	store, err := cmd.NewStore(ctx, log.WithModule("replay"), command.String("database-url"))
	if err != nil {
		return nil, err
	}

	defer func() { _ = store.Close(ctx) }()

	var session models.Session
	if err := store.Get(ctx, "sessions/"+sessionID, &session); err != nil {
		return nil, err
	}

	return session.Actions, nil
}
