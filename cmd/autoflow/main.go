package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/log"
)

func main() {
	cmd := &cli.Command{
		Name:                  "autoflow",
		Usage:                 "Record browser interactions and run them as workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Store URL (file path, redis:// or postgres://)",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
		},
		Commands: []*cli.Command{
			recordCommand(),
			replayCommand(),
			compileCommand(),
			runCommand(),
			schedulerCommand(),
			serveCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
