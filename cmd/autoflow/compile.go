package main

import (
	"context"
	"encoding/json"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/compile"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/log"
)

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:  "compile",
		Usage: "Compile a captured action list into a workflow document",
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
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Name of the compiled workflow",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "File the workflow document is written to",
				Value:   "workflow.json",
			},
		},
		Action: runCompile,
	}
}

func runCompile(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("compile")

	actions, err := loadActions(ctx, command)
	if err != nil {
		return err
	}

	wf := compile.FromActions(command.String("name"), actions)

	raw, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(command.String("output"), raw, 0o644); err != nil {
		return err
	}

	logger.Info("Workflow compiled",
		"workflow_id", wf.ID,
		"nodes", len(wf.Nodes),
		"output", command.String("output"),
	)

	return nil
}
