// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package appcmd implements app lifecycle commands.
package appcmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/skiff-sh/skiff/cmd/skiff/cli"
	"github.com/skiff-sh/skiff/lib/config"
	"github.com/skiff-sh/skiff/lib/deploy"
)

// Del returns the "skiff del" command.
func Del() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "del",
		Summary: "Remove an app and all its state",
		Description: "Stop the app's process, deregister it from the supervisor, drop its\n" +
			"proxy route, and delete its repository and source checkout. Teardown\n" +
			"is best-effort: every step runs even when earlier ones fail.",
		Usage: "skiff del <app> [flags]",
		Examples: []cli.Example{
			{Description: "Remove the demo app", Command: "skiff del demo"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("del", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to a YAML config file")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: skiff del <app>")
			}
			cfg, err := config.LoadFrom(configPath)
			if err != nil {
				return cli.Validation("%v", err)
			}

			orchestrator := deploy.NewOrchestrator(cfg, logger)
			if err := orchestrator.Remove(ctx, args[0]); err != nil {
				var notFound *deploy.NotFoundError
				if errors.As(err, &notFound) {
					return cli.NotFound("%v", err)
				}
				return err
			}
			return nil
		},
	}
}
