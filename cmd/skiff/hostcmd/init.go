// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostcmd implements host bootstrap commands.
package hostcmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/skiff-sh/skiff/cmd/skiff/cli"
	"github.com/skiff-sh/skiff/lib/config"
	"github.com/skiff-sh/skiff/lib/hostinit"
)

// Init returns the "skiff init" command.
func Init() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "init",
		Summary: "Bootstrap this host for git-push deployments",
		Description: "Prepare the host: create state directories, enable supervisor\n" +
			"lingering, wire the reverse proxy's scan directory, install the sudo\n" +
			"policy, and route SSH connections through the agent.\n\n" +
			"Run as the service account with sudo available. Re-running is safe;\n" +
			"every step is idempotent.",
		Usage: "skiff init [flags]",
		Examples: []cli.Example{
			{Description: "Bootstrap with the default configuration", Command: "skiff init"},
			{Description: "Bootstrap with a custom configuration", Command: "skiff init --config /etc/skiff.yaml"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("init", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to a YAML config file")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("init takes no arguments")
			}
			cfg, err := config.LoadFrom(configPath)
			if err != nil {
				return cli.Validation("%v", err)
			}
			selfExe, err := os.Executable()
			if err != nil {
				return cli.Internal("locating agent binary: %v", err)
			}

			initializer := &hostinit.Initializer{
				Config:  cfg,
				Logger:  logger,
				SelfExe: selfExe,
			}
			return initializer.Run(ctx)
		},
	}
}
