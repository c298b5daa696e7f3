// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the skiff command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skiff-sh/skiff/cmd/skiff/appcmd"
	"github.com/skiff-sh/skiff/cmd/skiff/cli"
	"github.com/skiff-sh/skiff/cmd/skiff/gitcmd"
	"github.com/skiff-sh/skiff/cmd/skiff/hostcmd"
	"github.com/skiff-sh/skiff/lib/version"
)

// Root returns the top-level skiff command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "skiff",
		Summary: "Turn git push into a running web app",
		Description: "skiff is a single-host deployment agent: it accepts git pushes over\n" +
			"SSH, provisions the pushed source tree, and serves it behind the\n" +
			"host's reverse proxy under a per-app domain.",
		Subcommands: []*cli.Command{
			hostcmd.Init(),
			appcmd.Del(),
			gitcmd.ReceivePack(),
			gitcmd.Hook(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "skiff version",
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}
