// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package gitcmd implements the git-facing commands: the receive-pack
// service invoked by the SSH forced command, and the post-receive hook
// re-entry.
package gitcmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/skiff-sh/skiff/cmd/skiff/cli"
	"github.com/skiff-sh/skiff/lib/config"
	"github.com/skiff-sh/skiff/lib/deploy"
	"github.com/skiff-sh/skiff/lib/gateway"
)

// ReceivePack returns the "skiff git-receive-pack" command. The SSH
// forced command passes $SSH_ORIGINAL_COMMAND through verbatim, so the
// app argument arrives shell-quoted from the git client.
func ReceivePack() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "git-receive-pack",
		Summary: "Serve a git push for an app (SSH entrypoint)",
		Description: "Serve one git-receive-pack session for the named app, creating its\n" +
			"repository on first push. Invoked by git over the SSH forced command;\n" +
			"not intended for interactive use.",
		Usage: "skiff git-receive-pack '<app>'",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("git-receive-pack", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to a YAML config file")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: skiff git-receive-pack '<app>'")
			}
			app := UnquoteApp(args[0])
			if app == "" {
				return cli.Validation("empty app name")
			}

			g, err := newGateway(configPath, logger)
			if err != nil {
				return err
			}
			return g.ReceivePack(ctx, app)
		},
	}
}

// Hook returns the "skiff git-hook" command, run by the post-receive
// hook with the ref updates on stdin.
func Hook() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "git-hook",
		Summary: "Deploy a pushed revision (post-receive hook entrypoint)",
		Description: "Check out the revision named on stdin into the app's source tree and\n" +
			"deploy it. Invoked by the repository's post-receive hook; not intended\n" +
			"for interactive use.",
		Usage: "skiff git-hook <app>",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("git-hook", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to a YAML config file")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: skiff git-hook <app>")
			}

			g, err := newGateway(configPath, logger)
			if err != nil {
				return err
			}
			return g.PostReceive(ctx, args[0], os.Stdin)
		},
	}
}

// UnquoteApp strips one layer of surrounding shell quotes from the app
// argument ("'demo'" or "\"demo\"" become "demo").
func UnquoteApp(arg string) string {
	if len(arg) >= 2 {
		first, last := arg[0], arg[len(arg)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			return arg[1 : len(arg)-1]
		}
	}
	return arg
}

// newGateway assembles the production gateway for one invocation.
func newGateway(configPath string, logger *slog.Logger) (*gateway.Gateway, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, cli.Validation("%v", err)
	}
	selfExe, err := os.Executable()
	if err != nil {
		return nil, cli.Internal("locating agent binary: %v", err)
	}

	return &gateway.Gateway{
		Config:   cfg,
		Logger:   logger,
		Deployer: deploy.NewOrchestrator(cfg, logger),
		SelfExe:  selfExe,
	}, nil
}
