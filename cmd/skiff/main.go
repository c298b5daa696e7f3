// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Command skiff is a single-host git-push deployment agent.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/skiff-sh/skiff/cmd/skiff/cli"
	"github.com/skiff-sh/skiff/cmd/skiff/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := cli.NewCommandLogger()

	if err := commands.Root().Execute(ctx, os.Args[1:], logger); err != nil {
		// Commands that manage their own output return an exit code
		// carrier instead of a message.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
