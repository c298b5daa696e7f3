// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package system defines capability interfaces for the external tools
// skiff coordinates — the process supervisor and the reverse proxy —
// and their production implementations, which shell out to the host
// binaries.
//
// The interfaces mark the trust boundary of the deployment core:
// everything behind them is an independently-failing external system
// with no transaction support. Tests substitute fakes; the
// orchestrator's ordering guarantees are asserted against those fakes.
package system

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Supervisor controls the process supervisor (systemd user manager in
// production). Unit arguments are unit names (e.g. "demo.service")
// except Enable, which registers a unit by file path.
type Supervisor interface {
	// Enable registers the unit file at unitPath with the supervisor.
	// Registration does not start the process.
	Enable(ctx context.Context, unitPath string) error

	// Disable deregisters the named unit.
	Disable(ctx context.Context, unit string) error

	// Stop stops the named unit's process.
	Stop(ctx context.Context, unit string) error

	// Restart starts or restarts the named unit's process. This is the
	// step that switches live traffic to a new deployment.
	Restart(ctx context.Context, unit string) error
}

// Proxy controls the reverse proxy's configuration lifecycle.
type Proxy interface {
	// Reload makes the proxy re-read its scan directory, picking up
	// route changes.
	Reload(ctx context.Context) error
}

// CommandError reports an external tool invocation that exited
// non-zero, carrying the exact command and its captured output for
// manual inspection.
type CommandError struct {
	// Command is the full argv that failed.
	Command []string

	// Output is the combined stdout and stderr of the invocation.
	Output string

	// Err is the underlying exec error.
	Err error
}

func (e *CommandError) Error() string {
	message := fmt.Sprintf("%s: %v", strings.Join(e.Command, " "), e.Err)
	if output := strings.TrimSpace(e.Output); output != "" {
		message += " (output: " + output + ")"
	}
	return message
}

func (e *CommandError) Unwrap() error { return e.Err }

// run executes argv, capturing combined output into the error on
// failure. Blocks until the tool exits; there is no timeout beyond
// what the context imposes.
func run(ctx context.Context, argv ...string) error {
	var output bytes.Buffer
	command := exec.CommandContext(ctx, argv[0], argv[1:]...)
	command.Stdout = &output
	command.Stderr = &output

	if err := command.Run(); err != nil {
		return &CommandError{Command: argv, Output: output.String(), Err: err}
	}
	return nil
}

// Systemctl is the production Supervisor, shelling out to systemctl.
type Systemctl struct {
	// UserMode adds --user to every invocation, targeting the per-user
	// service manager rather than the system one.
	UserMode bool
}

func (s *Systemctl) args(verb, unit string) []string {
	argv := []string{"systemctl"}
	if s.UserMode {
		argv = append(argv, "--user")
	}
	return append(argv, verb, unit)
}

func (s *Systemctl) Enable(ctx context.Context, unitPath string) error {
	return run(ctx, s.args("enable", unitPath)...)
}

func (s *Systemctl) Disable(ctx context.Context, unit string) error {
	return run(ctx, s.args("disable", unit)...)
}

func (s *Systemctl) Stop(ctx context.Context, unit string) error {
	return run(ctx, s.args("stop", unit)...)
}

func (s *Systemctl) Restart(ctx context.Context, unit string) error {
	return run(ctx, s.args("restart", unit)...)
}

// CommandProxy is the production Proxy: reloading is a single
// configured command (sudo systemctl reload caddy by default). The
// sudoers entry installed by skiff init permits exactly that command.
type CommandProxy struct {
	// ReloadCommand is the full argv run on Reload.
	ReloadCommand []string
}

func (p *CommandProxy) Reload(ctx context.Context) error {
	if len(p.ReloadCommand) == 0 {
		return fmt.Errorf("proxy reload command not configured")
	}
	return run(ctx, p.ReloadCommand...)
}
