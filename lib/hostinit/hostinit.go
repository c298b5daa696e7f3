// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostinit bootstraps a host for skiff: directories, supervisor
// lingering, reverse proxy wiring, sudo policy, and the SSH forced
// command that routes every push through the agent.
package hostinit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/skiff-sh/skiff/lib/config"
)

// globalRoute is the proxy snippet shared by every app route.
const globalRoute = "* {\n\tencode zstd gzip\n}\n"

// sshOptions locks a pushed-over SSH session down to the forced
// command.
const sshOptions = "no-agent-forwarding,no-user-rc,no-X11-forwarding,no-port-forwarding"

// Initializer performs one-time host setup. Every step is idempotent,
// so re-running init after a partial failure or an agent upgrade is
// safe.
type Initializer struct {
	// Config supplies paths and the service account.
	Config *config.Config

	// Logger receives per-step progress records.
	Logger *slog.Logger

	// SelfExe is the absolute path of the agent binary, installed as
	// the SSH forced command.
	SelfExe string

	// runner executes external commands; tests replace it.
	runner func(ctx context.Context, argv ...string) error
}

// Run executes the full bootstrap sequence. Init must run as the
// service account with sudo available for the proxy and sudoers steps.
func (i *Initializer) Run(ctx context.Context) error {
	cfg := i.Config

	// Fail fast when sudo is unavailable; the proxy and sudoers steps
	// depend on it.
	if err := i.run(ctx, "sudo", "true"); err != nil {
		return fmt.Errorf("checking sudo access: %w", err)
	}

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}
	if err := i.linkUnitsDir(); err != nil {
		return err
	}

	// Keep user units running without an open session.
	if err := i.run(ctx, "loginctl", "enable-linger", cfg.User); err != nil {
		return fmt.Errorf("enabling linger: %w", err)
	}

	if err := i.writeGlobalRoute(); err != nil {
		return err
	}
	if err := i.importRoutes(ctx); err != nil {
		return err
	}
	if err := i.installSudoers(ctx); err != nil {
		return err
	}
	if err := i.installForcedCommand(); err != nil {
		return err
	}

	// In-tree virtualenvs keep each app's interpreter under its own
	// source checkout, where the generated units expect it.
	if err := i.run(ctx, "poetry", "config", "virtualenvs.in-project", "true"); err != nil {
		return fmt.Errorf("configuring installer: %w", err)
	}

	i.Logger.Info("host initialized", "user", cfg.User, "root", cfg.Paths.Root)
	return nil
}

// linkUnitsDir maintains the systemdfiles convenience symlink under
// Root pointing at the supervisor scan directory.
func (i *Initializer) linkUnitsDir() error {
	link := filepath.Join(i.Config.Paths.Root, "systemdfiles")
	if target, err := os.Readlink(link); err == nil && target == i.Config.Paths.UnitsDir {
		return nil
	}
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing %s: %w", link, err)
	}
	if err := os.Symlink(i.Config.Paths.UnitsDir, link); err != nil {
		return fmt.Errorf("linking units directory: %w", err)
	}
	return nil
}

// writeGlobalRoute drops the shared proxy snippet into the scan
// directory.
func (i *Initializer) writeGlobalRoute() error {
	path := filepath.Join(i.Config.Paths.ProxyDir, "global")
	if err := os.WriteFile(path, []byte(globalRoute), 0644); err != nil {
		return fmt.Errorf("writing global route: %w", err)
	}
	return nil
}

// importRoutes appends an import of the scan directory to the proxy's
// global configuration. Already-imported configurations are left
// untouched.
func (i *Initializer) importRoutes(ctx context.Context) error {
	cfg := i.Config
	importLine := fmt.Sprintf("import %s/*", cfg.Paths.ProxyDir)

	current, err := os.ReadFile(cfg.Proxy.GlobalConfig)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", cfg.Proxy.GlobalConfig, err)
	}
	if strings.Contains(string(current), importLine) {
		return nil
	}

	updated := string(current)
	if updated != "" && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += importLine + "\n"

	return i.installRootFile(ctx, cfg.Proxy.GlobalConfig, updated, "0644")
}

// installSudoers grants the service account exactly one privileged
// command: reloading the proxy.
func (i *Initializer) installSudoers(ctx context.Context) error {
	entry := fmt.Sprintf("%s ALL=(root) NOPASSWD: /usr/bin/systemctl reload caddy\n", i.Config.User)
	path := filepath.Join("/etc/sudoers.d", i.Config.User)
	return i.installRootFile(ctx, path, entry, "0440")
}

// installRootFile writes content to a root-owned path by staging it in
// a temp file and moving it into place with sudo.
func (i *Initializer) installRootFile(ctx context.Context, path, content, mode string) error {
	staging, err := os.CreateTemp("", "skiff-init-*")
	if err != nil {
		return err
	}
	stagingPath := staging.Name()
	defer os.Remove(stagingPath)

	if _, err := staging.WriteString(content); err != nil {
		staging.Close()
		return err
	}
	if err := staging.Close(); err != nil {
		return err
	}

	for _, argv := range [][]string{
		{"sudo", "chown", "root:root", stagingPath},
		{"sudo", "chmod", mode, stagingPath},
		{"sudo", "mv", stagingPath, path},
	} {
		if err := i.run(ctx, argv...); err != nil {
			return fmt.Errorf("installing %s: %w", path, err)
		}
	}
	return nil
}

// installForcedCommand rewrites the service account's authorized_keys
// so every connection runs through the agent.
func (i *Initializer) installForcedCommand() error {
	path := filepath.Join(i.Config.Paths.Root, ".ssh", "authorized_keys")
	current, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			i.Logger.Warn("no authorized_keys to rewrite", "path", path)
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	rewritten := RewriteAuthorizedKeys(string(current), i.SelfExe)
	if rewritten == string(current) {
		return nil
	}
	if err := os.WriteFile(path, []byte(rewritten), 0600); err != nil {
		return fmt.Errorf("rewriting %s: %w", path, err)
	}
	return nil
}

// RewriteAuthorizedKeys prefixes every bare public key line with the
// forced command pointing at entrypoint. Comments, blank lines, and
// keys that already carry options pass through untouched, so the
// rewrite is idempotent.
func RewriteAuthorizedKeys(content, entrypoint string) string {
	lines := strings.Split(content, "\n")
	for index, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "ssh-") && !strings.HasPrefix(trimmed, "ecdsa-") {
			continue
		}
		lines[index] = fmt.Sprintf("command=\"%s $SSH_ORIGINAL_COMMAND\",%s %s",
			entrypoint, sshOptions, trimmed)
	}
	return strings.Join(lines, "\n")
}

func (i *Initializer) run(ctx context.Context, argv ...string) error {
	if i.runner != nil {
		return i.runner(ctx, argv...)
	}
	command := exec.CommandContext(ctx, argv[0], argv[1:]...)
	output, err := command.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (output: %s)",
			strings.Join(argv, " "), err, strings.TrimSpace(string(output)))
	}
	i.Logger.Debug("ran", "command", strings.Join(argv, " "))
	return nil
}
