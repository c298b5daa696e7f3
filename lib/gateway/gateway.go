// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway implements the git push entrypoint: it serves
// git-receive-pack for app repositories and turns a completed push
// into a deployment via the repository's post-receive hook.
package gateway

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/skiff-sh/skiff/lib/config"
	"github.com/skiff-sh/skiff/lib/deploy"
	"github.com/skiff-sh/skiff/lib/git"
)

// Deployer runs a deployment for an app whose source tree has been
// checked out. The production implementation is *deploy.Orchestrator.
type Deployer interface {
	Deploy(ctx context.Context, app string) (*deploy.Deployment, error)
}

// Gateway serves pushes for app repositories. An SSH forced command
// routes every connection through it, so the repository layout and the
// post-receive hook are fully under its control: the repository is
// created lazily on first push and the hook is rewritten on every push,
// keeping existing repositories current when the agent binary moves.
type Gateway struct {
	// Config supplies repository and source tree paths.
	Config *config.Config

	// Logger receives structured progress records.
	Logger *slog.Logger

	// Deployer runs the deployment after a push lands.
	Deployer Deployer

	// SelfExe is the absolute path of the agent binary, written into
	// the post-receive hook.
	SelfExe string

	// Stdin, Stdout, and Stderr are wired through to git receive-pack,
	// which speaks the pack protocol over them. Nil means the process
	// standard streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ReceivePack prepares the app's bare repository and serves one
// git-receive-pack session over the gateway's standard streams. The
// post-receive hook fires inside that session and re-enters the agent
// via PostReceive.
func (g *Gateway) ReceivePack(ctx context.Context, app string) error {
	cfg := g.Config
	logger := g.Logger.With("app", app)

	appDir := cfg.AppDir(app)
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return fmt.Errorf("creating app directory: %w", err)
	}

	repoDir := cfg.RepoDir(app)
	if _, err := os.Stat(repoDir); os.IsNotExist(err) {
		logger.Info("creating repository", "path", repoDir)
		if err := git.InitBare(ctx, appDir, filepath.Base(repoDir)); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("checking repository: %w", err)
	}

	if err := g.writeHook(app, repoDir); err != nil {
		return err
	}

	// git shell restricts execution to the pack services, mirroring
	// what sshd would allow for a git-only account.
	command := exec.CommandContext(ctx, "git", "shell", "-c",
		fmt.Sprintf("git receive-pack '%s'", filepath.Base(repoDir)))
	command.Dir = appDir
	command.Stdin = g.stdin()
	command.Stdout = g.stdout()
	command.Stderr = g.stderr()
	if err := command.Run(); err != nil {
		return fmt.Errorf("git receive-pack: %w", err)
	}
	return nil
}

// writeHook installs the post-receive hook that pipes the pushed ref
// update back into the agent.
func (g *Gateway) writeHook(app, repoDir string) error {
	hook := fmt.Sprintf("#!/usr/bin/env bash\nset -e\nset -o pipefail\ncat | %s git-hook %s\n",
		g.SelfExe, app)
	hookPath := filepath.Join(repoDir, "hooks", "post-receive")
	if err := os.WriteFile(hookPath, []byte(hook), 0755); err != nil {
		return fmt.Errorf("writing post-receive hook: %w", err)
	}
	return nil
}

// RefUpdate is one "<old-rev> <new-rev> <ref-name>" line from a
// post-receive hook's stdin.
type RefUpdate struct {
	OldRev string
	NewRev string
	Ref    string
}

// ParseRefUpdates parses post-receive hook input. Blank lines are
// skipped; a malformed line is an error.
func ParseRefUpdates(r io.Reader) ([]RefUpdate, error) {
	var updates []RefUpdate
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed ref update %q", line)
		}
		updates = append(updates, RefUpdate{OldRev: fields[0], NewRev: fields[1], Ref: fields[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ref updates: %w", err)
	}
	return updates, nil
}

// PostReceive handles the hook side of a push: it checks out the
// pushed revision into the app's source tree and deploys it. hookInput
// is the hook's stdin.
//
// Multiple ref updates in one push are unusual for this workflow; the
// first one wins and the rest are logged and ignored.
func (g *Gateway) PostReceive(ctx context.Context, app string, hookInput io.Reader) error {
	cfg := g.Config
	logger := g.Logger.With("app", app)

	updates, err := ParseRefUpdates(hookInput)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return fmt.Errorf("post-receive hook ran with no ref updates")
	}
	if len(updates) > 1 {
		logger.Warn("push updated multiple refs, deploying the first",
			"refs", len(updates))
	}
	update := updates[0]
	logger.Info("push received", "ref", update.Ref, "rev", update.NewRev)

	// Clone with absolute paths so the checkout's origin URL stays
	// valid no matter where later fetches run from.
	codeDir := cfg.CodeDir(app)
	if _, err := os.Stat(codeDir); os.IsNotExist(err) {
		if err := git.Clone(ctx, cfg.AppDir(app), cfg.RepoDir(app), codeDir); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("checking source tree: %w", err)
	}

	checkout := git.NewRepository(codeDir)
	if err := checkout.Fetch(ctx); err != nil {
		return err
	}
	if err := checkout.ResetHard(ctx, update.NewRev); err != nil {
		return err
	}

	deployment, err := g.Deployer.Deploy(ctx, app)
	if err != nil {
		return err
	}
	logger.Info("deployed", "deployment", deployment.ID, "port", deployment.Port)
	return nil
}

func (g *Gateway) stdin() io.Reader {
	if g.Stdin != nil {
		return g.Stdin
	}
	return os.Stdin
}

func (g *Gateway) stdout() io.Writer {
	if g.Stdout != nil {
		return g.Stdout
	}
	return os.Stdout
}

func (g *Gateway) stderr() io.Writer {
	if g.Stderr != nil {
		return g.Stderr
	}
	return os.Stderr
}
