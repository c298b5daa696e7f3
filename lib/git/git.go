// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI for repository
// operations. Skiff uses git for app repositories: creating the bare
// repository on first push, checking out the pushed tree, and resetting
// the working copy to the pushed revision. All commands target a
// specific directory via the -C flag, which is automatically injected
// by all Repository methods.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repository represents a git repository at a specific directory. All
// operations target this directory via "git -C <dir>". There is no
// default directory — callers must always specify which repository
// they mean.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory.
// The directory may be a bare repository or a working tree.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error messages
// on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Command returns an *exec.Cmd for a git command without running it.
// The caller gets full control over Stdin, Stdout, and Stderr before
// starting the process. The -C flag targeting this repository is
// automatically prepended.
func (r *Repository) Command(ctx context.Context, args ...string) *exec.Cmd {
	fullArgs := append([]string{"-C", r.dir}, args...)
	return exec.CommandContext(ctx, "git", fullArgs...)
}

// Fetch updates the working tree's remote-tracking refs from its
// origin (the app's bare repository).
func (r *Repository) Fetch(ctx context.Context) error {
	_, err := r.Run(ctx, "fetch")
	return err
}

// ResetHard moves the working tree to exactly rev, discarding any
// local state. No merge, no fast-forward check — force-push semantics
// are implicit.
func (r *Repository) ResetHard(ctx context.Context, rev string) error {
	_, err := r.Run(ctx, "reset", "--hard", rev)
	return err
}

// InitBare creates a bare repository named name under parent.
func InitBare(ctx context.Context, parent, name string) error {
	return runIn(ctx, parent, "init", "--bare", "--quiet", name)
}

// Clone clones src into dst, both resolved relative to parent. Used
// to create the app's working tree from its bare repository.
func Clone(ctx context.Context, parent, src, dst string) error {
	return runIn(ctx, parent, "clone", src, dst)
}

// runIn executes a git command with parent as the target directory.
func runIn(ctx context.Context, parent string, args ...string) error {
	fullArgs := append([]string{"-C", parent}, args...)
	var stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), parent, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
