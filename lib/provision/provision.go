// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package provision prepares a checked-out source tree for execution
// by delegating to the dependency installer and, when a frontend asset
// manifest is present, the asset installer.
//
// Provisioning trusts the installers' exit codes as the sole success
// signal — it performs no inspection of what got installed. A non-zero
// exit aborts the deploy before any unit or route file is touched.
package provision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Error is a fatal provisioning failure: an installer or check
// command exited non-zero.
type Error struct {
	// Command is the argv that failed.
	Command []string

	// Output is the combined output of the failed command.
	Output string

	// Err is the underlying exec error.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provisioning failed: %s: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Provisioner runs the configured installers against a source tree.
type Provisioner struct {
	// Installer is the dependency installer argv (e.g. poetry install).
	Installer []string

	// InstallCheck is run after a successful install; a relative first
	// element is resolved against the source tree. Empty disables it.
	InstallCheck []string

	// AssetManifest names the file whose presence triggers the asset
	// installer (e.g. package.json).
	AssetManifest string

	// AssetInstaller is the frontend-asset installer argv (e.g. yarn
	// install).
	AssetInstaller []string

	// ExtraPath is prepended to PATH for installer invocations so a
	// per-user toolchain install is found first.
	ExtraPath string

	// execute runs one command; overridable in tests. Nil means the
	// real implementation.
	execute func(ctx context.Context, dir string, argv []string, extraPath string) error
}

// Provision installs dependencies into the source tree at dir. The
// dependency installer always runs; the asset installer runs only when
// the asset manifest exists in the tree. Any failure is an *Error.
func (p *Provisioner) Provision(ctx context.Context, dir string) error {
	if err := p.run(ctx, dir, p.Installer); err != nil {
		return err
	}

	if len(p.InstallCheck) > 0 {
		check := append([]string{}, p.InstallCheck...)
		if !filepath.IsAbs(check[0]) {
			check[0] = filepath.Join(dir, check[0])
		}
		if err := p.run(ctx, dir, check); err != nil {
			return err
		}
	}

	if p.AssetManifest != "" && len(p.AssetInstaller) > 0 {
		if _, err := os.Stat(filepath.Join(dir, p.AssetManifest)); err == nil {
			if err := p.run(ctx, dir, p.AssetInstaller); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *Provisioner) run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return &Error{Command: argv, Err: fmt.Errorf("installer command not configured")}
	}
	execute := p.execute
	if execute == nil {
		execute = runCommand
	}
	return execute(ctx, dir, argv, p.ExtraPath)
}

// runCommand executes argv with dir as the working directory, PATH
// prefixed with extraPath, and combined output captured for the error.
func runCommand(ctx context.Context, dir string, argv []string, extraPath string) error {
	var output bytes.Buffer
	command := exec.CommandContext(ctx, argv[0], argv[1:]...)
	command.Dir = dir
	command.Stdout = &output
	command.Stderr = &output
	if extraPath != "" {
		command.Env = append(os.Environ(), "PATH="+extraPath+":"+os.Getenv("PATH"))
	}

	if err := command.Run(); err != nil {
		return &Error{Command: argv, Output: output.String(), Err: err}
	}
	return nil
}
