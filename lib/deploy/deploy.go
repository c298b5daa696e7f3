// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/skiff-sh/skiff/lib/config"
	"github.com/skiff-sh/skiff/lib/manifest"
	"github.com/skiff-sh/skiff/lib/netutil"
	"github.com/skiff-sh/skiff/lib/system"
	"github.com/skiff-sh/skiff/lib/unit"
)

// EnvironmentProvisioner prepares a source tree for execution. The
// production implementation is *provision.Provisioner.
type EnvironmentProvisioner interface {
	Provision(ctx context.Context, dir string) error
}

// Orchestrator coordinates one deploy or remove operation across the
// provisioner, supervisor, and proxy. It holds no mutable state of its
// own — all durable state lives on disk and is re-read every run.
type Orchestrator struct {
	// Config supplies all paths and tool invocations.
	Config *config.Config

	// Logger receives structured progress and best-effort failure
	// records.
	Logger *slog.Logger

	// Provisioner installs dependencies into the source tree.
	Provisioner EnvironmentProvisioner

	// Supervisor controls the process supervisor.
	Supervisor system.Supervisor

	// Proxy controls the reverse proxy.
	Proxy system.Proxy

	// AllocatePort obtains an unused TCP port. Nil means
	// netutil.FreePort. Each deploy allocates a fresh port; ports are
	// not stable across redeploys.
	AllocatePort func() (int, error)
}

// Deployment describes one completed orchestration run. It exists only
// for the duration of the deploy call and its log records; nothing
// here is persisted.
type Deployment struct {
	// ID identifies this run in log output.
	ID string

	// App is the app name.
	App string

	// SourcePath is the source tree the deployment was built from.
	SourcePath string

	// Port is the freshly allocated listen port.
	Port int

	// Command is the fully resolved ExecStart command.
	Command string

	// Description is the service unit description.
	Description string

	// UnitPath and RoutePath are the generated files in the app's
	// directory.
	UnitPath  string
	RoutePath string
}

// Deploy runs the full deployment state machine for app. On success
// the app's unit is registered, its route is active, and live traffic
// is served by the new process. Validation and provisioning failures
// abort before any external mutation; later failures are returned as
// *ActivationError without rollback.
func (o *Orchestrator) Deploy(ctx context.Context, app string) (*Deployment, error) {
	cfg := o.Config
	logger := o.Logger.With("app", app)

	// Step 1: the source tree must already be checked out by the push
	// gateway.
	sourcePath := cfg.CodeDir(app)
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, &NotFoundError{App: app}
	}

	// Step 2: all validation happens here, before any mutation.
	resolved, err := manifest.Resolve(sourcePath, app, manifest.Options{
		ManifestFile: cfg.Runtime.ManifestFile,
		ProjectFile:  cfg.Runtime.ProjectFile,
	})
	if err != nil {
		return nil, err
	}

	declaration, err := os.ReadFile(filepath.Join(sourcePath, resolved.ProcessFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", resolved.ProcessFile, err)
	}
	procfile, err := manifest.ParseProcfile(string(declaration), cfg.Runtime.Interpreter)
	if err != nil {
		return nil, err
	}

	logger.Info("validated", "domain", resolved.Domain, "process_file", resolved.ProcessFile)

	// Step 3: provision the environment. A failing installer aborts
	// with the previous deployment still serving.
	if err := o.Provisioner.Provision(ctx, sourcePath); err != nil {
		return nil, err
	}

	// Step 4: allocate a fresh port and resolve the command.
	allocate := o.AllocatePort
	if allocate == nil {
		allocate = netutil.FreePort
	}
	port, err := allocate()
	if err != nil {
		return nil, err
	}

	webCommand := strings.ReplaceAll(procfile.WebCommand, manifest.PortPlaceholder, strconv.Itoa(port))
	execStart := filepath.Join(sourcePath, cfg.Runtime.VenvBin) + "/" + webCommand

	deployment := &Deployment{
		ID:          uuid.NewString(),
		App:         app,
		SourcePath:  sourcePath,
		Port:        port,
		Command:     execStart,
		Description: app + " configured by skiff",
		UnitPath:    cfg.UnitPath(app),
		RoutePath:   cfg.RoutePath(app),
	}
	logger = logger.With("deployment", deployment.ID, "port", port)
	logger.Info("resolved web command", "exec_start", execStart)

	// Step 5: render and write both generated files into the app's own
	// directory. The scan directories are not touched yet.
	unitText, err := unit.ServiceUnit{
		Description:            deployment.Description,
		WorkingDirectory:       sourcePath,
		ExecStart:              execStart,
		RestartIntervalSeconds: cfg.Supervisor.RestartIntervalSeconds,
	}.Render()
	if err != nil {
		return nil, err
	}
	routeText, err := unit.ProxyRoute{
		Domain:     resolved.Domain,
		Port:       port,
		SourceRoot: sourcePath,
		StaticPath: resolved.StaticPath,
	}.Render()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(deployment.UnitPath, []byte(unitText), 0644); err != nil {
		return nil, fmt.Errorf("writing unit file: %w", err)
	}
	if err := os.WriteFile(deployment.RoutePath, []byte(routeText), 0644); err != nil {
		return nil, fmt.Errorf("writing route file: %w", err)
	}

	// Step 6: register the unit. This does not start the process.
	if err := o.Supervisor.Enable(ctx, deployment.UnitPath); err != nil {
		return nil, &ActivationError{Step: "enable", Err: err}
	}

	// Step 7: atomically repoint the proxy route.
	if err := Activate(cfg.RoutePointer(app), deployment.RoutePath); err != nil {
		return nil, &ActivationError{Step: "activate-route", Err: err}
	}

	// Step 8: reload the proxy before restarting the service, so a
	// failed reload leaves the old instance still correctly routed.
	if err := o.Proxy.Reload(ctx); err != nil {
		return nil, &ActivationError{Step: "proxy-reload", Err: err}
	}
	logger.Info("proxy reloaded")

	// Step 9: switch live traffic to the new process.
	if err := o.Supervisor.Restart(ctx, cfg.UnitName(app)); err != nil {
		return nil, &ActivationError{Step: "restart", Err: err}
	}
	logger.Info("service restarted")

	return deployment, nil
}
