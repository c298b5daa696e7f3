// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"log/slog"

	"github.com/skiff-sh/skiff/lib/config"
	"github.com/skiff-sh/skiff/lib/provision"
	"github.com/skiff-sh/skiff/lib/system"
)

// NewOrchestrator assembles the production orchestrator: exec-backed
// supervisor and proxy, the configured dependency installer, and
// kernel-assigned port allocation.
func NewOrchestrator(cfg *config.Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		Config: cfg,
		Logger: logger,
		Provisioner: &provision.Provisioner{
			Installer:      cfg.Runtime.Installer,
			InstallCheck:   cfg.Runtime.InstallCheck,
			AssetManifest:  cfg.Runtime.AssetManifest,
			AssetInstaller: cfg.Runtime.AssetInstaller,
			ExtraPath:      cfg.Paths.Bin,
		},
		Supervisor: &system.Systemctl{UserMode: cfg.Supervisor.UserMode},
		Proxy:      &system.CommandProxy{ReloadCommand: cfg.Proxy.ReloadCommand},
	}
}
