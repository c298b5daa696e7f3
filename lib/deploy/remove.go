// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Remove tears down every trace of an app: its running process, its
// supervisor registration, its proxy route, and its on-disk state.
//
// Teardown runs the inverse policy from deploy: every sub-step is
// attempted even when earlier ones fail, favoring completeness over
// strict ordering. Sub-step failures are logged and collected into the
// returned error. Only a missing app aborts immediately, with
// *NotFoundError and the filesystem untouched.
func (o *Orchestrator) Remove(ctx context.Context, app string) error {
	cfg := o.Config
	logger := o.Logger.With("app", app)

	appDir := cfg.AppDir(app)
	if _, err := os.Stat(appDir); err != nil {
		return &NotFoundError{App: app}
	}

	unitName := cfg.UnitName(app)
	var errs []error
	report := func(step string, err error) {
		if err != nil {
			logger.Error("teardown step failed", "step", step, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", step, err))
		}
	}

	report("stop", o.Supervisor.Stop(ctx, unitName))
	report("disable", o.Supervisor.Disable(ctx, unitName))
	report("proxy-reload", o.Proxy.Reload(ctx))
	report("delete-state", os.RemoveAll(appDir))

	// Scan-directory entries may already be gone (disable removes the
	// supervisor's, and a never-deployed app has no route pointer).
	for _, pointer := range []string{cfg.UnitPointer(app), cfg.RoutePointer(app)} {
		if err := os.Remove(pointer); err != nil && !os.IsNotExist(err) {
			report("remove-pointer", err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("app removed")
	return nil
}
