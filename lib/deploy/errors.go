// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import "fmt"

// NotFoundError reports an operation on an app with no registered
// state on this host.
type NotFoundError struct {
	// App is the app name that could not be found.
	App string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("app %s not found", e.App)
}

// ActivationError reports a supervisor or proxy control step that
// failed after some external state had already been mutated. The
// orchestrator does not roll back: the previous deployment's unit is
// generally still the one routed (unless the route swap had already
// happened), and the freshly written files remain on disk for
// inspection.
type ActivationError struct {
	// Step names the failing deploy step (enable, activate-route,
	// proxy-reload, restart).
	Step string

	// Err is the underlying failure.
	Err error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }
