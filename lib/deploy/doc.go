// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package deploy implements the application lifecycle orchestrator:
// the state machine that takes a pushed source tree through
// validation, environment provisioning, port binding, unit
// generation, and traffic cut-over, plus the reverse path.
//
// The ordering discipline is the core safety invariant: all validation
// precedes all mutation. A deploy that fails during validation or
// provisioning leaves the previous deployment untouched and still
// serving traffic. Failures after mutation has begun are reported as
// ActivationError and are not rolled back — the partially written
// unit and route files stay on disk for manual inspection.
//
// Removal runs the inverse policy: best-effort through every teardown
// step, favoring completeness over strict ordering.
package deploy
