// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command framework for the skiff binary:
// a declarative command tree with pflag flag sets, structured help
// output, typo suggestions for unknown commands and flags, and typed
// error categories that the entrypoint maps to process exit status.
//
// Commands receive a context and a structured logger from the
// framework. Library packages never terminate the process themselves;
// they return errors up to the single top-level handler in main.
package cli
