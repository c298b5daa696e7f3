// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest parses and validates the per-repository deployment
// manifest and the process declaration file.
//
// The manifest (skiff.toml by default) maps app names to deployment
// metadata — public domain, static asset path, and the process
// declaration file name. The process declaration (Procfile by default)
// declares the single web command with a $PORT placeholder.
//
// The manifest is loaded fresh from the pushed source tree on every
// deploy; nothing here is persisted independently. All failures are
// ValidationError values that abort a deploy before any external state
// is mutated.
package manifest
