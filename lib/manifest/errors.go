// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import "fmt"

// ErrorKind classifies validation failures so callers can branch on
// the failure mode without parsing message text.
type ErrorKind string

const (
	// KindMissingFile indicates a required file (manifest, dependency
	// declaration, or declared process file) is absent from the tree.
	KindMissingFile ErrorKind = "missing_file"

	// KindUnknownApp indicates the target app is not a key in the
	// manifest's app table.
	KindUnknownApp ErrorKind = "unknown_app"

	// KindMalformedManifest indicates the manifest file exists but
	// cannot be parsed.
	KindMalformedManifest ErrorKind = "malformed_manifest"

	// KindInvalidProcessCommand indicates the process declaration has
	// no usable web command: no web: line, wrong interpreter, or a
	// missing $PORT placeholder.
	KindInvalidProcessCommand ErrorKind = "invalid_process_command"
)

// ValidationError describes a manifest or process-declaration problem.
// Validation errors are always recoverable by fixing the pushed tree
// and always occur before any external state has been mutated.
type ValidationError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Path names the offending file, when one is involved.
	Path string

	// App names the app being resolved, for unknown-app failures.
	App string

	// Reason is the human-readable explanation.
	Reason string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissingFile:
		return fmt.Sprintf("%s not detected", e.Path)
	case KindUnknownApp:
		return fmt.Sprintf("%s not found in manifest app table", e.App)
	default:
		return e.Reason
	}
}

// missingFile builds a KindMissingFile error for path.
func missingFile(path string) *ValidationError {
	return &ValidationError{Kind: KindMissingFile, Path: path}
}
