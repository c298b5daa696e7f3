// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"strings"
)

// PortPlaceholder is the literal substring the web command must carry;
// the orchestrator substitutes the allocated port for it.
const PortPlaceholder = "$PORT"

// Procfile is the parsed process declaration: a single web command
// template. Only the web process type is recognized — this is a
// deliberately narrow format, not a general multi-process model.
type Procfile struct {
	// WebCommand is the shell command template, still containing the
	// $PORT placeholder.
	WebCommand string
}

// ParseProcfile scans content for lines starting with the literal
// prefix "web:". The last such line wins — later declarations silently
// override earlier ones. The command must begin with the interpreter
// token and contain the $PORT placeholder; any violation is a
// *ValidationError of kind KindInvalidProcessCommand.
func ParseProcfile(content, interpreter string) (*Procfile, error) {
	webCommand := ""
	found := false
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "web:") {
			continue
		}
		webCommand = strings.TrimSpace(strings.TrimPrefix(line, "web:"))
		found = true
	}

	if !found {
		return nil, &ValidationError{
			Kind:   KindInvalidProcessCommand,
			Reason: "process declaration has no web: line",
		}
	}
	if !strings.HasPrefix(webCommand, interpreter) {
		return nil, &ValidationError{
			Kind:   KindInvalidProcessCommand,
			Reason: fmt.Sprintf("web command should start with %s", interpreter),
		}
	}
	if !strings.Contains(webCommand, PortPlaceholder) {
		return nil, &ValidationError{
			Kind:   KindInvalidProcessCommand,
			Reason: fmt.Sprintf("%s is not present on web command", PortPlaceholder),
		}
	}

	return &Procfile{WebCommand: webCommand}, nil
}
