// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package unit renders the process-supervisor unit definition and the
// reverse-proxy route definition for a deployment.
//
// Rendering is pure string generation from fixed templates — no
// filesystem or process interaction. The exact output syntax is part
// of the external interface: it must satisfy the systemd unit parser
// and the Caddy configuration parser respectively.
package unit

import (
	"fmt"
	"strings"
	"text/template"
)

// ServiceUnit holds the resolved values rendered into a supervisor
// unit definition.
type ServiceUnit struct {
	// Description is the unit's human-readable description.
	Description string

	// WorkingDirectory is the app's source tree checkout.
	WorkingDirectory string

	// ExecStart is the fully resolved web command, port already
	// substituted.
	ExecStart string

	// RestartIntervalSeconds is the restart backoff.
	RestartIntervalSeconds int
}

// ProxyRoute holds the resolved values rendered into a reverse-proxy
// site block.
type ProxyRoute struct {
	// Domain is the public hostname for the site block.
	Domain string

	// Port is the local port the web process listens on.
	Port int

	// SourceRoot is the app's source tree checkout.
	SourceRoot string

	// StaticPath is the static asset path relative to SourceRoot,
	// served under /static/*.
	StaticPath string
}

var serviceTemplate = template.Must(template.New("service").Parse(
	`[Unit]
Description={{.Description}}

[Service]
After=network.target
Restart=always
RestartSec={{.RestartIntervalSeconds}}
WorkingDirectory={{.WorkingDirectory}}
ExecStart={{.ExecStart}}

[Install]
WantedBy=default.target
`))

var routeTemplate = template.Must(template.New("route").Parse(
	`{{.Domain}} {
    reverse_proxy localhost:{{.Port}}

    handle_path /static/* {
        file_server {
            root {{.SourceRoot}}/{{.StaticPath}}
        }
    }
}
`))

// Render produces the supervisor unit text.
func (u ServiceUnit) Render() (string, error) {
	var out strings.Builder
	if err := serviceTemplate.Execute(&out, u); err != nil {
		return "", fmt.Errorf("rendering service unit: %w", err)
	}
	return out.String(), nil
}

// Render produces the proxy route text.
func (r ProxyRoute) Render() (string, error) {
	var out strings.Builder
	if err := routeTemplate.Execute(&out, r); err != nil {
		return "", fmt.Errorf("rendering proxy route: %w", err)
	}
	return out.String(), nil
}
