// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides small networking helpers.
package netutil

import (
	"fmt"
	"net"
)

// FreePort asks the OS for an unused TCP port by binding port 0 on the
// wildcard address, reading back the assigned port, and releasing the
// socket. No reservation is held between allocation and use: another
// process can claim the port before the supervisor starts the unit.
// That window is a known limitation of scan-directory activation, not
// something this helper tries to engineer away.
func FreePort() (int, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, fmt.Errorf("allocating port: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	if err := listener.Close(); err != nil {
		return 0, fmt.Errorf("releasing port %d: %w", port, err)
	}
	return port, nil
}
