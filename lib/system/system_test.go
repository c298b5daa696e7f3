// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSystemctlArgs(t *testing.T) {
	t.Parallel()

	userMode := &Systemctl{UserMode: true}
	got := userMode.args("enable", "/apps/demo/demo.service")
	want := "systemctl --user enable /apps/demo/demo.service"
	if strings.Join(got, " ") != want {
		t.Errorf("args = %q, want %q", strings.Join(got, " "), want)
	}

	systemMode := &Systemctl{}
	got = systemMode.args("stop", "demo.service")
	want = "systemctl stop demo.service"
	if strings.Join(got, " ") != want {
		t.Errorf("args = %q, want %q", strings.Join(got, " "), want)
	}
}

func TestRun_CapturesOutputOnFailure(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), "sh", "-c", "echo broken tool output; exit 7")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}

	var commandErr *CommandError
	if !errors.As(err, &commandErr) {
		t.Fatalf("error = %T, want *CommandError", err)
	}
	if !strings.Contains(commandErr.Output, "broken tool output") {
		t.Errorf("Output = %q, want captured tool output", commandErr.Output)
	}
	if !strings.Contains(commandErr.Error(), "exit status 7") {
		t.Errorf("Error() = %q, want to mention exit status", commandErr.Error())
	}
}

func TestCommandProxy_Unconfigured(t *testing.T) {
	t.Parallel()

	proxy := &CommandProxy{}
	if err := proxy.Reload(context.Background()); err == nil {
		t.Fatal("expected error for unconfigured reload command")
	}
}

func TestCommandProxy_Reload(t *testing.T) {
	t.Parallel()

	proxy := &CommandProxy{ReloadCommand: []string{"true"}}
	if err := proxy.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
}
