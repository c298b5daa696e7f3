// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"testing"
)

func TestParseProcfile(t *testing.T) {
	t.Parallel()

	procfile, err := ParseProcfile("web: python app.py --port $PORT\n", "python")
	if err != nil {
		t.Fatalf("ParseProcfile: %v", err)
	}
	if procfile.WebCommand != "python app.py --port $PORT" {
		t.Errorf("WebCommand = %q, want %q", procfile.WebCommand, "python app.py --port $PORT")
	}
}

func TestParseProcfile_LastWebLineWins(t *testing.T) {
	t.Parallel()

	content := "web: python first.py --port $PORT\n" +
		"worker: python worker.py\n" +
		"web: python second.py --port $PORT\n"

	procfile, err := ParseProcfile(content, "python")
	if err != nil {
		t.Fatalf("ParseProcfile: %v", err)
	}
	if procfile.WebCommand != "python second.py --port $PORT" {
		t.Errorf("WebCommand = %q, want the last web: declaration", procfile.WebCommand)
	}
}

func TestParseProcfile_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
	}{
		{"no web line", "worker: python worker.py\n"},
		{"empty", ""},
		{"wrong interpreter", "web: ruby app.rb --port $PORT\n"},
		{"missing port placeholder", "web: python app.py --port 8000\n"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseProcfile(tc.content, "python")
			if err == nil {
				t.Fatal("expected error")
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("error = %T, want *ValidationError", err)
			}
			if validationErr.Kind != KindInvalidProcessCommand {
				t.Errorf("Kind = %q, want %q", validationErr.Kind, KindInvalidProcessCommand)
			}
		})
	}
}
