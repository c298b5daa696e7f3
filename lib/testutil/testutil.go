// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for skiff packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories as
// needed, and fails the test on error.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// WriteTree materializes a set of relative path → content entries
// under root. Use it to build fake source trees for deploy tests.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for relative, content := range files {
		WriteFile(t, filepath.Join(root, relative), content)
	}
}

// SourceTree builds a minimal valid app source tree for app under a
// fresh temp directory and returns its root. The tree carries a
// manifest (skiff.toml), a dependency declaration (pyproject.toml),
// and a Procfile with a $PORT placeholder.
func SourceTree(t *testing.T, app, domain string) string {
	t.Helper()
	root := t.TempDir()
	WriteTree(t, root, map[string]string{
		"skiff.toml": "[apps." + app + "]\n" +
			"domain = \"" + domain + "\"\n" +
			"static = \"assets\"\n",
		"pyproject.toml": "[tool.poetry]\nname = \"" + app + "\"\n",
		"Procfile":       "web: python app.py --port $PORT\n",
	})
	return root
}
