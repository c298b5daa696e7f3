// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/skiff-sh/skiff/lib/testutil"
)

var testOptions = Options{
	ManifestFile: "skiff.toml",
	ProjectFile:  "pyproject.toml",
}

func validTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"skiff.toml": `[apps.demo]
domain = "demo.example.com"
static = "assets"
`,
		"pyproject.toml": "[tool.poetry]\nname = \"demo\"\n",
		"Procfile":       "web: python app.py --port $PORT\n",
	})
	return root
}

func TestResolve(t *testing.T) {
	t.Parallel()

	root := validTree(t)

	app, err := Resolve(root, "demo", testOptions)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if app.Name != "demo" {
		t.Errorf("Name = %q, want %q", app.Name, "demo")
	}
	if app.Domain != "demo.example.com" {
		t.Errorf("Domain = %q, want %q", app.Domain, "demo.example.com")
	}
	if app.StaticPath != "assets" {
		t.Errorf("StaticPath = %q, want %q", app.StaticPath, "assets")
	}
	if app.ProcessFile != DefaultProcessFile {
		t.Errorf("ProcessFile = %q, want default %q", app.ProcessFile, DefaultProcessFile)
	}
}

func TestResolve_CustomProcessFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"skiff.toml": `[apps.demo]
domain = "demo.example.com"
static = "assets"
procfile = "Procfile.production"
`,
		"pyproject.toml":      "[tool.poetry]\n",
		"Procfile.production": "web: python app.py --port $PORT\n",
	})

	app, err := Resolve(root, "demo", testOptions)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if app.ProcessFile != "Procfile.production" {
		t.Errorf("ProcessFile = %q, want %q", app.ProcessFile, "Procfile.production")
	}
}

func TestResolve_MissingFiles(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		remove string
		want   string
	}{
		{"missing manifest", "skiff.toml", "skiff.toml"},
		{"missing project file", "pyproject.toml", "pyproject.toml"},
		{"missing process file", "Procfile", "Procfile"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			root := validTree(t)
			if err := os.Remove(filepath.Join(root, tc.remove)); err != nil {
				t.Fatalf("removing %s: %v", tc.remove, err)
			}

			_, err := Resolve(root, "demo", testOptions)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("error = %v (%T), want *ValidationError", err, err)
			}
			if validationErr.Kind != KindMissingFile {
				t.Errorf("Kind = %q, want %q", validationErr.Kind, KindMissingFile)
			}
			if validationErr.Path != tc.want {
				t.Errorf("Path = %q, want %q", validationErr.Path, tc.want)
			}
		})
	}
}

func TestResolve_UnknownApp(t *testing.T) {
	t.Parallel()

	root := validTree(t)

	_, err := Resolve(root, "other", testOptions)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v (%T), want *ValidationError", err, err)
	}
	if validationErr.Kind != KindUnknownApp {
		t.Errorf("Kind = %q, want %q", validationErr.Kind, KindUnknownApp)
	}
	if validationErr.App != "other" {
		t.Errorf("App = %q, want %q", validationErr.App, "other")
	}
}

func TestResolve_MalformedManifest(t *testing.T) {
	t.Parallel()

	root := validTree(t)
	testutil.WriteTree(t, root, map[string]string{"skiff.toml": "[apps.demo\ndomain = oops\n"})

	_, err := Resolve(root, "demo", testOptions)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v (%T), want *ValidationError", err, err)
	}
	if validationErr.Kind != KindMalformedManifest {
		t.Errorf("Kind = %q, want %q", validationErr.Kind, KindMalformedManifest)
	}
}
