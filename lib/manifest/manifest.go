// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultProcessFile is used when an app entry does not declare one.
const DefaultProcessFile = "Procfile"

// Manifest is the per-repository deployment manifest: a table of app
// name to deployment metadata.
type Manifest struct {
	Apps map[string]AppEntry `toml:"apps"`
}

// AppEntry is one app's deployment metadata as written in the manifest.
type AppEntry struct {
	// Domain is the public hostname the proxy routes to this app.
	Domain string `toml:"domain"`

	// Static is the path, relative to the source tree, served under
	// /static/*.
	Static string `toml:"static"`

	// Procfile is the process declaration file name. Defaults to
	// DefaultProcessFile when empty.
	Procfile string `toml:"procfile"`
}

// App is the fully resolved manifest entry for one app, ready for the
// orchestrator: defaults applied, referenced files verified present.
type App struct {
	// Name is the app's unique identifier.
	Name string

	// Domain is the public hostname.
	Domain string

	// StaticPath is the static asset path relative to the source tree.
	StaticPath string

	// ProcessFile is the resolved process declaration file name.
	ProcessFile string
}

// Options name the files the resolver requires at the source tree root.
type Options struct {
	// ManifestFile is the manifest file name (e.g. skiff.toml).
	ManifestFile string

	// ProjectFile is the dependency declaration file name (e.g.
	// pyproject.toml). Its presence is required; its content is the
	// installer's business.
	ProjectFile string
}

// Resolve loads the manifest from the source tree root and resolves
// the entry for app. It verifies the manifest file, the dependency
// declaration, and the declared process file all exist. Any failure
// is a *ValidationError; no external state is touched.
func Resolve(root, app string, options Options) (*App, error) {
	manifestPath := filepath.Join(root, options.ManifestFile)
	if _, err := os.Stat(manifestPath); err != nil {
		return nil, missingFile(options.ManifestFile)
	}
	if _, err := os.Stat(filepath.Join(root, options.ProjectFile)); err != nil {
		return nil, missingFile(options.ProjectFile)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", manifestPath, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, &ValidationError{
			Kind:   KindMalformedManifest,
			Path:   options.ManifestFile,
			Reason: fmt.Sprintf("malformed manifest %s: %v", options.ManifestFile, err),
		}
	}

	entry, ok := m.Apps[app]
	if !ok {
		return nil, &ValidationError{Kind: KindUnknownApp, App: app}
	}

	processFile := entry.Procfile
	if processFile == "" {
		processFile = DefaultProcessFile
	}
	if _, err := os.Stat(filepath.Join(root, processFile)); err != nil {
		return nil, missingFile(processFile)
	}

	return &App{
		Name:        app,
		Domain:      entry.Domain,
		StaticPath:  entry.Static,
		ProcessFile: processFile,
	}, nil
}
