// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for skiff.
//
// Configuration is loaded from a single file specified by:
//   - SKIFF_CONFIG environment variable, or
//   - --config flag passed to the command
//
// When neither is given, built-in defaults apply. The config file is the
// single source of truth; environment variables do not override individual
// values. All components receive the Config explicitly — there is no
// ambient global state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the skiff host agent.
type Config struct {
	// User is the service account that owns all app state and runs the
	// supervisor units. The SSH forced command and linger setup target
	// this account.
	User string `yaml:"user"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Runtime configures the application runtime toolchain.
	Runtime RuntimeConfig `yaml:"runtime"`

	// Supervisor configures the process supervisor integration.
	Supervisor SupervisorConfig `yaml:"supervisor"`

	// Proxy configures the reverse proxy integration.
	Proxy ProxyConfig `yaml:"proxy"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for all skiff state.
	Root string `yaml:"root"`

	// Apps is where per-app directories (source checkout, bare repo,
	// generated unit and route files) live.
	Apps string `yaml:"apps"`

	// ProxyDir is the reverse proxy's scan directory. The proxy's global
	// configuration imports every file in it; activation symlinks for
	// per-app routes are created here.
	ProxyDir string `yaml:"proxy_dir"`

	// UnitsDir is the supervisor's scan directory for user units. On a
	// systemd host this is ~/.config/systemd/user; a convenience symlink
	// named "systemdfiles" under Root points at it.
	UnitsDir string `yaml:"units_dir"`

	// Bin is prepended to PATH when running the dependency installer,
	// so a per-user toolchain install is found before system binaries.
	Bin string `yaml:"bin"`
}

// RuntimeConfig configures the application runtime toolchain.
type RuntimeConfig struct {
	// Interpreter is the binary name the web command must start with.
	Interpreter string `yaml:"interpreter"`

	// ManifestFile is the per-repository manifest at the source tree root.
	ManifestFile string `yaml:"manifest_file"`

	// ProjectFile is the dependency declaration that must exist at the
	// source tree root (e.g. pyproject.toml).
	ProjectFile string `yaml:"project_file"`

	// Installer is the dependency installer invocation.
	Installer []string `yaml:"installer"`

	// InstallCheck is run from the source tree after a successful
	// install; a relative first element is resolved against the tree.
	// Empty disables the check.
	InstallCheck []string `yaml:"install_check"`

	// VenvBin is the directory, relative to the source tree, that holds
	// the installed interpreter; the resolved web command is prefixed
	// with it.
	VenvBin string `yaml:"venv_bin"`

	// AssetManifest triggers the asset installer when present at the
	// source tree root (e.g. package.json).
	AssetManifest string `yaml:"asset_manifest"`

	// AssetInstaller is the frontend-asset installer invocation.
	AssetInstaller []string `yaml:"asset_installer"`
}

// SupervisorConfig configures the process supervisor integration.
type SupervisorConfig struct {
	// UserMode runs supervisor commands with --user.
	UserMode bool `yaml:"user_mode"`

	// RestartIntervalSeconds is the restart backoff written into
	// generated service units.
	RestartIntervalSeconds int `yaml:"restart_interval_seconds"`
}

// ProxyConfig configures the reverse proxy integration.
type ProxyConfig struct {
	// ReloadCommand reloads the proxy so it picks up route changes.
	ReloadCommand []string `yaml:"reload_command"`

	// GlobalConfig is the proxy's system-wide configuration file; init
	// appends an import of ProxyDir to it.
	GlobalConfig string `yaml:"global_config"`
}

// Default returns the default configuration. The defaults describe a
// conventional single-host setup with a dedicated "skiff" user running
// Python apps under poetry, systemd --user as the supervisor, and Caddy
// as the reverse proxy.
func Default() *Config {
	root := "/home/skiff"

	return &Config{
		User: "skiff",
		Paths: PathsConfig{
			Root:     root,
			Apps:     filepath.Join(root, "apps"),
			ProxyDir: filepath.Join(root, "caddyfiles"),
			UnitsDir: filepath.Join(root, ".config", "systemd", "user"),
			Bin:      filepath.Join(root, ".local", "bin"),
		},
		Runtime: RuntimeConfig{
			Interpreter:    "python",
			ManifestFile:   "skiff.toml",
			ProjectFile:    "pyproject.toml",
			Installer:      []string{"poetry", "install"},
			InstallCheck:   []string{".venv/bin/python", "-V"},
			VenvBin:        ".venv/bin",
			AssetManifest:  "package.json",
			AssetInstaller: []string{"yarn", "install"},
		},
		Supervisor: SupervisorConfig{
			UserMode:               true,
			RestartIntervalSeconds: 3,
		},
		Proxy: ProxyConfig{
			ReloadCommand: []string{"sudo", "systemctl", "reload", "caddy"},
			GlobalConfig:  "/etc/caddy/Caddyfile",
		},
	}
}

// Load loads configuration from the SKIFF_CONFIG environment variable,
// falling back to defaults when it is not set.
func Load() (*Config, error) {
	configPath := os.Getenv("SKIFF_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFrom loads configuration from path when it is non-empty (the
// --config flag), falling back to Load.
func LoadFrom(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	return Load()
}

// LoadFile loads configuration from a specific file path, merging over
// the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.User == "" {
		errs = append(errs, fmt.Errorf("user is required"))
	}
	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Apps == "" {
		errs = append(errs, fmt.Errorf("paths.apps is required"))
	}
	if c.Paths.ProxyDir == "" {
		errs = append(errs, fmt.Errorf("paths.proxy_dir is required"))
	}
	if c.Paths.UnitsDir == "" {
		errs = append(errs, fmt.Errorf("paths.units_dir is required"))
	}
	if c.Runtime.Interpreter == "" {
		errs = append(errs, fmt.Errorf("runtime.interpreter is required"))
	}
	if c.Runtime.ManifestFile == "" {
		errs = append(errs, fmt.Errorf("runtime.manifest_file is required"))
	}
	if len(c.Runtime.Installer) == 0 {
		errs = append(errs, fmt.Errorf("runtime.installer is required"))
	}
	if c.Supervisor.RestartIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("supervisor.restart_interval_seconds must be positive"))
	}
	if len(c.Proxy.ReloadCommand) == 0 {
		errs = append(errs, fmt.Errorf("proxy.reload_command is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Apps,
		c.Paths.ProxyDir,
		c.Paths.UnitsDir,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

// AppDir returns the directory owning all durable state for an app:
// source checkout, bare repository, and generated unit/route files.
func (c *Config) AppDir(app string) string {
	return filepath.Join(c.Paths.Apps, app)
}

// CodeDir returns the app's source tree checkout directory.
func (c *Config) CodeDir(app string) string {
	return filepath.Join(c.AppDir(app), "code")
}

// RepoDir returns the app's bare git repository directory.
func (c *Config) RepoDir(app string) string {
	return filepath.Join(c.AppDir(app), "repo")
}

// UnitName returns the supervisor unit name for an app.
func (c *Config) UnitName(app string) string {
	return app + ".service"
}

// UnitPath returns where the generated service unit is written. The
// file lives in the app's own directory; the supervisor sees it only
// once enabled.
func (c *Config) UnitPath(app string) string {
	return filepath.Join(c.AppDir(app), c.UnitName(app))
}

// UnitPointer returns the supervisor scan-directory entry for an app.
func (c *Config) UnitPointer(app string) string {
	return filepath.Join(c.Paths.UnitsDir, c.UnitName(app))
}

// RoutePath returns where the generated proxy route is written. Like
// the unit file, it lives in the app's own directory until activated.
func (c *Config) RoutePath(app string) string {
	return filepath.Join(c.AppDir(app), "Caddyfile")
}

// RoutePointer returns the proxy scan-directory entry for an app. The
// pointer is the activation mechanism: the proxy only serves routes
// whose pointer exists in its scan directory.
func (c *Config) RoutePointer(app string) string {
	return filepath.Join(c.Paths.ProxyDir, app)
}
