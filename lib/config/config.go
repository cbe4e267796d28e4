// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "MENUMIRROR_CONFIG"

// Transports a mirror can reach a remote menu through.
const (
	TransportDBus   = "dbus"
	TransportSocket = "socket"
)

// Message buses for the dbus transport.
const (
	BusSession = "session"
	BusSystem  = "system"
)

// Config is the configuration shared by menu-mirror and menu-host.
type Config struct {
	// Remote selects the menu to mirror.
	Remote RemoteConfig `yaml:"remote"`

	// Engine tunes the mirroring client.
	Engine EngineConfig `yaml:"engine"`

	// Log configures diagnostics output.
	Log LogConfig `yaml:"log"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Host configures menu-host, which serves a menu definition file.
	Host HostConfig `yaml:"host"`
}

// RemoteConfig selects the remote menu.
type RemoteConfig struct {
	// Transport is "dbus" or "socket".
	// Default: dbus
	Transport string `yaml:"transport"`

	// Bus is the message bus for the dbus transport: "session" or
	// "system".
	// Default: session
	Bus string `yaml:"bus"`

	// BusName is the well-known or unique name exporting the menu.
	BusName string `yaml:"bus_name"`

	// ObjectPath is the object path of the exported menu.
	ObjectPath string `yaml:"object_path"`

	// SocketPath is the unix socket of a menu-host for the socket
	// transport.
	// Default: ${XDG_RUNTIME_DIR:-/tmp}/menumirror.sock
	SocketPath string `yaml:"socket_path"`
}

// EngineConfig tunes the mirroring client. Zero values select the
// engine's defaults.
type EngineConfig struct {
	// MaxDepth bounds layout recursion and subtree rebuilds.
	// Default: 64
	MaxDepth int `yaml:"max_depth"`

	// FetchBatchSize caps the ids per property fetch.
	// Default: 64
	FetchBatchSize int `yaml:"fetch_batch_size"`

	// CallTimeout bounds every remote call, as a Go duration ("5s").
	// Empty means no timeout.
	CallTimeout string `yaml:"call_timeout"`
}

// LogConfig configures diagnostics output.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`

	// Output is a file that receives JSON log records in addition to
	// the terminal. Empty means stderr only.
	Output string `yaml:"output"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address serving /metrics. Empty disables it.
	Listen string `yaml:"listen"`
}

// HostConfig configures menu-host.
type HostConfig struct {
	// Definition is the YAML or JSONC menu definition to serve.
	Definition string `yaml:"definition"`

	// SocketPath is where menu-host listens.
	// Default: ${XDG_RUNTIME_DIR:-/tmp}/menumirror.sock
	SocketPath string `yaml:"socket_path"`

	// Watch reloads the definition when the file changes.
	// Default: true
	Watch bool `yaml:"watch"`
}

const defaultSocketPath = "${XDG_RUNTIME_DIR:-/tmp}/menumirror.sock"

// Default returns the default configuration, before variable
// expansion. LoadFile starts from it and overlays the file.
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{
			Transport:  TransportDBus,
			Bus:        BusSession,
			SocketPath: defaultSocketPath,
		},
		Engine: EngineConfig{
			MaxDepth:       64,
			FetchBatchSize: 64,
		},
		Log: LogConfig{
			Level: "info",
		},
		Host: HostConfig{
			SocketPath: defaultSocketPath,
			Watch:      true,
		},
	}
}

// Load loads configuration from the file named by MENUMIRROR_CONFIG.
// There is no discovery: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your menumirror.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// Resolve picks the configuration a binary runs with: the --config
// path when given, else MENUMIRROR_CONFIG when set, else the expanded
// defaults. Flags are applied by the caller afterwards.
func Resolve(flagPath string) (*Config, error) {
	if flagPath != "" {
		return LoadFile(flagPath)
	}
	if os.Getenv(EnvironmentVariable) != "" {
		return Load()
	}
	cfg := Default()
	cfg.expandVariables()
	return cfg, nil
}

// LoadFile loads configuration from path, overlaid on Default, and
// expands ${VAR} and ${VAR:-default} in path fields. Environment
// variables do not otherwise override file values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Remote.SocketPath = expandVars(c.Remote.SocketPath, vars)
	c.Log.Output = expandVars(c.Log.Output, vars)
	c.Host.Definition = expandVars(c.Host.Definition, vars)
	c.Host.SocketPath = expandVars(c.Host.SocketPath, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// CallTimeoutDuration parses Engine.CallTimeout. Empty yields zero.
func (c *Config) CallTimeoutDuration() (time.Duration, error) {
	if c.Engine.CallTimeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(c.Engine.CallTimeout)
	if err != nil {
		return 0, fmt.Errorf("engine.call_timeout: %w", err)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("engine.call_timeout must not be negative, got %s", c.Engine.CallTimeout)
	}
	return timeout, nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Validate checks the configuration for errors and reports all of them.
func (c *Config) Validate() error {
	var errs []error

	transports := []string{TransportDBus, TransportSocket}
	if !slices.Contains(transports, c.Remote.Transport) {
		errs = append(errs, fmt.Errorf("remote.transport must be one of: %v", transports))
	}
	switch c.Remote.Transport {
	case TransportDBus:
		buses := []string{BusSession, BusSystem}
		if !slices.Contains(buses, c.Remote.Bus) {
			errs = append(errs, fmt.Errorf("remote.bus must be one of: %v", buses))
		}
		if c.Remote.BusName == "" {
			errs = append(errs, errors.New("remote.bus_name is required for the dbus transport"))
		}
		if c.Remote.ObjectPath == "" || c.Remote.ObjectPath[0] != '/' {
			errs = append(errs, errors.New("remote.object_path must be an absolute object path"))
		}
	case TransportSocket:
		if c.Remote.SocketPath == "" {
			errs = append(errs, errors.New("remote.socket_path is required for the socket transport"))
		}
	}

	if c.Engine.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("engine.max_depth must not be negative, got %d", c.Engine.MaxDepth))
	}
	if c.Engine.FetchBatchSize < 0 {
		errs = append(errs, fmt.Errorf("engine.fetch_batch_size must not be negative, got %d", c.Engine.FetchBatchSize))
	}
	if _, err := c.CallTimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateHost checks the fields menu-host needs.
func (c *Config) ValidateHost() error {
	var errs []error
	if c.Host.Definition == "" {
		errs = append(errs, errors.New("host.definition is required"))
	}
	if c.Host.SocketPath == "" {
		errs = append(errs, errors.New("host.socket_path is required"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
