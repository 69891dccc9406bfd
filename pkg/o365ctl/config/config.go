// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	VersionV1 = "v1"

	DefaultTenant     = "common"
	DefaultAuthority  = "https://login.microsoftonline.com"
	DefaultRuntime    = "bun"
	DefaultEntryPoint = "core/src/index.ts"

	TokenStorageKeychain = "keychain"
	TokenStorageFile     = "file"
)

var (
	DefaultRuntimeArgs = []string{"run"}
	outputFormats      = []string{"table", "json", "yaml"}
	tokenStorages      = []string{TokenStorageKeychain, TokenStorageFile}
)

type Config struct {
	Version         string        `yaml:"version"`
	Tenant          string        `yaml:"tenant,omitempty"`
	ClientID        string        `yaml:"client-id,omitempty"`
	Authority       string        `yaml:"authority,omitempty"`
	Discovery       bool          `yaml:"discovery,omitempty"`
	Scopes          []string      `yaml:"scopes,omitempty"`
	CallbackTimeout time.Duration `yaml:"callback-timeout,omitempty"`
	CAFile          string        `yaml:"ca-file,omitempty"`
	InsecureSkipTLS bool          `yaml:"insecure-skip-tls-verify,omitempty"`
	Worker          Worker        `yaml:"worker,omitempty"`
	Settings        Settings      `yaml:"settings,omitempty"`
}

// Worker describes how task subprocesses are launched:
// <runtime> <runtime-args...> <entry-point> <task> [args...].
type Worker struct {
	Runtime     string   `yaml:"runtime,omitempty"`
	RuntimeArgs []string `yaml:"runtime-args,omitempty"`
	EntryPoint  string   `yaml:"entry-point,omitempty"`
	ProjectDir  string   `yaml:"project-dir,omitempty"`
}

type Settings struct {
	OutputFormat string `yaml:"output-format,omitempty"`
	TokenStorage string `yaml:"token-storage,omitempty"`
	LogFile      string `yaml:"log-file,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Version:   VersionV1,
		Tenant:    DefaultTenant,
		Authority: DefaultAuthority,
		Worker: Worker{
			Runtime:     DefaultRuntime,
			RuntimeArgs: append([]string(nil), DefaultRuntimeArgs...),
			EntryPoint:  DefaultEntryPoint,
		},
		Settings: Settings{
			OutputFormat: "table",
			TokenStorage: TokenStorageKeychain,
		},
	}
}

// Load reads the config file on top of the defaults, so keys absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		def := DefaultConfig()
		return &def, nil
	}
	return nil, err
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.New("config version missing")
	}
	if c.CallbackTimeout < 0 {
		return fmt.Errorf("callback-timeout must not be negative, got %s", c.CallbackTimeout)
	}
	if c.Discovery && strings.TrimSpace(c.Authority) == "" {
		return errors.New("discovery requires an authority")
	}
	if c.Settings.OutputFormat != "" && !contains(outputFormats, c.Settings.OutputFormat) {
		return fmt.Errorf("unsupported output format %q (expected one of %s)", c.Settings.OutputFormat, strings.Join(outputFormats, ", "))
	}
	if c.Settings.TokenStorage != "" && !contains(tokenStorages, c.Settings.TokenStorage) {
		return fmt.Errorf("unsupported token storage %q (expected one of %s)", c.Settings.TokenStorage, strings.Join(tokenStorages, ", "))
	}
	return nil
}

// ApplyEnv overlays O365CTL_* environment variables onto the config.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvTenant); ok && strings.TrimSpace(v) != "" {
		c.Tenant = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvOutput); ok && strings.TrimSpace(v) != "" {
		c.Settings.OutputFormat = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvTokenStorage); ok && strings.TrimSpace(v) != "" {
		c.Settings.TokenStorage = strings.TrimSpace(v)
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
