// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	EnvConfig       = "O365CTL_CONFIG"
	EnvTenant       = "O365CTL_TENANT"
	EnvOutput       = "O365CTL_OUTPUT"
	EnvTokenStorage = "O365CTL_TOKEN_STORAGE"
	EnvVerbose      = "O365CTL_VERBOSE"
	EnvNoBrowser    = "O365CTL_NO_BROWSER"

	defaultConfigDirName = "o365ctl"
	defaultConfigFile    = "config.yaml"
	defaultTokenFile     = "tokens.json"
	defaultProfileFile   = "profile.json"
	defaultLogFile       = "o365ctl.log"
)

// DefaultConfigDir is <user config dir>/o365ctl, or ~/.o365ctl when the platform
// has no user config dir.
func DefaultConfigDir() string {
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+defaultConfigDirName)
}

func DefaultConfigPath() string {
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	return filepath.Join(DefaultConfigDir(), defaultConfigFile)
}

func DefaultTokenPath() string {
	return filepath.Join(DefaultConfigDir(), defaultTokenFile)
}

func DefaultProfilePath() string {
	return filepath.Join(DefaultConfigDir(), defaultProfileFile)
}

func DefaultLogPath() string {
	return filepath.Join(DefaultConfigDir(), defaultLogFile)
}

// ProjectRoot returns dir, or its parent when dir is the CLI's own "cli" subdirectory.
func ProjectRoot(dir string) string {
	clean := filepath.Clean(dir)
	if filepath.Base(clean) == "cli" {
		return filepath.Dir(clean)
	}
	return clean
}

// LoadDotEnv loads <dir>/.env without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
