// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package credstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/telekom/o365ctl/pkg/o365ctl/config"
)

// LegacyTokenFile is the plaintext refresh-token file older releases wrote next to the CLI sources.
const LegacyTokenFile = ".o365_cli_token"

// LegacyTokenPath returns <project>/cli/.o365_cli_token for a working directory
// that is either the project root or its cli subdirectory.
func LegacyTokenPath(workDir string) string {
	return filepath.Join(config.ProjectRoot(workDir), "cli", LegacyTokenFile)
}

// MigrateLegacy moves a plaintext refresh token into store and deletes the file.
// An empty file is deleted without writing to the store. Failures are logged and
// otherwise ignored so they never block authentication.
func MigrateLegacy(store Store, path string, log *zap.SugaredLogger) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	migrated, err := migrateLegacy(store, path)
	if err != nil {
		log.Warnw("Legacy token migration failed", "path", path, "error", err)
		return
	}
	if migrated {
		log.Infow("Migrated legacy token file into credential store", "path", path)
	}
}

func migrateLegacy(store Store, path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read legacy token file: %w", err)
	}
	token := strings.TrimSpace(string(content))
	if token != "" {
		if err := store.Put(token); err != nil {
			return false, fmt.Errorf("failed to migrate token to store: %w", err)
		}
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("failed to remove legacy token file: %w", err)
	}
	return token != "", nil
}

// RemoveLegacy deletes a leftover legacy token file; a missing file is not an error.
func RemoveLegacy(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
