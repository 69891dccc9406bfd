// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package credstore

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultService and DefaultAccount identify the refresh-token entry in the vault.
	DefaultService = "o365-cli"
	DefaultAccount = "refresh_token"

	BackendKeychain = "keychain"
	BackendFile     = "file"
)

// ErrNotFound is returned by Get when no secret is stored.
var ErrNotFound = errors.New("no stored credential")

// Store holds exactly one secret. Put replaces the previous value; Clear on an
// empty store succeeds.
type Store interface {
	Put(secret string) error
	Get() (string, error)
	Clear() error
}

// StoreError reports a failing vault or file operation.
type StoreError struct {
	Op      string
	Backend string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("credential store %s (%s): %v", e.Op, e.Backend, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// New returns the store for the named backend. An empty backend selects the keychain.
func New(backend, filePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendKeychain:
		return NewKeyringStore(DefaultService, DefaultAccount), nil
	case BackendFile:
		if filePath == "" {
			return nil, errors.New("file token storage requires a path")
		}
		return &FileStore{Path: filePath, Key: DefaultService + "/" + DefaultAccount}, nil
	default:
		return nil, fmt.Errorf("unsupported token storage: %s (valid: keychain, file)", backend)
	}
}
