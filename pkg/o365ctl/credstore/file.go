// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps secrets in a JSON document readable only by the owner.
// Several stores may share one file as long as their keys differ.
type FileStore struct {
	Path string
	Key  string
}

type secretCache struct {
	Secrets map[string]string `json:"secrets"`
}

func loadSecretCache(path string) (*secretCache, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cache secretCache
	if err := json.Unmarshal(content, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}
	if cache.Secrets == nil {
		cache.Secrets = map[string]string{}
	}
	return &cache, nil
}

// saveSecretCache writes through a temp file and rename so readers never see a partial document.
func saveSecretCache(path string, cache *secretCache) error {
	if cache == nil {
		return errors.New("token cache is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	content, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Put(secret string) error {
	if secret == "" {
		return &StoreError{Op: "put", Backend: BackendFile, Err: errors.New("secret is empty")}
	}
	cache, err := loadSecretCache(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			return &StoreError{Op: "put", Backend: BackendFile, Err: err}
		}
		cache = &secretCache{Secrets: map[string]string{}}
	}
	cache.Secrets[s.Key] = secret
	if err := saveSecretCache(s.Path, cache); err != nil {
		return &StoreError{Op: "put", Backend: BackendFile, Err: err}
	}
	return nil
}

func (s *FileStore) Get() (string, error) {
	cache, err := loadSecretCache(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", &StoreError{Op: "get", Backend: BackendFile, Err: err}
	}
	secret, ok := cache.Secrets[s.Key]
	if !ok || secret == "" {
		return "", ErrNotFound
	}
	return secret, nil
}

func (s *FileStore) Clear() error {
	cache, err := loadSecretCache(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &StoreError{Op: "clear", Backend: BackendFile, Err: err}
	}
	if _, ok := cache.Secrets[s.Key]; !ok {
		return nil
	}
	delete(cache.Secrets, s.Key)
	if err := saveSecretCache(s.Path, cache); err != nil {
		return &StoreError{Op: "clear", Backend: BackendFile, Err: err}
	}
	return nil
}
