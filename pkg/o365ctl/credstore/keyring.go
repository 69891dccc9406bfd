// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package credstore

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps the secret in the system keyring under a fixed service/account pair.
type KeyringStore struct {
	Service string
	Account string
}

func NewKeyringStore(service, account string) *KeyringStore {
	return &KeyringStore{Service: service, Account: account}
}

func (s *KeyringStore) Put(secret string) error {
	if secret == "" {
		return &StoreError{Op: "put", Backend: BackendKeychain, Err: errors.New("secret is empty")}
	}
	if err := keyring.Set(s.Service, s.Account, secret); err != nil {
		return &StoreError{Op: "put", Backend: BackendKeychain, Err: err}
	}
	return nil
}

func (s *KeyringStore) Get() (string, error) {
	secret, err := keyring.Get(s.Service, s.Account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", &StoreError{Op: "get", Backend: BackendKeychain, Err: err}
	}
	return secret, nil
}

func (s *KeyringStore) Clear() error {
	if err := keyring.Delete(s.Service, s.Account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return &StoreError{Op: "clear", Backend: BackendKeychain, Err: err}
	}
	return nil
}
