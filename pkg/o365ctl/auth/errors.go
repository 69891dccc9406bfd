// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"errors"
	"fmt"
)

// LoginHint is appended to every error that can only be fixed by logging in again.
const LoginHint = `please run "o365ctl auth login"`

var (
	ErrCSRFMismatch         = errors.New("CSRF validation failed: state mismatch, " + LoginHint)
	ErrMissingCode          = errors.New("authorization code missing from OAuth callback, " + LoginHint)
	ErrMissingOfflineAccess = errors.New("identity provider did not return a refresh token: the offline_access scope was not consented, retry login and accept all requested permissions")
	ErrNoStoredCredential   = errors.New("no stored credentials, " + LoginHint)
	ErrFaviconRequest       = errors.New("favicon request is not the OAuth callback")
	ErrCallbackTimeout      = errors.New("timed out waiting for the OAuth callback")
)

// ListenerError reports a failure to bind or serve the loopback callback listener.
type ListenerError struct {
	Op  string
	Err error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("callback listener %s failed: %v", e.Op, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

// TokenExchangeError reports a network failure or provider rejection at the token endpoint.
type TokenExchangeError struct {
	Grant string
	Err   error
}

func (e *TokenExchangeError) Error() string {
	if e.Grant == grantRefreshToken {
		return fmt.Sprintf("failed to refresh token, %s: %v", LoginHint, e.Err)
	}
	return fmt.Sprintf("token exchange failed, %s: %v", LoginHint, e.Err)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}

// ProviderError is returned when the identity provider redirects back with an error instead of a code.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("identity provider returned error %s, %s", e.Code, LoginHint)
	}
	return fmt.Sprintf("identity provider returned error %s, %s: %s", e.Code, LoginHint, e.Description)
}
