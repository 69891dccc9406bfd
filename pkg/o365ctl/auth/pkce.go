// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// PKCE is the per-login verifier and its S256 challenge. It lives only for one login attempt.
type PKCE struct {
	Verifier  string
	Challenge string
}

// NewPKCE draws a fresh 32-byte verifier; every call is independent.
func NewPKCE() PKCE {
	verifier := oauth2.GenerateVerifier()
	return PKCE{Verifier: verifier, Challenge: ChallengeFor(verifier)}
}

// ChallengeFor derives the S256 code challenge: BASE64URL(SHA256(verifier)) without padding.
func ChallengeFor(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// NewState returns a random CSRF token for the authorization request.
func NewState() (string, error) {
	return randomToken(24)
}

func randomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
