// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package profile keeps the signed-in operator's identity for display and for
// choosing the tenant of later requests.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	UnknownName  = "Unknown User"
	UnknownEmail = "No Email"
)

var ErrNotFound = errors.New("no saved profile")

type UserProfile struct {
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	TenantID  string    `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
	Scopes    []string  `json:"scopes" yaml:"scopes"`
	LastLogin time.Time `json:"last_login" yaml:"last_login"`
}

// FromAccessToken decodes the token's claims without verifying the signature.
// The result is for display only and must never drive an authorization decision.
func FromAccessToken(token string, now time.Time) (*UserProfile, error) {
	parser := jwt.Parser{}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	p := &UserProfile{
		Name:      firstClaim(claims, "name"),
		Email:     firstClaim(claims, "preferred_username", "upn", "email"),
		TenantID:  firstClaim(claims, "tid"),
		Scopes:    strings.Fields(firstClaim(claims, "scp")),
		LastLogin: now.UTC(),
	}
	if p.Name == "" {
		p.Name = UnknownName
	}
	if p.Email == "" {
		p.Email = UnknownEmail
	}
	if iat, ok := claims["iat"].(float64); ok && iat > 0 {
		p.LastLogin = time.Unix(int64(iat), 0).UTC()
	}
	return p, nil
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func Save(path string, p *UserProfile) error {
	if p == nil {
		return errors.New("profile is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create profile dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func Load(path string) (*UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var p UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &p, nil
}

// Remove deletes the saved profile; a missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
