// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/o365ctl/pkg/o365ctl/auth"
	"github.com/telekom/o365ctl/pkg/o365ctl/credstore"
	"github.com/telekom/o365ctl/pkg/o365ctl/profile"
)

func TestAuthLoginStoresSessionAndProfile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Put("stale"))

	require.NoError(t, env.execute("auth", "login"))
	assert.Contains(t, env.out.String(), "Login successful. Signed in as Ada Lovelace (ada@contoso.com)")
	assert.Contains(t, env.errOut.String(), "/tenant-a/oauth2/v2.0/authorize")
	assert.Equal(t, []string{"authorization_code"}, env.grantTypes())

	stored, err := env.store.Get()
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", stored)

	p, err := profile.Load(env.profilePath)
	require.NoError(t, err)
	assert.Equal(t, "ada@contoso.com", p.Email)
	assert.Equal(t, "tenant-a", p.TenantID)
	assert.Equal(t, []string{"User.Read", "Directory.ReadWrite.All"}, p.Scopes)
}

func TestAuthLoginOpaqueTokenSkipsProfile(t *testing.T) {
	env := newTestEnv(t)
	env.accessToken = "opaque-access-token"

	require.NoError(t, env.execute("auth", "login"))
	assert.Contains(t, env.out.String(), "Login successful.")

	_, err := profile.Load(env.profilePath)
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestAuthStatusNotAuthenticated(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.execute("auth", "status"))
	assert.Contains(t, env.out.String(), "Not authenticated")
	assert.Contains(t, env.out.String(), auth.LoginHint)
	assert.Empty(t, env.grantTypes())
}

func TestAuthStatusShowsProfile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Put("refresh-0"))

	require.NoError(t, env.execute("auth", "status"))
	assert.Contains(t, env.out.String(), "Authenticated.")
	assert.Contains(t, env.out.String(), "Ada Lovelace")
	assert.Contains(t, env.out.String(), "tenant-a")
	assert.Equal(t, []string{"refresh_token"}, env.grantTypes())

	stored, err := env.store.Get()
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", stored, "rotated refresh token replaces the stored one")
}

func TestAuthStatusJSON(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Put("refresh-0"))

	require.NoError(t, env.execute("-o", "json", "auth", "status"))
	var p profile.UserProfile
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &p))
	assert.Equal(t, "ada@contoso.com", p.Email)
	assert.Equal(t, fixedNow, p.LastLogin)
}

func TestAuthStatusRevokedSession(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Put("revoked"))

	err := env.execute("auth", "status")
	require.Error(t, err)
	var exchangeErr *auth.TokenExchangeError
	assert.True(t, errors.As(err, &exchangeErr))
	assert.Contains(t, err.Error(), auth.LoginHint)
}

func TestAuthStatusMigratesLegacyTokenFile(t *testing.T) {
	env := newTestEnv(t)
	legacy := credstore.LegacyTokenPath(env.dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(legacy), 0o700))
	require.NoError(t, os.WriteFile(legacy, []byte("legacy-refresh\n"), 0o600))

	require.NoError(t, env.execute("auth", "status"))
	assert.Contains(t, env.out.String(), "Authenticated.")
	_, err := os.Stat(legacy)
	assert.True(t, os.IsNotExist(err))
}

func TestAuthLogout(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Put("refresh-0"))
	require.NoError(t, profile.Save(env.profilePath, &profile.UserProfile{Name: "Ada", Email: "ada@contoso.com"}))

	require.NoError(t, env.execute("auth", "logout"))
	assert.Contains(t, env.out.String(), "Logged out")

	_, err := env.store.Get()
	assert.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = profile.Load(env.profilePath)
	assert.ErrorIs(t, err, profile.ErrNotFound)

	require.NoError(t, env.execute("auth", "logout"), "logout is idempotent")
}
