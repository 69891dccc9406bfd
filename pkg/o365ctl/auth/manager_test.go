// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/telekom/o365ctl/pkg/o365ctl/credstore"
)

// fakeProvider is a token endpoint under /<tenant>/oauth2/v2.0/token.
type fakeProvider struct {
	mu       sync.Mutex
	server   *httptest.Server
	requests []url.Values
	respond  func(form url.Values) (int, map[string]any)
}

func newFakeProvider(t *testing.T, respond func(form url.Values) (int, map[string]any)) *fakeProvider {
	p := &fakeProvider{respond: respond}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tenant-a/oauth2/v2.0/token" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.mu.Lock()
		p.requests = append(p.requests, r.PostForm)
		p.mu.Unlock()
		status, body := p.respond(r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) config() Config {
	return Config{Tenant: "tenant-a", ClientID: "client-123", Authority: p.server.URL, CallbackTimeout: 5 * time.Second}
}

func (p *fakeProvider) lastRequest(t *testing.T) url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.requests)
	return p.requests[len(p.requests)-1]
}

// browserFollowing simulates the operator approving consent: it redirects to the
// loopback listener with the given code and the state from the authorization URL.
func browserFollowing(t *testing.T, code string, captured *url.Values) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		q := u.Query()
		*captured = q
		go func() {
			target := q.Get("redirect_uri") + "/favicon.ico"
			if resp, err := http.Get(target); err == nil {
				_ = resp.Body.Close()
			}
			callback := q.Get("redirect_uri") + "/?" + url.Values{"code": {code}, "state": {q.Get("state")}}.Encode()
			if resp, err := http.Get(callback); err == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	}
}

func newTestStore(t *testing.T) credstore.Store {
	return &credstore.FileStore{Path: filepath.Join(t.TempDir(), "tokens.json"), Key: "test"}
}

func TestLoginStoresRefreshToken(t *testing.T) {
	t.Setenv(ClientIDEnv, "")
	provider := newFakeProvider(t, func(form url.Values) (int, map[string]any) {
		return http.StatusOK, map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		}
	})
	store := newTestStore(t)
	require.NoError(t, store.Put("previous-session"))

	var authQuery url.Values
	var shown string
	mgr := NewSessionManager(provider.config(), store,
		WithBrowser(browserFollowing(t, "auth-code", &authQuery)),
		WithURLHandler(func(u string) { shown = u }),
	)

	token, err := mgr.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.NotEmpty(t, shown)

	stored, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", stored)

	assert.Equal(t, "client-123", authQuery.Get("client_id"))
	assert.Equal(t, "code", authQuery.Get("response_type"))
	assert.Equal(t, "S256", authQuery.Get("code_challenge_method"))
	assert.Equal(t, "User.Read Directory.ReadWrite.All offline_access", authQuery.Get("scope"))
	assert.Regexp(t, `^http://localhost:\d+$`, authQuery.Get("redirect_uri"))

	form := provider.lastRequest(t)
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "auth-code", form.Get("code"))
	assert.Equal(t, "client-123", form.Get("client_id"))
	assert.Empty(t, form.Get("client_secret"))
	assert.Equal(t, authQuery.Get("redirect_uri"), form.Get("redirect_uri"))
	assert.Equal(t, authQuery.Get("code_challenge"), ChallengeFor(form.Get("code_verifier")))
}

func TestLoginWithoutRefreshTokenFails(t *testing.T) {
	provider := newFakeProvider(t, func(url.Values) (int, map[string]any) {
		return http.StatusOK, map[string]any{"access_token": "access-only", "token_type": "Bearer", "expires_in": 3600}
	})
	store := newTestStore(t)
	require.NoError(t, store.Put("previous-session"))

	var authQuery url.Values
	mgr := NewSessionManager(provider.config(), store,
		WithBrowser(browserFollowing(t, "auth-code", &authQuery)),
		WithURLHandler(nil),
	)

	token, err := mgr.Login(context.Background())
	require.ErrorIs(t, err, ErrMissingOfflineAccess)
	assert.Empty(t, token)

	_, err = store.Get()
	assert.ErrorIs(t, err, credstore.ErrNotFound, "fresh-start policy clears the previous session")
}

func TestLoginTokenEndpointRejects(t *testing.T) {
	provider := newFakeProvider(t, func(url.Values) (int, map[string]any) {
		return http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "code expired"}
	})
	var authQuery url.Values
	mgr := NewSessionManager(provider.config(), newTestStore(t),
		WithBrowser(browserFollowing(t, "auth-code", &authQuery)),
		WithURLHandler(nil),
	)

	_, err := mgr.Login(context.Background())
	var exchangeErr *TokenExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, grantAuthorizationCode, exchangeErr.Grant)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestLoginBrowserFailureIsNotFatal(t *testing.T) {
	provider := newFakeProvider(t, func(url.Values) (int, map[string]any) {
		return http.StatusOK, map[string]any{"access_token": "a", "refresh_token": "r", "token_type": "Bearer"}
	})
	mgr := NewSessionManager(provider.config(), newTestStore(t), WithURLHandler(nil))
	mgr.openBrowser = func(authURL string) error {
		var q url.Values
		_ = browserFollowing(t, "c", &q)(authURL)
		return os.ErrNotExist
	}

	token, err := mgr.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", token)
}

func TestLoginCSRFMismatchNeverExchanges(t *testing.T) {
	provider := newFakeProvider(t, func(url.Values) (int, map[string]any) {
		return http.StatusOK, map[string]any{"access_token": "a", "refresh_token": "r", "token_type": "Bearer"}
	})
	mgr := NewSessionManager(provider.config(), newTestStore(t), WithURLHandler(nil),
		WithBrowser(func(authURL string) error {
			u, _ := url.Parse(authURL)
			redirect := u.Query().Get("redirect_uri")
			go func() {
				if resp, err := http.Get(redirect + "/?code=c&state=forged"); err == nil {
					_ = resp.Body.Close()
				}
			}()
			return nil
		}),
	)

	_, err := mgr.Login(context.Background())
	require.ErrorIs(t, err, ErrCSRFMismatch)
	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.Empty(t, provider.requests)
}

func TestAccessTokenWithoutLogin(t *testing.T) {
	keyring.MockInit()
	mgr := NewSessionManager(Config{}, credstore.NewKeyringStore(credstore.DefaultService, credstore.DefaultAccount))

	_, err := mgr.AccessToken(context.Background())
	require.ErrorIs(t, err, ErrNoStoredCredential)
	assert.Contains(t, err.Error(), LoginHint)
}

func TestAccessTokenRotatesRefreshToken(t *testing.T) {
	provider := newFakeProvider(t, func(form url.Values) (int, map[string]any) {
		return http.StatusOK, map[string]any{"access_token": "access-2", "refresh_token": "refresh-2", "token_type": "Bearer", "expires_in": 3600}
	})
	store := newTestStore(t)
	require.NoError(t, store.Put("refresh-1"))
	mgr := NewSessionManager(provider.config(), store)

	token, err := mgr.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)

	form := provider.lastRequest(t)
	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "refresh-1", form.Get("refresh_token"))

	stored, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", stored)
}

func TestAccessTokenKeepsStoredTokenWithoutRotation(t *testing.T) {
	provider := newFakeProvider(t, func(url.Values) (int, map[string]any) {
		return http.StatusOK, map[string]any{"access_token": "access-2", "token_type": "Bearer", "expires_in": 3600}
	})
	store := newTestStore(t)
	require.NoError(t, store.Put("refresh-1"))
	mgr := NewSessionManager(provider.config(), store)

	token, err := mgr.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)

	stored, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", stored)
}

func TestAccessTokenRejectedAsksForLogin(t *testing.T) {
	provider := newFakeProvider(t, func(url.Values) (int, map[string]any) {
		return http.StatusBadRequest, map[string]any{"error": "invalid_grant"}
	})
	store := newTestStore(t)
	require.NoError(t, store.Put("revoked"))
	mgr := NewSessionManager(provider.config(), store)

	_, err := mgr.AccessToken(context.Background())
	var exchangeErr *TokenExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Contains(t, err.Error(), LoginHint)

	stored, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "revoked", stored)
}

func TestAccessTokenMigratesLegacyFile(t *testing.T) {
	provider := newFakeProvider(t, func(url.Values) (int, map[string]any) {
		return http.StatusOK, map[string]any{"access_token": "access-legacy", "token_type": "Bearer"}
	})
	legacy := filepath.Join(t.TempDir(), credstore.LegacyTokenFile)
	require.NoError(t, os.WriteFile(legacy, []byte("legacy-refresh\n"), 0o600))
	store := newTestStore(t)
	mgr := NewSessionManager(provider.config(), store, WithLegacyTokenPath(legacy))

	token, err := mgr.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-legacy", token)
	assert.Equal(t, "legacy-refresh", provider.lastRequest(t).Get("refresh_token"))

	_, err = os.Stat(legacy)
	assert.True(t, os.IsNotExist(err))
}

func TestLogoutIsIdempotentAndRemovesLegacyFile(t *testing.T) {
	legacy := filepath.Join(t.TempDir(), credstore.LegacyTokenFile)
	require.NoError(t, os.WriteFile(legacy, []byte("x"), 0o600))
	store := newTestStore(t)
	require.NoError(t, store.Put("r"))
	mgr := NewSessionManager(Config{}, store, WithLegacyTokenPath(legacy))

	require.NoError(t, mgr.Logout())
	require.NoError(t, mgr.Logout())

	_, err := store.Get()
	assert.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = os.Stat(legacy)
	assert.True(t, os.IsNotExist(err))
}
