// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/telekom/o365ctl/pkg/o365ctl/credstore"
)

// SessionManager owns the operator session: it logs in, renews access tokens from
// the stored refresh token and clears the session. Access tokens are only ever
// returned to the caller, never persisted.
type SessionManager struct {
	cfg         Config
	store       credstore.Store
	log         *zap.SugaredLogger
	httpClient  *http.Client
	legacyPath  string
	openBrowser func(string) error
	showURL     func(string)
}

type Option func(*SessionManager)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *SessionManager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithHTTPClient sets the client used for token endpoint and discovery requests.
func WithHTTPClient(client *http.Client) Option {
	return func(m *SessionManager) { m.httpClient = client }
}

// WithLegacyTokenPath enables the plaintext token migration for the given file.
func WithLegacyTokenPath(path string) Option {
	return func(m *SessionManager) { m.legacyPath = path }
}

// WithBrowser replaces the browser launcher; nil disables launching.
func WithBrowser(open func(string) error) Option {
	return func(m *SessionManager) { m.openBrowser = open }
}

// WithURLHandler receives the authorization URL before the browser is launched.
func WithURLHandler(show func(string)) Option {
	return func(m *SessionManager) { m.showURL = show }
}

func NewSessionManager(cfg Config, store credstore.Store, opts ...Option) *SessionManager {
	m := &SessionManager{
		cfg:         cfg,
		store:       store,
		log:         zap.NewNop().Sugar(),
		openBrowser: OpenBrowser,
		showURL:     PrintURL(os.Stderr),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SessionManager) client() (*http.Client, error) {
	if m.httpClient != nil {
		return m.httpClient, nil
	}
	client, err := newHTTPClient(m.cfg.CAFile, m.cfg.InsecureSkipTLS)
	if err != nil {
		return nil, err
	}
	m.httpClient = client
	return client, nil
}

// Login runs the interactive authorization code flow. Any existing session is
// cleared first, so a failed login leaves the operator logged out.
func (m *SessionManager) Login(ctx context.Context) (string, error) {
	attempt := newLoginAttempt(m.log)
	token, err := m.login(ctx, attempt)
	if err != nil {
		attempt.abort(err)
		return "", err
	}
	return token, nil
}

func (m *SessionManager) login(ctx context.Context, attempt *loginAttempt) (string, error) {
	if err := m.Logout(); err != nil {
		return "", err
	}
	m.log.Info("Cleared existing session")

	client, err := m.client()
	if err != nil {
		return "", err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)

	listener, redirectURL, err := bindLoopback()
	if err != nil {
		return "", err
	}
	defer func() {
		_ = listener.Close()
	}()
	attempt.advance(phaseListenerBound, "redirect", redirectURL)

	oauthCfg, err := BuildOAuthConfig(ctx, m.cfg, client, redirectURL)
	if err != nil {
		return "", err
	}
	pkce := NewPKCE()
	state, err := NewState()
	if err != nil {
		return "", err
	}
	authURL := oauthCfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pkce.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	m.log.Infow("Generated authorization URL", "scopes", strings.Join(oauthCfg.Scopes, " "))
	m.log.Debugw("Authorization URL", "url", authURL)

	if m.showURL != nil {
		m.showURL(authURL)
	}
	if m.openBrowser != nil {
		if err := m.openBrowser(authURL); err != nil {
			m.log.Warnw("Failed to open browser automatically", "error", err)
		}
	}
	attempt.advance(phaseBrowserLaunched)

	code, err := awaitCallback(ctx, listener, state, m.cfg.CallbackTimeout, m.log)
	if err != nil {
		return "", err
	}
	attempt.advance(phaseCallbackReceived, "codeLength", len(code))

	token, err := oauthCfg.Exchange(ctx, code, oauth2.VerifierOption(pkce.Verifier))
	if err != nil {
		return "", &TokenExchangeError{Grant: grantAuthorizationCode, Err: err}
	}
	attempt.advance(phaseCodeExchanged, "accessTokenLength", len(token.AccessToken))

	if token.RefreshToken == "" {
		return "", ErrMissingOfflineAccess
	}
	if err := m.store.Put(token.RefreshToken); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	attempt.advance(phaseTokenStored, "refreshToken", NewRedactedToken(token.RefreshToken))
	return token.AccessToken, nil
}

// AccessToken exchanges the stored refresh token for a fresh access token. A
// rotated refresh token replaces the stored one; otherwise the store is untouched.
func (m *SessionManager) AccessToken(ctx context.Context) (string, error) {
	if m.legacyPath != "" {
		credstore.MigrateLegacy(m.store, m.legacyPath, m.log)
	}
	stored, err := m.store.Get()
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return "", ErrNoStoredCredential
		}
		return "", fmt.Errorf("failed to read stored credentials: %w", err)
	}
	refreshToken := strings.TrimSpace(stored)
	if refreshToken == "" {
		return "", ErrNoStoredCredential
	}

	client, err := m.client()
	if err != nil {
		return "", err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	oauthCfg, err := BuildOAuthConfig(ctx, m.cfg, client, "")
	if err != nil {
		return "", err
	}

	m.log.Info("Exchanging refresh token for new access token")
	token, err := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return "", &TokenExchangeError{Grant: grantRefreshToken, Err: err}
	}
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		if err := m.store.Put(token.RefreshToken); err != nil {
			return "", fmt.Errorf("failed to update rotated refresh token: %w", err)
		}
		m.log.Info("Stored rotated refresh token")
	}
	return token.AccessToken, nil
}

// Logout clears the stored session and any leftover legacy token file.
func (m *SessionManager) Logout() error {
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear stored credentials: %w", err)
	}
	if m.legacyPath != "" {
		if err := credstore.RemoveLegacy(m.legacyPath); err != nil {
			m.log.Warnw("Failed to remove legacy token file", "path", m.legacyPath, "error", err)
		}
	}
	return nil
}
