// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const (
	// DefaultClientID is the public "Microsoft Graph PowerShell" application.
	DefaultClientID  = "14d82eec-204b-4c2f-b7e8-296a70dab67e"
	DefaultTenant    = "common"
	DefaultAuthority = "https://login.microsoftonline.com"

	// ClientIDEnv overrides the configured client ID.
	ClientIDEnv = "AZURE_CLIENT_ID"

	grantAuthorizationCode = "authorization_code"
	grantRefreshToken      = "refresh_token"
)

// DefaultScopes are the delegated permissions requested at login. offline_access is
// what makes the provider issue a refresh token.
var DefaultScopes = []string{"User.Read", "Directory.ReadWrite.All", "offline_access"}

type Config struct {
	Tenant    string
	ClientID  string
	Authority string
	// Discovery treats Authority as an OIDC issuer and resolves endpoints from its
	// discovery document instead of the fixed Entra ID layout.
	Discovery bool
	Scopes    []string
	// CallbackTimeout bounds the wait for the browser redirect. Zero waits until
	// the context is cancelled.
	CallbackTimeout time.Duration
	CAFile          string
	InsecureSkipTLS bool
}

// ResolveClientID applies the environment override, then the configured value, then the default.
func ResolveClientID(configured string) string {
	if env := strings.TrimSpace(os.Getenv(ClientIDEnv)); env != "" {
		return env
	}
	if strings.TrimSpace(configured) != "" {
		return strings.TrimSpace(configured)
	}
	return DefaultClientID
}

func (c Config) tenant() string {
	if strings.TrimSpace(c.Tenant) == "" {
		return DefaultTenant
	}
	return strings.TrimSpace(c.Tenant)
}

func (c Config) authority() string {
	if strings.TrimSpace(c.Authority) == "" {
		return DefaultAuthority
	}
	return strings.TrimRight(strings.TrimSpace(c.Authority), "/")
}

func (c Config) scopes() []string {
	if len(c.Scopes) > 0 {
		return c.Scopes
	}
	return DefaultScopes
}

// Endpoint resolves the authorize and token endpoints for the configured tenant.
func (c Config) Endpoint(ctx context.Context, client *http.Client) (oauth2.Endpoint, error) {
	var endpoint oauth2.Endpoint
	switch {
	case c.Discovery:
		if client != nil {
			ctx = oidc.ClientContext(ctx, client)
		}
		provider, err := oidc.NewProvider(ctx, c.authority())
		if err != nil {
			return oauth2.Endpoint{}, fmt.Errorf("failed to discover OIDC provider: %w", err)
		}
		endpoint = provider.Endpoint()
	case c.authority() == DefaultAuthority:
		endpoint = microsoft.AzureADEndpoint(c.tenant())
	default:
		base, err := url.JoinPath(c.authority(), c.tenant(), "oauth2", "v2.0")
		if err != nil {
			return oauth2.Endpoint{}, fmt.Errorf("invalid authority %q: %w", c.authority(), err)
		}
		endpoint = oauth2.Endpoint{AuthURL: base + "/authorize", TokenURL: base + "/token"}
	}
	// Public client: no secret, so never try HTTP basic auth first.
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return endpoint, nil
}

// BuildOAuthConfig returns the oauth2 client configuration. redirectURL may be
// empty for refresh-only use.
func BuildOAuthConfig(ctx context.Context, cfg Config, client *http.Client, redirectURL string) (*oauth2.Config, error) {
	clientID := ResolveClientID(cfg.ClientID)
	if clientID == "" {
		return nil, errors.New("client-id is required")
	}
	endpoint, err := cfg.Endpoint(ctx, client)
	if err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:    clientID,
		Endpoint:    endpoint,
		RedirectURL: redirectURL,
		Scopes:      cfg.scopes(),
	}, nil
}

func newHTTPClient(caFile string, insecure bool) (*http.Client, error) {
	transport, err := buildTransport(caFile, insecure)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: transport, Timeout: 30 * time.Second}, nil
}

func buildTransport(caFile string, insecure bool) (http.RoundTripper, error) {
	tlsConfig, err := loadTLSConfig(caFile, insecure)
	if err != nil {
		return nil, err
	}
	return &http.Transport{Proxy: http.ProxyFromEnvironment, TLSClientConfig: tlsConfig}, nil
}

func loadTLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	if caFile == "" && !insecure {
		return &tls.Config{MinVersion: tls.VersionTLS12}, nil
	}
	certPool, err := loadCertPool(caFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure,
		RootCAs:            certPool,
	}, nil
}

func loadCertPool(caFile string) (*x509.CertPool, error) {
	if caFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(data); !ok {
		return nil, errors.New("failed to parse CA file")
	}
	return pool, nil
}
