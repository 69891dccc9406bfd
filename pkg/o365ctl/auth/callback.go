// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const successPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>o365ctl</title></head>
<body><p>Login successful! You can close this window and return to the terminal.</p></body></html>
`

// bindLoopback listens on an OS-assigned loopback port and returns the redirect URI for it.
func bindLoopback() (net.Listener, string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, "", &ListenerError{Op: "bind", Err: err}
	}
	addr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		_ = listener.Close()
		return nil, "", &ListenerError{Op: "bind", Err: fmt.Errorf("unexpected listener address %s", listener.Addr())}
	}
	return listener, fmt.Sprintf("http://localhost:%d", addr.Port), nil
}

// parseCallbackTarget validates the request target of the redirect ("/?code=...&state=...")
// against the expected CSRF state and returns the authorization code.
func parseCallbackTarget(target, expectedState string) (string, error) {
	u, err := url.ParseRequestURI(target)
	if err != nil {
		return "", fmt.Errorf("malformed callback request %q: %w", target, err)
	}
	if strings.HasSuffix(u.Path, "favicon.ico") {
		return "", ErrFaviconRequest
	}
	query := u.Query()
	state := query.Get("state")
	if expectedState == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expectedState)) != 1 {
		return "", ErrCSRFMismatch
	}
	if code := query.Get("error"); code != "" {
		return "", &ProviderError{Code: code, Description: query.Get("error_description")}
	}
	code := query.Get("code")
	if code == "" {
		return "", ErrMissingCode
	}
	return code, nil
}

type callbackResult struct {
	code string
	err  error
}

// callbackHandler answers the browser redirect. Favicon requests are refused
// without producing a result so the genuine callback can still arrive.
type callbackHandler struct {
	state  string
	result chan callbackResult
	log    *zap.SugaredLogger
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.log.Debugw("Received HTTP request on callback listener", "method", r.Method, "path", r.URL.Path)
	code, err := parseCallbackTarget(r.URL.RequestURI(), h.state)
	if errors.Is(err, ErrFaviconRequest) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "Login failed: "+err.Error(), http.StatusBadRequest)
		h.deliver(callbackResult{err: err})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, werr := w.Write([]byte(successPage)); werr != nil {
		h.log.Warnw("Failed to write success page", "error", werr)
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	h.deliver(callbackResult{code: code})
}

func (h *callbackHandler) deliver(res callbackResult) {
	select {
	case h.result <- res:
	default:
		h.log.Debug("OAuth callback result already delivered, dropping")
	}
}

// awaitCallback serves the listener until the first callback result, the timeout
// (when non-zero) or context cancellation. The listener is closed on return.
func awaitCallback(ctx context.Context, listener net.Listener, state string, timeout time.Duration, log *zap.SugaredLogger) (string, error) {
	handler := &callbackHandler{state: state, result: make(chan callbackResult, 1), log: log}
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
		}
	}()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case res := <-handler.result:
		return res.code, res.err
	case err := <-serveErr:
		return "", &ListenerError{Op: "accept", Err: err}
	case <-deadline:
		return "", &ListenerError{Op: "accept", Err: ErrCallbackTimeout}
	case <-ctx.Done():
		return "", &ListenerError{Op: "accept", Err: ctx.Err()}
	}
}
