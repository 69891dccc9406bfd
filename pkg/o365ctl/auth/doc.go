// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package auth manages the operator session for the o365ctl CLI: the
// authorization code + PKCE login through a loopback callback listener, and
// refresh-token based renewal of access tokens with rotation into the
// credential store.
package auth
