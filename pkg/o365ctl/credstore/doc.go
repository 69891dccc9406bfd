// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package credstore persists the operator's refresh token. The default backend
// is the platform secret vault (macOS Keychain, Windows Credential Manager,
// Secret Service on Linux); a 0600 JSON file backend exists for hosts without one.
package credstore
