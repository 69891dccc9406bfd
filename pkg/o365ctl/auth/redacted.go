// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

// RedactedToken wraps a token so that formatting it, in logs or errors, never
// prints the secret.
type RedactedToken struct {
	value string
}

func NewRedactedToken(value string) RedactedToken {
	return RedactedToken{value: value}
}

func (t RedactedToken) String() string {
	return "[REDACTED]"
}

func (t RedactedToken) GoString() string {
	return "auth.RedactedToken{[REDACTED]}"
}

func (t RedactedToken) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

func (t RedactedToken) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
