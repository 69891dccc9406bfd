// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"fmt"
	"io"

	"github.com/skratchdot/open-golang/open"
)

// OpenBrowser opens url in the platform's default browser.
func OpenBrowser(url string) error {
	return open.Run(url)
}

// PrintURL returns a URL handler that writes the authorization URL to w for manual use.
func PrintURL(w io.Writer) func(string) {
	return func(authURL string) {
		_, _ = fmt.Fprintf(w, "Open the following URL in your browser if it does not open automatically:\n%s\n", authURL)
	}
}
