// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package cmd implements the cobra command tree for the o365ctl CLI: login and
// session management, running worker tasks, configuration and shell completion.
package cmd
