// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewTestLogger returns a sugared logger that writes through t.Log, so output
// only shows for failing or verbose tests. Stacktraces are disabled.
func NewTestLogger(t zaptest.TestingT) *zap.SugaredLogger {
	return zaptest.NewLogger(t,
		zaptest.Level(zap.DebugLevel),
		zaptest.WrapOptions(zap.AddStacktrace(zap.FatalLevel)),
	).Sugar()
}
