// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"go.uber.org/zap"
)

type loginPhase string

const (
	phaseIdle             loginPhase = "Idle"
	phaseListenerBound    loginPhase = "ListenerBound"
	phaseBrowserLaunched  loginPhase = "BrowserLaunched"
	phaseCallbackReceived loginPhase = "CallbackReceived"
	phaseCodeExchanged    loginPhase = "CodeExchanged"
	phaseTokenStored      loginPhase = "TokenStored"
	phaseAborted          loginPhase = "Aborted"
)

// loginAttempt tracks one pass through the login state machine for logging.
type loginAttempt struct {
	phase loginPhase
	log   *zap.SugaredLogger
}

func newLoginAttempt(log *zap.SugaredLogger) *loginAttempt {
	log.Info("Starting login flow")
	return &loginAttempt{phase: phaseIdle, log: log}
}

func (a *loginAttempt) advance(next loginPhase, keysAndValues ...interface{}) {
	fields := append([]interface{}{"from", string(a.phase), "to", string(next)}, keysAndValues...)
	a.log.Infow("Login phase", fields...)
	a.phase = next
}

func (a *loginAttempt) abort(err error) {
	a.log.Errorw("Login aborted", "phase", string(a.phase), "error", err)
	a.phase = phaseAborted
}
