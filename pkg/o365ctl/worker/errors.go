// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"errors"
	"fmt"
)

// ErrEntryPointNotFound is returned when the worker script cannot be located.
var ErrEntryPointNotFound = errors.New("worker entry point not found")

// SpawnError means the worker process could not be started.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start worker %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// HandoffError means the access token could not be written to the worker.
type HandoffError struct {
	Err error
}

func (e *HandoffError) Error() string {
	return fmt.Sprintf("failed to hand access token to worker: %v", e.Err)
}

func (e *HandoffError) Unwrap() error { return e.Err }

// ExitError is a worker that exited unsuccessfully. Code is -1 when the process
// was terminated by a signal.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("worker failed with exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ReportedError carries the message of a worker "error" line, unmodified.
type ReportedError struct {
	Message string
}

func (e *ReportedError) Error() string {
	return e.Message
}
