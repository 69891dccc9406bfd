// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"fmt"
	"time"
)

type EventKind string

const (
	EventStarted    EventKind = "started"
	EventProgress   EventKind = "progress"
	EventDiagnostic EventKind = "diagnostic"
)

// Event is a status update emitted while a task runs.
type Event struct {
	RunID      string
	Time       time.Time
	Kind       EventKind
	Text       string
	Percent    int
	HasPercent bool
}

// String renders the event as a single status line.
func (e Event) String() string {
	switch e.Kind {
	case EventStarted:
		return "Spawning worker for task: " + e.Text
	case EventProgress:
		if e.HasPercent {
			return fmt.Sprintf("[%02d%%] %s", e.Percent, e.Text)
		}
		return e.Text
	default:
		return e.Text
	}
}
