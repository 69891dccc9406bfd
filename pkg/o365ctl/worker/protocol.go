// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"bytes"
	"encoding/json"
	"math"
)

const (
	typeProgress = "progress"
	typeSuccess  = "success"
	typeError    = "error"
)

// Message is one decoded line of worker output: *Progress, *Success, *Failure
// or *Diagnostic.
type Message interface {
	isMessage()
}

type Progress struct {
	Message string
	// Percent is clamped to [0,100]; HasPercent is false when the worker omitted it.
	Percent    int
	HasPercent bool
}

type Success struct {
	Data json.RawMessage
}

// Failure is the worker reporting that the task failed.
type Failure struct {
	Message string
}

// Diagnostic is any line that is not a recognized message.
type Diagnostic struct {
	Text string
}

func (*Progress) isMessage()   {}
func (*Success) isMessage()    {}
func (*Failure) isMessage()    {}
func (*Diagnostic) isMessage() {}

type envelope struct {
	Type    string          `json:"type"`
	Message *string         `json:"message"`
	Percent *float64        `json:"percent"`
	Data    json.RawMessage `json:"data"`
}

// DecodeLine decodes a single output line. It never fails: malformed JSON,
// unknown types and messages missing required fields become a *Diagnostic
// carrying the line unchanged.
func DecodeLine(line []byte) Message {
	diagnostic := &Diagnostic{Text: string(line)}

	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return diagnostic
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return diagnostic
	}

	switch env.Type {
	case typeProgress:
		if env.Message == nil {
			return diagnostic
		}
		msg := &Progress{Message: *env.Message}
		if env.Percent != nil {
			msg.Percent = clampPercent(*env.Percent)
			msg.HasPercent = true
		}
		return msg
	case typeSuccess:
		if len(env.Data) == 0 {
			return diagnostic
		}
		return &Success{Data: append(json.RawMessage(nil), env.Data...)}
	case typeError:
		if env.Message == nil {
			return diagnostic
		}
		return &Failure{Message: *env.Message}
	default:
		return diagnostic
	}
}

func clampPercent(p float64) int {
	if math.IsNaN(p) || p <= 0 {
		return 0
	}
	if p >= 100 {
		return 100
	}
	return int(math.Round(p))
}
