// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// TaskOutput is the digest of one completed worker run.
type TaskOutput struct {
	Headers  []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows     [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
	Message  string     `json:"message,omitempty" yaml:"message,omitempty"`
	FilePath string     `json:"file_path,omitempty" yaml:"file_path,omitempty"`

	// Raw is the success payload, verbatim, when it carries no table.
	Raw json.RawMessage `json:"raw,omitempty" yaml:"-"`
}

func (o *TaskOutput) HasTable() bool {
	return o != nil && (len(o.Headers) > 0 || len(o.Rows) > 0)
}

// PrettyRaw returns Raw indented for display, or Raw unchanged if it cannot be indented.
func (o *TaskOutput) PrettyRaw() string {
	if o == nil || len(o.Raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, o.Raw, "", "  "); err != nil {
		return string(o.Raw)
	}
	return buf.String()
}

// outputFromPayload interprets the data of a success message. A "table" member
// yields headers and rows; otherwise the payload is kept as Raw. "message" and
// "file_path" are copied whenever they are strings.
func outputFromPayload(data []byte) *TaskOutput {
	out := &TaskOutput{}
	payload := gjson.ParseBytes(data)

	if msg := payload.Get("message"); msg.Type == gjson.String {
		out.Message = msg.String()
	}
	if path := payload.Get("file_path"); path.Type == gjson.String {
		out.FilePath = path.String()
	}

	table := payload.Get("table")
	if !payload.IsObject() || !table.Exists() {
		out.Raw = append(json.RawMessage(nil), data...)
		return out
	}

	out.Headers = stringCells(table.Get("headers"))
	table.Get("rows").ForEach(func(_, row gjson.Result) bool {
		if row.IsArray() {
			out.Rows = append(out.Rows, stringCells(row))
		}
		return true
	})
	out.Rows = rectangular(out.Headers, out.Rows)
	return out
}

// stringCells returns the elements of an array; anything that is not a JSON
// string becomes "". A non-array yields an empty slice.
func stringCells(arr gjson.Result) []string {
	cells := []string{}
	if !arr.IsArray() {
		return cells
	}
	arr.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String {
			cells = append(cells, v.String())
		} else {
			cells = append(cells, "")
		}
		return true
	})
	return cells
}

// rectangular pads or truncates every row to the header width. Without headers
// the rows are padded to the widest row so no cell is lost.
func rectangular(headers []string, rows [][]string) [][]string {
	width := len(headers)
	if width == 0 {
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}
	}
	for i, row := range rows {
		switch {
		case len(row) > width:
			rows[i] = row[:width]
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return rows
}
