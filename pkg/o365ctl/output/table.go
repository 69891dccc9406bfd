// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/telekom/o365ctl/pkg/o365ctl/profile"
	"github.com/telekom/o365ctl/pkg/o365ctl/worker"
)

// taskView is the json/yaml shape of a task result; the raw payload is decoded
// so that yaml renders it as a document instead of bytes.
type taskView struct {
	Headers  []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows     [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
	Message  string     `json:"message,omitempty" yaml:"message,omitempty"`
	FilePath string     `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	Data     any        `json:"data,omitempty" yaml:"data,omitempty"`
}

// WriteTaskOutput renders a task result. In table mode a table is printed when
// present, otherwise the raw payload as indented JSON, followed by the message
// and file path.
func WriteTaskOutput(w io.Writer, format Format, out *worker.TaskOutput) error {
	if out == nil {
		out = &worker.TaskOutput{}
	}
	if format != FormatTable {
		view := taskView{Headers: out.Headers, Rows: out.Rows, Message: out.Message, FilePath: out.FilePath}
		if len(out.Raw) > 0 {
			if err := json.Unmarshal(out.Raw, &view.Data); err != nil {
				return fmt.Errorf("failed to decode task payload: %w", err)
			}
		}
		return WriteObject(w, format, view)
	}

	switch {
	case out.HasTable():
		WriteTaskTable(w, out.Headers, out.Rows)
	case len(out.Raw) > 0:
		_, _ = fmt.Fprintln(w, out.PrettyRaw())
	}
	if out.Message != "" {
		_, _ = fmt.Fprintln(w, out.Message)
	}
	if out.FilePath != "" {
		_, _ = fmt.Fprintf(w, "File: %s\n", out.FilePath)
	}
	if !out.HasTable() && len(out.Raw) == 0 && out.Message == "" && out.FilePath == "" {
		_, _ = fmt.Fprintln(w, "Task completed without output.")
	}
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)
	return t
}

// WriteTaskTable prints headers and rows as a table. Column names are kept as
// the worker sent them.
func WriteTaskTable(w io.Writer, headers []string, rows [][]string) {
	t := newTable(w)
	if len(headers) > 0 {
		t.AppendHeader(toRow(headers))
	}
	for _, row := range rows {
		t.AppendRow(toRow(row))
	}
	if len(rows) == 0 {
		t.AppendFooter(table.Row{"no rows"})
	}
	t.Render()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// WriteProfile renders the signed-in operator.
func WriteProfile(w io.Writer, format Format, p *profile.UserProfile) error {
	if format != FormatTable {
		return WriteObject(w, format, p)
	}
	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Name", p.Name},
		{"Email", p.Email},
		{"Tenant", valueOrDash(p.TenantID)},
		{"Scopes", valueOrDash(strings.Join(p.Scopes, " "))},
		{"Last login", p.LastLogin.Format("2006-01-02 15:04:05 MST")},
	})
	t.Render()
	return nil
}

func valueOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
