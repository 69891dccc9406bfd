// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/o365ctl/pkg/o365ctl/worker"
)

func TestExportPath(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 5, 7, 0, time.Local)
	dir := filepath.FromSlash("/work")

	assert.Equal(t, filepath.Join(dir, "export_results_20250301-090507.csv"), ExportPath(dir, ExportAuto, now))
	assert.Equal(t, filepath.Join(dir, "export_results_20250301-090507.csv"), ExportPath(dir, "", now))
	assert.Equal(t, filepath.Join(dir, "users.csv"), ExportPath(dir, "users.csv", now))

	abs := filepath.Join(t.TempDir(), "out.csv")
	assert.Equal(t, abs, ExportPath(dir, abs, now))
}

func TestWriteTaskCSVEscapes(t *testing.T) {
	buf := &bytes.Buffer{}
	out := &worker.TaskOutput{
		Headers: []string{"Name", "Note"},
		Rows:    [][]string{{"Alice", `said "hi", left`}, {"Bob", ""}},
	}

	require.NoError(t, WriteTaskCSV(buf, out))
	assert.Equal(t, "Name,Note\nAlice,\"said \"\"hi\"\", left\"\nBob,\n", buf.String())
}

func TestWriteTaskCSVWithoutTable(t *testing.T) {
	err := WriteTaskCSV(&bytes.Buffer{}, &worker.TaskOutput{Raw: []byte(`{}`)})
	require.ErrorIs(t, err, ErrNothingToExport)
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	out := &worker.TaskOutput{Headers: []string{"A"}, Rows: [][]string{{"1"}}}

	require.NoError(t, ExportCSV(path, out))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A\n1\n", string(data))

	err = ExportCSV(path, out)
	require.Error(t, err, "existing files are not overwritten")

	err = ExportCSV(filepath.Join(t.TempDir(), "x.csv"), &worker.TaskOutput{})
	require.ErrorIs(t, err, ErrNothingToExport)
}
