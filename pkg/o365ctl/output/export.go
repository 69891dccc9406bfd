// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/telekom/o365ctl/pkg/o365ctl/worker"
)

// ExportAuto asks ExportPath for a timestamped file name.
const ExportAuto = "auto"

var ErrNothingToExport = errors.New("no results to export")

// ExportPath resolves the --export value: "auto" (or empty) becomes
// export_results_<YYYYMMDD-HHMMSS>.csv in dir; relative names are joined to dir.
func ExportPath(dir, name string, now time.Time) string {
	if name == "" || name == ExportAuto {
		name = fmt.Sprintf("export_results_%s.csv", now.Format("20060102-150405"))
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// WriteTaskCSV writes the table of out as RFC 4180 CSV.
func WriteTaskCSV(w io.Writer, out *worker.TaskOutput) error {
	if !out.HasTable() {
		return ErrNothingToExport
	}
	cw := csv.NewWriter(w)
	if len(out.Headers) > 0 {
		if err := cw.Write(out.Headers); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(out.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// ExportCSV writes the table of out to path, refusing to overwrite an existing file.
func ExportCSV(path string, out *worker.TaskOutput) error {
	if !out.HasTable() {
		return ErrNothingToExport
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := WriteTaskCSV(f, out); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return f.Close()
}
