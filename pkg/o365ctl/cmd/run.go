// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/telekom/o365ctl/pkg/o365ctl/output"
	"github.com/telekom/o365ctl/pkg/o365ctl/worker"
)

const eventBuffer = 64

func NewRunCommand() *cobra.Command {
	var export string

	cmd := &cobra.Command{
		Use:   "run TASK [ARGS...]",
		Short: "Run an administration task in the worker",
		Long: `Run renews the access token from the stored session and starts the worker
for TASK. The token is passed on the worker's stdin. Progress is printed to
stderr and the result to stdout.

Flags for o365ctl must come before TASK; everything after it is passed to the
worker unchanged.`,
		Example: `  o365ctl run list-users
  o365ctl run --export list-users --department Sales
  o365ctl -o json run get-user alice@contoso.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := rt.OutputFormat()
			if err != nil {
				return err
			}
			manager, err := rt.SessionManager("")
			if err != nil {
				return err
			}

			stop := startSpinner(rt.ErrWriter(), "Renewing access token...")
			token, err := manager.AccessToken(cmd.Context())
			stop()
			if err != nil {
				return err
			}

			cfg := worker.ConfigFrom(rt.cfg.Worker)
			cfg.WorkDir = rt.workDir
			runner := worker.NewRunner(cfg, rt.log.Named("worker"))

			events := make(chan worker.Event, eventBuffer)
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				printEvents(rt.ErrWriter(), events)
			}()
			result, err := runner.Run(cmd.Context(), worker.Task{Name: args[0], Args: args[1:]}, token, events)
			close(events)
			wg.Wait()
			if err != nil {
				return err
			}

			if err := output.WriteTaskOutput(rt.Writer(), format, result); err != nil {
				return err
			}
			if cmd.Flags().Changed("export") {
				return exportResult(rt, export, result)
			}
			return nil
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&export, "export", "", "Write the result table as CSV (\"auto\" or a file name)")
	cmd.Flags().Lookup("export").NoOptDefVal = output.ExportAuto
	return cmd
}

func printEvents(w io.Writer, events <-chan worker.Event) {
	for ev := range events {
		_, _ = fmt.Fprintln(w, ev.String())
	}
}

func exportResult(rt *runtimeState, name string, result *worker.TaskOutput) error {
	path := output.ExportPath(rt.workDir, name, rt.now())
	err := output.ExportCSV(path, result)
	if errors.Is(err, output.ErrNothingToExport) {
		_, _ = fmt.Fprintln(rt.ErrWriter(), "Nothing to export: the task returned no table")
		return nil
	}
	if err != nil {
		return err
	}
	rt.log.Infow("Exported task result", "path", path, "rows", len(result.Rows))
	_, _ = fmt.Fprintf(rt.ErrWriter(), "Exported %d rows to %s\n", len(result.Rows), path)
	return nil
}
