// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	o365cmd "github.com/telekom/o365ctl/pkg/o365ctl/cmd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runWith(ctx, o365cmd.DefaultConfig(), args, os.Stderr)
}

func runWith(ctx context.Context, cfg o365cmd.Config, args []string, stderr io.Writer) int {
	if err := o365cmd.Execute(ctx, cfg, args); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
