// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/telekom/o365ctl/pkg/o365ctl/config"
)

const (
	initialLineBuffer = 64 * 1024
	maxStderrLine     = 1024 * 1024
	waitDelay         = 5 * time.Second
)

type Config struct {
	Runtime     string
	RuntimeArgs []string
	// EntryPoint is the worker script, relative to the project root unless absolute.
	EntryPoint string
	// ProjectDir overrides the project root derived from WorkDir.
	ProjectDir string
	// WorkDir defaults to the process working directory.
	WorkDir string
}

// ConfigFrom maps the worker section of the CLI config.
func ConfigFrom(cfg config.Worker) Config {
	return Config{
		Runtime:     cfg.Runtime,
		RuntimeArgs: cfg.RuntimeArgs,
		EntryPoint:  cfg.EntryPoint,
		ProjectDir:  cfg.ProjectDir,
	}
}

type Task struct {
	Name string
	Args []string
}

// Runner launches one worker process per Run call.
type Runner struct {
	cfg Config
	log *zap.SugaredLogger
}

func NewRunner(cfg Config, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.Runtime == "" {
		cfg.Runtime = config.DefaultRuntime
	}
	if cfg.RuntimeArgs == nil {
		cfg.RuntimeArgs = config.DefaultRuntimeArgs
	}
	if cfg.EntryPoint == "" {
		cfg.EntryPoint = config.DefaultEntryPoint
	}
	return &Runner{cfg: cfg, log: log}
}

// ResolveEntryPoint locates the worker script. The project root is the working
// directory, or its parent when invoked from the CLI's "cli" subdirectory.
func (r *Runner) ResolveEntryPoint() (string, error) {
	path := r.cfg.EntryPoint
	if !filepath.IsAbs(path) {
		root := r.cfg.ProjectDir
		if root == "" {
			wd := r.cfg.WorkDir
			if wd == "" {
				var err error
				if wd, err = os.Getwd(); err != nil {
					return "", fmt.Errorf("failed to determine working directory: %w", err)
				}
			}
			root = config.ProjectRoot(wd)
		}
		path = filepath.Join(root, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrEntryPointNotFound, path)
	}
	return path, nil
}

// Run executes task with the given access token and returns its output.
// Status updates are sent to events without blocking: when the channel is full
// the update is dropped. A nil channel disables updates. The channel is never
// closed by Run.
//
// A worker "error" line ends the run at once: the process is killed and a
// *ReportedError returned. A non-zero exit is an *ExitError even after a
// success message.
func (r *Runner) Run(ctx context.Context, task Task, token string, events chan<- Event) (*TaskOutput, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &HandoffError{Err: errors.New("access token is empty")}
	}
	entry, err := r.ResolveEntryPoint()
	if err != nil {
		return nil, &SpawnError{Command: r.cfg.Runtime, Err: err}
	}

	runID := uuid.NewString()
	log := r.log.With("runID", runID, "task", task.Name)
	emit := &emitter{runID: runID, events: events}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := make([]string, 0, len(r.cfg.RuntimeArgs)+2+len(task.Args))
	args = append(args, r.cfg.RuntimeArgs...)
	args = append(args, entry, task.Name)
	args = append(args, task.Args...)
	cmd := exec.CommandContext(runCtx, r.cfg.Runtime, args...)
	cmd.WaitDelay = waitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &SpawnError{Command: r.cfg.Runtime, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Command: r.cfg.Runtime, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Command: r.cfg.Runtime, Err: err}
	}

	emit.send(Event{Kind: EventStarted, Text: task.Name})
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Command: r.cfg.Runtime, Err: err}
	}
	log.Infow("Worker started", "pid", cmd.Process.Pid, "entryPoint", entry, "argCount", len(task.Args))

	var drain errgroup.Group
	drain.Go(func() error {
		return forwardStderr(stderr, log)
	})

	// abort kills the worker and reaps it; used on every early return below.
	abort := func() {
		cancel()
		_ = drain.Wait()
		_ = cmd.Wait()
	}

	if err := handOff(stdin, token); err != nil {
		abort()
		return nil, &HandoffError{Err: err}
	}

	// stdout lines are unbounded: a success payload carries the whole result.
	out := &TaskOutput{}
	reader := bufio.NewReaderSize(stdout, initialLineBuffer)
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			switch msg := DecodeLine(bytes.TrimRight(line, "\r\n")).(type) {
			case *Progress:
				emit.send(Event{Kind: EventProgress, Text: msg.Message, Percent: msg.Percent, HasPercent: msg.HasPercent})
			case *Success:
				out = outputFromPayload(msg.Data)
				log.Debugw("Worker reported success", "rows", len(out.Rows), "raw", len(out.Raw) > 0, "bytes", len(line))
			case *Failure:
				abort()
				log.Warnw("Worker reported an error", "message", msg.Message, "droppedEvents", emit.dropped)
				return nil, &ReportedError{Message: msg.Message}
			case *Diagnostic:
				emit.send(Event{Kind: EventDiagnostic, Text: msg.Text})
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			abort()
			return nil, fmt.Errorf("failed to read worker output: %w", readErr)
		}
	}

	if err := drain.Wait(); err != nil {
		log.Debugw("Failed to drain worker stderr", "error", err)
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("worker cancelled: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Warnw("Worker exited unsuccessfully", "exitCode", exitErr.ExitCode())
			return nil, &ExitError{Code: exitErr.ExitCode(), Err: err}
		}
		return nil, fmt.Errorf("failed to wait for worker: %w", err)
	}
	if emit.dropped > 0 {
		log.Warnw("Dropped status updates, event channel full", "droppedEvents", emit.dropped)
	}
	log.Infow("Worker finished")
	return out, nil
}

// handOff writes the token followed by a newline and closes the pipe.
func handOff(stdin io.WriteCloser, token string) error {
	if _, err := io.WriteString(stdin, token+"\n"); err != nil {
		_ = stdin.Close()
		return err
	}
	return stdin.Close()
}

func forwardStderr(stderr io.Reader, log *zap.SugaredLogger) error {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxStderrLine)
	for scanner.Scan() {
		log.Debugw("Worker stderr", "line", scanner.Text())
	}
	err := scanner.Err()
	if err != nil {
		// keep the pipe flowing so the worker never blocks on a full stderr
		_, _ = io.Copy(io.Discard, stderr)
	}
	return err
}

type emitter struct {
	runID   string
	events  chan<- Event
	dropped int
}

func (e *emitter) send(ev Event) {
	if e.events == nil {
		return
	}
	ev.RunID = e.runID
	ev.Time = time.Now()
	select {
	case e.events <- ev:
	default:
		e.dropped++
	}
}
