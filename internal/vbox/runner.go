package vbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTool is the control program looked up on PATH when none is configured.
const DefaultTool = "VBoxManage"

// Result is the captured outcome of one tool invocation.
type Result struct {
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs the control tool with the given arguments and waits for it.
//
// In production this is satisfied by *ExecRunner.
// In tests it is satisfied by mock implementations.
type Runner interface {
	Run(ctx context.Context, args ...string) (Result, error)
}

// ToolError reports a tool invocation that could not be started or exited
// with a non-zero status.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Tool, Subcommand(e.Args))
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s (exit status %d)", msg, e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		return msg + ": " + firstLine(stderr)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ToolStderr returns the full standard error captured by the *ToolError in
// err's chain, or "" if there is none.
func ToolStderr(err error) string {
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		return ""
	}
	return strings.TrimSpace(toolErr.Stderr)
}

// IsToolError reports whether err is, or wraps, a *ToolError.
func IsToolError(err error) bool {
	var toolErr *ToolError
	return errors.As(err, &toolErr)
}

// ExecRunner runs the tool as a child process.
type ExecRunner struct {
	path    string
	env     []string
	log     logrus.FieldLogger
	metrics *Metrics
}

// NewExecRunner returns a runner for the tool at path (DefaultTool if empty).
// metrics may be nil.
func NewExecRunner(path string, log logrus.FieldLogger, metrics *Metrics) *ExecRunner {
	if path == "" {
		path = DefaultTool
	}
	return &ExecRunner{
		path: path,
		// The parser matches English labels, so pin the tool's locale.
		env:     append(os.Environ(), "LC_ALL=en_US.UTF-8"),
		log:     log,
		metrics: metrics,
	}
}

// Run starts the tool, waits for it to exit and captures both output
// streams. No timeout is applied; ctx only carries cancellation.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (Result, error) {
	tool := filepath.Base(r.path)
	r.log.Debugf("# %s %s", tool, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.path, args...)
	cmd.Env = r.env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	res := Result{
		Args:     args,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	r.metrics.observe(Subcommand(args), elapsed, runErr != nil)

	if runErr != nil {
		return res, &ToolError{
			Tool:     tool,
			Args:     args,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
			Err:      runErr,
		}
	}
	return res, nil
}

// Subcommand returns the tool subcommand in args, used as a metric and log
// label.
func Subcommand(args []string) string {
	if len(args) == 0 {
		return "none"
	}
	return args[0]
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
