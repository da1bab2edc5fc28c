// Package certtool runs the external command line tool that creates private keys and
// self-signed certificates.
package certtool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/adalkiran/webrtc-endpoint-provisioning/src/common"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/logging"
)

// ErrToolInvocationFailed matches every error a Runner returns for a failed invocation.
var ErrToolInvocationFailed = errors.New("certificate tool invocation failed")

type Command struct {
	Name string
	Args []string
	// Stdout receives the standard output of the tool. Nil discards it.
	Stdout io.Writer
}

func (c Command) String() string {
	return common.CommandLine(c.Name, c.Args...)
}

// Runner executes a Command synchronously and reports whether it succeeded.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ToolError describes a failed invocation. Started is false when the process could not
// be spawned at all, and ExitCode is -1 when there's no exit status (spawn failure, killed).
type ToolError struct {
	Command  string
	Started  bool
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	if !e.Started {
		return fmt.Sprintf("could not start %q: %s", e.Command, e.Err)
	}
	msg := fmt.Sprintf("%q exited with status %d", e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func (e *ToolError) Is(target error) bool {
	return target == ErrToolInvocationFailed
}

// waitDelay bounds how long Run waits for grandchildren holding the output pipes after the
// tool itself was killed.
const waitDelay = 500 * time.Millisecond

// ExecRunner spawns the command as a child process, without a shell.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.WaitDelay = waitDelay
	var stderr bytes.Buffer
	c.Stdout = cmd.Stdout
	c.Stderr = &stderr

	logging.Infof(logging.ProtoEXEC, "Running <u>%s</u>", cmd)
	if err := c.Start(); err != nil {
		return &ToolError{Command: cmd.String(), ExitCode: -1, Err: err}
	}
	if err := c.Wait(); err != nil {
		toolErr := &ToolError{
			Command:  cmd.String(),
			Started:  true,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			toolErr.Err = fmt.Errorf("%w (%s)", ctxErr, err)
		}
		return toolErr
	}
	return nil
}
