// Package certtooltest provides a certtool.Runner that records invocations instead of
// spawning processes.
package certtooltest

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/adalkiran/webrtc-endpoint-provisioning/src/certtool"
)

// SelfSignedOutput is what the fake writes to Stdout for --generate-self-signed.
const SelfSignedOutput = "-----BEGIN CERTIFICATE-----\nZmFrZSBjZXJ0aWZpY2F0ZQ==\n-----END CERTIFICATE-----\n"

// Runner is a fake certtool.Runner. The zero value succeeds on every call.
type Runner struct {
	// Fail decides per call whether the invocation fails. Nil means never.
	Fail func(call int, cmd certtool.Command) bool
	// Delay is slept before answering, to widen race windows in tests.
	Delay time.Duration

	mu       sync.Mutex
	commands []certtool.Command
}

func (r *Runner) Run(ctx context.Context, cmd certtool.Command) error {
	r.mu.Lock()
	call := len(r.commands)
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return &certtool.ToolError{Command: cmd.String(), Started: true, ExitCode: -1, Err: ctx.Err()}
		}
	}
	if r.Fail != nil && r.Fail(call, cmd) {
		return &certtool.ToolError{Command: cmd.String(), Started: true, ExitCode: 1}
	}
	if cmd.Stdout != nil && len(cmd.Args) > 0 && cmd.Args[0] == "--generate-self-signed" {
		if _, err := io.WriteString(cmd.Stdout, SelfSignedOutput); err != nil {
			return &certtool.ToolError{Command: cmd.String(), Started: true, ExitCode: -1, Err: err}
		}
	}
	return nil
}

// Commands returns a copy of the recorded invocations in call order.
func (r *Runner) Commands() []certtool.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]certtool.Command(nil), r.commands...)
}

func (r *Runner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commands)
}
