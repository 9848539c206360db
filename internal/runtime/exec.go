// Package runtime runs external CLIs (the generation agent, flyctl) as child processes
// whose whole process group is terminated when the job context is cancelled.
package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultTailSize = 4096

// Options describes one process invocation
type Options struct {
	Command []string
	Dir     string
	Env     map[string]string
	// Stdin, when set, is fed to the process
	Stdin io.Reader
	// Output, when set, receives combined stdout/stderr as it is produced
	Output io.Writer
	// GracePeriod is how long a cancelled process group gets between SIGTERM and SIGKILL
	GracePeriod time.Duration
}

// Result is the outcome of a finished process
type Result struct {
	ExitCode int
	Duration time.Duration
	// Tail holds the last few KB of combined output
	Tail string
}

// ExitError reports a process that ran but exited non-zero
type ExitError struct {
	Command  string
	ExitCode int
	Tail     string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if tail := strings.TrimSpace(e.Tail); tail != "" {
		msg += ": " + lastLines(tail, 5)
	}
	return msg
}

// ExecRuntime runs processes on the local host
type ExecRuntime struct {
	// BaseEnv is appended to os.Environ() for every process
	BaseEnv map[string]string
}

// NewExecRuntime creates a process runtime
func NewExecRuntime(baseEnv map[string]string) *ExecRuntime {
	return &ExecRuntime{BaseEnv: baseEnv}
}

// Run starts the process and blocks until it exits or ctx is cancelled.
// On cancellation the returned error wraps context.Cause(ctx).
func (e *ExecRuntime) Run(ctx context.Context, opts Options) (Result, error) {
	if len(opts.Command) == 0 {
		return Result{}, errors.New("command is required")
	}

	cmd := exec.CommandContext(ctx, opts.Command[0], opts.Command[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = mergeEnv(os.Environ(), e.BaseEnv, opts.Env)
	cmd.Stdin = opts.Stdin

	tail := newTailBuffer(defaultTailSize)
	var out io.Writer = tail
	if opts.Output != nil {
		out = io.MultiWriter(tail, opts.Output)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	grace := opts.GracePeriod
	if grace <= 0 {
		grace = 10 * time.Second
	}
	configureProcessGroup(cmd, grace)

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start %s: %w", opts.Command[0], err)
	}

	err := cmd.Wait()
	result := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(started),
		Tail:     tail.String(),
	}

	if ctx.Err() != nil {
		return result, fmt.Errorf("%s terminated: %w", opts.Command[0], context.Cause(ctx))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, &ExitError{Command: opts.Command[0], ExitCode: result.ExitCode, Tail: result.Tail}
		}
		return result, err
	}
	return result, nil
}

func mergeEnv(base []string, layers ...map[string]string) []string {
	env := append([]string(nil), base...)
	for _, layer := range layers {
		keys := make([]string, 0, len(layer))
		for k := range layer {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, k+"="+layer[k])
		}
	}
	return env
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// tailBuffer keeps only the most recent max bytes written to it
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf bytes.Buffer
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(p)
	if len(p) > t.max {
		p = p[len(p)-t.max:]
		t.buf.Reset()
	}
	if overflow := t.buf.Len() + len(p) - t.max; overflow > 0 {
		t.buf.Next(overflow)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
