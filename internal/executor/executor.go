package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/syntax"

	"github.com/ksyq12/wpstack/internal/logger"
)

// CommandExecutor is an interface for executing system commands
type CommandExecutor interface {
	// Execute runs a command with the given name and arguments
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// ExecuteInput runs a command with stdin fed from the given string.
	// Use it for secrets so they never appear in the process list.
	ExecuteInput(ctx context.Context, stdin string, name string, args ...string) ([]byte, error)

	// LookPath searches for an executable in the directories named by the PATH
	LookPath(file string) (string, error)
}

// SystemExecutor implements CommandExecutor using os/exec
type SystemExecutor struct {
	// Env is appended to the inherited environment of every command.
	Env []string
}

// NewSystemExecutor creates a new SystemExecutor
func NewSystemExecutor(env ...string) *SystemExecutor {
	return &SystemExecutor{Env: env}
}

// Execute runs a command and returns combined output
func (e *SystemExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	return e.run(ctx, nil, name, args...)
}

// ExecuteInput runs a command with stdin and returns combined output
func (e *SystemExecutor) ExecuteInput(ctx context.Context, stdin string, name string, args ...string) ([]byte, error) {
	return e.run(ctx, strings.NewReader(stdin), name, args...)
}

func (e *SystemExecutor) run(ctx context.Context, stdin *strings.Reader, name string, args ...string) ([]byte, error) {
	line := CommandLine(name, args...)
	logger.L().Debug("exec", zap.String("cmd", line), zap.Bool("stdin", stdin != nil))

	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	out := buf.Bytes()
	if err != nil {
		logger.L().Debug("exec failed", zap.String("cmd", line), zap.Error(err))
		return out, cerr.Wrapf(err, "%s: %s", line, Summary(out, 2))
	}
	return out, nil
}

// LookPath searches for an executable
func (e *SystemExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// CommandLine renders a command as a bash-quoted line for logs and errors.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{name}, args...) {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", a)
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, " ")
}

// Summary returns the last n non-empty lines of command output joined by
// " | ", or "no output".
func Summary(out []byte, n int) string {
	var lines []string
	for _, l := range strings.Split(string(out), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return "no output"
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// MockExecutor is a mock implementation for testing
type MockExecutor struct {
	ExecuteFunc  func(name string, args ...string) ([]byte, error)
	LookPathFunc func(file string) (string, error)
	Calls        []CommandCall
}

// CommandCall records a command execution for verification
type CommandCall struct {
	Name  string
	Args  []string
	Stdin string
}

// Line returns the call as a quoted command line.
func (c CommandCall) Line() string {
	return CommandLine(c.Name, c.Args...)
}

// Execute calls the mock function
func (m *MockExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	return m.ExecuteInput(ctx, "", name, args...)
}

// ExecuteInput records stdin and calls the mock function
func (m *MockExecutor) ExecuteInput(_ context.Context, stdin string, name string, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, CommandCall{Name: name, Args: args, Stdin: stdin})
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(name, args...)
	}
	return []byte(""), nil
}

// LookPath calls the mock function
func (m *MockExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

// Commands returns the name of every recorded call in order.
func (m *MockExecutor) Commands() []string {
	names := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		names = append(names, c.Name)
	}
	return names
}
