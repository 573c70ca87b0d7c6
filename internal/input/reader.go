package input

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Reader is an interface for reading user input
type Reader interface {
	ReadString(delim byte) (string, error)
}

// PasswordReader reads one line without echoing it.
type PasswordReader interface {
	ReadPassword() (string, error)
}

// StdinReader wraps bufio.Reader for os.Stdin
type StdinReader struct {
	reader *bufio.Reader
}

// NewStdinReader creates a new StdinReader
func NewStdinReader() *StdinReader {
	return &StdinReader{
		reader: bufio.NewReader(os.Stdin),
	}
}

// ReadString reads until delimiter
func (r *StdinReader) ReadString(delim byte) (string, error) {
	return r.reader.ReadString(delim)
}

// TerminalPasswordReader reads passwords from a terminal with echo disabled.
type TerminalPasswordReader struct {
	fd int
}

// NewTerminalPasswordReader reads from os.Stdin.
func NewTerminalPasswordReader() *TerminalPasswordReader {
	return &TerminalPasswordReader{fd: int(os.Stdin.Fd())}
}

// ReadPassword reads a line with echo disabled. It refuses to read from a
// non-terminal so a piped password is never echoed back.
func (r *TerminalPasswordReader) ReadPassword() (string, error) {
	if !term.IsTerminal(r.fd) {
		return "", fmt.Errorf("hidden input requires a terminal; use --answers for non-interactive runs")
	}
	b, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// StringReader is a simple reader for testing.
// Each input string should already include the delimiter that will be used
// in ReadString calls (e.g., "yes\n" for newline delimiter).
type StringReader struct {
	inputs []string
	index  int
}

// NewStringReader creates a reader from strings.
// Each input string should include the expected delimiter.
func NewStringReader(inputs ...string) *StringReader {
	return &StringReader{inputs: inputs}
}

// ReadString returns the next pre-configured string.
// Returns io.EOF when all inputs have been consumed.
// Note: The delim parameter is ignored; inputs should already include delimiters.
func (r *StringReader) ReadString(delim byte) (string, error) {
	if r.index >= len(r.inputs) {
		return "", io.EOF
	}
	result := r.inputs[r.index]
	r.index++
	return result, nil
}

// StaticPasswords returns pre-configured passwords in order, for tests.
type StaticPasswords struct {
	values []string
	index  int
}

// NewStaticPasswords creates a PasswordReader from fixed values.
func NewStaticPasswords(values ...string) *StaticPasswords {
	return &StaticPasswords{values: values}
}

// ReadPassword returns the next value or io.EOF.
func (p *StaticPasswords) ReadPassword() (string, error) {
	if p.index >= len(p.values) {
		return "", io.EOF
	}
	v := p.values[p.index]
	p.index++
	return v, nil
}
