// Package prompt answers the yes/no and secret questions asked while provisioning.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter answers interactive questions.
type Prompter interface {
	// Confirm asks a yes/no question.
	Confirm(question string) (bool, error)
	// AskSecret asks for a secret without echoing it. An empty answer is valid.
	AskSecret(prompt string) (string, error)
}

// Terminal prompts on a terminal or any line oriented reader.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewTerminal returns a prompter reading from stdin and writing to stderr.
func NewTerminal() *Terminal {
	return NewTerminalIO(os.Stdin, os.Stderr)
}

// NewTerminalIO returns a prompter for arbitrary streams. Secrets are read without
// echo only when in is an *os.File attached to a terminal.
func NewTerminalIO(in io.Reader, out io.Writer) *Terminal {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Terminal{in: bufio.NewReader(in), out: out, fd: fd}
}

// Confirm prints "question (y/N): " and accepts any answer starting with y or Y.
func (t *Terminal) Confirm(question string) (bool, error) {
	fmt.Fprintf(t.out, "%s (y/N): ", question)

	answer, err := t.readLine()
	if err != nil {
		return false, err
	}

	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y"), nil
}

// AskSecret prints the prompt and reads a line, hiding input on a terminal.
func (t *Terminal) AskSecret(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)

	if t.fd >= 0 {
		secret, err := term.ReadPassword(t.fd)
		fmt.Fprintln(t.out) // New line after hidden input
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return string(secret), nil
	}

	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return line, nil
}

// AssumeYes confirms every question and answers every secret with an empty string.
type AssumeYes struct{}

func (AssumeYes) Confirm(string) (bool, error) { return true, nil }

func (AssumeYes) AskSecret(string) (string, error) { return "", nil }
