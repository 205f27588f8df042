// Package confirm implements the interactive confirmation gate and
// passphrase prompts.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"tidy-go/internal/safety"
)

// TerminalConfirmer prompts on the terminal for a yes/no decision. When
// stdin is not a terminal it declines: a safety level that demands
// confirmation must never be satisfied silently by a pipe.
type TerminalConfirmer struct {
	in  io.Reader
	out io.Writer
	tty func() bool
}

// NewTerminalConfirmer creates a confirmer over stdin/stderr.
func NewTerminalConfirmer() *TerminalConfirmer {
	return &TerminalConfirmer{
		in:  os.Stdin,
		out: os.Stderr,
		tty: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

func (c *TerminalConfirmer) Confirm(req *safety.ConfirmRequest) (bool, error) {
	if !c.tty() {
		fmt.Fprintln(c.out, "confirmation required but stdin is not a terminal; declining")
		return false, nil
	}

	fmt.Fprintf(c.out, "About to %s:\n", describeOp(req.OpType))
	for _, target := range req.Targets {
		fmt.Fprintf(c.out, "  %s\n", target)
	}
	if req.Description != "" {
		fmt.Fprintf(c.out, "Reason: %s\n", req.Description)
	}
	for _, w := range req.Warnings {
		fmt.Fprintf(c.out, "Warning [%s]: %s\n", w.Check, w.Message)
	}
	fmt.Fprint(c.out, "Proceed? [y/N]: ")

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func describeOp(t safety.OperationType) string {
	switch t {
	case safety.OpFileDelete:
		return "delete files"
	case safety.OpFileModify:
		return "modify files"
	case safety.OpPackageRemove:
		return "remove packages"
	case safety.OpServiceStop:
		return "stop services"
	case safety.OpDirectoryCreate:
		return "create directories"
	}
	return string(t)
}

// AutoConfirmer answers every confirmation without prompting. Used for the
// --yes flag and for the aggressive safety level in scripts.
type AutoConfirmer struct {
	Answer bool
}

func (c *AutoConfirmer) Confirm(req *safety.ConfirmRequest) (bool, error) {
	return c.Answer, nil
}

// ReadPassphrase prompts for a passphrase without echo. It fails when stdin
// is not a terminal.
func ReadPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("passphrase prompt requires a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	pass, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

// Compile-time checks
var _ safety.Confirmer = (*TerminalConfirmer)(nil)
var _ safety.Confirmer = (*AutoConfirmer)(nil)
