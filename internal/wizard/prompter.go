// Package wizard implements the interactive flows of the CLI: quality
// selection, filename shaping, overwrite checks, and playlist dialogs.
package wizard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// TerminalPrompter asks questions on the terminal. It satisfies the decision
// prompter used by the history subsystem, so all interactive flows share one
// input reader.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter reads from stdin and writes to stdout.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// NewPrompter builds a prompter over explicit streams, for tests.
func NewPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

// Say prints one line.
func (p *TerminalPrompter) Say(msg string) {
	fmt.Fprintln(p.out, msg)
}

// Choose asks for a menu choice; empty input yields the default.
func (p *TerminalPrompter) Choose(prompt, defaultChoice string) string {
	fmt.Fprintf(p.out, "%s [%s]: ", prompt, defaultChoice)
	return p.read(defaultChoice)
}

// Input asks for a free-form value with a default.
func (p *TerminalPrompter) Input(prompt, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}
	return p.read(defaultValue)
}

// Confirm asks a yes/no question.
func (p *TerminalPrompter) Confirm(prompt string, defaultYes bool) bool {
	hint := "y/N"
	fallback := "n"
	if defaultYes {
		hint = "Y/n"
		fallback = "y"
	}
	fmt.Fprintf(p.out, "%s (%s): ", prompt, hint)
	answer := strings.ToLower(p.read(fallback))
	return answer == "y" || answer == "yes"
}

func (p *TerminalPrompter) read(fallback string) string {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return fallback
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}
