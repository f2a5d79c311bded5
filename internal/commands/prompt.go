package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

// prompter reads answers from the command's input. One scanner is shared by
// all prompts of an invocation so buffered input is not lost between them.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer

	// stdin is set when input is the process's terminal
	stdin *os.File
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	p := &prompter{
		in:  bufio.NewScanner(in),
		out: cmd.OutOrStdout(),
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		p.stdin = f
	}
	return p
}

func (p *prompter) interactive() bool {
	return p.stdin != nil
}

func (p *prompter) line() (string, bool) {
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// ask prompts for a value. An empty answer keeps current.
func (p *prompter) ask(label, current string) string {
	if current != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	answer, _ := p.line()
	if answer == "" {
		return current
	}
	return answer
}

// password reads a secret without echo when input is a terminal
func (p *prompter) password(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if p.stdin == nil {
		answer, _ := p.line()
		return answer, nil
	}

	passwordBytes, err := term.ReadPassword(p.stdin.Fd())
	fmt.Fprintln(p.out) // Add a newline after password input
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (p *prompter) confirm(prompt string) (bool, error) {
	fmt.Fprintf(p.out, "%s (y/n): ", prompt)
	answer, ok := p.line()
	if !ok {
		if err := p.in.Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
