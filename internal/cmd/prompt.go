package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	stdin  *os.File
	isTerm bool
}

func newPrompter(c *cli.Command) *prompter {
	reader := c.Root().Reader
	if reader == nil {
		reader = os.Stdin
	}
	out := c.Root().Writer
	if out == nil {
		out = os.Stdout
	}

	p := &prompter{in: bufio.NewReader(reader), out: out}
	if f, ok := reader.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		p.stdin = f
		p.isTerm = true
	}
	return p
}

func (p *prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)

	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Secret reads without echo when attached to a terminal.
func (p *prompter) Secret(label string) (string, error) {
	if !p.isTerm {
		return p.Line(label)
	}

	fmt.Fprint(p.out, label)
	raw, err := term.ReadPassword(int(p.stdin.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Confirm asks a yes/no question; anything but y or yes is no.
func (p *prompter) Confirm(question string) bool {
	answer, err := p.Line(question + " [y/N] ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
