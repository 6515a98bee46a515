package command

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/yndnr/sod-go/internal/cli/connection"
)

// prompter writes prompts to out and reads answers from in. When in is
// a terminal, answers are read with echo disabled.
type prompter struct {
	in     io.Reader
	out    io.Writer
	lines  *bufio.Reader
	termFD int
}

func newPrompter(in io.Reader, out io.Writer) connection.Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	p := &prompter{in: in, out: out, termFD: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.termFD = int(f.Fd())
	} else {
		p.lines = bufio.NewReader(in)
	}
	return p
}

func (p *prompter) Prompt(text string) (string, error) {
	fmt.Fprint(p.out, text)
	if p.termFD >= 0 {
		b, err := term.ReadPassword(p.termFD)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := p.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
