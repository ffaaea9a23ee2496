package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads one line of input per prompt.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Ask writes prompt and returns the next line without its line ending.
// ok is false once input is exhausted.
func (p *Prompter) Ask(prompt string) (line string, ok bool) {
	_, _ = fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		_, _ = fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimRight(p.scanner.Text(), "\r"), true
}

// IsYes reports whether answer is an affirmative "y" or "yes".
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
