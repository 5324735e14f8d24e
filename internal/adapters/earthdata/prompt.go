package earthdata

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jobrunner/granula/internal/domain"
)

// PromptMessage is printed before asking for credentials.
const PromptMessage = "Please provide Earthdata Login credentials for access."

// Prompter asks the user for credentials interactively.
// The password is masked when In is a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// NewPrompter creates a prompter on stdin, writing prompts to stderr.
func NewPrompter() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stderr}
}

// Lookup prompts for a username and password.
func (p *Prompter) Lookup(_ context.Context, realm string) (domain.Credentials, error) {
	r := bufio.NewReader(p.In)

	fmt.Fprintln(p.Out, PromptMessage)
	fmt.Fprintf(p.Out, "Username for %s: ", realm)
	username, err := readLine(r)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("%w: reading username: %v", domain.ErrCredentialsNotFound, err)
	}
	if username == "" {
		return domain.Credentials{}, fmt.Errorf("%w: empty username", domain.ErrCredentialsNotFound)
	}

	fmt.Fprint(p.Out, "Password: ")
	password, err := p.readPassword(r)
	fmt.Fprintln(p.Out)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("reading password: %w", err)
	}

	return domain.Credentials{Username: username, Password: password}, nil
}

func (p *Prompter) readPassword(r *bufio.Reader) (string, error) {
	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return readLine(r)
}

// readLine reads one line without its terminator. A final line without a
// newline is accepted.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
