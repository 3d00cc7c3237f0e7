// Package secret prompts for remote-server passwords and caches them
// for the rest of the run, so a multi-upload session asks once per
// server.
package secret

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Provider supplies a password for a server/user pair.
type Provider interface {
	Password(server, user string) (string, error)
}

// Terminal prompts on the controlling terminal with echo disabled.
type Terminal struct {
	cache map[string]string
}

func NewTerminal() *Terminal {
	return &Terminal{cache: map[string]string{}}
}

// Password returns the cached password for server, prompting on first
// use.
func (t *Terminal) Password(server, user string) (string, error) {
	if pw, ok := t.cache[server]; ok {
		return pw, nil
	}
	fmt.Fprintf(os.Stderr, "%s password for %s: ", user, server)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	t.cache[server] = string(raw)
	return string(raw), nil
}

// Static always returns the same password; used in tests and for
// non-interactive runs.
type Static string

func (s Static) Password(server, user string) (string, error) {
	return string(s), nil
}
