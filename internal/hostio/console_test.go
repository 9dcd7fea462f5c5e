// Console exercises a real terminal device, so most of its behavior can
// only be verified against an actual TTY. This test covers only the
// not-a-TTY branch: it asserts ErrNoTTY when stdin is not a terminal (the
// usual case under "go test") and skips when stdin is a real terminal.
package hostio

import (
	"errors"
	"os"
	"testing"
)

func TestNewConsole_NoTTY(t *testing.T) {
	_, err := NewConsole(os.Stdin, os.Stdout, os.Stderr)
	if err == nil {
		t.Skip("stdin is a real terminal; skipping the not-a-tty assertion")
	}

	if !errors.Is(err, ErrNoTTY) {
		t.Fatalf("NewConsole error = %v, want ErrNoTTY", err)
	}
}
