// Package hostio adapts the kernel's simulated console/keyboard/serial
// devices to an actual host terminal, so the simulation can be driven
// interactively from a shell. It plays the role real hardware plays for
// the rest of the kernel: a keyboard supplying input, a screen receiving
// VGA writes. Host bytes arrive already decoded, so they are fed to the
// console line discipline directly rather than through the PS/2
// scancode decoder.
//
// It is adapted from the teacher's internal/tty.Console, which performs
// the identical job for a simulated LC-3's keyboard/display devices; here
// it feeds the console line discipline and mirrors the VGA console of
// this kernel simulation instead.
package hostio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/prestige-os/prestige/internal/keyboard"
)

// Decoder is the subset of keyboard.Keyboard that Console drives: one
// scancode at a time. Host terminal bytes arrive already decoded
// (there's no real PS/2 controller between a pty and this process), so
// Console synthesizes the one scancode-set-1 shape the decoder needs:
// "unshifted ASCII as a make code, nothing else" is not how real
// hardware works, which is why Console bypasses Decode and feeds the
// console line discipline directly -- see Feeder.
type Decoder interface {
	Decode(scancode byte)
}

// Feeder is fed raw host bytes directly, bypassing scancode decoding --
// this is the console line discipline's own HandleKeyInput entrypoint,
// exactly as a translated serial byte would reach it.
type Feeder interface {
	HandleKeyInput(ch rune)
}

// Console adapts a host terminal (raw mode, unbuffered) to the kernel's
// console line discipline and VGA console, using Unix terminal I/O.
type Console struct {
	in    *os.File
	out   *term.Terminal
	fd    int
	state *term.State

	keyCh  chan byte
	termCh chan byte
}

// ErrNoTTY is returned if standard input is not a terminal.
var ErrNoTTY error = errors.New("hostio: not a TTY")

// NewConsole creates a Console using the provided streams. If the input
// stream is not a terminal, ErrNoTTY is returned. Callers are responsible
// for calling Restore to return the terminal to its initial state.
func NewConsole(sin, sout, _ *os.File) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	cons := Console{
		fd:     fd,
		in:     sin,
		out:    term.NewTerminal(sout, ""),
		state:  saved,
		keyCh:  make(chan byte, 1),
		termCh: make(chan byte, 80),
	}

	if err := cons.setTerminalParams(1, 0); err != nil {
		return nil, err
	}

	return &cons, nil
}

// Run launches the reader, keyboard-feeder, and display-drainer under an
// errgroup so a failure in any one tears down the others, rather than
// hand-rolling three bare goroutines with a shared cancel.
func (c *Console) Run(ctx context.Context, feeder Feeder) (*errgroup.Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.readHost(ctx) })
	g.Go(func() error { return c.feedConsole(ctx, feeder) })
	g.Go(func() error { return c.drainDisplay(ctx) })

	return g, ctx
}

// Writer returns an io.Writer for diagnostic output outside the VGA/
// display path (e.g. startup banners).
func (c *Console) Writer() io.Writer { return c.out }

// Listener returns the callback hostio registers with the VGA console to
// mirror rendered bytes onto the host terminal.
func (c *Console) Listener() func(byte) {
	return func(b byte) {
		select {
		case c.termCh <- b:
		default:
			// dropped: host terminal can't keep up, not worth blocking
			// the simulated console over.
		}
	}
}

// Restore returns the terminal to its initial state and unblocks any
// in-progress read.
func (c *Console) Restore() {
	_ = c.in.SetReadDeadline(time.Now())
	_ = term.Restore(c.fd, c.state)
}

func (c *Console) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, true)

	termIO, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	if err := unix.IoctlSetTermios(c.fd, setTermiosIoctl, termIO); err != nil {
		return err
	}

	_ = c.in.SetReadDeadline(time.Time{})

	return nil
}

// readHost reads bytes from the host terminal into keyCh until ctx is
// cancelled.
func (c *Console) readHost(ctx context.Context) error {
	buf := bufio.NewReader(c.in)

	_ = syscall.SetNonblock(c.fd, false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b, err := buf.ReadByte()
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case c.keyCh <- b:
		}
	}
}

// feedConsole takes bytes from keyCh and delivers them to the console
// line discipline until ctx is cancelled.
func (c *Console) feedConsole(ctx context.Context, feeder Feeder) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-c.keyCh:
			feeder.HandleKeyInput(rune(b))
		}
	}
}

// drainDisplay writes bytes mirrored from the VGA console onto the host
// terminal until ctx is cancelled.
func (c *Console) drainDisplay(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-c.termCh:
			if _, err := fmt.Fprintf(c.out, "%c", rune(b)); err != nil {
				return err
			}
		}
	}
}

var _ Decoder = (*keyboard.Keyboard)(nil)
