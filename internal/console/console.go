// Package console implements the line discipline sitting between the
// keyboard/serial input sources and user reads: the shared input buffer,
// echo/raw mode, and the blocking read_char/read_line semantics exposed
// through the FileIO contract. See spec §4.D.
package console

import (
	"sync"
	"sync/atomic"

	"github.com/prestige-os/prestige/internal/log"
)

// Sink is where output bytes ultimately land -- the VGA console and/or
// the serial UART, compile-time selectable per spec §4.D.
type Sink interface {
	Write(buf []byte) (int, error)
}

// Console is the shared line discipline. Exactly one instance exists per
// machine; it is the FileIO a process's stdin/stdout/stderr handles all
// resolve to.
type Console struct {
	mut      sync.Mutex
	notEmpty *sync.Cond

	buf []rune

	echo atomic.Bool
	raw  atomic.Bool

	sinks []Sink

	log *log.Logger
}

// New creates a console writing to the given output sinks in order.
func New(sinks ...Sink) *Console {
	c := &Console{
		sinks: sinks,
		log:   log.Component(log.DefaultLogger(), "console"),
	}
	c.notEmpty = sync.NewCond(&c.mut)
	c.echo.Store(true)

	return c
}

// AddSink appends an output sink. Used during kernel bring-up, where the
// VGA console and serial UART are constructed after the line discipline
// itself (each needs a reference back to it for the echo-toggle
// callback), so sinks cannot all be supplied to New up front.
func (c *Console) AddSink(s Sink) {
	c.mut.Lock()
	defer c.mut.Unlock()

	c.sinks = append(c.sinks, s)
}

// ReplaceSink swaps out in the sink list for with, in place. Used when a
// device wired during New is reconstructed afterward by an option (e.g.
// the UART, once its transmit callback is known).
func (c *Console) ReplaceSink(out, with Sink) {
	c.mut.Lock()
	defer c.mut.Unlock()

	for i, s := range c.sinks {
		if s == out {
			c.sinks[i] = with
			return
		}
	}
}

// SetEcho enables or disables input echo, per DECSET/DECRST 12.
func (c *Console) SetEcho(on bool) { c.echo.Store(on) }

// Echo reports whether input echo is enabled.
func (c *Console) Echo() bool { return c.echo.Load() }

// SetRaw enables or disables raw mode, in which backspace is delivered
// as an ordinary character instead of editing the input buffer.
func (c *Console) SetRaw(on bool) { c.raw.Store(on) }

// Raw reports whether raw mode is enabled.
func (c *Console) Raw() bool { return c.raw.Load() }

// HandleKeyInput is the single entry point every input source (keyboard,
// serial IRQ) feeds decoded characters through.
func (c *Console) HandleKeyInput(ch rune) {
	c.mut.Lock()
	defer c.mut.Unlock()

	if ch == '\b' && !c.raw.Load() {
		c.popAndErase()
		return
	}

	c.buf = append(c.buf, ch)

	if c.echo.Load() {
		c.echoChar(ch)
	}

	c.notEmpty.Broadcast()
}

// popAndErase removes the last buffered character and, if echoing,
// erases its on-screen representation: one backspace for a printable
// ASCII character, two for a control character printed as "^X".
func (c *Console) popAndErase() {
	if len(c.buf) == 0 {
		return
	}

	popped := c.buf[len(c.buf)-1]
	c.buf = c.buf[:len(c.buf)-1]

	if !c.echo.Load() {
		return
	}

	if isControlEcho(popped) {
		c.write([]byte{0x08, 0x08})
	} else {
		c.write([]byte{0x08})
	}
}

// echoChar prints the visible representation of an input character:
// ETX/EOT/ESC render as caret-notation, everything else verbatim.
func (c *Console) echoChar(ch rune) {
	switch ch {
	case 0x03:
		c.write([]byte("^C"))
	case 0x04:
		c.write([]byte("^D"))
	case 0x1B:
		c.write([]byte("^["))
	default:
		c.write([]byte(string(ch)))
	}
}

func isControlEcho(ch rune) bool {
	switch ch {
	case 0x03, 0x04, 0x1B:
		return true
	default:
		return false
	}
}

func (c *Console) write(b []byte) {
	for _, sink := range c.sinks {
		if _, err := sink.Write(b); err != nil {
			c.log.Error("console: sink write failed", "err", err)
		}
	}
}

// Read implements FileIO. A 4-byte buffer requests read_char semantics
// (block for one character); any other length requests read_line
// semantics (block for a line terminated by '\n'). Blocking stands in
// for the real kernel's "sti; hlt" loop: the calling goroutine parks on
// a condition variable until an input source wakes it.
func (c *Console) Read(buf []byte) (int, error) {
	if len(buf) == 4 {
		return c.readChar(buf)
	}

	return c.readLine(buf)
}

func (c *Console) readChar(buf []byte) (int, error) {
	c.mut.Lock()
	defer c.mut.Unlock()

	for len(c.buf) == 0 {
		c.notEmpty.Wait()
	}

	ch := c.buf[0]
	c.buf = c.buf[1:]
	n := copy(buf, []byte(string(ch)))

	return n, nil
}

func (c *Console) readLine(buf []byte) (int, error) {
	c.mut.Lock()
	defer c.mut.Unlock()

	for !containsNewline(c.buf) {
		c.notEmpty.Wait()
	}

	idx := indexNewline(c.buf)
	line := c.buf[:idx+1]
	c.buf = c.buf[idx+1:]

	n := 0
	for _, ch := range line {
		b := []byte(string(ch))
		if n+len(b) > len(buf) {
			break
		}

		n += copy(buf[n:], b)
	}

	return n, nil
}

func containsNewline(buf []rune) bool { return indexNewline(buf) >= 0 }

func indexNewline(buf []rune) int {
	for i, ch := range buf {
		if ch == '\n' {
			return i
		}
	}

	return -1
}

// Write implements FileIO: bytes go to every configured output sink.
func (c *Console) Write(buf []byte) (int, error) {
	c.mut.Lock()
	defer c.mut.Unlock()

	c.write(buf)

	return len(buf), nil
}
