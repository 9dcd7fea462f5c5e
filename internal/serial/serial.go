// Package serial implements the 16550 UART on the legacy COM1 port
// (0x3F8): byte-level I/O, 8-N-1 line configuration, and the IRQ 4
// receive path that feeds the console line discipline. See spec §4.A.
package serial

import (
	"sync"

	"github.com/prestige-os/prestige/internal/log"
	"github.com/prestige-os/prestige/internal/vt"
)

// Port is the I/O base address this driver answers to.
const Port = 0x3F8

// LineDiscipline is the subset of the console's line discipline the UART
// feeds received bytes to.
type LineDiscipline interface {
	HandleKeyInput(c rune)
}

// UART models the 16550 at 0x3F8. Writes pass through a CSI/SGR parser
// the same way VGA output does, per spec §4.A, but the UART sink only
// acts on DECSET/DECRST 12 (echo); every other CSI is ignored.
type UART struct {
	mut   sync.Mutex
	rxBuf []byte

	parser *vt.Parser
	out    func(b byte)

	console LineDiscipline

	echoToggle func(bool) // forwards DECSET/DECRST 12 to the console line discipline.

	log *log.Logger
}

// New creates a UART. out is called for each raw byte written to the
// port after CSI/SGR bytes have been stripped by the parser -- the
// simulated equivalent of actually driving TXD. console receives
// translated received bytes.
func New(out func(b byte), console LineDiscipline) *UART {
	return &UART{
		parser:  vt.NewParser(),
		out:     out,
		console: console,
		log:     log.Component(log.DefaultLogger(), "serial"),
	}
}

// SetEchoToggle registers the callback CSI invokes when the peer toggles
// input echo via DECSET/DECRST 12, the same role vga.Console.echoToggle
// plays for the VGA sink.
func (u *UART) SetEchoToggle(fn func(bool)) {
	u.echoToggle = fn
}

// Init programs the line for 8-N-1 at the hardware default divisor. There
// is no real hardware underneath the simulation; Init exists so the boot
// sequence and its tests have something to call and observe.
func (u *UART) Init() {
	u.log.Debug("serial: initialized 8-N-1")
}

// ReadByte polls the receive buffer, returning the next byte and true, or
// (0, false) if nothing has arrived.
func (u *UART) ReadByte() (byte, bool) {
	u.mut.Lock()
	defer u.mut.Unlock()

	if len(u.rxBuf) == 0 {
		return 0, false
	}

	b := u.rxBuf[0]
	u.rxBuf = u.rxBuf[1:]

	return b, true
}

// WriteByte polls the (simulated, always-ready) transmit buffer and sends
// b through the VT parser.
func (u *UART) WriteByte(b byte) {
	u.parser.Put(b, u)
}

// Write implements console.Sink, so the UART can be registered as an
// output sink alongside the VGA console: each byte passes through the
// same CSI/SGR parser WriteByte uses.
func (u *UART) Write(buf []byte) (int, error) {
	for _, b := range buf {
		u.WriteByte(b)
	}

	return len(buf), nil
}

// Byte implements vt.Sink: a plain transmitted byte reaches the wire.
func (u *UART) Byte(b byte) {
	if u.out != nil {
		u.out(b)
	}
}

// CSI implements vt.Sink. Only "h"/"l" with parameter 12 (DECSET/DECRST
// echo) are meaningful on serial; every other sequence is ignored, per
// spec §4.A.
func (u *UART) CSI(final byte, params []int) {
	if final != 'h' && final != 'l' {
		return
	}

	for _, p := range params {
		if p != 12 {
			continue
		}

		u.log.Debug("serial: echo toggle", "on", final == 'h')

		if u.echoToggle != nil {
			u.echoToggle(final == 'h')
		}
	}
}

// Receive is the IRQ 4 handler body: it translates the incoming byte
// (\r -> \n, 0x7F -> 0x08) and feeds the console line discipline.
func (u *UART) Receive(b byte) {
	switch b {
	case '\r':
		b = '\n'
	case 0x7F:
		b = 0x08
	}

	u.mut.Lock()
	u.rxBuf = append(u.rxBuf, b)
	u.mut.Unlock()

	if u.console != nil {
		u.console.HandleKeyInput(rune(b))
	}
}
