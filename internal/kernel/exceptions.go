package kernel

// exceptions.go wires the IDT gates for CPU exceptions and the external
// IRQs the PIC demultiplexes, per spec §4.F.

import (
	"fmt"

	"github.com/prestige-os/prestige/internal/arch"
)

func (k *Kernel) installExceptionHandlers() {
	for _, vector := range []uint8{
		arch.VecBreakpoint, arch.VecDivideByZero,
		arch.VecDoubleFault, arch.VecPageFault,
		arch.VecGeneralProtection, arch.VecStackSegment, arch.VecSegmentNotPresent,
	} {
		v := vector
		k.IDT.Install(v, arch.Ring0, func(frame *arch.Frame) error {
			return k.handleException(v, frame)
		})
	}

	k.IDT.Install(arch.VecIRQTimer, arch.Ring0, k.handleTimer)
	k.IDT.Install(arch.VecIRQKeyboard, arch.Ring0, k.handleKeyboardIRQ)
	k.IDT.Install(arch.VecIRQSerial, arch.Ring0, k.handleSerialIRQ)
}

// handleException implements the print-then-{return,halt} split of
// spec §4.F and §7: breakpoint and divide-by-zero are recoverable,
// everything else in this set is fatal.
func (k *Kernel) handleException(vector uint8, frame *arch.Frame) error {
	if arch.Recoverable(vector) {
		k.log.Info("exception: recoverable", "vector", fmt.Sprintf("%#02x", vector))
		return nil
	}

	reason := fmt.Sprintf("unhandled exception %#02x", vector)
	if vector == arch.VecPageFault {
		reason = fmt.Sprintf("page fault at %#x", frame.CR2)
	}

	k.Panic(reason, frame)

	return fmt.Errorf("kernel: fatal exception %#02x", vector)
}

// handleTimer is IRQ 0: this core has no scheduler, so the handler's
// only job is the EOI.
func (k *Kernel) handleTimer(*arch.Frame) error {
	k.PIC.SendEOI(0)
	return nil
}

// handleKeyboardIRQ is IRQ 1: decode one scancode from port 0x60 and feed
// it to the keyboard decoder, then EOI. The EOI is sent only after the
// decode completes, per the ordering rule of spec §5.
func (k *Kernel) handleKeyboardIRQ(frame *arch.Frame) error {
	scancode := byte(frame.Regs.RAX)
	k.Keyboard.Decode(scancode)
	k.PIC.SendEOI(1)

	return nil
}

// handleSerialIRQ is IRQ 4: one byte arrives from COM1 and is fed through
// the UART's receive path, then EOI.
func (k *Kernel) handleSerialIRQ(frame *arch.Frame) error {
	b := byte(frame.Regs.RAX)
	k.Serial.Receive(b)
	k.PIC.SendEOI(4)

	return nil
}
