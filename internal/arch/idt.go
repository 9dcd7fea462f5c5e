package arch

// idt.go wires CPU exceptions and external IRQs. See spec §4.F.

import (
	"fmt"

	"github.com/prestige-os/prestige/internal/log"
)

// Fixed exception vectors (native 0x00-0x1F).
const (
	VecDivideByZero        uint8 = 0x00
	VecBreakpoint          uint8 = 0x03
	VecGeneralProtection   uint8 = 0x0D
	VecPageFault           uint8 = 0x0E
	VecDoubleFault         uint8 = 0x08
	VecStackSegment        uint8 = 0x0C
	VecSegmentNotPresent   uint8 = 0x0B
)

// IRQ vectors after the PIC remap to 0x20/0x28.
const (
	PICOffset1 uint8 = 0x20
	PICOffset2 uint8 = 0x28

	VecIRQTimer    uint8 = PICOffset1 + 0
	VecIRQKeyboard uint8 = PICOffset1 + 1
	VecIRQSerial   uint8 = PICOffset1 + 4
)

// VecSyscall is the software-interrupt vector for int 0x80, installed with
// DPL=3 so ring-3 code may invoke it directly.
const VecSyscall uint8 = 0x80

// Handler processes one exception/interrupt/syscall frame. It returns an
// error only to signal the gate loop that the fault is fatal; recoverable
// conditions (breakpoint, timer, keyboard, serial) return nil having
// already done their work.
type Handler func(frame *Frame) error

// Gate is one IDT entry: a handler and its descriptor privilege level.
type Gate struct {
	Handler Handler
	DPL     Privilege
	present bool
}

// IDT is the interrupt descriptor table: 256 gates, indexed by vector.
type IDT struct {
	gates [256]Gate
	log   *log.Logger
}

// NewIDT creates an empty IDT.
func NewIDT() *IDT {
	return &IDT{log: log.Component(log.DefaultLogger(), "idt")}
}

// Install registers a handler for a vector at the given privilege level.
// DPL=3 is required for vectors user code may invoke directly (the
// syscall gate); every other gate in this kernel is DPL=0.
func (t *IDT) Install(vector uint8, dpl Privilege, h Handler) {
	t.gates[vector] = Gate{Handler: h, DPL: dpl, present: true}
	t.log.Debug("idt: installed gate", "vector", fmt.Sprintf("%#02x", vector), "dpl", dpl)
}

// Dispatch looks up and invokes the handler for a frame's vector. Handlers
// run with interrupts conceptually disabled -- this core never reenters a
// handler body -- so Dispatch itself does not guard against concurrent
// calls; callers must serialize interrupt delivery.
func (t *IDT) Dispatch(frame *Frame) error {
	gate := t.gates[frame.Vector]
	if !gate.present {
		return fmt.Errorf("idt: unhandled vector %#02x", frame.Vector)
	}

	if frame.IRET.CS&0x3 == uint64(Ring3) && gate.DPL != Ring3 {
		return fmt.Errorf("idt: vector %#02x not permitted from ring 3", frame.Vector)
	}

	return gate.Handler(frame)
}
