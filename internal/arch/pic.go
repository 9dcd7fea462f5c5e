package arch

// pic.go remaps the legacy 8259 PIC pair and implements the EOI protocol.
// See spec §4.F.

import "github.com/prestige-os/prestige/internal/log"

// PIC ports. Master command/data are 0x20/0x21; slave is 0xA0/0xA1.
const (
	MasterCommandPort = 0x20
	MasterDataPort    = 0x21
	SlaveCommandPort  = 0xA0
	SlaveDataPort     = 0xA1

	eoiCommand = 0x20
)

// PIC models the master/slave 8259 pair after remap: IRQ 0-7 deliver at
// vectors 0x20-0x27, IRQ 8-15 at 0x28-0x2F.
type PIC struct {
	masterOffset uint8
	slaveOffset  uint8
	masterMask   uint8
	slaveMask    uint8

	log *log.Logger
}

// NewPIC creates a PIC with zero vector offsets; call Remap to set them.
func NewPIC() *PIC {
	return &PIC{log: log.Component(log.DefaultLogger(), "pic")}
}

// Remap reprograms both controllers so IRQs land outside the CPU exception
// range, matching spec.md §4.F: master -> 0x20, slave -> 0x28.
func (p *PIC) Remap(masterOffset, slaveOffset uint8) {
	p.masterOffset = masterOffset
	p.slaveOffset = slaveOffset
	p.masterMask = 0x00
	p.slaveMask = 0x00

	p.log.Debug("pic: remapped", "master", masterOffset, "slave", slaveOffset)
}

// Initialize enables interrupt delivery after Remap. It stands in for the
// `sti` that follows `PICS.initialize()` in the spec's boot sequence.
func (p *PIC) Initialize() {
	p.log.Debug("pic: initialized")
}

// VectorForIRQ returns the vector an IRQ line is delivered at after remap.
func (p *PIC) VectorForIRQ(irq uint8) uint8 {
	if irq < 8 {
		return p.masterOffset + irq
	}

	return p.slaveOffset + (irq - 8)
}

// SendEOI acknowledges an interrupt. It must be called strictly after the
// handler body completes its device-observing work: EOI before that point
// could let the PIC raise the same IRQ again mid-handler, and this core
// does not permit reentrant handler bodies.
func (p *PIC) SendEOI(irq uint8) {
	if irq >= 8 {
		p.log.Debug("pic: eoi (slave)", "irq", irq)
	}

	p.log.Debug("pic: eoi (master)", "irq", irq)
}

// SendEOIVector acknowledges the software-interrupt (syscall) gate. The
// 8259 has no line for vector 0x80, but the syscall trampoline's spec'd
// step sequence calls for an EOI after dispatch regardless; this records
// that step happened without implying a real IRQ line was involved.
func (p *PIC) SendEOIVector(vector uint8) {
	p.log.Debug("pic: eoi (syscall)", "vector", vector)
}
