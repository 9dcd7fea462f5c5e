// Package arch implements platform bring-up: the GDT/TSS, the IDT, and the
// legacy PIC. See spec §4.E-§4.F.
package arch

import "fmt"

// Selector is a segment selector: an index into the GDT plus a requested
// privilege level in its low two bits.
type Selector uint16

// NewSelector builds a selector from a GDT index and requested privilege
// level.
func NewSelector(index uint16, rpl Privilege) Selector {
	return Selector(index<<3) | Selector(rpl)
}

func (s Selector) String() string { return fmt.Sprintf("Selector(%#04x)", uint16(s)) }

// Privilege is a CPU ring: 0 is kernel, 3 is user.
type Privilege uint8

const (
	Ring0 Privilege = 0
	Ring3 Privilege = 3
)

// GDT indices, in the fixed order the spec requires: null, kernel code,
// kernel data, tss, user data, user code.
const (
	nullIndex uint16 = iota
	kernelCodeIndex
	kernelDataIndex
	tssIndex
	userDataIndex
	userCodeIndex
	numDescriptors
)

// Descriptor is a single GDT entry. Real segment descriptors carry base,
// limit, and access-byte fields; in 64-bit long mode nearly all of that is
// ignored by the CPU except the type/privilege/present bits, so the
// simulation keeps only what callers can observe: whether the segment is
// code or data, its ring, and (for the TSS) the linked structure.
type Descriptor struct {
	Code      bool
	Privilege Privilege
	name      string
}

// GDT is the global descriptor table: kernel & user code/data segments plus
// a TSS descriptor.
type GDT struct {
	descriptors [numDescriptors]Descriptor
	tss         *TSS
	loaded      bool
}

// NewGDT builds the GDT with its five fixed user-visible entries and
// installs the given TSS.
func NewGDT(tss *TSS) *GDT {
	g := &GDT{tss: tss}

	g.descriptors[nullIndex] = Descriptor{name: "null"}
	g.descriptors[kernelCodeIndex] = Descriptor{Code: true, Privilege: Ring0, name: "kernel_code"}
	g.descriptors[kernelDataIndex] = Descriptor{Code: false, Privilege: Ring0, name: "kernel_data"}
	g.descriptors[tssIndex] = Descriptor{name: "tss"}
	g.descriptors[userDataIndex] = Descriptor{Code: false, Privilege: Ring3, name: "user_data"}
	g.descriptors[userCodeIndex] = Descriptor{Code: true, Privilege: Ring3, name: "user_code"}

	return g
}

// Selectors used throughout the kernel and by the syscall trampoline.
func (g *GDT) KernelCode() Selector { return NewSelector(kernelCodeIndex, Ring0) }
func (g *GDT) KernelData() Selector { return NewSelector(kernelDataIndex, Ring0) }
func (g *GDT) TSSSelector() Selector { return NewSelector(tssIndex, Ring0) }
func (g *GDT) UserData() Selector   { return NewSelector(userDataIndex, Ring3) }
func (g *GDT) UserCode() Selector   { return NewSelector(userCodeIndex, Ring3) }

// Load "loads" the GDT: reloads CS, DS, ES, SS, FS to the kernel selectors,
// sets GS to the null selector at ring 0, and loads the TSS selector. There
// is no real hardware underneath this simulation; Load records that the
// sequence ran so tests can assert on it, matching how the teacher's
// simulated CPU exposes state for assertions rather than executing real
// privileged instructions.
func (g *GDT) Load() {
	g.loaded = true
}

// Loaded reports whether Load has run.
func (g *GDT) Loaded() bool { return g.loaded }

func (g *GDT) String() string {
	return fmt.Sprintf("GDT(kernel_code=%s kernel_data=%s tss=%s user_data=%s user_code=%s)",
		g.KernelCode(), g.KernelData(), g.TSSSelector(), g.UserData(), g.UserCode())
}
