package mem

// heap.go installs the kernel's heap window. See spec §4.I.
//
// A real implementation hands the mapped virtual range to a linked-list
// allocator (as the teacher's target kernel does) and lets normal Go-style
// allocation run over it. We have no equivalent of "the kernel's own
// malloc" to exercise in a hosted Go binary -- the Go runtime already owns
// allocation -- so this package only models the part that *is* kernel
// policy: which range gets mapped, and with what frames. That mapped range
// is what a bump/linked-list allocator would be initialized over.

const (
	// HeapStart is the stub kernel heap window's base address.
	HeapStart uintptr = 0x4444_4444_0000

	// HeapSize is the stub kernel heap window's size. The spec notes this
	// is a stub size that a complete implementation should parameterize.
	HeapSize uintptr = 100 * 1024
)

// Heap represents the installed kernel heap window: the virtual range that
// has been mapped and handed off as backing storage for allocation.
type Heap struct {
	Start uintptr
	Size  uintptr
}

// InstallHeap maps every page in [HeapStart, HeapStart+HeapSize) using the
// frame allocator and returns the installed window.
func InstallHeap(m *Mapper, fa *FrameAllocator) (*Heap, error) {
	if err := m.Alloc(fa, HeapStart, HeapSize); err != nil {
		return nil, err
	}

	return &Heap{Start: HeapStart, Size: HeapSize}, nil
}
