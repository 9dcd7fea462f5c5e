// Package mem implements the physical frame allocator and the offset page
// table mapper that back the kernel's virtual address space.
package mem

// frame.go is the frame allocator: a bump allocator over the boot memory
// map's usable regions. See spec §4.G.

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/prestige-os/prestige/internal/boot"
	"github.com/prestige-os/prestige/internal/log"
)

// Frame is the physical address of a 4 KiB page frame.
type Frame uintptr

func (f Frame) String() string { return fmt.Sprintf("Frame(%#x)", uintptr(f)) }

// ErrExhausted is returned when the usable region of the memory map has
// been consumed.
var ErrExhausted = errors.New("mem: frame allocator exhausted")

// FrameAllocator hands out physical frames from the usable regions of the
// boot memory map. Allocation is monotonic: a counter is bumped for every
// call and the Nth usable frame is returned. Frames are never returned to
// the pool; deallocate is a documented no-op.
type FrameAllocator struct {
	mmap    boot.MemoryMap
	counter atomic.Uint64

	log *log.Logger
}

// NewFrameAllocator creates an allocator over the given memory map.
func NewFrameAllocator(mmap boot.MemoryMap) *FrameAllocator {
	return &FrameAllocator{
		mmap: mmap,
		log:  log.Component(log.DefaultLogger(), "frame"),
	}
}

// Allocate returns the next unused physical frame. Single-CPU ordering is
// sufficient for the counter: allocation paths run with interrupts
// disabled, so a relaxed atomic increment cannot race with itself.
func (fa *FrameAllocator) Allocate() (Frame, error) {
	n := fa.counter.Add(1) - 1

	var (
		i     uint64
		found Frame
		ok    bool
	)

	fa.mmap.UsableFrames(func(addr uintptr) bool {
		if i == n {
			found, ok = Frame(addr), true
			return false
		}

		i++

		return true
	})

	if !ok {
		fa.log.Error("frame allocator exhausted", "requested", n)
		return 0, ErrExhausted
	}

	return found, nil
}

// Deallocate is a deliberate no-op: this core has no reclamation. It is
// still required to be idempotent and must not corrupt allocator state.
func (fa *FrameAllocator) Deallocate(Frame) {}

// Allocated reports how many frames have been handed out so far.
func (fa *FrameAllocator) Allocated() uint64 {
	return fa.counter.Load()
}
