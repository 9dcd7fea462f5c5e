// Package proc implements the process/thread table: per-process resource
// tables, fork/exec/exit, and the saved register/stack-frame snapshot used
// to resume ring-3 execution. See spec §4.L.
package proc

import (
	"fmt"

	"github.com/prestige-os/prestige/internal/arch"
	"github.com/prestige-os/prestige/internal/res"
)

// PID identifies a process. TID identifies a thread within one process.
type PID int32
type TID int32

// NoPID/NoTID are sentinel values for "no parent" / "empty slot".
const (
	NoPID PID = -1
	NoTID TID = -1
)

// NumHandles is the size of the per-process resource handle table.
const NumHandles = 64

// Pre-populated handle indices.
const (
	HandleStdin  = 0
	HandleStdout = 1
	HandleStderr = 2
	HandleNull   = 3
	firstFreeHandle = 4
)

// NumThreadSlots is the number of thread slots a process carries.
const NumThreadSlots = 100

// MaxProcSize is the virtual address span reserved per process: 4 TiB.
const MaxProcSize = 4 << 40

// Privilege is the 45-bit privilege bitmask: 15 bits each for
// everyone/group/owner, each 15 split across
// {read,write,exec}x{file,dir,block,link,socket}.
type Privilege uint64

// Process is one process in the table.
type Process struct {
	PID      PID
	Parent   PID // NoPID if this is the root process.
	Children map[PID]struct{}

	UID, GID  uint32
	Privilege Privilege
	Env       map[string]string

	Threads [NumThreadSlots]TID
	nextTID TID

	Handles [NumHandles]*res.Resource

	CodeAddr       uintptr
	CodeSize       uintptr
	StackAddr      uintptr
	EntryPointAddr uintptr
	HeapAddr       uintptr
	HeapSize       uintptr

	// Saved execution context, restored on scheduling back to ring 3.
	IRET IRETSnapshot
	Regs arch.SavedRegisters

	// Mem is this process's simulated user-address-space window, backing
	// every byte a syscall argument can address. A real kernel walks page
	// tables to find the physical backing for a user pointer; this
	// simulation has no modeled byte-addressable physical RAM behind the
	// frame allocator, so Mem stands in for "everything mapped at
	// [CodeAddr, CodeAddr+len(Mem))" directly.
	Mem []byte
}

// MemWindow is the size of a process's simulated user-address-space
// window.
const MemWindow = 1 << 20

// Translate maps a user virtual address to an offset into Mem, per
// ptr_from_addr: addresses below CodeAddr are relative and are rebased
// onto it; addresses at or above CodeAddr are already absolute. ok is
// false if the resulting offset falls outside Mem.
func (p *Process) Translate(addr uintptr) (offset int, ok bool) {
	if addr < p.CodeAddr {
		addr = p.CodeAddr + addr
	}

	off := addr - p.CodeAddr
	if off >= uintptr(len(p.Mem)) {
		return 0, false
	}

	return int(off), true
}

// IRETSnapshot is the saved interrupt-stack-frame fields the spec lists by
// name: rip, cs, rflags, rsp, ss.
type IRETSnapshot struct {
	RIP    uintptr
	CS     arch.Selector
	RFlags uint64
	RSP    uintptr
	SS     arch.Selector
}

func (p *Process) String() string {
	return fmt.Sprintf("Process{pid=%d parent=%d children=%d}", p.PID, p.Parent, len(p.Children))
}

// newBlankProcess allocates a Process with its handle table ready to
// receive the pre-populated slots 0-3.
func newBlankProcess(pid PID) *Process {
	return &Process{
		PID:      pid,
		Parent:   NoPID,
		Children: make(map[PID]struct{}),
		Env:      make(map[string]string),
	}
}

// populateStandardHandles installs stdin/stdout/stderr (Console) and the
// null device at slots 0-3, per spec §3.
func (p *Process) populateStandardHandles(console res.FileIO) {
	stdin := res.NewDeviceResource(res.NewConsoleDevice(console))
	stdout := res.NewDeviceResource(res.NewConsoleDevice(console))
	stderr := res.NewDeviceResource(res.NewConsoleDevice(console))
	null := res.NewDeviceResource(res.NewNullDevice())

	p.Handles[HandleStdin] = &stdin
	p.Handles[HandleStdout] = &stdout
	p.Handles[HandleStderr] = &stderr
	p.Handles[HandleNull] = &null

	for i := range p.Threads {
		p.Threads[i] = NoTID
	}
}
