package proc

// table.go is the process table: a fixed-size arena of processes keyed by
// PID, protected by a reader-writer lock, plus spawn/fork/exec/exit. See
// spec §4.L and the design note on self-referential process/thread: a
// thread never holds an owning back-pointer to its process, only a PID
// index into this table.

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prestige-os/prestige/internal/arch"
	"github.com/prestige-os/prestige/internal/log"
	"github.com/prestige-os/prestige/internal/mem"
	"github.com/prestige-os/prestige/internal/res"
)

// CodeAddrBase is the virtual address the first process's code is placed
// at; CODE_ADDR advances by MaxProcSize for every subsequent spawn.
const CodeAddrBase uintptr = 0x0000_5000_0000_0000

var (
	ErrNoSuchProcess = errors.New("proc: no such process")
	ErrTableFull     = errors.New("proc: process table full")
)

// MaxProcesses bounds the table the same way the handle table and thread
// slots are fixed-size, per the design note favoring flat, inspectable
// arenas over dynamically growing ones.
const MaxProcesses = 4096

// Table is the process/thread table.
type Table struct {
	mut  sync.RWMutex
	byPID map[PID]*Process
	nextPID atomic.Int32

	codeAddr atomic.Uint64

	console res.FileIO
	gdt     *arch.GDT
	mapper  *mem.Mapper
	alloc   *mem.FrameAllocator

	currentPID atomic.Int32

	log *log.Logger
}

// NewTable creates an empty process table.
func NewTable(console res.FileIO, gdt *arch.GDT, mapper *mem.Mapper, alloc *mem.FrameAllocator) *Table {
	t := &Table{
		byPID:   make(map[PID]*Process),
		console: console,
		gdt:     gdt,
		mapper:  mapper,
		alloc:   alloc,
		log:     log.Component(log.DefaultLogger(), "proc"),
	}

	t.codeAddr.Store(uint64(CodeAddrBase))
	t.currentPID.Store(int32(NoPID))

	return t
}

// Spawn reserves MaxProcSize of virtual space at the current CODE_ADDR,
// advances CODE_ADDR atomically, copies bin to the base, and records
// code_addr/stack_addr/entry_point_addr. Handles 0-3 are pre-populated.
func (t *Table) Spawn(bin []byte, entry uintptr) (*Process, error) {
	t.mut.Lock()
	defer t.mut.Unlock()

	if len(t.byPID) >= MaxProcesses {
		return nil, ErrTableFull
	}

	pid := PID(t.nextPID.Add(1) - 1)
	codeAddr := uintptr(t.codeAddr.Add(MaxProcSize) - MaxProcSize)

	if err := t.mapper.Alloc(t.alloc, codeAddr, uintptr(len(bin))); err != nil {
		return nil, fmt.Errorf("proc: spawn: %w", err)
	}

	p := newBlankProcess(pid)
	p.populateStandardHandles(t.console)
	p.CodeAddr = codeAddr
	p.CodeSize = uintptr(len(bin))
	p.Mem = make([]byte, MemWindow)
	copy(p.Mem, bin)
	p.StackAddr = codeAddr + MaxProcSize
	p.EntryPointAddr = codeAddr + entry

	t.byPID[pid] = p

	t.log.Debug("proc: spawned", "pid", pid, "code_addr", fmt.Sprintf("%#x", codeAddr))

	return p, nil
}

// Exec maps one page at mid-space for the initial heap and constructs the
// ring-3 IRET frame: ss=user_data|3, rsp=stack_addr, rflags=IF,
// cs=user_code|3, rip=entry_point_addr; args are passed in rdi/rsi.
func (t *Table) Exec(pid PID, argsPtr, argsLen uintptr) (IRETSnapshot, error) {
	t.mut.Lock()
	defer t.mut.Unlock()

	p, ok := t.byPID[pid]
	if !ok {
		return IRETSnapshot{}, ErrNoSuchProcess
	}

	heapAddr := p.CodeAddr + MaxProcSize/2
	if err := t.mapper.Alloc(t.alloc, heapAddr, mem.FrameSize); err != nil {
		return IRETSnapshot{}, fmt.Errorf("proc: exec: %w", err)
	}

	p.HeapAddr, p.HeapSize = heapAddr, mem.FrameSize

	const rflagsIF = 0x200

	p.IRET = IRETSnapshot{
		RIP:    p.EntryPointAddr,
		CS:     t.gdt.UserCode(),
		RFlags: rflagsIF,
		RSP:    p.StackAddr,
		SS:     t.gdt.UserData(),
	}
	p.Regs.RDI = uint64(argsPtr)
	p.Regs.RSI = uint64(argsLen)

	return p.IRET, nil
}

// Fork clones the process struct, issues a new PID, clears children, sets
// parent to self, and inserts the child's PID into self's children.
func (t *Table) Fork(pid PID) (*Process, error) {
	t.mut.Lock()
	defer t.mut.Unlock()

	parent, ok := t.byPID[pid]
	if !ok {
		return nil, ErrNoSuchProcess
	}

	childPID := PID(t.nextPID.Add(1) - 1)
	child := newBlankProcess(childPID)

	child.UID, child.GID = parent.UID, parent.GID
	child.Privilege = parent.Privilege
	for k, v := range parent.Env {
		child.Env[k] = v
	}

	child.Handles = parent.Handles // Resources are shared, not re-opened, by this core's fork.
	child.Mem = parent.Mem         // Address space is shared, not copied, by this core's fork.
	child.CodeAddr = parent.CodeAddr
	child.CodeSize = parent.CodeSize
	child.StackAddr = parent.StackAddr
	child.EntryPointAddr = parent.EntryPointAddr
	child.HeapAddr = parent.HeapAddr
	child.HeapSize = parent.HeapSize
	child.IRET = parent.IRET
	child.Regs = parent.Regs

	child.Parent = pid
	parent.Children[childPID] = struct{}{}

	t.byPID[childPID] = child

	t.log.Debug("proc: forked", "parent", pid, "child", childPID)

	return child, nil
}

// ThreadSpawn issues a new TID for pid's process and records it in the
// first free thread slot.
func (t *Table) ThreadSpawn(pid PID) (TID, error) {
	t.mut.Lock()
	defer t.mut.Unlock()

	p, ok := t.byPID[pid]
	if !ok {
		return NoTID, ErrNoSuchProcess
	}

	for i := range p.Threads {
		if p.Threads[i] == NoTID {
			tid := p.nextTID
			p.nextTID++
			p.Threads[i] = tid

			return tid, nil
		}
	}

	return NoTID, fmt.Errorf("proc: thread table full for pid %d", pid)
}

// Exit frees the process's code range via the paging mapper and removes
// it from the table. code is mapped to an ExitCode by the caller.
func (t *Table) Exit(pid PID) error {
	t.mut.Lock()
	defer t.mut.Unlock()

	p, ok := t.byPID[pid]
	if !ok {
		return ErrNoSuchProcess
	}

	if p.CodeSize > 0 {
		t.mapper.Free(p.CodeAddr, p.CodeSize)
	}
	if p.HeapSize > 0 {
		t.mapper.Free(p.HeapAddr, p.HeapSize)
	}
	delete(t.byPID, pid) // Stack is never backed by real frames in this simulation.

	if p.Parent != NoPID {
		if parent, ok := t.byPID[p.Parent]; ok {
			delete(parent.Children, pid)
		}
	}

	t.log.Debug("proc: exited", "pid", pid)

	return nil
}

// Get returns a copy of the process for pid so callers don't hold the
// table lock across arbitrary work, per the design note on PROCESSES.
func (t *Table) Get(pid PID) (Process, error) {
	t.mut.RLock()
	defer t.mut.RUnlock()

	p, ok := t.byPID[pid]
	if !ok {
		return Process{}, ErrNoSuchProcess
	}

	return *p, nil
}

// WithProcess runs fn with exclusive access to the live process for pid,
// for callers (like the dispatcher) that must mutate handle state.
func (t *Table) WithProcess(pid PID, fn func(p *Process) error) error {
	t.mut.Lock()
	defer t.mut.Unlock()

	p, ok := t.byPID[pid]
	if !ok {
		return ErrNoSuchProcess
	}

	return fn(p)
}

// SetCurrent records which PID is presently scheduled on the CPU. This
// core has no preemptive scheduler; it only ever runs the one process that
// was most recently exec'd or resumed.
func (t *Table) SetCurrent(pid PID) { t.currentPID.Store(int32(pid)) }

// Current returns the currently scheduled PID.
func (t *Table) Current() PID { return PID(t.currentPID.Load()) }
