package syscall

// dispatch.go implements the dispatcher's services: the per-ID behavior
// table of spec §4.K, including the pointer-translation rule of §4.J
// ("every user-supplied address is passed through
// current_process.ptr_from_addr(a)").

import (
	"encoding/binary"

	"github.com/prestige-os/prestige/internal/arch"
	"github.com/prestige-os/prestige/internal/log"
	"github.com/prestige-os/prestige/internal/mem"
	"github.com/prestige-os/prestige/internal/proc"
	"github.com/prestige-os/prestige/internal/res"
)

// Rebooter performs the reboot service's observable effect: the
// simulation's stand-in for "write zero into CR3 and let the CPU triple
// fault". See the expanded spec's supplemented-features section.
type Rebooter interface {
	Reboot()
}

// Dispatcher decodes (id, args) from a syscall frame and performs the
// requested service against the process table, the filesystem stub, and
// the paging mapper.
type Dispatcher struct {
	table  *proc.Table
	fs     *res.FS
	mapper *mem.Mapper
	reboot Rebooter

	log *log.Logger
}

// NewDispatcher creates a dispatcher wired to the kernel's shared
// singletons.
func NewDispatcher(table *proc.Table, fs *res.FS, mapper *mem.Mapper, reboot Rebooter) *Dispatcher {
	return &Dispatcher{
		table:  table,
		fs:     fs,
		mapper: mapper,
		reboot: reboot,
		log:    log.Component(log.DefaultLogger(), "syscall"),
	}
}

// errNoReturn is the sentinel returned (and ignored) by syscalls the spec
// marks as not returning to the caller (EXIT, EXIT_GROUP).
const errNoReturn = 0

// Dispatch implements the Dispatch signature: decode id/args from frame
// and perform the matching service for the currently scheduled process.
func (d *Dispatcher) Dispatch(frame *arch.Frame) int64 {
	pid := d.table.Current()

	id := ID(frame.Regs.RAX)
	arg0 := frame.Regs.RDI
	arg1 := frame.Regs.RSI
	arg2 := frame.Regs.RDX
	arg3 := frame.Regs.R8

	switch id {
	case Read:
		return d.read(pid, int(arg0), uintptr(arg1), int(arg2))
	case Write:
		return d.write(pid, int(arg0), uintptr(arg1), int(arg2))
	case Open:
		return d.open(pid, uintptr(arg0), int(arg1), res.OpenFlag(arg2))
	case Close:
		return d.close(pid, int(arg0))
	case Dup:
		return d.dup(pid, int(arg0), int(arg1))
	case Seek:
		return d.seek(pid, int(arg0), int64(arg1), int(arg2))
	case ProcSpawn:
		return d.procSpawn(pid, uintptr(arg0), int(arg1), uintptr(arg2), uintptr(arg3))
	case ThreadSpawn:
		return d.threadSpawn(pid)
	case ProcFork:
		return d.procFork(pid)
	case ThreadClone:
		return d.threadSpawn(pid) // Threads share the address space; clone == spawn in this core.
	case ProcKill:
		return d.procKill(int(arg0))
	case ThreadKill:
		return d.threadKill(pid, int(arg0))
	case Exit:
		d.exit(pid, int64(arg0))
		return errNoReturn
	case ExitGroup:
		d.exit(pid, int64(arg0))
		return errNoReturn
	case Reboot:
		return d.rebootService()
	case Info:
		return d.info(pid, uintptr(arg0))
	default:
		d.log.Error("syscall: unknown id", "id", uint64(id))
		return -1
	}
}

// translate resolves a user pointer/length pair into a byte slice of the
// process's simulated memory window, applying ptr_from_addr.
func translate(p *proc.Process, addr uintptr, length int) ([]byte, bool) {
	off, ok := p.Translate(addr)
	if !ok || length < 0 || off+length > len(p.Mem) {
		return nil, false
	}

	return p.Mem[off : off+length], true
}

func (d *Dispatcher) read(pid proc.PID, handle int, userptr uintptr, length int) int64 {
	p, err := d.table.Get(pid)
	if err != nil {
		return -1
	}

	resource, err := p.Handle(handle)
	if err != nil {
		return -1
	}

	buf, ok := translate(&p, userptr, length)
	if !ok {
		return -1
	}

	n, err := resource.Read(buf)
	if err != nil {
		d.log.Error("syscall: read failed", "pid", pid, "handle", handle, "err", err)
		return -1
	}

	return int64(n)
}

func (d *Dispatcher) write(pid proc.PID, handle int, userptr uintptr, length int) int64 {
	p, err := d.table.Get(pid)
	if err != nil {
		return -1
	}

	resource, err := p.Handle(handle)
	if err != nil {
		return -1
	}

	buf, ok := translate(&p, userptr, length)
	if !ok {
		return -1
	}

	n, err := resource.Write(buf)
	if err != nil {
		d.log.Error("syscall: write failed", "pid", pid, "handle", handle, "err", err)
		return -1
	}

	return int64(n)
}

func (d *Dispatcher) open(pid proc.PID, pathptr uintptr, pathlen int, flags res.OpenFlag) int64 {
	p, err := d.table.Get(pid)
	if err != nil {
		return -1
	}

	raw, ok := translate(&p, pathptr, pathlen)
	if !ok {
		return -1
	}

	resource, ok := d.fs.Open(string(raw), flags)
	if !ok {
		return -1
	}

	var handle int

	err = d.table.WithProcess(pid, func(live *proc.Process) error {
		var herr error
		handle, herr = live.CreateHandle(*resource)
		return herr
	})
	if err != nil {
		d.log.Error("syscall: open: handle table full", "pid", pid, "err", err)
		return -1
	}

	return int64(handle)
}

func (d *Dispatcher) close(pid proc.PID, handle int) int64 {
	err := d.table.WithProcess(pid, func(live *proc.Process) error {
		return live.Close(handle)
	})
	if err != nil {
		return -1
	}

	return 0
}

func (d *Dispatcher) dup(pid proc.PID, old, newHandle int) int64 {
	var result int

	err := d.table.WithProcess(pid, func(live *proc.Process) error {
		var derr error
		result, derr = live.Dup(old, newHandle)
		return derr
	})
	if err != nil {
		return -1
	}

	return int64(result)
}

// seek is not implemented by this core's Resource variants (none track a
// stream cursor); it returns -1 (ENOSYS-style) rather than trapping, per
// the design notes on unfinished paths.
func (d *Dispatcher) seek(proc.PID, int, int64, int) int64 {
	return -1
}

func (d *Dispatcher) procSpawn(pid proc.PID, binptr uintptr, binlen int, argsptr, argslen uintptr) int64 {
	p, err := d.table.Get(pid)
	if err != nil {
		return -1
	}

	bin, ok := translate(&p, binptr, binlen)
	if !ok {
		return -1
	}

	child, err := d.table.Spawn(bin, 0)
	if err != nil {
		d.log.Error("syscall: proc_spawn failed", "err", err)
		return -1
	}

	if _, err := d.table.Exec(child.PID, argsptr, argslen); err != nil {
		d.log.Error("syscall: proc_spawn: exec failed", "err", err)
		return -1
	}

	return int64(child.PID)
}

func (d *Dispatcher) threadSpawn(pid proc.PID) int64 {
	tid, err := d.table.ThreadSpawn(pid)
	if err != nil {
		return -1
	}

	return int64(tid)
}

// procFork performs the fork service. The return value here is what the
// parent observes in RAX; this core has no preemptive scheduler to
// actually resume the child with RAX=0 on a separate logical thread of
// control, so "0 in child" (per spec §4.K) is a property of whichever
// execution context is later scheduled onto the child PID, not something
// this single dispatch call can produce for both sides at once. See
// DESIGN.md's Open Question resolution.
func (d *Dispatcher) procFork(pid proc.PID) int64 {
	child, err := d.table.Fork(pid)
	if err != nil {
		return -1
	}

	return int64(child.PID)
}

func (d *Dispatcher) procKill(pid int) int64 {
	if err := d.table.Exit(proc.PID(pid)); err != nil {
		return -1
	}

	return 0
}

// threadKill is not implemented: this core's thread slots carry no
// independent signal-delivery state to kill one thread without tearing
// down its process. Returns -1 per the ENOSYS-style conversion the spec
// calls for on unimplemented paths.
func (d *Dispatcher) threadKill(proc.PID, int) int64 {
	return -1
}

func (d *Dispatcher) exit(pid proc.PID, code int64) {
	exitCode := proc.ExitCodeFromRaw(code)

	if err := d.table.Exit(pid); err != nil {
		d.log.Error("syscall: exit: process missing", "pid", pid, "err", err)
		return
	}

	d.log.Info("syscall: process exited", "pid", pid, "code", exitCode.String())
}

// rebootService performs a deliberate triple fault: writing zero into
// CR3 makes the simulated mapper fail with ErrTripleFault; on that error
// the service calls the Rebooter, whose driver loop (Kernel.Run) then
// returns ErrRebooted so the caller can restart the simulated boot
// sequence. See spec §4.K and the expanded spec's supplemented features.
func (d *Dispatcher) rebootService() int64 {
	if err := d.mapper.WriteCR3(0); err != nil {
		d.log.Warn("syscall: reboot requested")

		if d.reboot != nil {
			d.reboot.Reboot()
		}
	}

	return 0
}

// infoPayload is the concrete minimal INFO payload this core defines: the
// spec leaves it "opaque". See DESIGN.md's Open Question resolution.
type infoPayload struct {
	PID       int32
	Parent    int32
	CodeAddr  uint64
	StackAddr uint64
}

// info serializes the calling process's identity into the caller-supplied
// buffer at bufptr.
func (d *Dispatcher) info(pid proc.PID, bufptr uintptr) int64 {
	p, err := d.table.Get(pid)
	if err != nil {
		return -1
	}

	const payloadSize = 4 + 4 + 8 + 8

	buf, ok := translate(&p, bufptr, payloadSize)
	if !ok {
		return -1
	}

	payload := infoPayload{
		PID:       int32(p.PID),
		Parent:    int32(p.Parent),
		CodeAddr:  uint64(p.CodeAddr),
		StackAddr: uint64(p.StackAddr),
	}

	binary.LittleEndian.PutUint32(buf[0:4], uint32(payload.PID))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(payload.Parent))
	binary.LittleEndian.PutUint64(buf[8:16], payload.CodeAddr)
	binary.LittleEndian.PutUint64(buf[16:24], payload.StackAddr)

	return 0
}
