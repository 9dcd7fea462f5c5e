// Package syscall implements the system-call trampoline and dispatcher:
// vector 0x80, DPL 3. See spec §4.J-§4.K.
package syscall

import (
	"github.com/prestige-os/prestige/internal/arch"
	"github.com/prestige-os/prestige/internal/log"
)

// ID is a syscall number, passed to the kernel in RAX.
type ID uint64

// The fixed syscall table, per spec §4.J.
const (
	Read ID = iota
	Write
	Open
	Close
	Dup
	Seek
	ProcSpawn
	ThreadSpawn
	ProcFork
	ThreadClone
	ProcKill
	ThreadKill
	Exit
	ExitGroup
	Reboot
	Info
)

func (id ID) String() string {
	switch id {
	case Read:
		return "READ"
	case Write:
		return "WRITE"
	case Open:
		return "OPEN"
	case Close:
		return "CLOSE"
	case Dup:
		return "DUP"
	case Seek:
		return "SEEK"
	case ProcSpawn:
		return "PROC_SPAWN"
	case ThreadSpawn:
		return "THREAD_SPAWN"
	case ProcFork:
		return "PROC_FORK"
	case ThreadClone:
		return "THREAD_CLONE"
	case ProcKill:
		return "PROC_KILL"
	case ThreadKill:
		return "THREAD_KILL"
	case Exit:
		return "EXIT"
	case ExitGroup:
		return "EXIT_GROUP"
	case Reboot:
		return "REBOOT"
	case Info:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// Dispatch is the syscall service entry point: decode (id, args) and
// perform the requested service, returning the value to install into the
// caller's RAX.
type Dispatch func(frame *arch.Frame) int64

// Trampoline wraps a dispatcher as an arch.Handler implementing the
// ordered steps of spec §4.J: the caller-saved-register push/pop and the
// rsi/rdi pointer arithmetic (steps 1-2) are exactly what arch.Frame
// already represents, so the only behavior left to this function is
// steps 3-7: call the dispatcher, install its result in RAX, send the
// EOI, and return (iretq is the handler returning at all -- there is no
// separate instruction to model in a hosted simulation).
func Trampoline(pic *arch.PIC, dispatch Dispatch) arch.Handler {
	l := log.Component(log.DefaultLogger(), "trampoline")

	return func(frame *arch.Frame) error {
		id := ID(frame.Regs.RAX)

		l.Debug("syscall: dispatch", "id", id.String())

		frame.Regs.RAX = uint64(dispatch(frame))

		pic.SendEOIVector(arch.VecSyscall)

		return nil
	}
}
