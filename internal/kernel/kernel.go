// Package kernel assembles the five CORE subsystems -- platform bring-up,
// physical/virtual memory, the syscall trampoline, the process table, and
// the virtual-terminal console -- into one bootable unit, the same way
// the teacher's internal/vm.LC3 assembles a CPU from its registers,
// memory, interrupt controller, and devices.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prestige-os/prestige/internal/arch"
	"github.com/prestige-os/prestige/internal/boot"
	"github.com/prestige-os/prestige/internal/console"
	"github.com/prestige-os/prestige/internal/fatal"
	"github.com/prestige-os/prestige/internal/keyboard"
	"github.com/prestige-os/prestige/internal/log"
	"github.com/prestige-os/prestige/internal/mem"
	"github.com/prestige-os/prestige/internal/proc"
	"github.com/prestige-os/prestige/internal/res"
	"github.com/prestige-os/prestige/internal/serial"
	"github.com/prestige-os/prestige/internal/syscall"
	"github.com/prestige-os/prestige/internal/vga"
)

// Kernel is the whole bootable machine.
type Kernel struct {
	GDT *arch.GDT
	TSS *arch.TSS
	IDT *arch.IDT
	PIC *arch.PIC

	Frames *mem.FrameAllocator
	Mapper *mem.Mapper
	Heap   *mem.Heap

	Console  *console.Console
	VGA      *vga.Console
	Serial   *serial.UART
	Keyboard *keyboard.Keyboard

	FS    *res.FS
	Procs *proc.Table

	Dispatcher *syscall.Dispatcher

	haltOnce sync.Once
	haltCh   chan struct{}
	rebootCh chan struct{}

	log *log.Logger
}

// OptionFn configures a Kernel. Each option runs twice, matching the
// teacher's two-pass vm.OptionFn convention: once "early" (before devices
// are wired, with full access to override constructor choices) and once
// "late" (after the whole device/process stack exists).
type OptionFn func(k *Kernel, late bool)

// WithLogger overrides the kernel's logger, early.
func WithLogger(logger *log.Logger) OptionFn {
	return func(k *Kernel, late bool) {
		if !late {
			k.log = logger
		}
	}
}

// WithLayout selects the keyboard layout, late (after the keyboard exists).
func WithLayout(layout keyboard.Layout) OptionFn {
	return func(k *Kernel, late bool) {
		if !late {
			return
		}

		k.Keyboard.SetLayout(layout)
	}
}

// WithSerialOutput registers a raw byte sink the UART writes transmitted
// bytes to, late (after the UART exists). The replaced UART is swapped
// into the console's sink list in place of the one New wired by default.
func WithSerialOutput(out func(b byte)) OptionFn {
	return func(k *Kernel, late bool) {
		if !late {
			return
		}

		old := k.Serial
		k.Serial = serial.New(out, k.Console)
		k.Serial.SetEchoToggle(k.Console.SetEcho)
		k.Console.ReplaceSink(old, k.Serial)
	}
}

// New boots a Kernel from the inputs the boot protocol supplies: the
// physical memory map and the HHDM offset. See spec §6.
func New(mmap boot.MemoryMap, hhdm boot.HHDM, opts ...OptionFn) (*Kernel, error) {
	k := &Kernel{
		log:      log.Component(log.DefaultLogger(), "kernel"),
		haltCh:   make(chan struct{}),
		rebootCh: make(chan struct{}, 1),
	}

	for _, fn := range opts {
		fn(k, false)
	}

	k.Frames = mem.NewFrameAllocator(mmap)

	l4, err := k.Frames.Allocate()
	if err != nil {
		return nil, fmt.Errorf("kernel: boot: %w", err)
	}

	k.Mapper = mem.NewMapper(l4, hhdm)

	k.Heap, err = mem.InstallHeap(k.Mapper, k.Frames)
	if err != nil {
		return nil, fmt.Errorf("kernel: boot: heap: %w", err)
	}

	k.TSS = arch.NewTSS()
	k.GDT = arch.NewGDT(k.TSS)
	k.GDT.Load()

	k.PIC = arch.NewPIC()
	k.PIC.Remap(arch.PICOffset1, arch.PICOffset2)
	k.PIC.Initialize()

	k.Console = console.New()
	k.VGA = vga.New(k.Console.SetEcho)
	k.VGA.Init()
	k.Console.AddSink(k.VGA)

	k.Serial = serial.New(nil, k.Console)
	k.Serial.SetEchoToggle(k.Console.SetEcho)
	k.Console.AddSink(k.Serial)

	k.Keyboard = keyboard.New(keyboard.QWERTY, k.Console, k)

	k.FS = res.NewFS(k.Console)
	k.Procs = proc.NewTable(k.Console, k.GDT, k.Mapper, k.Frames)

	k.Dispatcher = syscall.NewDispatcher(k.Procs, k.FS, k.Mapper, k)

	k.IDT = arch.NewIDT()
	k.installExceptionHandlers()
	k.IDT.Install(arch.VecSyscall, arch.Ring3, syscall.Trampoline(k.PIC, k.Dispatcher.Dispatch))

	for _, fn := range opts {
		fn(k, true)
	}

	k.log.Info("kernel: boot complete")

	return k, nil
}

// Halt implements fatal.Halter: it marks the machine stopped. There is
// no real `cli; hlt` loop to spin in underneath a hosted simulation;
// Halted reports the state for the driver loop and tests.
func (k *Kernel) Halt() {
	k.haltOnce.Do(func() { close(k.haltCh) })
}

// Halted reports whether Halt has run.
func (k *Kernel) Halted() bool {
	select {
	case <-k.haltCh:
		return true
	default:
		return false
	}
}

// Reboot implements both syscall.Rebooter and keyboard.Rebooter: it
// signals the driver loop to restart the simulated boot sequence. See
// spec §4.K and the expanded spec's supplemented features.
func (k *Kernel) Reboot() {
	select {
	case k.rebootCh <- struct{}{}:
	default:
	}
}

// ErrRebooted is returned by Run when the kernel requested a reboot. The
// caller is expected to construct a fresh Kernel (New) to complete the
// restart, the same way a real triple fault hands control back to the
// firmware reset vector.
var ErrRebooted = errors.New("kernel: rebooted")

// Run blocks until the context is cancelled, the kernel halts on a fatal
// fault, or a reboot is requested. This core has no preemptive scheduler;
// the driver loop's only job is to wait for one of those three terminal
// conditions, exactly as real hardware "runs" by doing nothing between
// interrupts.
func (k *Kernel) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-k.rebootCh:
		return ErrRebooted
	case <-k.haltCh:
		return nil
	}
}

// Panic routes a hard fault to the panic/fatal-output component: print a
// diagnostic to the console and halt. See spec §4, component O.
func (k *Kernel) Panic(reason string, frame *arch.Frame) {
	fatal.Halt(k.VGA, k.log, reason, frame, k)
}
