// Package fatal implements the panic/fatal-output component: printing a
// diagnostic frame to the console on an unrecoverable fault and halting.
// See spec §4 (component O) and §7.
package fatal

import (
	"fmt"
	"io"

	"github.com/prestige-os/prestige/internal/log"
)

// Halter is implemented by whatever can actually stop the (simulated) CPU.
// On real hardware this is `cli; hlt` in a loop; here it is a function the
// caller supplies, typically one that stops the instruction-cycle driver.
type Halter interface {
	Halt()
}

// Sink is where the diagnostic is printed -- normally the VGA console, but
// tests may substitute any io.Writer.
type Sink = io.Writer

// Dumper is anything that can render itself into a diagnostic frame dump,
// satisfied by *arch.Frame.
type Dumper interface {
	DumpTo(w io.Writer)
}

// Halt prints a formatted fault diagnostic to sink and halts via halter. It
// never returns to the caller in spirit (real hardware execution stops at
// the halt instruction); the Go translation still returns so callers such
// as tests can observe that Halt ran.
func Halt(sink Sink, logger *log.Logger, reason string, frame Dumper, halter Halter) {
	fmt.Fprintf(sink, "\n*** KERNEL PANIC: %s ***\n\n", reason)
	frame.DumpTo(sink)
	fmt.Fprintln(sink, "\nSystem halted.")

	logger.Error("kernel panic", "reason", reason)

	halter.Halt()
}
