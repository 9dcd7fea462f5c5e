package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	bootproto "github.com/prestige-os/prestige/internal/boot"
	"github.com/prestige-os/prestige/internal/cli"
	"github.com/prestige-os/prestige/internal/hostio"
	"github.com/prestige-os/prestige/internal/kernel"
	"github.com/prestige-os/prestige/internal/keyboard"
	"github.com/prestige-os/prestige/internal/log"
	"github.com/prestige-os/prestige/internal/proc"
)

// Boot runs the kernel against the host terminal, the same way a real
// machine's firmware hands control to the kernel at a serial console.
func Boot() cli.Command {
	return new(boot)
}

type boot struct {
	layout string
	debug  bool
}

func (boot) Description() string {
	return "boot the kernel against this terminal"
}

func (boot) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `
boot [ -layout qwerty|azerty|dvorak ] [ -debug ]

Boot the kernel, bridging the host terminal to the virtual console. Typed
bytes go straight to the console line discipline, not through the PS/2
keyboard decoder, so no key typed here reboots the machine.`)

	return err
}

func (b *boot) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("boot", flag.ExitOnError)

	fs.StringVar(&b.layout, "layout", "qwerty", "keyboard layout: qwerty, azerty, dvorak")
	fs.BoolVar(&b.debug, "debug", false, "enable debug logging")

	return fs
}

func (b boot) Run(ctx context.Context, args []string, out io.Writer, _ *log.Logger) int {
	if b.debug {
		log.LogLevel.Set(log.Debug)
	}

	logger := log.NewFormattedLogger(os.Stderr)
	log.SetDefault(logger)
	log.DefaultLogger = func() *log.Logger { return logger }

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	layout, err := parseLayout(b.layout)
	if err != nil {
		logger.Error("boot: bad layout", "err", err)
		return cli.ExitStatus(proc.InvalidArgument)
	}

	for {
		code, err := b.bootOnce(ctx, logger, layout)
		if errors.Is(err, kernel.ErrRebooted) {
			logger.Info("boot: rebooting")
			continue
		}

		return cli.ExitStatus(code)
	}
}

func (b boot) bootOnce(ctx context.Context, logger *log.Logger, layout keyboard.Layout) (proc.ExitCode, error) {
	mmap, hhdm := identityMemoryMap()

	k, err := kernel.New(mmap, hhdm, kernel.WithLogger(logger), kernel.WithLayout(layout))
	if err != nil {
		logger.Error("boot: kernel init failed", "err", err)
		return proc.GeneralFailure, nil
	}

	term, err := hostio.NewConsole(os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		logger.Warn("boot: no host tty, running headless", "err", err)

		runErr := k.Run(ctx)

		return exitCodeFor(runErr), runErr
	}
	defer term.Restore()

	k.VGA.Listen(term.Listener())

	group, gctx := term.Run(ctx, k.Console)
	group.Go(func() error { return k.Run(gctx) })

	runErr := group.Wait()

	return exitCodeFor(runErr), runErr
}

// exitCodeFor classifies a Kernel.Run error into the same proc.ExitCode
// vocabulary a simulated process's exit syscall maps its own status onto:
// a clean stop or an in-place reboot is proc.Success, anything else is
// proc.GeneralFailure.
func exitCodeFor(err error) proc.ExitCode {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return proc.Success
	case errors.Is(err, kernel.ErrRebooted):
		return proc.Success
	default:
		return proc.GeneralFailure
	}
}

// identityMemoryMap describes a generic 128 MiB machine with the HHDM
// identity-mapped at offset zero, standing in for whatever the real boot
// protocol would hand the kernel on actual hardware.
func identityMemoryMap() (bootproto.MemoryMap, bootproto.HHDM) {
	mmap := bootproto.MemoryMap{
		Regions: []bootproto.Region{
			{Base: 0x0, Length: 0x10_0000, Kind: bootproto.Reserved},
			{Base: 0x10_0000, Length: 128 << 20, Kind: bootproto.Usable},
		},
	}

	return mmap, bootproto.HHDM(0)
}

func parseLayout(s string) (keyboard.Layout, error) {
	switch s {
	case "qwerty", "":
		return keyboard.QWERTY, nil
	case "azerty":
		return keyboard.AZERTY, nil
	case "dvorak":
		return keyboard.Dvorak, nil
	default:
		return 0, fmt.Errorf("unknown layout %q", s)
	}
}
