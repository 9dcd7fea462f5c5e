package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prestige-os/prestige/internal/boot"
	"github.com/prestige-os/prestige/internal/cli"
	"github.com/prestige-os/prestige/internal/kernel"
	"github.com/prestige-os/prestige/internal/keyboard"
	"github.com/prestige-os/prestige/internal/log"
	"github.com/prestige-os/prestige/internal/proc"
)

// Demo boots a kernel over a synthetic memory map, drives a short scripted
// keyboard session through it, and prints whatever the VGA console
// produces -- no real TTY required.
func Demo() cli.Command {
	return new(demo)
}

type demo struct {
	debug bool
	quiet bool
}

func (demo) Description() string {
	return "boot the kernel and run a scripted session"
}

func (d demo) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `
demo [ -debug | -quiet ]

Boot the kernel and feed it a short scripted keyboard session while
displaying whatever the VGA console prints.`)

	return err
}

func (d *demo) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)

	fs.BoolVar(&d.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&d.quiet, "quiet", false, "enable quiet output, console display only")

	return fs
}

func (d demo) Run(ctx context.Context, args []string, out io.Writer, _ *log.Logger) int {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if d.quiet {
		log.LogLevel.Set(log.Error)
	}

	if d.debug {
		log.LogLevel.Set(log.Debug)
	}

	logger := log.NewFormattedLogger(os.Stderr)
	log.SetDefault(logger)
	log.DefaultLogger = func() *log.Logger { return logger }

	logger.Info("Initializing machine")

	mmap := demoMemoryMap()

	k, err := kernel.New(mmap, demoHHDM, kernel.WithLogger(logger), kernel.WithSerialOutput(func(b byte) {
		fmt.Fprintf(out, "%c", b)
	}))
	if err != nil {
		logger.Error("error booting kernel", "err", err)
		return cli.ExitStatus(proc.GeneralFailure)
	}

	go func() {
		logger.Info("Starting machine")

		if err := k.Run(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("machine stopped", "err", err)
		}
	}()

	for _, ch := range "echo hi\n" {
		if code, ok := keyboard.ScancodeFor(byte(ch)); ok {
			k.Keyboard.Decode(code)
		}

		time.Sleep(10 * time.Millisecond)
	}

	<-ctx.Done()

	logger.Info("Demo completed")

	return cli.ExitStatus(proc.Success)
}

const demoHHDM boot.HHDM = 0xFFFF_8000_0000_0000

func demoMemoryMap() boot.MemoryMap {
	return boot.MemoryMap{
		Regions: []boot.Region{
			{Base: 0x0, Length: 0x10_0000, Kind: boot.Reserved},
			{Base: 0x10_0000, Length: 64 << 20, Kind: boot.Usable},
		},
	}
}
