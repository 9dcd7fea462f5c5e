package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/prestige-os/prestige/internal/cli"
	"github.com/prestige-os/prestige/internal/log"
	"github.com/prestige-os/prestige/internal/proc"
)

type help struct {
	cmd []cli.Command
}

var _ cli.Command = (*help)(nil)

func (help) Description() string {
	return "display help for commands"
}

func (h help) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("help", flag.ExitOnError)
}

func (h help) Run(_ context.Context, args []string, out io.Writer, _ *log.Logger) int {
	if len(args) == 1 {
		for _, cmd := range h.cmd {
			if args[0] == cmd.FlagSet().Name() {
				h.printCommandHelp(cmd)
			}
		}
	} else if err := h.Usage(out); err != nil {
		return cli.ExitStatus(proc.GeneralFailure)
	}

	return cli.ExitStatus(proc.Success)
}

func (h *help) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `
prestige is a small x86-64 kernel simulated in software.

Usage:

        prestige <command> [option]... [arg]...

Commands:`)
	if err != nil {
		return err
	}

	for _, cmd := range h.cmd {
		fs := cmd.FlagSet()
		fmt.Fprintf(out, "  %-20s %s\n", fs.Name(), cmd.Description())
	}

	fmt.Fprintf(out, "  %-20s %s\n", h.FlagSet().Name(), h.Description())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Use `prestige help <command>` to get help for a command.")

	return err
}

func (h *help) printCommandHelp(cmd cli.Command) {
	out := flag.CommandLine.Output()
	_ = cmd.FlagSet().Parse(nil)

	fmt.Fprint(out, "Usage:\n\n        prestige ")

	if err := cmd.Usage(out); err != nil {
		return
	}

	fmt.Fprintln(out, "\nOptions:")
	cmd.FlagSet().PrintDefaults()
}

// Help creates the help sub-command, listing every other registered
// command.
func Help(cmd []cli.Command) *help {
	return &help{cmd: cmd}
}
