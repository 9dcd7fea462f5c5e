// prestige is the command-line interface to the Prestige kernel
// simulator.
package main

import (
	"context"
	"os"

	"github.com/prestige-os/prestige/internal/cli"
	"github.com/prestige-os/prestige/internal/cli/cmd"
)

var commands = []cli.Command{
	cmd.Boot(),
	cmd.Demo(),
}

func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
