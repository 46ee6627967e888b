package main

import (
	"context"
	"flag"
	"os"
	"path"

	"budget/internal/commands"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	if flag.NArg() == 0 {
		flag.CommandLine.Parse(append(os.Args[1:], commands.DefaultCommand))
	}
	os.Exit(int(commander.Execute(context.Background())))
}
