package main

import (
	"fmt"
	"os"

	"recall/command"
	"recall/command/version"

	"github.com/hashicorp/cli"
)

func main() {

	commands := map[string]cli.CommandFactory{
		"serve":   command.NewCommand(command.NewServeCommand()),
		"add":     command.NewCommand(command.NewAddCommand()),
		"search":  command.NewCommand(command.NewSearchCommand()),
		"list":    command.NewCommand(command.NewListCommand()),
		"history": command.NewCommand(command.NewHistoryCommand()),
		"delete":  command.NewCommand(command.NewDeleteCommand()),
		"tui":     command.NewCommand(command.NewTuiCommand()),
		"version": command.NewCommand(version.NewVersionCommand()),
	}

	cli := &cli.CLI{
		Name:                       "recall",
		Args:                       os.Args[1:],
		Commands:                   commands,
		Autocomplete:               true,
		AutocompleteNoDefaultFlags: false,
	}

	exitCode, err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err.Error())
	}

	os.Exit(exitCode)
}
