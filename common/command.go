package common

import (
	"github.com/urfave/cli"
	clihelpers "gitlab.com/gitlab-org/golang-cli-helpers"
)

// Commander executes the command with the cli.Context.
type Commander interface {
	Execute(c *cli.Context)
}

// NewCommand constructs a command with the given name, usage, and flags.
func NewCommand(name, usage string, data Commander, flags ...cli.Flag) cli.Command {
	return cli.Command{
		Name:   name,
		Usage:  usage,
		Action: data.Execute,
		Flags:  append(flags, clihelpers.GetFlagsFromStruct(data)...),
	}
}

var commands []cli.Command

// RegisterCommand appends the command to the application's command list.
func RegisterCommand(command cli.Command) {
	commands = append(commands, command)
}

// RegisterCommand2 registers a command built from the given name, usage and
// Commander.
func RegisterCommand2(name, usage string, data Commander, flags ...cli.Flag) {
	RegisterCommand(NewCommand(name, usage, data, flags...))
}

func GetCommands() []cli.Command {
	return commands
}
