// Package ucli implements the cli builder on top of the urfave/cli library.
package ucli

import (
	"fmt"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/cellkit/cli"
)

// Builder builds an urfave application. The application has no action of its
// own: every action belongs to a command.
//
// - implements cli.Builder
type Builder struct {
	name     string
	usage    string
	flags    []cli.Flag
	commands []*cmdBuilder
}

// NewBuilder returns a builder of an application with the name and the usage.
// The flags are available to every command.
func NewBuilder(name, usage string, flags ...cli.Flag) cli.Builder {
	return &Builder{
		name:  name,
		usage: usage,
		flags: flags,
	}
}

// Build implements cli.Builder.
func (b *Builder) Build() cli.Application {
	app := &urfave.App{
		Name:        b.name,
		Usage:       b.usage,
		HideVersion: true,
		Flags:       buildFlags(b.flags),
		Commands:    buildCommands(b.commands),
	}

	app.Setup()

	return app
}

// SetCommand implements cli.Builder.
func (b *Builder) SetCommand(name string) cli.CommandBuilder {
	cmd := &cmdBuilder{name: name}
	b.commands = append(b.commands, cmd)

	return cmd
}

// cmdBuilder collects the definition of a command and its subcommands.
//
// - implements cli.CommandBuilder
type cmdBuilder struct {
	name        string
	description string
	action      cli.Action
	flags       []cli.Flag
	subcommands []*cmdBuilder
}

// SetDescription implements cli.CommandBuilder.
func (b *cmdBuilder) SetDescription(value string) {
	b.description = value
}

// SetFlags implements cli.CommandBuilder. It replaces the flags previously set.
func (b *cmdBuilder) SetFlags(flags ...cli.Flag) {
	b.flags = flags
}

// SetAction implements cli.CommandBuilder.
func (b *cmdBuilder) SetAction(action cli.Action) {
	b.action = action
}

// SetSubCommand implements cli.CommandBuilder.
func (b *cmdBuilder) SetSubCommand(name string) cli.CommandBuilder {
	sub := &cmdBuilder{name: name}
	b.subcommands = append(b.subcommands, sub)

	return sub
}

func buildCommands(cmds []*cmdBuilder) []*urfave.Command {
	commands := make([]*urfave.Command, len(cmds))

	for i, cmd := range cmds {
		commands[i] = &urfave.Command{
			Name:        cmd.name,
			Usage:       cmd.description,
			Flags:       buildFlags(cmd.flags),
			Action:      makeAction(cmd.action),
			Subcommands: buildCommands(cmd.subcommands),
		}
	}

	return commands
}

// buildFlags converts the flags to their urfave counterpart. It panics on a
// flag type it does not know, which is a programming error.
func buildFlags(flags []cli.Flag) []urfave.Flag {
	res := make([]urfave.Flag, len(flags))

	for i, f := range flags {
		switch e := f.(type) {
		case cli.StringFlag:
			res[i] = &urfave.StringFlag{Name: e.Name, Usage: e.Usage, Required: e.Required, Value: e.Value}
		case cli.IntFlag:
			res[i] = &urfave.IntFlag{Name: e.Name, Usage: e.Usage, Required: e.Required, Value: e.Value}
		case cli.Uint64Flag:
			res[i] = &urfave.Uint64Flag{Name: e.Name, Usage: e.Usage, Required: e.Required, Value: e.Value}
		case cli.BoolFlag:
			res[i] = &urfave.BoolFlag{Name: e.Name, Usage: e.Usage, Value: e.Value}
		default:
			panic(fmt.Sprintf("flag type '%T' not supported", f))
		}
	}

	return res
}

func makeAction(action cli.Action) urfave.ActionFunc {
	if action == nil {
		return nil
	}

	return func(ctx *urfave.Context) error {
		return action(ctx)
	}
}
