package command

import (
	"context"
	"errors"

	"recall/client"
	"recall/config"

	"github.com/spf13/pflag"
)

type DeleteCommand struct {
}

func NewDeleteCommand() *DeleteCommand {
	return &DeleteCommand{}
}

func (c *DeleteCommand) Synopsis() string {
	return "Delete a memory"
}

func (c *DeleteCommand) Flags() *pflag.FlagSet {
	return pflag.NewFlagSet("delete", pflag.ContinueOnError)
}

func (c *DeleteCommand) Execute(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("a memory id (or unique prefix) is required")
	}

	return client.New(cfg.ServerUrl).Delete(ctx, args[0])
}
