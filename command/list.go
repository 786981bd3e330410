package command

import (
	"context"
	"fmt"
	"time"

	"recall/client"
	"recall/config"
	"recall/util"

	"github.com/spf13/pflag"
)

type ListCommand struct {
	user string
}

func NewListCommand() *ListCommand {
	return &ListCommand{}
}

func (c *ListCommand) Synopsis() string {
	return "List all of a user's memories"
}

func (c *ListCommand) Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
	flags.StringVar(&c.user, "user", "", "the user whose memories to list")
	return flags
}

func (c *ListCommand) Execute(ctx context.Context, cfg *config.Config, args []string) error {
	user := c.user
	if user == "" {
		user = cfg.DefaultUser
	}

	memories, err := client.New(cfg.ServerUrl).GetAll(ctx, user)
	if err != nil {
		return err
	}

	ids := make([]string, len(memories))
	for i, mem := range memories {
		ids[i] = mem.ID
	}

	for _, mem := range memories {
		length := max(util.UniquePrefixLength(mem.ID, ids), 8)
		fmt.Printf("%s  %s  %s\n", mem.ID[:length], mem.UpdatedAt.Format(time.RFC3339), mem.Content)
	}

	return nil
}
