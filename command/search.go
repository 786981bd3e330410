package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recall/client"
	"recall/config"

	"github.com/spf13/pflag"
)

type SearchCommand struct {
	user  string
	limit int
}

func NewSearchCommand() *SearchCommand {
	return &SearchCommand{}
}

func (c *SearchCommand) Synopsis() string {
	return "Search a user's memories"
}

func (c *SearchCommand) Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("search", pflag.ContinueOnError)
	flags.StringVar(&c.user, "user", "", "the user whose memories to search")
	flags.IntVar(&c.limit, "limit", 10, "maximum number of results")
	return flags
}

func (c *SearchCommand) Execute(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("a query is required as arguments")
	}

	user := c.user
	if user == "" {
		user = cfg.DefaultUser
	}

	results, err := client.New(cfg.ServerUrl).Search(ctx, user, strings.Join(args, " "), c.limit)
	if err != nil {
		return err
	}

	for _, result := range results {
		fmt.Printf("%.2f  %s  %s\n", result.Score, result.ID[:8], result.Content)
	}

	return nil
}
