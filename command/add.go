package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recall/client"
	"recall/config"
	"recall/domain"

	"github.com/spf13/pflag"
)

type AddCommand struct {
	user string
	meta []string
}

func NewAddCommand() *AddCommand {
	return &AddCommand{}
}

func (c *AddCommand) Synopsis() string {
	return "Store a new memory"
}

func (c *AddCommand) Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("add", pflag.ContinueOnError)
	flags.StringVar(&c.user, "user", "", "the user to store the memory for")
	flags.StringSliceVar(&c.meta, "meta", nil, "metadata as key=value, repeatable")
	return flags
}

func (c *AddCommand) Execute(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("the memory's content is required as arguments")
	}

	user := c.user
	if user == "" {
		user = cfg.DefaultUser
	}

	meta := domain.Metadata{}
	for _, pair := range c.meta {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("metadata %q is not key=value", pair)
		}
		meta = append(meta, domain.String(key, value))
	}

	mem, err := client.New(cfg.ServerUrl).Add(ctx, user, strings.Join(args, " "), meta)
	if err != nil {
		return err
	}

	fmt.Println(mem.ID)
	return nil
}
