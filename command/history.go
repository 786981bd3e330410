package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recall/client"
	"recall/config"

	"github.com/spf13/pflag"
)

type HistoryCommand struct {
}

func NewHistoryCommand() *HistoryCommand {
	return &HistoryCommand{}
}

func (c *HistoryCommand) Synopsis() string {
	return "Show every change made to a memory"
}

func (c *HistoryCommand) Flags() *pflag.FlagSet {
	return pflag.NewFlagSet("history", pflag.ContinueOnError)
}

func (c *HistoryCommand) Execute(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("a memory id (or unique prefix) is required")
	}

	entries, err := client.New(cfg.ServerUrl).History(ctx, args[0])
	if err != nil {
		return err
	}

	for _, entry := range entries {
		fmt.Printf("%s  %-8s  %s\n", entry.RecordedAt.Format(time.RFC3339), entry.Event, entry.Content)
	}

	return nil
}
