package command

import (
	"context"

	"recall/client"
	"recall/config"
	"recall/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

type TuiCommand struct {
	user string
}

func NewTuiCommand() *TuiCommand {
	return &TuiCommand{}
}

func (c *TuiCommand) Synopsis() string {
	return "Browse and search memories interactively"
}

func (c *TuiCommand) Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("tui", pflag.ContinueOnError)
	flags.StringVar(&c.user, "user", "", "the user whose memories to browse")
	return flags
}

func (c *TuiCommand) Execute(ctx context.Context, cfg *config.Config, args []string) error {
	user := c.user
	if user == "" {
		user = cfg.DefaultUser
	}

	program := tea.NewProgram(
		tui.New(client.New(cfg.ServerUrl), user),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := program.Run()
	return err
}
