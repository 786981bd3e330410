package version

import (
	"context"
	"fmt"

	"recall/config"

	"github.com/spf13/pflag"
)

// overridden at build time with -ldflags
var version = "0.1.0-dev"

func VersionNumber() string {
	return version
}

type VersionCommand struct {
}

func NewVersionCommand() *VersionCommand {
	return &VersionCommand{}
}

func (c *VersionCommand) Synopsis() string {
	return "Print the recall version"
}

func (c *VersionCommand) Flags() *pflag.FlagSet {
	return pflag.NewFlagSet("version", pflag.ContinueOnError)
}

func (c *VersionCommand) Execute(ctx context.Context, cfg *config.Config, args []string) error {
	fmt.Println(VersionNumber())
	return nil
}
