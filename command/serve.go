package command

import (
	"context"
	"fmt"

	"recall/config"
	"recall/server"
	"recall/store"

	"github.com/spf13/pflag"
)

type ServeCommand struct {
	listen string
}

func NewServeCommand() *ServeCommand {
	return &ServeCommand{}
}

func (c *ServeCommand) Synopsis() string {
	return "Run the recall server"
}

func (c *ServeCommand) Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.StringVar(&c.listen, "listen", "", "address to listen on, overriding the config file")
	return flags
}

func (c *ServeCommand) Execute(ctx context.Context, cfg *config.Config, args []string) error {
	addr := cfg.ListenAddr
	if c.listen != "" {
		addr = c.listen
	}

	st, err := store.Open(ctx, cfg.DatabaseFile)
	if err != nil {
		return err
	}

	srv := server.New(st)

	// repoint the store if the config file's database_file changes; the
	// listen address still needs a restart
	current := cfg.DatabaseFile
	err = config.Watch(ctx, config.Path(), func(next *config.Config) {
		if next.DatabaseFile == current {
			return
		}

		fresh, err := store.Open(ctx, next.DatabaseFile)
		if err != nil {
			fmt.Printf("config changed, but opening %s failed: %s\n", next.DatabaseFile, err)
			return
		}

		current = next.DatabaseFile
		if old := srv.SetStore(fresh); old != nil {
			old.Close()
		}
		fmt.Printf("config changed, now using %s\n", next.DatabaseFile)
	})
	if err != nil {
		return err
	}

	fmt.Printf("listening on %s, storing in %s\n", addr, cfg.DatabaseFile)
	return srv.ListenAndServe(ctx, addr)
}
