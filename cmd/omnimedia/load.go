package main

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/media"
	"github.com/ericyan/omnimedia/store"
)

// CommandEvent is the root event of requests typed on the command line.
const CommandEvent = "command"

var loadCmd = &cobra.Command{
	Use:   "load URL",
	Short: "Load media into the player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := url.ParseRequestURI(args[0])
		if err != nil {
			return err
		}

		player, err := openPlayer()
		if err != nil {
			return err
		}

		c := media.NewConsumer(element.New("cli"))
		ctrl := mount(player, c.Host())
		defer ctrl.Remove()

		loaded := make(chan struct{})
		var once sync.Once
		media.Watch(c, func(v media.View) store.Readable[*url.URL] { return v.Source }, func(src *url.URL) {
			if src != nil && src.String() == u.String() {
				once.Do(func() { close(loaded) })
			}
		})

		trigger := event.New(CommandEvent, event.WithDetail(cmd.CommandPath()), event.Trusted())
		if _, err := c.Request(media.LoadRequest, event.WithDetail(media.Source{URL: u}), event.WithTrigger(trigger)); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Discovery.Timeout+5*time.Second)
		defer cancel()

		select {
		case <-loaded:
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %s into %s\n", u, player.Name())
			return nil
		case <-ctx.Done():
			return fmt.Errorf("%s did not load %s: %w", player.Name(), u, ctx.Err())
		}
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
