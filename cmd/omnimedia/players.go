package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ericyan/omnimedia/internal/config"
	"github.com/ericyan/omnimedia/mpris"
	"github.com/ericyan/omnimedia/upnp"
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List MPRIS players and, optionally, renderers on the network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		names, err := mpris.Discover()
		if err != nil && !errors.Is(err, mpris.ErrNoPlayer) {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}

		if !lo.Must(cmd.Flags().GetBool("renderers")) {
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Discovery.Timeout)
		defer cancel()

		renderers, err := upnp.Browse(ctx)
		if err != nil {
			return err
		}
		for r := range renderers {
			fmt.Fprintf(out, "%s\t%s\t%s\n", r.Name, r.UUID, r.Location)
		}

		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "List the settings with their defaults and environment variables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, f := range config.Fields() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\t(%s)\n\t%s\n", f.Key, f.Value, f.Env(), f.Description)
		}
	},
}

func init() {
	playersCmd.Flags().BoolP("renderers", "r", false, "Also browse mDNS for omnimedia renderers")
	playersCmd.Flags().Duration("timeout", 0, "How long to browse for renderers")

	rootCmd.AddCommand(playersCmd, configCmd)
}
