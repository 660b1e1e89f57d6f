// Command omnimedia bridges desktop media players to the network: it serves
// an MPRIS player as a DLNA renderer and loads media into it.
package main

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ericyan/omnimedia/internal/config"
	"github.com/ericyan/omnimedia/internal/log"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "omnimedia",
	Short:         "Control desktop media players over the network",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(afero.NewOsFs(),
			config.WithFile(lo.Must(cmd.Flags().GetString("config"))),
			config.WithFlag(config.LogLevel, cmd.Flags().Lookup("log-level")),
			config.WithFlag(config.LogJSON, cmd.Flags().Lookup("log-json")),
			config.WithFlag(config.PlayerName, cmd.Flags().Lookup("player")),
			config.WithFlag(config.PlayerAutoplay, cmd.Flags().Lookup("autoplay")),
			config.WithFlag(config.RendererName, cmd.Flags().Lookup("name")),
			config.WithFlag(config.RendererHost, cmd.Flags().Lookup("host")),
			config.WithFlag(config.RendererPort, cmd.Flags().Lookup("port")),
			config.WithFlag(config.RendererMDNS, cmd.Flags().Lookup("mdns")),
			config.WithFlag(config.DiscoveryTimeout, cmd.Flags().Lookup("timeout")),
		)
		if err != nil {
			return err
		}

		log.Setup(log.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: omnimedia.toml in . or the user config dir)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log in JSON")
	rootCmd.PersistentFlags().StringP("player", "P", "", "MPRIS bus name of the player")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "omnimedia:", err)
		os.Exit(1)
	}
}
