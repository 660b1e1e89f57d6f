package main

import (
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ericyan/iputil"
	"github.com/spf13/cobra"

	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/internal/log"
	"github.com/ericyan/omnimedia/upnp"
	"github.com/ericyan/omnimedia/upnp/av"
)

func defaultHost() string {
	if addr, _ := iputil.DefaultIPv4(); addr != nil {
		return addr.IP.String()
	}

	return ""
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the player as a DLNA media renderer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		player, err := openPlayer()
		if err != nil {
			return err
		}

		renderer := av.NewMediaRenderer(cfg.Renderer.Name, element.New("upnp"))
		ctrl := mount(player, renderer.Host())
		defer ctrl.Remove()

		host := cfg.Renderer.Host
		if host == "" {
			host = defaultHost()
		}

		var opts []upnp.Option
		if cfg.Renderer.MDNS {
			opts = append(opts, upnp.WithMDNS())
		}

		srv, err := upnp.NewServer(renderer.Device(), net.JoinHostPort(host, strconv.Itoa(cfg.Renderer.Port)), opts...)
		if err != nil {
			return err
		}

		errc := make(chan error, 1)
		go func() {
			errc <- srv.ListenAndServe()
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)

		select {
		case err := <-errc:
			srv.Close()
			return err
		case s := <-sig:
			log.WithField("signal", s).Info("stopping server")
		}

		return srv.Close()
	},
}

func init() {
	serveCmd.Flags().StringP("name", "n", "", "Friendly name of the renderer")
	serveCmd.Flags().String("host", "", "Address to serve on")
	serveCmd.Flags().IntP("port", "p", 0, "Port to serve on")
	serveCmd.Flags().Bool("mdns", false, "Announce the renderer over mDNS")
	serveCmd.Flags().Bool("autoplay", false, "Start playback once media can play")

	rootCmd.AddCommand(serveCmd)
}
