package main

import (
	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/internal/log"
	"github.com/ericyan/omnimedia/media"
	"github.com/ericyan/omnimedia/mpris"
)

// openPlayer returns the configured MPRIS player, or the first one found.
func openPlayer() (*mpris.Player, error) {
	name := cfg.Player.Name
	if name == "" {
		names, err := mpris.Discover()
		if err != nil {
			return nil, err
		}
		name = names[0]
	}

	log.WithField("player", name).Info("using MPRIS player")

	return mpris.NewPlayer(name)
}

// mount builds a player around player with the given consumer hosts and
// connects it. Removing the returned controller host tears it down.
func mount(player *mpris.Player, consumers ...*element.Host) *element.Host {
	doc := element.NewDocument("omnimedia")

	ctrl := element.New("controller")
	media.NewController(ctrl)

	var opts []media.ProviderOption
	if cfg.Player.Autoplay {
		opts = append(opts, media.WithAutoplay())
	}
	provider := element.New(player.Name())
	media.NewProvider(provider, player, opts...)

	ctrl.AppendChild(provider)
	for _, h := range consumers {
		ctrl.AppendChild(h)
	}
	doc.AppendChild(ctrl)

	return ctrl
}
