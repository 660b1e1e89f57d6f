// Package mpris drives desktop media players over the MPRIS D-Bus
// interface.
//
// https://specifications.freedesktop.org/mpris-spec/latest/
package mpris

import (
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	// BusNamePrefix prefixes the bus name of every MPRIS player.
	BusNamePrefix = "org.mpris.MediaPlayer2"
	// ObjectPath is where players expose their interfaces.
	ObjectPath dbus.ObjectPath = "/org/mpris/MediaPlayer2"

	rootInterface       = BusNamePrefix
	playerInterface     = BusNamePrefix + ".Player"
	propertiesInterface = "org.freedesktop.DBus.Properties"
)

// ErrNoPlayer is returned by Discover when no player is running.
var ErrNoPlayer = errors.New("mpris: no player instance found")

// Discover returns the bus names of the MPRIS players on the session bus.
func Discover() ([]string, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}

	var names []string
	err = conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return nil, err
	}

	players := filterPlayers(names)
	if len(players) == 0 {
		return nil, ErrNoPlayer
	}

	return players, nil
}

func filterPlayers(names []string) []string {
	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, BusNamePrefix+".") {
			players = append(players, name)
		}
	}

	return players
}
