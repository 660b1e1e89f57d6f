package mpris

import (
	"net/url"
	"time"

	"github.com/godbus/dbus/v5"
)

// Metadata is a mapping from metadata attribute names to values.
//
// https://www.freedesktop.org/wiki/Specifications/mpris-spec/metadata/
type Metadata map[string]dbus.Variant

func (m Metadata) str(key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}

	switch s := v.Value().(type) {
	case string:
		return s
	case []string:
		if len(s) > 0 {
			return s[0]
		}
	}

	return ""
}

func (m Metadata) url(key string) *url.URL {
	s := m.str(key)
	if s == "" {
		return nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil
	}

	return u
}

// TrackID returns the mpris:trackid object path.
func (m Metadata) TrackID() dbus.ObjectPath {
	v, ok := m["mpris:trackid"]
	if !ok {
		return ""
	}

	switch id := v.Value().(type) {
	case dbus.ObjectPath:
		return id
	case string:
		return dbus.ObjectPath(id)
	}

	return ""
}

// Title returns the descriptive title of the content.
func (m Metadata) Title() string {
	return m.str("xesam:title")
}

// Subtitle returns the name of the album, or else of the artist.
func (m Metadata) Subtitle() string {
	if album := m.str("xesam:album"); album != "" {
		return album
	}

	return m.str("xesam:artist")
}

// Duration returns the length of the media.
func (m Metadata) Duration() time.Duration {
	v, ok := m["mpris:length"]
	if !ok {
		return 0
	}

	switch n := v.Value().(type) {
	case int64:
		return time.Duration(n) * time.Microsecond
	case uint64:
		return time.Duration(n) * time.Microsecond
	case int32:
		return time.Duration(n) * time.Microsecond
	}

	return 0
}

// URL returns the location of the media.
func (m Metadata) URL() *url.URL {
	return m.url("xesam:url")
}

// ImageURL returns the location of the cover art.
func (m Metadata) ImageURL() *url.URL {
	return m.url("mpris:artUrl")
}
