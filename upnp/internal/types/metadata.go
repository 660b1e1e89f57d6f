package types

import (
	"encoding/xml"
	"net/url"

	"github.com/ericyan/omnimedia"
	"github.com/ericyan/omnimedia/upnp/internal/didl"
)

// Metadata maps the local names of the DIDL-Lite properties of an item to
// their first value, e.g. "title" for dc:title.
type Metadata map[string]string

var _ omnimedia.MediaMetadata = Metadata(nil)

// Title returns the descriptive title of the content.
func (m Metadata) Title() string {
	return m["title"]
}

// Subtitle returns the album, the artist or the creator, whichever is
// found first.
func (m Metadata) Subtitle() string {
	for _, k := range []string{"album", "artist", "creator"} {
		if v := m[k]; v != "" {
			return v
		}
	}

	return ""
}

// Class returns the upnp:class of the item.
func (m Metadata) Class() string {
	return m["class"]
}

// ImageURL returns the URL of the album art.
func (m Metadata) ImageURL() *url.URL {
	s := m["albumArtURI"]
	if s == "" {
		return nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil
	}

	return u
}

// UnmarshalText fills m with the properties of the first item described in
// the DIDL-Lite XML fragment. An empty fragment is valid.
func (m *Metadata) UnmarshalText(text []byte) error {
	if *m == nil {
		*m = make(Metadata)
	}
	if len(text) == 0 {
		return nil
	}

	var doc didl.Document
	if err := xml.Unmarshal(text, &doc); err != nil {
		return err
	}

	item := doc.First()
	if item == nil {
		return nil
	}
	for _, v := range item.Values {
		if _, ok := (*m)[v.Type()]; !ok {
			(*m)[v.Type()] = v.String()
		}
	}

	return nil
}
