package mpris

import (
	"reflect"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/media"
)

func TestFilterPlayers(t *testing.T) {
	names := []string{
		"org.freedesktop.DBus",
		"org.mpris.MediaPlayer2.vlc",
		":1.42",
		"org.mpris.MediaPlayer2.mpv.instance123",
		"org.mpris.MediaPlayer2",
	}

	want := []string{"org.mpris.MediaPlayer2.vlc", "org.mpris.MediaPlayer2.mpv.instance123"}
	if got := filterPlayers(names); !reflect.DeepEqual(got, want) {
		t.Errorf("filterPlayers(): got %v; want %v", got, want)
	}
}

func TestMetadata(t *testing.T) {
	m := Metadata{
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/org/mpris/MediaPlayer2/Track/1")),
		"mpris:length":  dbus.MakeVariant(int64(90 * time.Second / time.Microsecond)),
		"mpris:artUrl":  dbus.MakeVariant("file:///tmp/cover.jpg"),
		"xesam:title":   dbus.MakeVariant("Big Buck Bunny"),
		"xesam:artist":  dbus.MakeVariant([]string{"Blender Foundation"}),
		"xesam:url":     dbus.MakeVariant("http://example.com/bbb.mp4"),
	}

	if got := m.TrackID(); got != "/org/mpris/MediaPlayer2/Track/1" {
		t.Errorf("TrackID(): got %s", got)
	}
	if got := m.Duration(); got != 90*time.Second {
		t.Errorf("Duration(): got %s; want 1m30s", got)
	}
	if got := m.Title(); got != "Big Buck Bunny" {
		t.Errorf("Title(): got %q", got)
	}
	if got := m.Subtitle(); got != "Blender Foundation" {
		t.Errorf("Subtitle(): got %q; want the artist without album", got)
	}
	if got := m.URL(); got == nil || got.Host != "example.com" {
		t.Errorf("URL(): got %v", got)
	}
	if got := m.ImageURL(); got == nil || got.Path != "/tmp/cover.jpg" {
		t.Errorf("ImageURL(): got %v", got)
	}

	var empty Metadata
	if empty.Title() != "" || empty.URL() != nil || empty.Duration() != 0 || empty.TrackID() != "" {
		t.Error("empty metadata should have zero values")
	}
}

func types(events []*event.Event) []string {
	var ts []string
	for _, e := range events {
		ts = append(ts, e.Type)
	}

	return ts
}

func TestTranslateProperties(t *testing.T) {
	tr := newTranslator()

	events := tr.properties(map[string]dbus.Variant{
		"Volume": dbus.MakeVariant(0.8),
		"Metadata": dbus.MakeVariant(map[string]dbus.Variant{
			"xesam:url":    dbus.MakeVariant("http://example.com/a.mp4"),
			"mpris:length": dbus.MakeVariant(int64(60 * time.Second / time.Microsecond)),
		}),
		"PlaybackStatus": dbus.MakeVariant("Playing"),
	})

	want := []string{
		media.SourceChangeEvent, media.CanPlayEvent,
		media.PlayEvent, media.PlayingEvent,
		media.VolumeChangeEvent,
	}
	if got := types(events); !reflect.DeepEqual(got, want) {
		t.Fatalf("events: got %v; want %v", got, want)
	}
	if d := events[1].Detail; d != time.Minute {
		t.Errorf("can-play detail: got %v; want 1m0s", d)
	}

	// Unchanged status and source produce nothing.
	events = tr.properties(map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant("Playing"),
		"Metadata": dbus.MakeVariant(map[string]dbus.Variant{
			"xesam:url":    dbus.MakeVariant("http://example.com/a.mp4"),
			"mpris:length": dbus.MakeVariant(int64(60 * time.Second / time.Microsecond)),
		}),
	})
	if len(events) != 0 {
		t.Errorf("got %v; want no events", types(events))
	}

	events = tr.properties(map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant("Stopped"),
		"Rate":           dbus.MakeVariant(1.5),
		"Fullscreen":     dbus.MakeVariant(true),
	})
	want = []string{media.PauseEvent, media.TimeUpdateEvent, media.RateChangeEvent, media.FullscreenChangeEvent}
	if got := types(events); !reflect.DeepEqual(got, want) {
		t.Errorf("events: got %v; want %v", got, want)
	}
}

func TestTranslateMute(t *testing.T) {
	tr := newTranslator()
	tr.properties(map[string]dbus.Variant{"Volume": dbus.MakeVariant(0.6)})

	tr.muted = true
	events := tr.properties(map[string]dbus.Variant{"Volume": dbus.MakeVariant(0.0)})
	if v := events[0].Detail; v != (media.VolumeChange{Volume: 0.6, Muted: true}) {
		t.Errorf("muted volume: got %+v", v)
	}

	events = tr.properties(map[string]dbus.Variant{"Volume": dbus.MakeVariant(0.3)})
	if v := events[0].Detail; v != (media.VolumeChange{Volume: 0.3}) {
		t.Errorf("volume after unmute: got %+v", v)
	}
	if tr.muted {
		t.Error("a non-zero volume should unmute")
	}
}

func TestTranslateSeeked(t *testing.T) {
	tr := newTranslator()

	e := tr.seeked(int64(5 * time.Second / time.Microsecond))
	if e.Type != media.SeekedEvent || e.Detail != 5*time.Second {
		t.Errorf("seeked: got %s with %v", e.Type, e.Detail)
	}
}
