package mpris

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/media"
)

// translator turns MPRIS property changes into media events. MPRIS has no
// notion of muting, so players are muted by setting their volume to zero
// and the translator reports the volume from before.
type translator struct {
	src      string
	status   string
	duration time.Duration
	canPlay  bool
	volume   float64
	muted    bool
}

func newTranslator() translator {
	return translator{volume: 1}
}

// properties returns the events describing changed, a map of Player
// properties. The events are in a fixed order whatever the map order.
func (t *translator) properties(changed map[string]dbus.Variant) []*event.Event {
	var events []*event.Event
	emit := func(eventType string, detail interface{}) {
		events = append(events, event.New(eventType, event.WithDetail(detail)))
	}

	if v, ok := changed["Metadata"]; ok {
		if m, ok := v.Value().(map[string]dbus.Variant); ok {
			t.metadata(Metadata(m), emit)
		}
	}

	if v, ok := changed["PlaybackStatus"]; ok {
		if status, ok := v.Value().(string); ok && status != t.status {
			t.status = status
			switch status {
			case "Playing":
				emit(media.PlayEvent, nil)
				emit(media.PlayingEvent, nil)
			case "Paused":
				emit(media.PauseEvent, nil)
			case "Stopped":
				emit(media.PauseEvent, nil)
				emit(media.TimeUpdateEvent, time.Duration(0))
			}
		}
	}

	if v, ok := changed["Volume"]; ok {
		if level, ok := v.Value().(float64); ok {
			if t.muted && level == 0 {
				emit(media.VolumeChangeEvent, media.VolumeChange{Volume: t.volume, Muted: true})
			} else {
				t.volume, t.muted = level, false
				emit(media.VolumeChangeEvent, media.VolumeChange{Volume: level})
			}
		}
	}

	if v, ok := changed["Rate"]; ok {
		if rate, ok := v.Value().(float64); ok {
			emit(media.RateChangeEvent, rate)
		}
	}

	if v, ok := changed["Position"]; ok {
		if pos, ok := v.Value().(int64); ok {
			emit(media.TimeUpdateEvent, time.Duration(pos)*time.Microsecond)
		}
	}

	if v, ok := changed["Fullscreen"]; ok {
		if fs, ok := v.Value().(bool); ok {
			emit(media.FullscreenChangeEvent, fs)
		}
	}

	if v, ok := changed["CanPlay"]; ok {
		if canPlay, ok := v.Value().(bool); ok {
			if canPlay && !t.canPlay {
				emit(media.CanPlayEvent, t.duration)
			}
			t.canPlay = canPlay
		}
	}

	return events
}

func (t *translator) metadata(m Metadata, emit func(string, interface{})) {
	src := ""
	if u := m.URL(); u != nil {
		src = u.String()
	}
	d := m.Duration()

	if src != t.src {
		t.src, t.duration = src, d
		emit(media.SourceChangeEvent, media.Source{URL: m.URL(), Metadata: m})
		if src != "" {
			t.canPlay = true
			emit(media.CanPlayEvent, d)
		}
		return
	}

	if d != t.duration {
		t.duration = d
		emit(media.DurationChangeEvent, d)
	}
}

// seeked returns the event for the Seeked signal.
func (t *translator) seeked(pos int64) *event.Event {
	return event.New(media.SeekedEvent, event.WithDetail(time.Duration(pos)*time.Microsecond))
}
