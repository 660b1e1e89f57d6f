package media

import (
	"testing"
	"time"

	"github.com/ericyan/omnimedia/event"
)

func TestTrackerSlots(t *testing.T) {
	now := time.Unix(0, 0)
	tr := &tracker{now: func() time.Time { return now }}

	first := event.New(VolumeChangeRequest)
	second := event.New(VolumeChangeRequest)
	tr.expect(first)
	tr.expect(second)
	if got := tr.take(VolumeChangeEvent); got != second {
		t.Errorf("take(volume-change): got %s; want the newer request", got)
	}
	if got := tr.take(VolumeChangeEvent); got != nil {
		t.Errorf("take(volume-change): got %s; want nil", got)
	}

	// A pause the engine reports on its own ends a pending play request.
	play := event.New(PlayRequest)
	tr.expect(play)
	if got := tr.take(PauseEvent); got != nil {
		t.Errorf("take(pause): got %s; want nil", got)
	}
	if got := tr.take(PlayEvent); got != nil {
		t.Errorf("take(play) after pause: got %s; want nil", got)
	}

	// Expectations expire.
	mute := event.New(MuteRequest)
	tr.expect(mute)
	now = now.Add(expectTimeout + time.Second)
	if got := tr.take(VolumeChangeEvent); got != nil {
		t.Errorf("take(volume-change) after timeout: got %s; want nil", got)
	}

	// Engines may skip seeking and only report seeked.
	seek := event.New(SeekRequest)
	tr.expect(seek)
	if got := tr.take(SeekedEvent); got != seek {
		t.Errorf("take(seeked): got %s; want the seek request", got)
	}
	if got := tr.take(SeekingEvent); got != nil {
		t.Errorf("take(seeking) after seeked: got %s; want nil", got)
	}

	// Failed requests are forgotten, newer ones on the same key are kept.
	pause := event.New(PauseRequest)
	tr.expect(play)
	tr.expect(pause)
	tr.forget(play)
	if got := tr.take(PauseEvent); got != pause {
		t.Errorf("take(pause): got %s; want the pause request", got)
	}
}

func TestTrackerOldestFirst(t *testing.T) {
	tr := &tracker{}

	volume := event.New(VolumeChangeRequest)
	mute := event.New(MuteRequest)
	tr.expect(volume)
	tr.expect(mute)

	for i, want := range []*event.Event{volume, mute, nil} {
		if got := tr.take(VolumeChangeEvent); got != want {
			t.Errorf("take #%d: got %s; want %s", i, got, want)
		}
	}
}
