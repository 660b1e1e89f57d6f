// Package controls implements the behaviour of the standard media
// controls. Rendering is left to whoever embeds them.
package controls

import (
	"time"

	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/media"
	"github.com/ericyan/omnimedia/slider"
	"github.com/ericyan/omnimedia/store"
)

// PlayButton toggles playback.
type PlayButton struct {
	*media.Consumer
}

// NewPlayButton returns a play button on host.
func NewPlayButton(host *element.Host) *PlayButton {
	return &PlayButton{media.NewConsumer(host)}
}

// Press requests playback if the media is paused, or a pause otherwise.
func (b *PlayButton) Press(trigger *event.Event) error {
	reqType := media.PauseRequest
	if b.View().Paused.Get() {
		reqType = media.PlayRequest
	}

	_, err := b.Request(reqType, event.WithTrigger(trigger))
	return err
}

// MuteButton toggles the audio.
type MuteButton struct {
	*media.Consumer
}

// NewMuteButton returns a mute button on host.
func NewMuteButton(host *element.Host) *MuteButton {
	return &MuteButton{media.NewConsumer(host)}
}

// Press requests the audio to be muted, or unmuted if it is muted.
func (b *MuteButton) Press(trigger *event.Event) error {
	reqType := media.MuteRequest
	if b.View().Muted.Get() {
		reqType = media.UnmuteRequest
	}

	_, err := b.Request(reqType, event.WithTrigger(trigger))
	return err
}

// TimeSlider scrubs through the media. Its value is the current time in
// seconds; dragging previews a position and seeks when the drag ends.
type TimeSlider struct {
	*slider.Slider

	consumer *media.Consumer
}

// NewTimeSlider returns a time slider on host.
func NewTimeSlider(host *element.Host) *TimeSlider {
	s := &TimeSlider{
		Slider:   slider.New(host, 0, 0, 0),
		consumer: media.NewConsumer(host),
	}

	media.Watch(s.consumer, func(v media.View) store.Readable[time.Duration] { return v.Duration }, func(d time.Duration) {
		s.SetRange(0, d.Seconds())
	})
	media.Watch(s.consumer, func(v media.View) store.Readable[time.Duration] { return v.CurrentTime }, func(t time.Duration) {
		s.SetValue(t.Seconds())
	})

	host.ListenTo(host, slider.DragEndEvent, func(e *event.Event) {
		st, ok := e.Detail.(slider.State)
		if !ok {
			return
		}

		s.consumer.Request(media.SeekRequest,
			event.WithDetail(seconds(st.Value)),
			event.WithTrigger(e),
		)
	})

	return s
}

// Consumer returns the media consumer of the slider.
func (s *TimeSlider) Consumer() *media.Consumer {
	return s.consumer
}

// Preview returns the position under the pointer while the slider is
// interactive.
func (s *TimeSlider) Preview() (time.Duration, bool) {
	st := s.Get()
	if !st.Interactive() {
		return 0, false
	}

	return seconds(st.PointerValue), true
}

// VolumeSlider sets the volume, in [0, 1], as it is moved.
type VolumeSlider struct {
	*slider.Slider

	consumer *media.Consumer
}

// NewVolumeSlider returns a volume slider on host.
func NewVolumeSlider(host *element.Host) *VolumeSlider {
	s := &VolumeSlider{
		Slider:   slider.New(host, 0, 1, 1),
		consumer: media.NewConsumer(host),
	}

	media.Watch(s.consumer, func(v media.View) store.Readable[float64] { return v.Volume }, s.SetValue)

	host.ListenTo(host, slider.ValueChangeEvent, func(e *event.Event) {
		st, ok := e.Detail.(slider.State)
		if !ok {
			return
		}

		s.consumer.Request(media.VolumeChangeRequest,
			event.WithDetail(st.Value),
			event.WithTrigger(e),
		)
	})

	return s
}

// Consumer returns the media consumer of the slider.
func (s *VolumeSlider) Consumer() *media.Consumer {
	return s.consumer
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
