// Package enginetest provides an in-memory media engine for tests.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/ericyan/omnimedia"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/media"
)

// ErrDetached is returned by engine methods called while detached.
var ErrDetached = errors.New("enginetest: engine not attached")

// Engine records the calls it receives and answers them with the events a
// real engine would emit.
type Engine struct {
	// PlayErr, if set, is returned by Play.
	PlayErr error
	// ChainContext makes emitted events carry the trigger from the ctx of
	// the call that caused them.
	ChainContext bool
	// SkipUnchanged makes Play and Pause emit nothing when playback is
	// already in the requested state, as MPRIS players do.
	SkipUnchanged bool

	mu      sync.Mutex
	emit    func(*event.Event)
	calls   []string
	volume  float64
	muted   bool
	playing bool
}

// New returns a detached engine at full volume.
func New() *Engine {
	return &Engine{volume: 1}
}

// Attach implements omnimedia.Engine.
func (e *Engine) Attach(emit func(*event.Event)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.emit = emit

	return nil
}

// Detach implements omnimedia.Engine.
func (e *Engine) Detach() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.emit = nil

	return nil
}

// IsAttached returns true if events are delivered.
func (e *Engine) IsAttached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.emit != nil
}

// Calls returns the calls received so far.
func (e *Engine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.calls...)
}

// Ready emits can-play with the given duration.
func (e *Engine) Ready(duration time.Duration) {
	e.Emit(event.New(media.CanPlayEvent, event.WithDetail(duration)))
}

// Emit delivers ev as if the engine had emitted it.
func (e *Engine) Emit(ev *event.Event) {
	e.mu.Lock()
	emit := e.emit
	e.mu.Unlock()

	if emit != nil {
		emit(ev)
	}
}

func (e *Engine) record(ctx context.Context, format string, args ...interface{}) (func(string, interface{}), error) {
	e.mu.Lock()
	attached := e.emit != nil
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
	e.mu.Unlock()

	if !attached {
		return nil, ErrDetached
	}

	var trigger *event.Event
	if e.ChainContext {
		trigger = event.FromContext(ctx)
	}

	return func(eventType string, detail interface{}) {
		e.Emit(event.New(eventType, event.WithDetail(detail), event.WithTrigger(trigger)))
	}, nil
}

// Load implements omnimedia.MediaLoader.
func (e *Engine) Load(ctx context.Context, u *url.URL, md omnimedia.MediaMetadata) error {
	emit, err := e.record(ctx, "load %s", u)
	if err != nil {
		return err
	}

	emit(media.SourceChangeEvent, media.Source{URL: u, Metadata: md})
	return nil
}

// setPlaying records the playback status and reports whether it changed.
func (e *Engine) setPlaying(playing bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := e.playing != playing
	e.playing = playing

	return changed
}

// Play implements omnimedia.PlaybackController.
func (e *Engine) Play(ctx context.Context) error {
	emit, err := e.record(ctx, "play")
	if err != nil {
		return err
	}
	if e.PlayErr != nil {
		return e.PlayErr
	}
	if !e.setPlaying(true) && e.SkipUnchanged {
		return nil
	}

	emit(media.PlayEvent, nil)
	emit(media.PlayingEvent, nil)
	return nil
}

// Pause implements omnimedia.PlaybackController.
func (e *Engine) Pause(ctx context.Context) error {
	emit, err := e.record(ctx, "pause")
	if err != nil {
		return err
	}
	if !e.setPlaying(false) && e.SkipUnchanged {
		return nil
	}

	emit(media.PauseEvent, nil)
	return nil
}

// SetCurrentTime implements omnimedia.PlaybackController.
func (e *Engine) SetCurrentTime(ctx context.Context, pos time.Duration) error {
	emit, err := e.record(ctx, "seek %s", pos)
	if err != nil {
		return err
	}

	emit(media.SeekingEvent, pos)
	emit(media.SeekedEvent, pos)
	return nil
}

// SetPlaybackRate implements omnimedia.PlaybackController.
func (e *Engine) SetPlaybackRate(ctx context.Context, rate float64) error {
	emit, err := e.record(ctx, "rate %g", rate)
	if err != nil {
		return err
	}

	emit(media.RateChangeEvent, rate)
	return nil
}

// SetFullscreen implements omnimedia.PlaybackController.
func (e *Engine) SetFullscreen(ctx context.Context, fullscreen bool) error {
	emit, err := e.record(ctx, "fullscreen %t", fullscreen)
	if err != nil {
		return err
	}

	emit(media.FullscreenChangeEvent, fullscreen)
	return nil
}

// SetVolume implements omnimedia.VolumeController.
func (e *Engine) SetVolume(ctx context.Context, level float64) error {
	emit, err := e.record(ctx, "volume %g", level)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.volume = level
	v := media.VolumeChange{Volume: e.volume, Muted: e.muted}
	e.mu.Unlock()

	emit(media.VolumeChangeEvent, v)
	return nil
}

// SetMuted implements omnimedia.VolumeController.
func (e *Engine) SetMuted(ctx context.Context, muted bool) error {
	emit, err := e.record(ctx, "muted %t", muted)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.muted = muted
	v := media.VolumeChange{Volume: e.volume, Muted: e.muted}
	e.mu.Unlock()

	emit(media.VolumeChangeEvent, v)
	return nil
}
