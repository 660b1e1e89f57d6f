package media

import (
	"net/url"
	"time"

	"github.com/ericyan/omnimedia"
	"github.com/ericyan/omnimedia/store"
)

// Snapshot is the media state at one point in time.
type Snapshot struct {
	Paused       bool
	Playing      bool
	Ended        bool
	Waiting      bool
	Started      bool
	Seeking      bool
	CanPlay      bool
	Muted        bool
	Fullscreen   bool
	Volume       float64
	PlaybackRate float64
	CurrentTime  time.Duration
	Duration     time.Duration
	Buffered     time.Duration
	Source       *url.URL
	Metadata     omnimedia.MediaMetadata
	Error        error
}

// InitialSnapshot is the state of a provider without media.
var InitialSnapshot = Snapshot{
	Paused:       true,
	Volume:       1,
	PlaybackRate: 1,
}

// State is the media state owned by a provider. Only the provider writes
// to it; everybody else reads it through a View.
type State struct {
	Paused       *store.Writable[bool]
	Playing      *store.Writable[bool]
	Ended        *store.Writable[bool]
	Waiting      *store.Writable[bool]
	Started      *store.Writable[bool]
	Seeking      *store.Writable[bool]
	CanPlay      *store.Writable[bool]
	Muted        *store.Writable[bool]
	Fullscreen   *store.Writable[bool]
	Volume       *store.Writable[float64]
	PlaybackRate *store.Writable[float64]
	CurrentTime  *store.Writable[time.Duration]
	Duration     *store.Writable[time.Duration]
	Buffered     *store.Writable[time.Duration]
	Source       *store.Writable[*url.URL]
	Metadata     *store.Writable[omnimedia.MediaMetadata]
	Error        *store.Writable[error]
}

// NewState returns a state holding InitialSnapshot.
func NewState() *State {
	s := InitialSnapshot

	return &State{
		Paused:       store.New(s.Paused),
		Playing:      store.New(s.Playing),
		Ended:        store.New(s.Ended),
		Waiting:      store.New(s.Waiting),
		Started:      store.New(s.Started),
		Seeking:      store.New(s.Seeking),
		CanPlay:      store.New(s.CanPlay),
		Muted:        store.New(s.Muted),
		Fullscreen:   store.New(s.Fullscreen),
		Volume:       store.New(s.Volume),
		PlaybackRate: store.New(s.PlaybackRate),
		CurrentTime:  store.New(s.CurrentTime),
		Duration:     store.New(s.Duration),
		Buffered:     store.New(s.Buffered),
		Source:       store.New(s.Source),
		Metadata:     store.New(s.Metadata),
		Error:        store.New(s.Error),
	}
}

// Reset restores InitialSnapshot.
func (s *State) Reset() {
	s.Restore(InitialSnapshot)
}

// Restore sets every store from snap.
func (s *State) Restore(snap Snapshot) {
	s.Paused.Set(snap.Paused)
	s.Playing.Set(snap.Playing)
	s.Ended.Set(snap.Ended)
	s.Waiting.Set(snap.Waiting)
	s.Started.Set(snap.Started)
	s.Seeking.Set(snap.Seeking)
	s.CanPlay.Set(snap.CanPlay)
	s.Muted.Set(snap.Muted)
	s.Fullscreen.Set(snap.Fullscreen)
	s.Volume.Set(snap.Volume)
	s.PlaybackRate.Set(snap.PlaybackRate)
	s.CurrentTime.Set(snap.CurrentTime)
	s.Duration.Set(snap.Duration)
	s.Buffered.Set(snap.Buffered)
	s.Source.Set(snap.Source)
	s.Metadata.Set(snap.Metadata)
	s.Error.Set(snap.Error)
}

// Snapshot returns the current values.
func (s *State) Snapshot() Snapshot {
	return s.View().Snapshot()
}

// View returns a read-only view of s.
func (s *State) View() View {
	return View{
		Paused:       s.Paused.Readonly(),
		Playing:      s.Playing.Readonly(),
		Ended:        s.Ended.Readonly(),
		Waiting:      s.Waiting.Readonly(),
		Started:      s.Started.Readonly(),
		Seeking:      s.Seeking.Readonly(),
		CanPlay:      s.CanPlay.Readonly(),
		Muted:        s.Muted.Readonly(),
		Fullscreen:   s.Fullscreen.Readonly(),
		Volume:       s.Volume.Readonly(),
		PlaybackRate: s.PlaybackRate.Readonly(),
		CurrentTime:  s.CurrentTime.Readonly(),
		Duration:     s.Duration.Readonly(),
		Buffered:     s.Buffered.Readonly(),
		Source:       s.Source.Readonly(),
		Metadata:     s.Metadata.Readonly(),
		Error:        s.Error.Readonly(),
	}
}

// View is the read side of a State.
type View struct {
	Paused       store.Readable[bool]
	Playing      store.Readable[bool]
	Ended        store.Readable[bool]
	Waiting      store.Readable[bool]
	Started      store.Readable[bool]
	Seeking      store.Readable[bool]
	CanPlay      store.Readable[bool]
	Muted        store.Readable[bool]
	Fullscreen   store.Readable[bool]
	Volume       store.Readable[float64]
	PlaybackRate store.Readable[float64]
	CurrentTime  store.Readable[time.Duration]
	Duration     store.Readable[time.Duration]
	Buffered     store.Readable[time.Duration]
	Source       store.Readable[*url.URL]
	Metadata     store.Readable[omnimedia.MediaMetadata]
	Error        store.Readable[error]
}

// Snapshot returns the current values.
func (v View) Snapshot() Snapshot {
	return Snapshot{
		Paused:       v.Paused.Get(),
		Playing:      v.Playing.Get(),
		Ended:        v.Ended.Get(),
		Waiting:      v.Waiting.Get(),
		Started:      v.Started.Get(),
		Seeking:      v.Seeking.Get(),
		CanPlay:      v.CanPlay.Get(),
		Muted:        v.Muted.Get(),
		Fullscreen:   v.Fullscreen.Get(),
		Volume:       v.Volume.Get(),
		PlaybackRate: v.PlaybackRate.Get(),
		CurrentTime:  v.CurrentTime.Get(),
		Duration:     v.Duration.Get(),
		Buffered:     v.Buffered.Get(),
		Source:       v.Source.Get(),
		Metadata:     v.Metadata.Get(),
		Error:        v.Error.Get(),
	}
}

// relay is a View whose sources can be swapped while subscribers stay
// attached. Without a source it reads as InitialSnapshot.
type relay struct {
	paused       *store.Proxy[bool]
	playing      *store.Proxy[bool]
	ended        *store.Proxy[bool]
	waiting      *store.Proxy[bool]
	started      *store.Proxy[bool]
	seeking      *store.Proxy[bool]
	canPlay      *store.Proxy[bool]
	muted        *store.Proxy[bool]
	fullscreen   *store.Proxy[bool]
	volume       *store.Proxy[float64]
	playbackRate *store.Proxy[float64]
	currentTime  *store.Proxy[time.Duration]
	duration     *store.Proxy[time.Duration]
	buffered     *store.Proxy[time.Duration]
	source       *store.Proxy[*url.URL]
	metadata     *store.Proxy[omnimedia.MediaMetadata]
	err          *store.Proxy[error]
}

func newRelay() *relay {
	s := InitialSnapshot

	return &relay{
		paused:       store.NewProxy(s.Paused),
		playing:      store.NewProxy(s.Playing),
		ended:        store.NewProxy(s.Ended),
		waiting:      store.NewProxy(s.Waiting),
		started:      store.NewProxy(s.Started),
		seeking:      store.NewProxy(s.Seeking),
		canPlay:      store.NewProxy(s.CanPlay),
		muted:        store.NewProxy(s.Muted),
		fullscreen:   store.NewProxy(s.Fullscreen),
		volume:       store.NewProxy(s.Volume),
		playbackRate: store.NewProxy(s.PlaybackRate),
		currentTime:  store.NewProxy(s.CurrentTime),
		duration:     store.NewProxy(s.Duration),
		buffered:     store.NewProxy(s.Buffered),
		source:       store.NewProxy(s.Source),
		metadata:     store.NewProxy(s.Metadata),
		err:          store.NewProxy(s.Error),
	}
}

// point makes r mirror src, or InitialSnapshot if src is nil.
func (r *relay) point(src *View) {
	var v View
	if src != nil {
		v = *src
	}

	r.paused.SetSource(v.Paused)
	r.playing.SetSource(v.Playing)
	r.ended.SetSource(v.Ended)
	r.waiting.SetSource(v.Waiting)
	r.started.SetSource(v.Started)
	r.seeking.SetSource(v.Seeking)
	r.canPlay.SetSource(v.CanPlay)
	r.muted.SetSource(v.Muted)
	r.fullscreen.SetSource(v.Fullscreen)
	r.volume.SetSource(v.Volume)
	r.playbackRate.SetSource(v.PlaybackRate)
	r.currentTime.SetSource(v.CurrentTime)
	r.duration.SetSource(v.Duration)
	r.buffered.SetSource(v.Buffered)
	r.source.SetSource(v.Source)
	r.metadata.SetSource(v.Metadata)
	r.err.SetSource(v.Error)
}

func (r *relay) view() View {
	return View{
		Paused:       r.paused,
		Playing:      r.playing,
		Ended:        r.ended,
		Waiting:      r.waiting,
		Started:      r.started,
		Seeking:      r.seeking,
		CanPlay:      r.canPlay,
		Muted:        r.muted,
		Fullscreen:   r.fullscreen,
		Volume:       r.volume,
		PlaybackRate: r.playbackRate,
		CurrentTime:  r.currentTime,
		Duration:     r.duration,
		Buffered:     r.buffered,
		Source:       r.source,
		Metadata:     r.metadata,
		Error:        r.err,
	}
}
