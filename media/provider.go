package media

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/ericyan/omnimedia"
	"github.com/ericyan/omnimedia/discovery"
	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/internal/log"
	"github.com/ericyan/omnimedia/queue"
)

// Provider adapts an engine to the media state. Requests are buffered in
// its queue until the engine reports it can play; events emitted by the
// engine update the state and are dispatched on the provider host, chained
// to the requests that caused them.
type Provider struct {
	host     *element.Host
	engine   omnimedia.Engine
	state    *State
	queue    *queue.Queue
	tracker  tracker
	consumer *discovery.Consumer
	autoplay bool

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	attached   bool
	waiting    *event.Event
	autoplayed bool
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithAutoplay makes the provider start playback once the engine can play.
func WithAutoplay() ProviderOption {
	return func(p *Provider) {
		p.autoplay = true
	}
}

// NewProvider attaches engine to host. The engine is attached every time
// host connects and detached when it disconnects.
func NewProvider(host *element.Host, engine omnimedia.Engine, opts ...ProviderOption) *Provider {
	p := &Provider{
		host:   host,
		engine: engine,
		state:  NewState(),
		queue:  queue.New(queue.WithName(host.Name())),
	}
	for _, opt := range opts {
		opt(p)
	}

	host.OnConnect(p.connect)
	p.consumer = discovery.Discover(host, ProviderConnectEvent, p)

	return p
}

func (p *Provider) connect(h *element.Host) {
	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	p.ctx, p.cancel = ctx, cancel
	p.mu.Unlock()

	if err := p.engine.Attach(p.handle); err != nil {
		log.WithField("provider", h.String()).WithError(err).Warn("media: failed to attach engine")
		p.state.Error.Set(err)
		h.Dispatch(event.New(ErrorEvent, event.WithDetail(err), event.Bubbles()))
	} else {
		p.mu.Lock()
		p.attached = true
		p.mu.Unlock()

		p.queue.Serve(KeySource)
	}

	h.OnDisconnect(p.disconnect)
}

func (p *Provider) disconnect() {
	p.mu.Lock()
	attached, cancel := p.attached, p.cancel
	p.attached = false
	p.waiting = nil
	p.autoplayed = false
	p.mu.Unlock()

	if attached {
		if err := p.engine.Detach(); err != nil {
			log.WithField("provider", p.host.String()).WithError(err).Warn("media: failed to detach engine")
		}
	}
	cancel()

	p.queue.Destroy()
	p.tracker.clear()
	p.state.Reset()
}

// Host returns the provider host.
func (p *Provider) Host() *element.Host {
	return p.host
}

// View returns the read side of the media state.
func (p *Provider) View() View {
	return p.state.View()
}

// Controller returns the controller the provider is attached to.
func (p *Provider) Controller() mo.Option[*element.Host] {
	return p.consumer.Owner()
}

// Pending returns the number of buffered requests.
func (p *Provider) Pending() int {
	return p.queue.Size()
}

// WaitUntilReady blocks until the buffered requests have been served.
func (p *Provider) WaitUntilReady(ctx context.Context) error {
	return p.queue.WaitForFlush(ctx)
}

// Play requests playback. The trigger is the event that caused the
// request, and may be nil.
func (p *Provider) Play(trigger *event.Event) {
	p.request(PlayRequest, trigger, func(s Snapshot) bool {
		return !s.Paused
	}, func(ctx context.Context) error {
		return p.engine.Play(ctx)
	})
}

// Pause requests playback to pause.
func (p *Provider) Pause(trigger *event.Event) {
	p.request(PauseRequest, trigger, func(s Snapshot) bool {
		return s.Paused
	}, func(ctx context.Context) error {
		return p.engine.Pause(ctx)
	})
}

// SetCurrentTime requests a seek to pos.
func (p *Provider) SetCurrentTime(pos time.Duration, trigger *event.Event) {
	p.request(SeekRequest, trigger, nil, func(ctx context.Context) error {
		return p.engine.SetCurrentTime(ctx, pos)
	})
}

// SetVolume requests the volume to change to level, within [0, 1].
func (p *Provider) SetVolume(level float64, trigger *event.Event) {
	level = clamp(level, 0, 1)

	p.request(VolumeChangeRequest, trigger, func(s Snapshot) bool {
		return s.Volume == level
	}, func(ctx context.Context) error {
		return p.engine.SetVolume(ctx, level)
	})
}

// SetMuted requests the audio to be muted or unmuted.
func (p *Provider) SetMuted(muted bool, trigger *event.Event) {
	reqType := UnmuteRequest
	if muted {
		reqType = MuteRequest
	}

	p.request(reqType, trigger, func(s Snapshot) bool {
		return s.Muted == muted
	}, func(ctx context.Context) error {
		return p.engine.SetMuted(ctx, muted)
	})
}

// SetPlaybackRate requests the playback rate to change.
func (p *Provider) SetPlaybackRate(rate float64, trigger *event.Event) {
	p.request(RateChangeRequest, trigger, func(s Snapshot) bool {
		return s.PlaybackRate == rate
	}, func(ctx context.Context) error {
		return p.engine.SetPlaybackRate(ctx, rate)
	})
}

// SetFullscreen requests to enter or exit fullscreen.
func (p *Provider) SetFullscreen(fullscreen bool, trigger *event.Event) {
	reqType := ExitFullscreenRequest
	if fullscreen {
		reqType = EnterFullscreenRequest
	}

	p.request(reqType, trigger, func(s Snapshot) bool {
		return s.Fullscreen == fullscreen
	}, func(ctx context.Context) error {
		return p.engine.SetFullscreen(ctx, fullscreen)
	})
}

// EnterFullscreen is SetFullscreen(true, trigger).
func (p *Provider) EnterFullscreen(trigger *event.Event) {
	p.SetFullscreen(true, trigger)
}

// ExitFullscreen is SetFullscreen(false, trigger).
func (p *Provider) ExitFullscreen(trigger *event.Event) {
	p.SetFullscreen(false, trigger)
}

// Load requests new media. Unlike other requests it does not wait for
// the engine to be ready, as loading is what makes it ready.
func (p *Provider) Load(src Source, trigger *event.Event) {
	if src.URL == nil {
		log.WithField("provider", p.host.String()).Warn("media: load without url ignored")
		return
	}

	p.request(LoadRequest, trigger, nil, func(ctx context.Context) error {
		return p.engine.Load(ctx, src.URL, src.Metadata)
	})

	p.mu.Lock()
	attached := p.attached
	p.mu.Unlock()

	if attached {
		p.queue.Serve(KeySource)
	}
}

// request queues call until the engine can play. When the request is
// served and unchanged reports that the state already is what it asks
// for, the engine is still called but no event is expected from it, as
// engines do not report changes that did not happen.
func (p *Provider) request(reqType string, trigger *event.Event, unchanged func(Snapshot) bool, call func(context.Context) error) {
	req := trigger
	if req == nil || req.Type != reqType {
		req = event.New(reqType, event.WithTrigger(trigger))
	}
	key, _ := RequestKey(reqType)

	p.queue.Queue(key, func() error {
		if unchanged != nil && unchanged(p.state.Snapshot()) {
			p.tracker.supersede(key)
		} else {
			p.tracker.expect(req)
		}

		if err := call(event.NewContext(p.context(), req)); err != nil {
			p.tracker.forget(req)
			p.fail(key, req, err)
		}

		return nil
	})
}

func (p *Provider) context() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil {
		return context.Background()
	}

	return p.ctx
}

// fail turns an engine error into an event chained to req. Playback
// failures leave the state paused, as the engine never started.
func (p *Provider) fail(key queue.Key, req *event.Event, err error) {
	eventType := ErrorEvent
	if req.Type == PlayRequest {
		eventType = PlayFailEvent
		if event.HasTriggerEvent(req, CanPlayEvent) {
			eventType = AutoplayFailEvent
		}
	}

	log.WithFields(log.Fields{
		"provider": p.host.String(),
		"request":  req.String(),
	}).WithError(err).Warn("media: request failed")

	f := &Failure{Key: key, Err: err}
	if eventType == ErrorEvent {
		p.state.Error.Set(f)
	} else {
		p.state.Paused.Set(true)
		p.state.Playing.Set(false)
	}

	p.host.Dispatch(event.New(eventType,
		event.WithDetail(f),
		event.WithTrigger(req),
		event.Bubbles(),
	))
}

// handle receives the events emitted by the engine.
func (p *Provider) handle(e *event.Event) {
	if !p.host.IsConnected() {
		return
	}

	trigger := e.TriggerEvent()
	if tracked := p.tracker.take(e.Type); trigger == nil {
		trigger = tracked
	}

	p.mu.Lock()
	switch e.Type {
	case PlayingEvent:
		if p.waiting != nil {
			trigger = p.waiting
		}
		p.waiting = nil
	case PauseEvent, EndedEvent:
		p.waiting = nil
	case SourceChangeEvent:
		p.waiting = nil
		p.autoplayed = false
	}
	p.mu.Unlock()

	out := event.New(e.Type,
		event.WithDetail(e.Detail),
		event.WithTrigger(trigger),
		event.Bubbles(),
	)

	if e.Type == WaitingEvent {
		p.mu.Lock()
		p.waiting = out
		p.mu.Unlock()
	}
	if e.Type == SourceChangeEvent {
		p.queue.Stop()
	}

	p.apply(out)

	log.WithFields(log.Fields{
		"provider": p.host.String(),
		"event":    out.String(),
	}).Debug("media: engine event")

	p.host.Dispatch(out)

	if e.Type == CanPlayEvent {
		p.queue.Start()
		p.tryAutoplay(out)
	}
}

// apply updates the state from a media event.
func (p *Provider) apply(e *event.Event) {
	s := p.state

	switch e.Type {
	case CanPlayEvent:
		if d, ok := e.Detail.(time.Duration); ok {
			s.Duration.Set(d)
		}
		s.CanPlay.Set(true)
	case PlayEvent:
		s.Paused.Set(false)
		s.Ended.Set(false)
	case PauseEvent:
		s.Paused.Set(true)
		s.Playing.Set(false)
	case PlayingEvent:
		s.Paused.Set(false)
		s.Waiting.Set(false)
		s.Ended.Set(false)
		s.Started.Set(true)
		s.Playing.Set(true)
	case WaitingEvent:
		s.Playing.Set(false)
		s.Waiting.Set(true)
	case EndedEvent:
		s.Paused.Set(true)
		s.Playing.Set(false)
		s.Ended.Set(true)
	case SeekingEvent:
		setDuration(s.CurrentTime, e.Detail)
		s.Seeking.Set(true)
	case SeekedEvent:
		setDuration(s.CurrentTime, e.Detail)
		s.Seeking.Set(false)
	case TimeUpdateEvent:
		setDuration(s.CurrentTime, e.Detail)
	case DurationChangeEvent:
		setDuration(s.Duration, e.Detail)
	case ProgressEvent:
		setDuration(s.Buffered, e.Detail)
	case VolumeChangeEvent:
		if v, ok := e.Detail.(VolumeChange); ok {
			s.Volume.Set(v.Volume)
			s.Muted.Set(v.Muted)
		}
	case RateChangeEvent:
		if rate, ok := e.Detail.(float64); ok {
			s.PlaybackRate.Set(rate)
		}
	case FullscreenChangeEvent:
		if fs, ok := e.Detail.(bool); ok {
			s.Fullscreen.Set(fs)
		}
	case SourceChangeEvent:
		snap := s.Snapshot()
		next := InitialSnapshot
		next.Volume, next.Muted = snap.Volume, snap.Muted
		next.PlaybackRate, next.Fullscreen = snap.PlaybackRate, snap.Fullscreen
		if src, ok := e.Detail.(Source); ok {
			next.Source, next.Metadata = src.URL, src.Metadata
		}
		s.Restore(next)
	case ErrorEvent:
		if err, ok := e.Detail.(error); ok {
			s.Error.Set(err)
		} else {
			s.Error.Set(errors.New("media: engine error"))
		}
	}
}

func (p *Provider) tryAutoplay(canPlay *event.Event) {
	p.mu.Lock()
	if !p.autoplay || p.autoplayed {
		p.mu.Unlock()
		return
	}
	p.autoplayed = true
	p.mu.Unlock()

	if !p.state.Paused.Get() {
		return
	}

	req := event.New(PlayRequest, event.WithTrigger(canPlay))
	p.tracker.expect(req)
	if err := p.engine.Play(event.NewContext(p.context(), req)); err != nil {
		p.tracker.forget(req)
		p.fail(KeyPaused, req, err)
		return
	}

	p.host.Dispatch(event.New(AutoplayEvent, event.WithTrigger(req), event.Bubbles()))
}

func setDuration(w interface{ Set(time.Duration) }, detail interface{}) {
	if d, ok := detail.(time.Duration); ok {
		w.Set(d)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
