package mpris

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/ericyan/omnimedia"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/internal/log"
	"github.com/ericyan/omnimedia/media"
)

// Errors returned by Player.
var (
	ErrAttached    = errors.New("mpris: player already attached")
	ErrNotAttached = errors.New("mpris: player not attached")
)

// Player is a media engine driving an MPRIS player. Commands are method
// calls on the player; its state arrives as PropertiesChanged signals.
type Player struct {
	dest string
	conn *dbus.Conn
	obj  dbus.BusObject

	mu      sync.Mutex
	tr      translator
	emit    func(*event.Event)
	signals chan *dbus.Signal
	done    chan struct{}
}

var _ omnimedia.Engine = (*Player)(nil)

// NewPlayer returns the player with the given bus name on the session bus.
func NewPlayer(dest string) (*Player, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}

	return NewPlayerWithConn(conn, dest), nil
}

// NewPlayerWithConn returns the player with the given bus name on conn.
func NewPlayerWithConn(conn *dbus.Conn, dest string) *Player {
	return &Player{
		dest: dest,
		conn: conn,
		obj:  conn.Object(dest, ObjectPath),
		tr:   newTranslator(),
	}
}

// Name returns the bus name of the player.
func (p *Player) Name() string {
	return p.dest
}

func (p *Player) matchRules() [][]dbus.MatchOption {
	return [][]dbus.MatchOption{
		{
			dbus.WithMatchSender(p.dest),
			dbus.WithMatchObjectPath(ObjectPath),
			dbus.WithMatchInterface(propertiesInterface),
			dbus.WithMatchMember("PropertiesChanged"),
		},
		{
			dbus.WithMatchSender(p.dest),
			dbus.WithMatchObjectPath(ObjectPath),
			dbus.WithMatchInterface(playerInterface),
			dbus.WithMatchMember("Seeked"),
		},
	}
}

// Attach implements omnimedia.Engine. The current state of the player is
// emitted before Attach returns.
func (p *Player) Attach(emit func(*event.Event)) error {
	p.mu.Lock()
	if p.emit != nil {
		p.mu.Unlock()
		return ErrAttached
	}
	p.mu.Unlock()

	for _, rule := range p.matchRules() {
		if err := p.conn.AddMatchSignal(rule...); err != nil {
			return err
		}
	}

	var props map[string]dbus.Variant
	err := p.obj.Call(propertiesInterface+".GetAll", 0, playerInterface).Store(&props)
	if err != nil {
		p.removeMatches()
		return err
	}

	signals := make(chan *dbus.Signal, 16)
	done := make(chan struct{})

	p.mu.Lock()
	p.tr = newTranslator()
	p.emit, p.signals, p.done = emit, signals, done
	events := p.tr.properties(props)
	p.mu.Unlock()

	p.conn.Signal(signals)
	go p.loop(signals, done)

	for _, e := range events {
		emit(e)
	}

	log.WithField("player", p.dest).Debug("mpris: attached")

	return nil
}

// Detach implements omnimedia.Engine.
func (p *Player) Detach() error {
	p.mu.Lock()
	signals, done := p.signals, p.done
	p.emit, p.signals, p.done = nil, nil, nil
	p.mu.Unlock()

	if done == nil {
		return ErrNotAttached
	}

	p.conn.RemoveSignal(signals)
	close(done)

	return p.removeMatches()
}

func (p *Player) removeMatches() error {
	var errs []error
	for _, rule := range p.matchRules() {
		errs = append(errs, p.conn.RemoveMatchSignal(rule...))
	}

	return errors.Join(errs...)
}

func (p *Player) loop(signals <-chan *dbus.Signal, done <-chan struct{}) {
	for {
		select {
		case sig := <-signals:
			if sig == nil || sig.Path != ObjectPath {
				continue
			}
			p.handle(sig)
		case <-done:
			return
		}
	}
}

func (p *Player) handle(sig *dbus.Signal) {
	var events []*event.Event

	p.mu.Lock()
	emit := p.emit
	switch sig.Name {
	case propertiesInterface + ".PropertiesChanged":
		if len(sig.Body) < 2 {
			break
		}
		iface, _ := sig.Body[0].(string)
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if ok && (iface == playerInterface || iface == rootInterface) {
			events = p.tr.properties(changed)
		}
	case playerInterface + ".Seeked":
		if len(sig.Body) > 0 {
			if pos, ok := sig.Body[0].(int64); ok {
				events = append(events, p.tr.seeked(pos))
			}
		}
	}
	p.mu.Unlock()

	if emit == nil {
		return
	}
	for _, e := range events {
		emit(e)
	}
}

func (p *Player) call(ctx context.Context, method string, args ...interface{}) error {
	return p.obj.CallWithContext(ctx, playerInterface+"."+method, 0, args...).Err
}

func (p *Player) set(ctx context.Context, iface, prop string, v interface{}) error {
	return p.obj.CallWithContext(ctx, propertiesInterface+".Set", 0, iface, prop, dbus.MakeVariant(v)).Err
}

func (p *Player) get(iface, prop string) (dbus.Variant, error) {
	return p.obj.GetProperty(iface + "." + prop)
}

// emitNow emits an event the player will not signal itself.
func (p *Player) emitNow(ctx context.Context, eventType string, detail interface{}) {
	p.mu.Lock()
	emit := p.emit
	p.mu.Unlock()

	if emit != nil {
		emit(event.New(eventType, event.WithDetail(detail), event.WithTrigger(event.FromContext(ctx))))
	}
}

// Load implements omnimedia.MediaLoader. Most players start playing the
// media they open.
func (p *Player) Load(ctx context.Context, u *url.URL, _ omnimedia.MediaMetadata) error {
	return p.call(ctx, "OpenUri", u.String())
}

// Play implements omnimedia.PlaybackController.
func (p *Player) Play(ctx context.Context) error {
	return p.call(ctx, "Play")
}

// Pause implements omnimedia.PlaybackController.
func (p *Player) Pause(ctx context.Context) error {
	return p.call(ctx, "Pause")
}

// Stop stops playback and resets the position.
func (p *Player) Stop(ctx context.Context) error {
	return p.call(ctx, "Stop")
}

// SetCurrentTime implements omnimedia.PlaybackController. Players without
// track ids are seeked relative to their position.
func (p *Player) SetCurrentTime(ctx context.Context, pos time.Duration) error {
	p.emitNow(ctx, media.SeekingEvent, pos)

	if v, err := p.get(playerInterface, "Metadata"); err == nil {
		if m, ok := v.Value().(map[string]dbus.Variant); ok {
			if id := Metadata(m).TrackID(); id != "" && !strings.HasSuffix(string(id), "/NoTrack") {
				return p.call(ctx, "SetPosition", id, pos.Microseconds())
			}
		}
	}

	return p.call(ctx, "Seek", (pos - p.Position()).Microseconds())
}

// Position returns the playback position.
func (p *Player) Position() time.Duration {
	v, err := p.get(playerInterface, "Position")
	if err != nil {
		return 0
	}

	pos, _ := v.Value().(int64)
	return time.Duration(pos) * time.Microsecond
}

// PlaybackStatus returns Playing, Paused or Stopped.
func (p *Player) PlaybackStatus() string {
	v, err := p.get(playerInterface, "PlaybackStatus")
	if err != nil {
		return "Unknown"
	}

	s, _ := v.Value().(string)
	return s
}

// SetPlaybackRate implements omnimedia.PlaybackController.
func (p *Player) SetPlaybackRate(ctx context.Context, rate float64) error {
	return p.set(ctx, playerInterface, "Rate", rate)
}

// SetFullscreen implements omnimedia.PlaybackController.
func (p *Player) SetFullscreen(ctx context.Context, fullscreen bool) error {
	return p.set(ctx, rootInterface, "Fullscreen", fullscreen)
}

// SetVolume implements omnimedia.VolumeController. Setting the volume
// unmutes the player.
func (p *Player) SetVolume(ctx context.Context, level float64) error {
	p.mu.Lock()
	p.tr.muted = false
	p.mu.Unlock()

	return p.set(ctx, playerInterface, "Volume", level)
}

// SetMuted implements omnimedia.VolumeController.
func (p *Player) SetMuted(ctx context.Context, muted bool) error {
	p.mu.Lock()
	if p.tr.muted == muted {
		v := media.VolumeChange{Volume: p.tr.volume, Muted: muted}
		p.mu.Unlock()

		p.emitNow(ctx, media.VolumeChangeEvent, v)
		return nil
	}
	p.tr.muted = muted
	level := p.tr.volume
	p.mu.Unlock()

	if muted {
		level = 0
	}

	return p.set(ctx, playerInterface, "Volume", level)
}
