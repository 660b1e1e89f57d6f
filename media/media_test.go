package media_test

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/internal/enginetest"
	"github.com/ericyan/omnimedia/media"
	"github.com/ericyan/omnimedia/store"
)

type player struct {
	doc        *element.Host
	controller *media.Controller
	provider   *media.Provider
	engine     *enginetest.Engine
	button     *media.Consumer
}

func newPlayer(opts ...media.ProviderOption) *player {
	p := &player{
		doc:    element.NewDocument("document"),
		engine: enginetest.New(),
	}

	ctrl := element.New("controller")
	p.controller = media.NewController(ctrl)

	video := element.New("video")
	p.provider = media.NewProvider(video, p.engine, opts...)

	button := element.New("button")
	p.button = media.NewConsumer(button)

	ctrl.AppendChild(video)
	ctrl.AppendChild(button)
	p.doc.AppendChild(ctrl)

	return p
}

// record collects the events of the given type reaching the document.
func (p *player) record(eventType string) *[]*event.Event {
	var events []*event.Event
	p.doc.Listen(eventType, func(e *event.Event) {
		events = append(events, e)
	})

	return &events
}

func TestPlayRequestChain(t *testing.T) {
	p := newPlayer()
	plays := p.record(media.PlayEvent)

	p.engine.Ready(time.Minute)

	pointer := event.New("pointer-down", event.Trusted())
	if _, err := p.button.Request(media.PlayRequest, event.WithTrigger(pointer)); err != nil {
		t.Fatal(err)
	}

	if len(*plays) != 1 {
		t.Fatalf("got %d play events; want 1", len(*plays))
	}

	play := (*plays)[0]
	if !event.HasTriggerEvent(play, media.PlayRequest) {
		t.Errorf("play event %s should be triggered by a play request", play)
	}
	if !play.IsOriginTrusted() {
		t.Errorf("play event %s should have a trusted origin", play)
	}
	if play.IsTrusted() {
		t.Error("play event itself should not be trusted")
	}
	if origin := play.OriginEvent(); origin != pointer {
		t.Errorf("origin: got %s; want %s", origin, pointer)
	}

	snap := p.button.View().Snapshot()
	if snap.Paused || !snap.Playing || !snap.Started || snap.Duration != time.Minute {
		t.Errorf("unexpected state after play: %+v", snap)
	}
}

func TestUnchangedRequestDoesNotClaimLaterEvents(t *testing.T) {
	p := newPlayer()
	p.engine.SkipUnchanged = true
	plays := p.record(media.PlayEvent)
	p.engine.Ready(0)

	pointer := event.New("pointer-down", event.Trusted())
	p.button.Request(media.PlayRequest, event.WithTrigger(pointer))
	p.button.Request(media.PlayRequest, event.WithTrigger(pointer))

	// The player is paused and resumed from the desktop.
	p.engine.Emit(event.New(media.PauseEvent))
	p.engine.Emit(event.New(media.PlayEvent))

	want := []string{"play", "play"}
	if calls := p.engine.Calls(); !reflect.DeepEqual(calls, want) {
		t.Errorf("calls: got %v; want %v", calls, want)
	}
	if len(*plays) != 2 {
		t.Fatalf("got %d play events; want 2", len(*plays))
	}
	if !event.HasTriggerEvent((*plays)[0], media.PlayRequest) {
		t.Errorf("first play %s should be triggered by the play request", (*plays)[0])
	}
	if external := (*plays)[1]; external.TriggerEvent() != nil || external.IsOriginTrusted() {
		t.Errorf("external play %s should not chain to an earlier request", external)
	}
}

func TestRequestsWaitForReadiness(t *testing.T) {
	p := newPlayer()

	p.button.Request(media.VolumeChangeRequest, event.WithDetail(0.53))
	p.button.Request(media.VolumeChangeRequest, event.WithDetail(0.2))
	p.button.Request(media.PlayRequest)

	if calls := p.engine.Calls(); len(calls) != 0 {
		t.Fatalf("engine called before it can play: %v", calls)
	}
	if p.provider.Pending() != 2 {
		t.Errorf("provider pending: got %d; want 2", p.provider.Pending())
	}

	p.engine.Ready(0)

	want := []string{"volume 0.2", "play"}
	if calls := p.engine.Calls(); !reflect.DeepEqual(calls, want) {
		t.Errorf("calls: got %v; want %v", calls, want)
	}
	if v := p.button.View().Volume.Get(); v != 0.2 {
		t.Errorf("volume: got %g; want 0.2", v)
	}
}

func TestLastClickWins(t *testing.T) {
	p := newPlayer()

	p.button.Request(media.PlayRequest)
	p.button.Request(media.PauseRequest)
	p.button.Request(media.MuteRequest)
	p.button.Request(media.UnmuteRequest)
	p.button.Request(media.MuteRequest)

	p.engine.Ready(0)

	want := []string{"pause", "muted true"}
	if calls := p.engine.Calls(); !reflect.DeepEqual(calls, want) {
		t.Errorf("calls: got %v; want %v", calls, want)
	}
}

func TestControllerBuffersWithoutProvider(t *testing.T) {
	doc := element.NewDocument("document")
	ctrl := element.New("controller")
	c := media.NewController(ctrl)
	button := element.New("button")
	consumer := media.NewConsumer(button)
	ctrl.AppendChild(button)
	doc.AppendChild(ctrl)

	consumer.Request(media.VolumeChangeRequest, event.WithDetail(0.53))
	consumer.Request(media.VolumeChangeRequest, event.WithDetail(0.2))

	if c.Pending() != 1 {
		t.Fatalf("controller pending: got %d; want 1", c.Pending())
	}

	engine := enginetest.New()
	video := element.New("video")
	media.NewProvider(video, engine)
	ctrl.AppendChild(video)
	engine.Ready(0)

	want := []string{"volume 0.2"}
	if calls := engine.Calls(); !reflect.DeepEqual(calls, want) {
		t.Errorf("calls: got %v; want %v", calls, want)
	}
	if c.Pending() != 0 {
		t.Errorf("controller pending after attach: got %d; want 0", c.Pending())
	}
}

func TestUnclaimedConsumerBuffers(t *testing.T) {
	doc := element.NewDocument("document")
	button := element.New("button")
	consumer := media.NewConsumer(button)
	doc.AppendChild(button)

	if _, err := consumer.Request(media.PlayRequest); err != nil {
		t.Fatalf("unclaimed request should not fail: %v", err)
	}
	if consumer.IsClaimed() || consumer.Pending() != 1 {
		t.Fatalf("got claimed=%t pending=%d; want false and 1", consumer.IsClaimed(), consumer.Pending())
	}

	// Repeated cycles without a controller keep the request.
	for i := 0; i < 3; i++ {
		button.Remove()
		doc.AppendChild(button)
	}
	if consumer.Pending() != 1 {
		t.Fatalf("pending after cycles: got %d; want 1", consumer.Pending())
	}

	p := newPlayer()
	p.engine.Ready(0)

	button.Remove()
	p.controller.Host().AppendChild(button)

	if got := consumer.Controller().OrEmpty(); got != p.controller.Host() {
		t.Errorf("controller: got %v; want %v", got, p.controller.Host())
	}
	if calls := p.engine.Calls(); !reflect.DeepEqual(calls, []string{"play"}) {
		t.Errorf("calls: got %v; want [play]", calls)
	}
	if consumer.Pending() != 0 {
		t.Errorf("pending after claim: got %d; want 0", consumer.Pending())
	}
}

func TestLateController(t *testing.T) {
	doc := element.NewDocument("document")
	host := element.New("player")
	button := element.New("button")
	consumer := media.NewConsumer(button)
	host.AppendChild(button)
	doc.AppendChild(host)

	if consumer.IsClaimed() {
		t.Fatal("button has no controller yet")
	}

	c := media.NewController(host)
	if !consumer.IsClaimed() || c.Subscribers() != 1 {
		t.Errorf("got claimed=%t subscribers=%d; want true and 1", consumer.IsClaimed(), c.Subscribers())
	}
}

func TestPlayFailure(t *testing.T) {
	p := newPlayer()
	blocked := errors.New("blocked by autoplay policy")
	p.engine.PlayErr = blocked
	fails := p.record(media.PlayFailEvent)
	p.engine.Ready(0)

	pointer := event.New("key-down", event.Trusted())
	p.button.Request(media.PlayRequest, event.WithTrigger(pointer))

	if len(*fails) != 1 {
		t.Fatalf("got %d play-fail events; want 1", len(*fails))
	}

	fail := (*fails)[0]
	f, ok := fail.Detail.(*media.Failure)
	if !ok || !errors.Is(f, blocked) || f.Key != media.KeyPaused {
		t.Errorf("unexpected failure detail: %#v", fail.Detail)
	}
	if !event.HasTriggerEvent(fail, media.PlayRequest) || !fail.IsOriginTrusted() {
		t.Errorf("failure %s should chain to the trusted play request", fail)
	}
	if snap := p.button.View().Snapshot(); !snap.Paused || snap.Playing {
		t.Errorf("failed play should leave the player paused: %+v", snap)
	}
}

func TestAutoplay(t *testing.T) {
	p := newPlayer(media.WithAutoplay())
	autoplays := p.record(media.AutoplayEvent)

	p.engine.Ready(0)

	if calls := p.engine.Calls(); !reflect.DeepEqual(calls, []string{"play"}) {
		t.Errorf("calls: got %v; want [play]", calls)
	}
	if len(*autoplays) != 1 {
		t.Fatalf("got %d autoplay events; want 1", len(*autoplays))
	}
	if e := (*autoplays)[0]; !event.HasTriggerEvent(e, media.CanPlayEvent) || e.IsOriginTrusted() {
		t.Errorf("autoplay %s should chain to can-play and be untrusted", e)
	}

	// A second can-play for the same media does not autoplay again.
	p.engine.Ready(0)
	if n := len(p.engine.Calls()); n != 1 {
		t.Errorf("got %d calls; want 1", n)
	}
}

func TestAutoplayFailure(t *testing.T) {
	p := newPlayer(media.WithAutoplay())
	p.engine.PlayErr = errors.New("not allowed")
	fails := p.record(media.AutoplayFailEvent)

	p.engine.Ready(0)

	if len(*fails) != 1 {
		t.Fatalf("got %d autoplay-fail events; want 1", len(*fails))
	}
	if !p.button.View().Paused.Get() {
		t.Error("failed autoplay should leave the player paused")
	}
}

func TestPlayingAfterWaiting(t *testing.T) {
	p := newPlayer()
	playing := p.record(media.PlayingEvent)
	p.engine.Ready(0)

	p.engine.Emit(event.New(media.WaitingEvent))
	if !p.button.View().Waiting.Get() {
		t.Error("player should be waiting")
	}

	p.engine.Emit(event.New(media.PlayingEvent))

	if len(*playing) != 1 {
		t.Fatalf("got %d playing events; want 1", len(*playing))
	}
	if !event.HasTriggerEvent((*playing)[0], media.WaitingEvent) {
		t.Errorf("playing %s should resume from waiting", (*playing)[0])
	}
	if p.button.View().Waiting.Get() {
		t.Error("player should not be waiting anymore")
	}
}

func TestSeekChainsThroughContext(t *testing.T) {
	p := newPlayer()
	p.engine.ChainContext = true
	seeking := p.record(media.SeekingEvent)
	seeked := p.record(media.SeekedEvent)
	p.engine.Ready(time.Hour)

	p.button.Request(media.SeekRequest, event.WithDetail(90*time.Second))

	if len(*seeking) != 1 || len(*seeked) != 1 {
		t.Fatalf("got %d seeking and %d seeked events; want 1 and 1", len(*seeking), len(*seeked))
	}
	for _, e := range []*event.Event{(*seeking)[0], (*seeked)[0]} {
		if !event.HasTriggerEvent(e, media.SeekRequest) {
			t.Errorf("%s should be triggered by the seek request", e)
		}
	}
	if ct := p.button.View().CurrentTime.Get(); ct != 90*time.Second {
		t.Errorf("current time: got %s; want 1m30s", ct)
	}
}

func TestFullscreen(t *testing.T) {
	p := newPlayer()
	changes := p.record(media.FullscreenChangeEvent)
	p.engine.Ready(0)

	p.provider.EnterFullscreen(nil)
	if !p.button.View().Fullscreen.Get() {
		t.Error("player should be fullscreen")
	}

	p.button.Request(media.ExitFullscreenRequest)
	if p.button.View().Fullscreen.Get() {
		t.Error("player should not be fullscreen")
	}

	want := []string{"fullscreen true", "fullscreen false"}
	if calls := p.engine.Calls(); !reflect.DeepEqual(calls, want) {
		t.Errorf("calls: got %v; want %v", calls, want)
	}
	if len(*changes) != 2 {
		t.Fatalf("got %d fullscreen-change events; want 2", len(*changes))
	}
	if !event.HasTriggerEvent((*changes)[1], media.ExitFullscreenRequest) {
		t.Errorf("%s should be triggered by the exit request", (*changes)[1])
	}
}

func TestLoad(t *testing.T) {
	p := newPlayer()
	sources := p.record(media.SourceChangeEvent)
	u, _ := url.Parse("http://example.com/video.mp4")

	p.button.Request(media.LoadRequest, event.WithDetail(media.Source{URL: u}))

	if calls := p.engine.Calls(); !reflect.DeepEqual(calls, []string{"load http://example.com/video.mp4"}) {
		t.Errorf("load should not wait for readiness, calls: %v", calls)
	}
	if len(*sources) != 1 || !event.HasTriggerEvent((*sources)[0], media.LoadRequest) {
		t.Errorf("source-change should be triggered by the load request: %v", *sources)
	}
	if src := p.button.View().Source.Get(); src == nil || src.String() != u.String() {
		t.Errorf("source: got %v; want %v", src, u)
	}

	p.button.Request(media.PlayRequest)
	if n := len(p.engine.Calls()); n != 1 {
		t.Errorf("play should wait for the new media, got %d calls", n)
	}

	p.engine.Ready(0)
	if n := len(p.engine.Calls()); n != 2 {
		t.Errorf("play should run once the media can play, got %d calls", n)
	}
}

func TestProviderDisconnect(t *testing.T) {
	p := newPlayer()
	p.engine.Ready(0)
	p.button.Request(media.VolumeChangeRequest, event.WithDetail(0.3))

	if v := p.controller.View().Volume.Get(); v != 0.3 {
		t.Fatalf("volume: got %g; want 0.3", v)
	}

	p.provider.Host().Remove()

	if p.engine.IsAttached() {
		t.Error("engine should be detached")
	}
	if p.controller.Provider() != nil {
		t.Error("controller should have no provider")
	}
	if snap := p.button.View().Snapshot(); !reflect.DeepEqual(snap, media.InitialSnapshot) {
		t.Errorf("state after disconnect: got %+v; want %+v", snap, media.InitialSnapshot)
	}
	if snap := p.provider.View().Snapshot(); !reflect.DeepEqual(snap, media.InitialSnapshot) {
		t.Errorf("provider state should be reset: %+v", snap)
	}

	// Requests wait for the next provider.
	p.button.Request(media.PlayRequest)
	if p.controller.Pending() != 1 {
		t.Errorf("controller pending: got %d; want 1", p.controller.Pending())
	}
}

func TestSingleProvider(t *testing.T) {
	p := newPlayer()

	extra := element.New("audio")
	second := media.NewProvider(extra, enginetest.New())
	p.controller.Host().AppendChild(extra)

	if second.Controller().IsPresent() {
		t.Error("a controller should claim a single provider")
	}
	if p.controller.Provider() != p.provider {
		t.Error("the first provider should stay attached")
	}
}

func TestInvalidRequests(t *testing.T) {
	p := newPlayer()

	if _, err := p.button.Request("rewind-request"); !errors.Is(err, media.ErrUnknownRequest) {
		t.Errorf("unknown request: got %v; want ErrUnknownRequest", err)
	}
	if _, err := p.button.Request(media.SeekRequest, event.WithDetail("soon")); !errors.Is(err, media.ErrInvalidRequest) {
		t.Errorf("bad seek detail: got %v; want ErrInvalidRequest", err)
	}
	if p.button.Pending() != 0 {
		t.Error("rejected requests should not be queued")
	}
}

func TestBubblingRequests(t *testing.T) {
	p := newPlayer()
	p.engine.Ready(0)

	// Components without a Consumer may dispatch requests themselves.
	plain := element.New("plain")
	p.controller.Host().AppendChild(plain)

	reachedDoc := false
	p.doc.Listen(media.MuteRequest, func(*event.Event) { reachedDoc = true })

	plain.Dispatch(event.New(media.MuteRequest, event.Bubbles()))

	if reachedDoc {
		t.Error("controller should stop request propagation")
	}
	if !p.controller.View().Muted.Get() {
		t.Error("player should be muted")
	}
}

func TestWatch(t *testing.T) {
	doc := element.NewDocument("document")
	ctrl := element.New("controller")
	media.NewController(ctrl)
	engine := enginetest.New()
	video := element.New("video")
	media.NewProvider(video, engine)
	ctrl.AppendChild(video)

	button := element.New("button")
	consumer := media.NewConsumer(button)

	var paused []bool
	media.Watch(consumer, func(v media.View) store.Readable[bool] { return v.Paused }, func(b bool) {
		paused = append(paused, b)
	})

	ctrl.AppendChild(button)
	doc.AppendChild(ctrl)

	engine.Ready(0)
	consumer.Request(media.PlayRequest)
	consumer.Request(media.PauseRequest)

	button.Remove()
	engine.Emit(event.New(media.PlayEvent))

	want := []bool{true, false, true}
	if !reflect.DeepEqual(paused, want) {
		t.Errorf("paused: got %v; want %v", paused, want)
	}
}
