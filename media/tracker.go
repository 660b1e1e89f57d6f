package media

import (
	"sync"
	"time"

	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/queue"
)

// expectedEvents lists, per request type and in order, the media events an
// engine emits once it has satisfied the request.
var expectedEvents = map[string][]string{
	PlayRequest:            {PlayEvent},
	PauseRequest:           {PauseEvent},
	SeekRequest:            {SeekingEvent, SeekedEvent},
	VolumeChangeRequest:    {VolumeChangeEvent},
	MuteRequest:            {VolumeChangeEvent},
	UnmuteRequest:          {VolumeChangeEvent},
	RateChangeRequest:      {RateChangeEvent},
	EnterFullscreenRequest: {FullscreenChangeEvent},
	ExitFullscreenRequest:  {FullscreenChangeEvent},
	LoadRequest:            {SourceChangeEvent},
}

// settledKeys maps the events that decide the state behind a key. Such an
// event ends any expectation on that key it does not match: a pause ends
// a play request the engine never acted on.
var settledKeys = map[string]queue.Key{
	PlayEvent:         KeyPaused,
	PauseEvent:        KeyPaused,
	EndedEvent:        KeyPaused,
	SourceChangeEvent: KeySource,
}

// expectTimeout bounds how long a request waits for its events. Engines
// that emit nothing when the state does not change would otherwise leave
// it waiting forever.
const expectTimeout = 5 * time.Second

type expectation struct {
	req    *event.Event
	events []string
	seq    uint64
	at     time.Time
}

// tracker remembers the request an engine is working on for every key, so
// the events it emits can be chained to them. A newer request on a key
// replaces the older one, the way the request queue does.
type tracker struct {
	mu    sync.Mutex
	now   func() time.Time
	seq   uint64
	slots map[queue.Key]*expectation
}

func (t *tracker) clock() time.Time {
	if t.now != nil {
		return t.now()
	}

	return time.Now()
}

// expect records req as the trigger of the next events expected for it.
func (t *tracker) expect(req *event.Event) {
	key, ok := RequestKey(req.Type)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.slots == nil {
		t.slots = make(map[queue.Key]*expectation)
	}
	t.seq++
	t.slots[key] = &expectation{
		req:    req,
		events: expectedEvents[req.Type],
		seq:    t.seq,
		at:     t.clock(),
	}
}

// forget drops req, which the engine failed or had no need to satisfy. A
// newer request on the same key is kept.
func (t *tracker) forget(req *event.Event) {
	key, ok := RequestKey(req.Type)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if x := t.slots[key]; x != nil && x.req == req {
		delete(t.slots, key)
	}
}

// supersede drops whatever request is waiting on key.
func (t *tracker) supersede(key queue.Key) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.slots, key)
}

// take returns the oldest request waiting for an event of eventType.
func (t *tracker) take(eventType string) *event.Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()

	var (
		match    *expectation
		matchKey queue.Key
		matchIdx int
	)
	for key, x := range t.slots {
		if now.Sub(x.at) > expectTimeout {
			delete(t.slots, key)
			continue
		}
		for i, typ := range x.events {
			if typ == eventType && (match == nil || x.seq < match.seq) {
				match, matchKey, matchIdx = x, key, i
				break
			}
		}
	}

	if key, ok := settledKeys[eventType]; ok {
		if x := t.slots[key]; x != nil && x != match {
			delete(t.slots, key)
		}
	}

	if match == nil {
		return nil
	}

	// Engines may skip intermediate events, such as seeking.
	match.events = match.events[matchIdx+1:]
	if len(match.events) == 0 {
		delete(t.slots, matchKey)
	}

	return match.req
}

func (t *tracker) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.slots = nil
}
