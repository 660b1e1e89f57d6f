// Package discovery lets a component find the nearest ancestor that
// provides a service, whatever order the two were attached in.
//
// A consumer dispatches a bubbling request event every time its host
// connects. The first ancestor that provides the requested type claims it,
// stops the event and registers teardown callbacks through the request.
// Providers broadcast a rescan when they connect, so consumers that were
// attached before their provider get claimed as well.
package discovery

import (
	"sync"

	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/internal/log"
)

// RescanEvent is broadcast by providers when they connect.
const RescanEvent = "discovery-rescan"

// Request is the detail of a discovery event.
type Request struct {
	// Element is the host asking to be claimed.
	Element *element.Host
	// Value is whatever the consumer exposes to its owner.
	Value interface{}

	mu       sync.Mutex
	owner    *element.Host
	reply    interface{}
	released bool
	bin      element.Bin
	consumer *Consumer
}

// OnDisconnect registers fn to run once when the claim ends, either
// because the consumer disconnected or because the owner released it.
func (r *Request) OnDisconnect(fn func()) {
	r.mu.Lock()
	released := r.released
	if !released {
		r.bin.Add(fn)
	}
	r.mu.Unlock()

	if released {
		fn()
	}
}

// Owner returns the host that claimed the request, if any.
func (r *Request) Owner() *element.Host {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.owner
}

// SetReply stores what the owner exposes to the consumer. It is meant to
// be called from a ClaimFunc.
func (r *Request) SetReply(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reply = v
}

// Reply returns what the owner exposed to the consumer, if anything.
func (r *Request) Reply() interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.reply
}

// Release ends the claim. The disconnect callbacks run exactly once, in
// registration order. Release is idempotent.
func (r *Request) Release() {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return
	}
	r.released = true
	r.mu.Unlock()

	r.bin.Empty()

	if r.consumer != nil {
		r.consumer.released(r)
	}
}

func (r *Request) claim(owner *element.Host) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.owner != nil || r.released {
		return false
	}
	r.owner = owner

	return true
}

func (r *Request) unclaim() {
	r.mu.Lock()
	r.owner = nil
	r.reply = nil
	r.mu.Unlock()
}

// ClaimFunc decides whether a provider takes a request. It runs
// synchronously while the request event is dispatched.
type ClaimFunc func(req *Request) bool

// Provide makes host answer discovery events of eventType from its
// descendants while it is connected. Claimed requests are tracked until
// either side disconnects.
func Provide(host *element.Host, eventType string, claim ClaimFunc) *Registry[*Request] {
	claimed := new(Registry[*Request])

	host.OnConnect(func(h *element.Host) {
		h.OnDisconnect(h.Listen(eventType, func(e *event.Event) {
			req, ok := e.Detail.(*Request)
			if !ok || req.Element == h {
				return
			}

			if !req.claim(h) {
				return
			}
			if !claim(req) {
				req.unclaim()
				return
			}
			e.StopPropagation()
			req.OnDisconnect(claimed.Register(req))

			log.WithFields(log.Fields{
				"type":     eventType,
				"owner":    h.String(),
				"consumer": req.Element.String(),
			}).Debug("discovery: claimed")
		}))

		h.OnDisconnect(func() {
			for _, req := range claimed.Values() {
				req.Release()
			}
		})

		h.Broadcast(event.New(RescanEvent, event.WithDetail(eventType)))
	})

	return claimed
}
