package discovery

import (
	"slices"
	"sync"

	"github.com/samber/mo"

	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
)

// Consumer is the descendant side of the handshake.
type Consumer struct {
	host      *element.Host
	eventType string
	value     interface{}

	mu        sync.Mutex
	req       *Request
	onClaim   []func(*Request)
	onRelease []func()
}

// Discover makes host look for an ancestor providing eventType every time
// it connects, offering value to whichever ancestor claims it. A host
// without such an ancestor stays unclaimed; it is claimed later if a
// provider above it connects.
func Discover(host *element.Host, eventType string, value interface{}) *Consumer {
	c := &Consumer{host: host, eventType: eventType, value: value}

	host.OnConnect(func(h *element.Host) {
		h.OnDisconnect(h.Listen(RescanEvent, func(e *event.Event) {
			if e.Detail == eventType && !c.IsClaimed() {
				c.discover()
			}
		}))

		c.discover()

		h.OnDisconnect(func() {
			if req := c.current(); req != nil {
				req.Release()
			}
		})
	})

	return c
}

func (c *Consumer) discover() {
	req := &Request{Element: c.host, Value: c.value, consumer: c}
	c.host.Dispatch(event.New(c.eventType, event.Bubbles(), event.WithDetail(req)))

	if req.Owner() == nil {
		return
	}

	c.mu.Lock()
	c.req = req
	hooks := slices.Clone(c.onClaim)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(req)
	}
}

func (c *Consumer) released(req *Request) {
	c.mu.Lock()
	if c.req != req {
		c.mu.Unlock()
		return
	}
	c.req = nil
	hooks := slices.Clone(c.onRelease)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

func (c *Consumer) current() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.req
}

// Host returns the consuming host.
func (c *Consumer) Host() *element.Host {
	return c.host
}

// IsClaimed returns true if an ancestor currently owns the consumer.
func (c *Consumer) IsClaimed() bool {
	return c.current() != nil
}

// Owner returns the ancestor currently owning the consumer.
func (c *Consumer) Owner() mo.Option[*element.Host] {
	if req := c.current(); req != nil {
		return mo.Some(req.Owner())
	}

	return mo.None[*element.Host]()
}

// OnClaim registers fn to run every time the consumer is claimed. If it is
// claimed already, fn runs immediately.
func (c *Consumer) OnClaim(fn func(*Request)) {
	c.mu.Lock()
	c.onClaim = append(c.onClaim, fn)
	req := c.req
	c.mu.Unlock()

	if req != nil {
		fn(req)
	}
}

// OnRelease registers fn to run every time a claim ends.
func (c *Consumer) OnRelease(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onRelease = append(c.onRelease, fn)
}
