package media

import (
	"fmt"
	"sync"

	"github.com/samber/mo"

	"github.com/ericyan/omnimedia/discovery"
	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/queue"
	"github.com/ericyan/omnimedia/store"
)

// Consumer is the helper components below a controller are built from.
// It finds the controller, exposes its state through a view that stays
// valid while the component moves around, and buffers requests while the
// component is not claimed.
type Consumer struct {
	host      *element.Host
	discovery *discovery.Consumer
	relay     *relay
	queue     *queue.Queue

	mu  sync.Mutex
	ctx *Context
}

// NewConsumer makes host a consumer of the nearest controller.
func NewConsumer(host *element.Host) *Consumer {
	c := &Consumer{
		host:  host,
		relay: newRelay(),
		queue: queue.New(queue.WithName(host.Name())),
	}

	c.discovery = discovery.Discover(host, ControllerConnectEvent, c)
	c.discovery.OnClaim(c.claimed)
	c.discovery.OnRelease(c.released)

	return c
}

func (c *Consumer) claimed(req *discovery.Request) {
	ctx, ok := req.Reply().(*Context)
	if !ok {
		return
	}

	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	c.relay.point(&ctx.View)
	c.queue.Start()
}

func (c *Consumer) released() {
	c.queue.Stop()

	c.mu.Lock()
	c.ctx = nil
	c.mu.Unlock()

	c.relay.point(nil)
}

func (c *Consumer) context() *Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ctx
}

// Host returns the consumer host.
func (c *Consumer) Host() *element.Host {
	return c.host
}

// IsClaimed returns true if a controller currently owns the consumer.
func (c *Consumer) IsClaimed() bool {
	return c.discovery.IsClaimed()
}

// Controller returns the host of the controller owning the consumer.
func (c *Consumer) Controller() mo.Option[*element.Host] {
	return c.discovery.Owner()
}

// View returns the media state of the controller. While unclaimed it
// reads as InitialSnapshot.
func (c *Consumer) View() View {
	return c.relay.view()
}

// Pending returns the number of requests waiting for a controller.
func (c *Consumer) Pending() int {
	return c.queue.Size()
}

// Request creates a request event of the given type and sends it to the
// controller, or buffers it until the consumer is claimed. Use
// event.WithTrigger to chain it to the input event that caused it.
func (c *Consumer) Request(requestType string, opts ...event.Option) (*event.Event, error) {
	key, ok := RequestKey(requestType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequest, requestType)
	}

	e := event.New(requestType, append(opts, event.Bubbles())...)
	if err := validate(e); err != nil {
		return nil, err
	}

	c.queue.Queue(key, func() error {
		ctx := c.context()
		if ctx == nil {
			return ErrUnclaimed
		}

		return ctx.Request(e)
	})

	return e, nil
}

// Watch calls fn with the value picked from the view of c while the host
// of c is connected.
func Watch[T any](c *Consumer, pick func(View) store.Readable[T], fn func(T)) {
	store.Bind(c.host, pick(c.View()), fn)
}
