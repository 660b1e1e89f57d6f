package media

import (
	"fmt"
	"sync"
	"time"

	"github.com/ericyan/omnimedia/discovery"
	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/internal/log"
	"github.com/ericyan/omnimedia/queue"
)

// Context is what a controller hands to the consumers it claims: a read
// view of the media state and the entry point for requests.
type Context struct {
	View View

	controller *Controller
}

// Request hands a request event to the controller.
func (c *Context) Request(e *event.Event) error {
	return c.controller.Request(e)
}

// Snapshot returns the current media state.
func (c *Context) Snapshot() Snapshot {
	return c.View.Snapshot()
}

// Controller is the orchestrator of a media player. It claims one
// provider and any number of consumers below its host, relays the state
// of the provider to the consumers and forwards their requests to the
// provider, buffering them while no provider is attached.
type Controller struct {
	host      *element.Host
	relay     *relay
	queue     *queue.Queue
	ctx       *Context
	consumers *discovery.Registry[*discovery.Request]

	mu       sync.Mutex
	provider *Provider
}

// NewController makes host a media controller.
func NewController(host *element.Host) *Controller {
	c := &Controller{
		host:  host,
		relay: newRelay(),
		queue: queue.New(queue.WithName(host.Name())),
	}
	c.ctx = &Context{View: c.relay.view(), controller: c}

	discovery.Provide(host, ProviderConnectEvent, c.claimProvider)
	c.consumers = discovery.Provide(host, ControllerConnectEvent, func(req *discovery.Request) bool {
		req.SetReply(c.ctx)
		return true
	})

	host.OnConnect(func(h *element.Host) {
		for _, reqType := range RequestTypes() {
			h.OnDisconnect(h.Listen(reqType, func(e *event.Event) {
				e.StopPropagation()
				if err := c.Request(e); err != nil {
					log.WithField("controller", h.String()).WithError(err).Warn("media: request rejected")
				}
			}))
		}

		h.OnDisconnect(c.queue.Reset)
	})

	return c
}

func (c *Controller) claimProvider(req *discovery.Request) bool {
	p, ok := req.Value.(*Provider)
	if !ok {
		return false
	}

	c.mu.Lock()
	if c.provider != nil {
		c.mu.Unlock()
		log.WithFields(log.Fields{
			"controller": c.host.String(),
			"provider":   p.host.String(),
		}).Warn("media: controller already has a provider")
		return false
	}
	c.provider = p
	c.mu.Unlock()

	view := p.View()
	c.relay.point(&view)
	req.OnDisconnect(func() { c.detach(p) })

	log.WithFields(log.Fields{
		"controller": c.host.String(),
		"provider":   p.host.String(),
	}).Debug("media: provider attached")

	c.queue.Start()

	return true
}

func (c *Controller) detach(p *Provider) {
	c.mu.Lock()
	if c.provider != p {
		c.mu.Unlock()
		return
	}
	c.provider = nil
	c.mu.Unlock()

	c.queue.Stop()
	c.relay.point(nil)

	log.WithField("controller", c.host.String()).Debug("media: provider detached")
}

// Host returns the controller host.
func (c *Controller) Host() *element.Host {
	return c.host
}

// Context returns the context handed to consumers.
func (c *Controller) Context() *Context {
	return c.ctx
}

// View returns the state of the attached provider, or InitialSnapshot
// values when there is none.
func (c *Controller) View() View {
	return c.ctx.View
}

// Provider returns the attached provider, or nil.
func (c *Controller) Provider() *Provider {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.provider
}

// Subscribers returns the number of consumers currently claimed.
func (c *Controller) Subscribers() int {
	return c.consumers.Len()
}

// Pending returns the number of requests waiting for a provider.
func (c *Controller) Pending() int {
	return c.queue.Size()
}

// Request queues e for the provider. Requests sharing a key replace each
// other until a provider is attached.
func (c *Controller) Request(e *event.Event) error {
	key, ok := RequestKey(e.Type)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, e.Type)
	}
	if err := validate(e); err != nil {
		return err
	}

	c.queue.Queue(key, func() error {
		p := c.Provider()
		if p == nil {
			return ErrNoProvider
		}

		return forward(p, e)
	})

	return nil
}

func validate(e *event.Event) error {
	var ok bool
	switch e.Type {
	case SeekRequest:
		_, ok = e.Detail.(time.Duration)
	case VolumeChangeRequest, RateChangeRequest:
		_, ok = e.Detail.(float64)
	case LoadRequest:
		var src Source
		src, ok = e.Detail.(Source)
		ok = ok && src.URL != nil
	default:
		ok = true
	}

	if !ok {
		return fmt.Errorf("%w: %s with %T", ErrInvalidRequest, e.Type, e.Detail)
	}

	return nil
}

func forward(p *Provider, e *event.Event) error {
	switch e.Type {
	case PlayRequest:
		p.Play(e)
	case PauseRequest:
		p.Pause(e)
	case SeekRequest:
		p.SetCurrentTime(e.Detail.(time.Duration), e)
	case VolumeChangeRequest:
		p.SetVolume(e.Detail.(float64), e)
	case MuteRequest:
		p.SetMuted(true, e)
	case UnmuteRequest:
		p.SetMuted(false, e)
	case RateChangeRequest:
		p.SetPlaybackRate(e.Detail.(float64), e)
	case EnterFullscreenRequest:
		p.EnterFullscreen(e)
	case ExitFullscreenRequest:
		p.ExitFullscreen(e)
	case LoadRequest:
		p.Load(e.Detail.(Source), e)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRequest, e.Type)
	}

	return nil
}
