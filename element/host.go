// Package element implements the component tree media components attach
// to. A Host plays the role a custom element plays in a page: it has a
// parent, children and a connected/disconnected lifecycle, and events
// dispatched on it bubble up to its ancestors.
package element

import (
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/internal/log"
)

// Errors returned by tree operations.
var (
	ErrHierarchy = errors.New("element: host cannot be its own ancestor")
	ErrAttached  = errors.New("element: host already has a parent")
	ErrNotChild  = errors.New("element: host is not a child")
)

// Host is a node in the component tree.
type Host struct {
	event.Target

	id   uuid.UUID
	name string

	mu        sync.Mutex
	parent    *Host
	children  []*Host
	connected bool
	setups    []func(*Host)

	bin Bin
}

// New returns a detached host.
func New(name string) *Host {
	return &Host{id: uuid.New(), name: name}
}

// NewDocument returns a connected root host. Hosts appended below it
// connect immediately.
func NewDocument(name string) *Host {
	h := New(name)
	h.connected = true

	return h
}

// ID returns the unique identity of the host.
func (h *Host) ID() uuid.UUID {
	return h.id
}

// Name returns the name given to the host.
func (h *Host) Name() string {
	return h.name
}

// String implements the fmt.Stringer interface.
func (h *Host) String() string {
	return h.name + "#" + h.id.String()[:8]
}

// Parent returns the parent host, or nil.
func (h *Host) Parent() *Host {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.parent
}

// Children returns a copy of the child list.
func (h *Host) Children() []*Host {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]*Host(nil), h.children...)
}

// IsConnected returns true if the host is attached to a document.
func (h *Host) IsConnected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.connected
}

// Contains returns true if other is h or one of its descendants.
func (h *Host) Contains(other *Host) bool {
	for n := other; n != nil; n = n.Parent() {
		if n == h {
			return true
		}
	}

	return false
}

// AppendChild attaches c as the last child of h. If h is connected, c and
// its subtree connect in tree order before AppendChild returns.
func (h *Host) AppendChild(c *Host) error {
	if c.Contains(h) {
		return ErrHierarchy
	}

	c.mu.Lock()
	if c.parent != nil {
		c.mu.Unlock()
		return ErrAttached
	}
	c.parent = h
	c.mu.Unlock()

	h.mu.Lock()
	h.children = append(h.children, c)
	connected := h.connected
	h.mu.Unlock()

	if connected {
		c.connect()
	}

	return nil
}

// RemoveChild disconnects c and its subtree, then detaches it from h.
func (h *Host) RemoveChild(c *Host) error {
	h.mu.Lock()
	if !lo.Contains(h.children, c) {
		h.mu.Unlock()
		return ErrNotChild
	}
	h.mu.Unlock()

	c.disconnect()

	h.mu.Lock()
	h.children = lo.Without(h.children, c)
	h.mu.Unlock()

	c.mu.Lock()
	c.parent = nil
	c.mu.Unlock()

	return nil
}

// Remove detaches h from its parent, if any.
func (h *Host) Remove() {
	if p := h.Parent(); p != nil {
		p.RemoveChild(h)
	}
}

// OnConnect registers a setup hook that runs every time h connects. If h
// is already connected the hook also runs immediately.
func (h *Host) OnConnect(fn func(*Host)) {
	h.mu.Lock()
	h.setups = append(h.setups, fn)
	connected := h.connected
	h.mu.Unlock()

	if connected {
		fn(h)
	}
}

// OnDisconnect registers a teardown for the current connection. Teardowns
// run exactly once, in registration order, when h disconnects. On a
// disconnected host fn runs immediately.
func (h *Host) OnDisconnect(fn func()) {
	h.mu.Lock()
	connected := h.connected
	if connected {
		h.bin.Add(fn)
	}
	h.mu.Unlock()

	if !connected {
		fn()
	}
}

// ListenTo attaches fn to target for as long as h is connected. The
// listener is removed on every disconnect and attached again on every
// connect.
func (h *Host) ListenTo(target event.Listenable, eventType string, fn event.Listener) {
	h.OnConnect(func(h *Host) {
		h.OnDisconnect(target.Listen(eventType, fn))
	})
}

// Dispatch delivers e to the listeners of h and, if e bubbles, to the
// listeners of each ancestor until its propagation is stopped.
func (h *Host) Dispatch(e *event.Event) {
	for n := h; n != nil; n = n.Parent() {
		n.Target.Dispatch(e)

		if !e.Bubbling() || e.IsPropagationStopped() {
			return
		}
	}
}

// Broadcast delivers e to every connected descendant of h in tree order.
func (h *Host) Broadcast(e *event.Event) {
	for _, c := range h.Children() {
		if !c.IsConnected() {
			continue
		}

		c.Target.Dispatch(e)
		if e.IsPropagationStopped() {
			return
		}

		c.Broadcast(e)
	}
}

func (h *Host) connect() {
	h.mu.Lock()
	if h.connected {
		h.mu.Unlock()
		return
	}
	h.connected = true
	setups := slices.Clone(h.setups)
	h.mu.Unlock()

	log.WithField("host", h.String()).Debug("element: connected")

	for _, fn := range setups {
		fn(h)
	}

	for _, c := range h.Children() {
		c.connect()
	}
}

func (h *Host) disconnect() {
	h.mu.Lock()
	if !h.connected {
		h.mu.Unlock()
		return
	}
	h.connected = false
	h.mu.Unlock()

	h.bin.Empty()

	log.WithField("host", h.String()).Debug("element: disconnected")

	for _, c := range h.Children() {
		c.disconnect()
	}
}
