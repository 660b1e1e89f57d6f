package slider

import (
	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/store"
)

// Slider events, dispatched on the slider host with the new State as
// detail.
const (
	DragStartEvent          = "drag-start"
	DragEndEvent            = "drag-end"
	PointerEnterEvent       = "pointer-enter"
	PointerLeaveEvent       = "pointer-leave"
	ValueChangeEvent        = "value-change"
	PointerValueChangeEvent = "pointer-value-change"
)

// Machine publishes the state of a slider.
type Machine struct {
	state *store.Writable[State]
}

// NewMachine returns an idle machine.
func NewMachine(min, max, value float64) *Machine {
	s := State{}.SetRange(min, max).SetValue(value)
	s.PointerValue = s.Value

	return &Machine{state: store.New(s)}
}

// State returns the observable state.
func (m *Machine) State() store.Readable[State] {
	return m.state.Readonly()
}

// Get returns the current state.
func (m *Machine) Get() State {
	return m.state.Get()
}

// apply runs a transition and returns the states before and after it.
// The transition is atomic with respect to other transitions.
func (m *Machine) apply(fn func(State) State) (before, after State) {
	m.state.Update(func(s State) State {
		before, after = s, fn(s)
		return after
	})

	return before, after
}

// Slider binds a Machine to a host. Every transition dispatches the
// events describing it, chained to the input event that caused it.
type Slider struct {
	*Machine

	host *element.Host
}

// New returns a slider on host.
func New(host *element.Host, min, max, value float64) *Slider {
	return &Slider{Machine: NewMachine(min, max, value), host: host}
}

// Host returns the slider host.
func (s *Slider) Host() *element.Host {
	return s.host
}

// StartDragging starts a drag at v.
func (s *Slider) StartDragging(v float64, trigger *event.Event) {
	s.transition(trigger, func(st State) State { return st.StartDragging(v) })
}

// Drag moves the drag to v.
func (s *Slider) Drag(v float64, trigger *event.Event) {
	s.transition(trigger, func(st State) State { return st.Drag(v) })
}

// StopDragging ends the drag at v.
func (s *Slider) StopDragging(v float64, trigger *event.Event) {
	s.transition(trigger, func(st State) State { return st.StopDragging(v) })
}

// StartPointing records the pointer entering at v.
func (s *Slider) StartPointing(v float64, trigger *event.Event) {
	s.transition(trigger, func(st State) State { return st.StartPointing(v) })
}

// MovePointer records the pointer moving to v.
func (s *Slider) MovePointer(v float64, trigger *event.Event) {
	s.transition(trigger, func(st State) State { return st.MovePointer(v) })
}

// StopPointing records the pointer leaving.
func (s *Slider) StopPointing(trigger *event.Event) {
	s.transition(trigger, func(st State) State { return st.StopPointing() })
}

// SetValue sets the value from outside. It dispatches no events.
func (s *Slider) SetValue(v float64) {
	s.apply(func(st State) State { return st.SetValue(v) })
}

// SetRange changes the range. It dispatches no events.
func (s *Slider) SetRange(min, max float64) {
	s.apply(func(st State) State { return st.SetRange(min, max) })
}

func (s *Slider) transition(trigger *event.Event, fn func(State) State) {
	before, after := s.apply(fn)

	var types []string
	switch {
	case !before.Dragging && after.Dragging:
		types = append(types, DragStartEvent)
	case before.Dragging && !after.Dragging:
		types = append(types, DragEndEvent)
	}
	switch {
	case !before.Pointing && after.Pointing:
		types = append(types, PointerEnterEvent)
	case before.Pointing && !after.Pointing:
		types = append(types, PointerLeaveEvent)
	}
	if before.Value != after.Value {
		types = append(types, ValueChangeEvent)
	}
	if before.PointerValue != after.PointerValue {
		types = append(types, PointerValueChangeEvent)
	}

	for _, t := range types {
		s.host.Dispatch(event.New(t,
			event.WithDetail(after),
			event.WithTrigger(trigger),
			event.Bubbles(),
		))
	}
}
