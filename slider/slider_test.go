package slider

import (
	"sync"
	"testing"

	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
)

func TestInteractive(t *testing.T) {
	m := NewMachine(0, 100, 0)
	s := m.Get()

	steps := []struct {
		name        string
		fn          func(State) State
		interactive bool
	}{
		{"start-dragging", func(s State) State { return s.StartDragging(10) }, true},
		{"start-pointing", func(s State) State { return s.StartPointing(10) }, true},
		{"stop-dragging", func(s State) State { return s.StopDragging(20) }, true},
		{"stop-pointing", func(s State) State { return s.StopPointing() }, false},
	}

	for _, step := range steps {
		s = step.fn(s)
		if s.Interactive() != step.interactive {
			t.Errorf("after %s: got interactive=%t; want %t", step.name, s.Interactive(), step.interactive)
		}
	}
	if s.Value != 20 {
		t.Errorf("Value: got %g; want 20", s.Value)
	}
}

func TestRates(t *testing.T) {
	cases := []struct {
		state         State
		fill, pointer float64
	}{
		{State{Min: 0, Max: 100, Value: 25, PointerValue: 50}, 25, 50},
		{State{Min: 50, Max: 150, Value: 100, PointerValue: 150}, 50, 100},
		{State{Min: 0, Max: 1, Value: 2, PointerValue: -1}, 100, 0},
		{State{Min: 0, Max: 0, Value: 0}, 0, 0},
	}

	for _, c := range cases {
		if got := c.state.FillPercent(); got != c.fill {
			t.Errorf("FillPercent(%+v): got %g; want %g", c.state, got, c.fill)
		}
		if got := c.state.PointerPercent(); got != c.pointer {
			t.Errorf("PointerPercent(%+v): got %g; want %g", c.state, got, c.pointer)
		}
	}
}

func TestSetValueWhileDragging(t *testing.T) {
	s := State{Max: 100}.StartDragging(40)

	if got := s.SetValue(80).Value; got != 40 {
		t.Errorf("Value while dragging: got %g; want 40", got)
	}
	if got := s.StopDragging(40).SetValue(80).Value; got != 80 {
		t.Errorf("Value after drag: got %g; want 80", got)
	}
}

func TestSetRange(t *testing.T) {
	s := State{Max: 100, Value: 90, PointerValue: 95}.SetRange(60, 10)

	if s.Min != 10 || s.Max != 60 || s.Value != 60 || s.PointerValue != 60 {
		t.Errorf("SetRange: got %+v", s)
	}
}

func TestMachinePublishes(t *testing.T) {
	m := NewMachine(0, 10, 5)

	var states []State
	unsub := m.State().Subscribe(func(s State) { states = append(states, s) })
	m.apply(func(s State) State { return s.StartPointing(3) })
	m.apply(func(s State) State { return s.MovePointer(3) })
	unsub()
	m.apply(func(s State) State { return s.StopPointing() })

	if len(states) != 2 {
		t.Fatalf("got %d states; want 2", len(states))
	}
	if !states[1].Pointing || states[1].PointerValue != 3 {
		t.Errorf("unexpected state: %+v", states[1])
	}
}

func TestSliderEvents(t *testing.T) {
	doc := element.NewDocument("document")
	host := element.New("time-slider")
	doc.AppendChild(host)
	s := New(host, 0, 100, 0)

	var log []*event.Event
	for _, typ := range []string{DragStartEvent, DragEndEvent, PointerEnterEvent, PointerLeaveEvent, ValueChangeEvent, PointerValueChangeEvent} {
		doc.Listen(typ, func(e *event.Event) { log = append(log, e) })
	}

	down := event.New("pointer-down", event.Trusted())
	s.StartDragging(30, down)
	s.StartPointing(30, event.New("pointer-enter", event.Trusted()))
	s.StopDragging(30, event.New("pointer-up", event.Trusted()))
	s.StopPointing(nil)

	want := []string{DragStartEvent, ValueChangeEvent, PointerValueChangeEvent, PointerEnterEvent, DragEndEvent, PointerLeaveEvent}
	if len(log) != len(want) {
		t.Fatalf("got %d events; want %d", len(log), len(want))
	}
	for i, e := range log {
		if e.Type != want[i] {
			t.Errorf("event %d: got %s; want %s", i, e.Type, want[i])
		}
	}

	if log[0].TriggerEvent() != down || !log[0].IsOriginTrusted() {
		t.Errorf("drag-start should be triggered by the pointer: %s", log[0])
	}
	if log[5].IsOriginTrusted() {
		t.Error("pointer-leave without input should not be trusted")
	}
	if st, ok := log[4].Detail.(State); !ok || st.Dragging || !st.Interactive() {
		t.Errorf("drag-end detail: got %+v", log[4].Detail)
	}
}

func TestConcurrentTransitions(t *testing.T) {
	m := NewMachine(0, 1000, 0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.apply(func(s State) State { return s.SetValue(s.Value + 1) })
		}()
	}
	wg.Wait()

	if v := m.Get().Value; v != 100 {
		t.Errorf("value after 100 increments: got %g; want 100", v)
	}
}
