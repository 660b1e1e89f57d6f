// Package slider implements the interaction state shared by slider
// controls such as the time and volume sliders.
package slider

// State is the interaction state of a slider. Dragging and Pointing are
// independent: the pointer may leave the slider while a drag goes on, and
// the pointer may hover without dragging.
type State struct {
	Value        float64
	PointerValue float64
	Min          float64
	Max          float64
	Dragging     bool
	Pointing     bool
}

// Interactive returns true while the slider is dragged or pointed at.
func (s State) Interactive() bool {
	return s.Dragging || s.Pointing
}

// Clamp returns v limited to the range of the slider.
func (s State) Clamp(v float64) float64 {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}

	return v
}

// rate returns the position of v within the range, in [0, 1].
func (s State) rate(v float64) float64 {
	if s.Max <= s.Min {
		return 0
	}

	return (s.Clamp(v) - s.Min) / (s.Max - s.Min)
}

// FillRate returns the filled fraction of the slider.
func (s State) FillRate() float64 {
	return s.rate(s.Value)
}

// FillPercent returns the filled fraction as a percentage.
func (s State) FillPercent() float64 {
	return s.FillRate() * 100
}

// PointerRate returns the fraction of the slider left of the pointer.
func (s State) PointerRate() float64 {
	return s.rate(s.PointerValue)
}

// PointerPercent returns the pointer position as a percentage.
func (s State) PointerPercent() float64 {
	return s.PointerRate() * 100
}

// StartDragging returns the state after a drag started at v.
func (s State) StartDragging(v float64) State {
	s.Dragging = true
	s.Value = s.Clamp(v)
	s.PointerValue = s.Value

	return s
}

// Drag returns the state after the drag moved to v. Without a drag going
// on, s is returned unchanged.
func (s State) Drag(v float64) State {
	if !s.Dragging {
		return s
	}
	s.Value = s.Clamp(v)
	s.PointerValue = s.Value

	return s
}

// StopDragging returns the state after the drag ended at v.
func (s State) StopDragging(v float64) State {
	if !s.Dragging {
		return s
	}
	s.Dragging = false
	s.Value = s.Clamp(v)

	return s
}

// StartPointing returns the state after the pointer entered at v.
func (s State) StartPointing(v float64) State {
	s.Pointing = true
	s.PointerValue = s.Clamp(v)

	return s
}

// MovePointer returns the state after the pointer moved to v.
func (s State) MovePointer(v float64) State {
	if !s.Pointing && !s.Dragging {
		return s
	}
	s.PointerValue = s.Clamp(v)

	return s
}

// StopPointing returns the state after the pointer left.
func (s State) StopPointing() State {
	s.Pointing = false

	return s
}

// SetValue returns the state with its value set from outside, for
// example from media state. It is ignored while dragging, so the slider
// does not jump back under the pointer.
func (s State) SetValue(v float64) State {
	if s.Dragging {
		return s
	}
	s.Value = s.Clamp(v)

	return s
}

// SetRange returns the state with a new range. The values are clamped to
// it.
func (s State) SetRange(min, max float64) State {
	if min > max {
		min, max = max, min
	}
	s.Min, s.Max = min, max
	s.Value = s.Clamp(s.Value)
	s.PointerValue = s.Clamp(s.PointerValue)

	return s
}
