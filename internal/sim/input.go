package sim

import (
	"sort"

	"drone-fc/internal/flight"
)

// Input is a stick source the simulator advances once per step. Advance
// reports a flight mode change the pilot asked for during that step.
type Input interface {
	flight.InputSource
	Advance(dt float64) (mode flight.FlightMode, changed bool)
}

// Segment holds Stick from At seconds until the next segment starts. When
// SetMode is true the flight mode switches to Mode as the segment starts.
type Segment struct {
	At      float64
	Stick   flight.Stick
	SetMode bool
	Mode    flight.FlightMode
}

// ScriptedInput replays timed stick segments. Segments start on the first
// Advance that reaches them. Before the first segment the sticks are centred
// with throttle at mid stick.
type ScriptedInput struct {
	segments []Segment
	mid      float64
	clock    float64
	idx      int
}

func NewScriptedInput(midStick float64, segments ...Segment) *ScriptedInput {
	s := append([]Segment(nil), segments...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].At < s[j].At })
	return &ScriptedInput{segments: s, mid: midStick, idx: -1}
}

func (s *ScriptedInput) Advance(dt float64) (flight.FlightMode, bool) {
	if dt > 0 {
		s.clock += dt
	}
	return s.seek()
}

// seek moves to the last segment that has started and returns the mode
// of the latest started segment that sets one.
func (s *ScriptedInput) seek() (mode flight.FlightMode, changed bool) {
	for s.idx+1 < len(s.segments) && s.segments[s.idx+1].At <= s.clock {
		s.idx++
		if seg := s.segments[s.idx]; seg.SetMode {
			mode, changed = seg.Mode, true
		}
	}
	return mode, changed
}

func (s *ScriptedInput) StickInput() flight.Stick {
	if s.idx < 0 {
		return flight.Stick{Throttle: s.mid}
	}
	return s.segments[s.idx].Stick
}

func (s *ScriptedInput) ThrottleMidStick() float64 { return s.mid }

// Time is the script clock in seconds.
func (s *ScriptedInput) Time() float64 { return s.clock }

// Rewind restarts the script from zero.
func (s *ScriptedInput) Rewind() {
	s.clock = 0
	s.idx = -1
}
