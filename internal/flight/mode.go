package flight

import (
	"fmt"
	"strings"
)

type FlightMode int

const (
	FlightModeDirect FlightMode = iota
	FlightModeStabilize
	FlightModeAltHold
	FlightModeAccro
)

func (m FlightMode) String() string {
	switch m {
	case FlightModeDirect:
		return "direct"
	case FlightModeStabilize:
		return "stabilize"
	case FlightModeAltHold:
		return "althold"
	case FlightModeAccro:
		return "accro"
	}
	return fmt.Sprintf("FlightMode(%d)", int(m))
}

func (m FlightMode) valid() bool { return m >= FlightModeDirect && m <= FlightModeAccro }

// ParseFlightMode accepts the lower-case names produced by String.
func ParseFlightMode(s string) (FlightMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct":
		return FlightModeDirect, nil
	case "stabilize", "stab":
		return FlightModeStabilize, nil
	case "althold", "alt_hold", "alt-hold":
		return FlightModeAltHold, nil
	case "accro", "acro":
		return FlightModeAccro, nil
	}
	return 0, fmt.Errorf("unknown flight mode %q", s)
}

// ControlLoop selects how the rate loop turns a velocity error into a command.
type ControlLoop int

const (
	ControlLoopP ControlLoop = iota
	ControlLoopPID
	ControlLoopSPD
)

func (l ControlLoop) String() string {
	switch l {
	case ControlLoopP:
		return "p"
	case ControlLoopPID:
		return "pid"
	case ControlLoopSPD:
		return "spd"
	}
	return fmt.Sprintf("ControlLoop(%d)", int(l))
}

func ParseControlLoop(s string) (ControlLoop, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p":
		return ControlLoopP, nil
	case "pid":
		return ControlLoopPID, nil
	case "spd":
		return ControlLoopSPD, nil
	}
	return 0, fmt.Errorf("unknown control loop %q", s)
}
