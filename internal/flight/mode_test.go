package flight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlightMode(t *testing.T) {
	for in, want := range map[string]FlightMode{
		"direct":    FlightModeDirect,
		"Stabilize": FlightModeStabilize,
		"stab":      FlightModeStabilize,
		"alt_hold":  FlightModeAltHold,
		" althold ": FlightModeAltHold,
		"acro":      FlightModeAccro,
		"accro":     FlightModeAccro,
	} {
		got, err := ParseFlightMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFlightMode("loiter")
	assert.Error(t, err)
}

func TestFlightModeStringRoundTrip(t *testing.T) {
	for m := FlightModeDirect; m <= FlightModeAccro; m++ {
		got, err := ParseFlightMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	assert.Equal(t, "FlightMode(9)", FlightMode(9).String())
}

func TestParseControlLoop(t *testing.T) {
	for l := ControlLoopP; l <= ControlLoopSPD; l++ {
		got, err := ParseControlLoop(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseControlLoop("lqr")
	assert.Error(t, err)
}
