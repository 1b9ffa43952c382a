package main

import (
	"testing"

	"drone-fc/internal/config"
	"drone-fc/internal/flight"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptSegments(t *testing.T) {
	segments, err := scriptSegments([]config.ScriptStep{
		{At: 0, Throttle: 0.5},
		{At: 2, Roll: 0.25, Throttle: 0.6, Mode: "acro"},
	})
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.False(t, segments[0].SetMode)
	assert.Equal(t, flight.Stick{Throttle: 0.5}, segments[0].Stick)
	assert.True(t, segments[1].SetMode)
	assert.Equal(t, flight.FlightModeAccro, segments[1].Mode)
	assert.Equal(t, 0.25, segments[1].Stick.Roll)

	_, err = scriptSegments([]config.ScriptStep{{Mode: "loiter"}})
	assert.Error(t, err)
}
