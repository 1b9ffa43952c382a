package flight

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-6

// Shaper maps normalised sticks to physical targets. It has no state; limits
// are clamped on every call.
type Shaper struct {
	AngleMax         float64 // deg
	RollPitchRate    float64 // deg/s at full stick
	YawRate          float64 // deg/s at full stick
	RollPitchExpo    float64
	YawExpo          float64
	ThrottleDeadzone float64
	SpeedUp          float64 // m/s
	SpeedDown        float64 // m/s
}

// circularLimit scales (roll, pitch) back onto the unit circle when the pair
// lies outside it.
func circularLimit(roll, pitch float64) (float64, float64) {
	total := math.Hypot(roll, pitch)
	if total > 1 {
		ratio := 1 / total
		roll *= ratio
		pitch *= ratio
	}
	return roll, pitch
}

func expo(in, e float64) float64 {
	return e*in*in*in + (1-e)*in
}

// DesiredLeanAngles returns roll and pitch lean angles in degrees.
func (s Shaper) DesiredLeanAngles(rollIn, pitchIn float64) (float64, float64) {
	angleMax := mgl64.Clamp(s.AngleMax, 0, 80)
	rollIn, pitchIn = circularLimit(rollIn, pitchIn)
	return rollIn * angleMax, pitchIn * angleMax
}

// DesiredAngleRates returns body rates in deg/s for Accro.
func (s Shaper) DesiredAngleRates(rollIn, pitchIn, yawIn float64) (float64, float64, float64) {
	rollIn, pitchIn = circularLimit(rollIn, pitchIn)
	e := mgl64.Clamp(s.RollPitchExpo, -0.5, 1)

	roll := expo(rollIn, e) * s.RollPitchRate
	pitch := expo(pitchIn, e) * s.RollPitchRate
	return roll, pitch, s.DesiredYawRate(yawIn)
}

// DesiredYawRate returns the yaw rate in deg/s.
func (s Shaper) DesiredYawRate(yawIn float64) float64 {
	e := mgl64.Clamp(s.YawExpo, -0.5, 1)
	return expo(yawIn, e) * s.YawRate
}

// normalizeThrottle remaps throttleIn so that midStick lands on 0.5, linearly
// on each side.
func normalizeThrottle(throttleIn, midStick float64) float64 {
	throttleIn = mgl64.Clamp(throttleIn, 0, 1)
	switch {
	case throttleIn < midStick:
		if midStick < epsilon {
			return 0.5
		}
		return throttleIn * 0.5 / midStick
	case throttleIn > midStick:
		if 1-midStick < epsilon {
			return 0.5
		}
		return 0.5 + (throttleIn-midStick)*0.5/(1-midStick)
	default:
		return 0.5
	}
}

// DesiredThrottle returns the manual throttle output so that midStick hovers.
//
// The cubic correction is left unclamped so mid stick always lands on
// throttleHover. For hover throttles far from 0.5 the curve overshoots [0, 1]
// part way through the stroke.
func (s Shaper) DesiredThrottle(throttleIn, midStick, throttleHover float64) float64 {
	in := normalizeThrottle(throttleIn, midStick)
	e := -(throttleHover - 0.5) / 0.375
	return in*(1-e) + e*in*in*in
}

// DesiredClimbRate returns the climb rate in m/s, zero inside the deadband
// around midStick.
func (s Shaper) DesiredClimbRate(throttleIn, midStick float64) float64 {
	deadzone := mgl64.Clamp(s.ThrottleDeadzone, 0, 0.4)
	top := midStick + deadzone
	bottom := midStick - deadzone

	throttleIn = mgl64.Clamp(throttleIn, 0, 1)
	switch {
	case throttleIn < bottom:
		if bottom < epsilon {
			return 0
		}
		return s.SpeedDown * (throttleIn - bottom) / bottom
	case throttleIn > top:
		if 1-top < epsilon {
			return 0
		}
		return s.SpeedUp * (throttleIn - top) / (1 - top)
	default:
		return 0
	}
}
