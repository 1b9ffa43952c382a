package flight

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Stick is one sample of pilot input. Roll, Pitch and Yaw are in [-1, 1],
// Throttle in [0, 1].
type Stick struct {
	Roll, Pitch, Yaw, Throttle float64
}

func (s Stick) sanitized() Stick {
	return Stick{
		Roll:     sanitizeFinite(s.Roll),
		Pitch:    sanitizeFinite(s.Pitch),
		Yaw:      sanitizeFinite(s.Yaw),
		Throttle: sanitizeFinite(s.Throttle),
	}
}

// Body is the physics body being flown. Its lifetime must exceed the controller's.
type Body interface {
	// Orientation returns the body's world orientation as a unit quaternion.
	Orientation() mgl64.Quat
	// AngularVelocity returns the body's angular velocity in rad/s, world frame.
	AngularVelocity() mgl64.Vec3
}

// InputSource supplies shaped-but-unscaled pilot sticks.
type InputSource interface {
	StickInput() Stick
	// ThrottleMidStick is the stick position that should mean "hover", in (0, 1).
	ThrottleMidStick() float64
}

// AHRS is an attitude reference. The controller only carries it for observers.
type AHRS interface {
	Orientation() mgl64.Quat
}

// PositionController is the altitude outer loop driven in AltHold.
type PositionController interface {
	SetAltitudeTarget(alt float64)
	SetAltitudeTargetToCurrent()
	IsAltitudeHoldActive() bool
	SetAltitudeTargetFromClimbRate(rate, dt float64)
	UpdateVerticalAxis(dt float64)
}

// EngineSink receives the controller's outputs.
type EngineSink interface {
	// SetThrottlePercent takes a throttle fraction in [0, 1].
	SetThrottlePercent(throttle float64)
	// SetRotationForces takes per-axis normalised rotation commands in the body frame.
	SetRotationForces(forces mgl64.Vec3)
	HoverThrottle() float64
}

// PID is a single-axis controller with a clamped output.
type PID interface {
	Init(min, max, kp, ki, kd float64)
	Reset()
	Step(target, actual, dt float64) float64
}

func sanitizeFinite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
