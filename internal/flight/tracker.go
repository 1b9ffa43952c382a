package flight

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ApplyAngleRollPitchRateYaw commands absolute roll and pitch angles (deg) and
// a yaw rate (deg/s). The target attitude is slewed towards the commanded lean
// no faster than the roll/pitch rate limit, then the rate loop runs.
func (c *AttitudeController) ApplyAngleRollPitchRateYaw(rollDeg, pitchDeg, yawRateDeg, dt float64) {
	// Yaw is always a rate, about the world vertical.
	yawStep := mgl64.QuatRotate(mgl64.DegToRad(yawRateDeg*dt), worldUp)
	c.setTarget(yawStep.Mul(c.target))

	// Body axes are mirrored against the stick axes.
	desired := EulerFromQuat(c.target)
	desired.Roll = -rollDeg
	desired.Pitch = -pitchDeg

	axis, angle := toAxisAngle(shortestArc(c.target, desired.Quat()))
	angle = mgl64.Clamp(angle, 0, mgl64.DegToRad(c.cfg.AccroRollPitchPGain*dt))
	c.setTarget(mgl64.QuatRotate(angle, axis).Mul(c.target))

	c.runQuat(dt)
}

// ApplyRateBodyRollPitchYaw integrates body rates (deg/s) into the target
// attitude. There is no absolute angle target.
func (c *AttitudeController) ApplyRateBodyRollPitchYaw(rollRateDeg, pitchRateDeg, yawRateDeg, dt float64) {
	step := Euler{
		Roll:  -rollRateDeg * dt,
		Pitch: -pitchRateDeg * dt,
		Yaw:   yawRateDeg * dt,
	}.Quat()
	c.setTarget(c.target.Mul(step))

	c.runQuat(dt)
}

// runQuat drives the body towards the target attitude through the rate loop
// and emits the normalised rotation forces.
func (c *AttitudeController) runQuat(dt float64) {
	orientation := c.body.Orientation().Normalize()

	axis, angle := toAxisAngle(shortestArc(orientation, c.target))
	target := toBody(orientation, axis.Mul(angle/dt))
	current := toBody(orientation, c.body.AngularVelocity())

	c.lastCommand = c.rate.Command(current, target, dt)
	c.emitRotation(c.rate.Normalize(c.lastCommand, dt))
}

// setTarget stores a renormalised target attitude. A non-finite result can
// never recover through normalisation, so the target is re-seeded from the body.
func (c *AttitudeController) setTarget(q mgl64.Quat) {
	if !finiteQuat(q) {
		c.log.Warn("target attitude became non-finite, re-seeding from body")
		q = c.body.Orientation()
		if !finiteQuat(q) {
			q = mgl64.QuatIdent()
		}
	}
	c.target = q.Normalize()
}
