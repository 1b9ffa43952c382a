package sim

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.einride.tech/pid"
)

// AltitudeHold is the vertical outer loop used in AltHold. It drives the
// drone's throttle around hover from the altitude error. It implements
// flight.PositionController.
type AltitudeHold struct {
	drone *Drone

	target float64 // m
	active bool

	ctrl      pid.Controller
	MaxOutput float64 // throttle fraction either side of hover
}

func NewAltitudeHold(d *Drone) *AltitudeHold {
	return &AltitudeHold{
		drone: d,
		ctrl: pid.Controller{
			Config: pid.ControllerConfig{
				ProportionalGain: 0.08,
				IntegralGain:     0.01,
				DerivativeGain:   0.06,
			},
		},
		MaxOutput: 0.4,
	}
}

// SetAltitudeTarget sets the target altitude. Zero disables the hold.
func (a *AltitudeHold) SetAltitudeTarget(alt float64) {
	a.target = sanitizeFinite(alt)
	a.active = a.target != 0
	a.ctrl.State = pid.ControllerState{}
}

func (a *AltitudeHold) SetAltitudeTargetToCurrent() {
	a.target = a.drone.Altitude()
	a.active = true
	a.ctrl.State = pid.ControllerState{}
}

func (a *AltitudeHold) IsAltitudeHoldActive() bool { return a.active }

func (a *AltitudeHold) Target() float64 { return a.target }

// SetAltitudeTargetFromClimbRate moves the target by rate (m/s) over dt.
func (a *AltitudeHold) SetAltitudeTargetFromClimbRate(rate, dt float64) {
	if !a.active || !(dt > 0) {
		return
	}
	a.target = math.Max(0, a.target+sanitizeFinite(rate)*dt)
}

// UpdateVerticalAxis runs one PID step and writes the throttle.
func (a *AltitudeHold) UpdateVerticalAxis(dt float64) {
	interval := time.Duration(dt * float64(time.Second))
	if !a.active || interval <= 0 {
		return
	}
	a.ctrl.Update(pid.ControllerInput{
		ReferenceSignal:  a.target,
		ActualSignal:     a.drone.Altitude(),
		SamplingInterval: interval,
	})
	out := mgl64.Clamp(sanitizeFinite(a.ctrl.State.ControlSignal), -a.MaxOutput, a.MaxOutput)
	throttle := a.drone.HoverThrottle() + out

	// Thrust goes with throttle², so keep its vertical share by 1/sqrt(cos tilt).
	if up := a.drone.Up().Z(); up > 0.5 {
		throttle /= math.Sqrt(up)
	}
	a.drone.SetThrottlePercent(mgl64.Clamp(throttle, 0, 1))
}
