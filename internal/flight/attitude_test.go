package flight

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 0.01

func withMode(mode FlightMode) Config {
	cfg := DefaultConfig()
	cfg.FlightMode = mode
	return cfg
}

// integrate applies the last rotation forces to the fake body the way an
// engine with max-rate authority would, then advances its orientation.
func (r *rig) integrate(dt float64) {
	limits := r.ctrl.rate.maxRates()
	q := r.body.orientation

	w := toBody(q, r.body.angular)
	for i := range w {
		w[i] += r.engine.forces[i] * limits[i] * dt
	}
	world := q.Rotate(w)
	if l := world.Len(); l > 0 {
		q = mgl64.QuatRotate(l*dt, world.Mul(1/l)).Mul(q).Normalize()
	}
	r.body.orientation = q
	r.body.angular = world
}

func TestInitEntersConfiguredMode(t *testing.T) {
	r := newRig(DefaultConfig())
	assert.Equal(t, FlightModeStabilize, r.ctrl.FlightMode())
	assert.Equal(t, []float64{0}, r.position.targetCalls)

	r = newRig(withMode(FlightModeAltHold))
	assert.Equal(t, FlightModeAltHold, r.ctrl.FlightMode())
	assert.Equal(t, 1, r.position.toCurrentCalls)
	assert.Equal(t, 12.0, r.position.target)
}

func TestInvalidConfiguredModeFallsBackToStabilize(t *testing.T) {
	r := newRig(withMode(FlightMode(42)))
	assert.Equal(t, FlightModeStabilize, r.ctrl.FlightMode())
}

func TestSelectFlightModeEntryActions(t *testing.T) {
	r := newRig(DefaultConfig())

	r.ctrl.SelectFlightMode(FlightModeAltHold)
	r.ctrl.SelectFlightMode(FlightModeAltHold)
	assert.Equal(t, 1, r.position.toCurrentCalls, "re-entering AltHold keeps the existing target")
	assert.True(t, r.position.active)

	r.ctrl.SelectFlightMode(FlightModeAccro)
	assert.False(t, r.position.active)
	assert.Equal(t, 0.0, r.position.target)

	r.ctrl.SelectFlightMode(FlightModeAltHold)
	assert.Equal(t, 2, r.position.toCurrentCalls)

	r.ctrl.SelectFlightMode(FlightModeStabilize)
	assert.False(t, r.position.active)

	calls := len(r.position.targetCalls)
	r.ctrl.SelectFlightMode(FlightModeDirect)
	assert.Len(t, r.position.targetCalls, calls, "Direct has no entry action")
	assert.Equal(t, FlightModeDirect, r.ctrl.FlightMode())
}

func TestSelectFlightModeIgnoresUnknown(t *testing.T) {
	r := newRig(withMode(FlightModeAccro))
	r.ctrl.SelectFlightMode(FlightMode(-1))
	r.ctrl.SelectFlightMode(FlightMode(4))
	assert.Equal(t, FlightModeAccro, r.ctrl.FlightMode())
}

func TestTockBeforeInitIsNoop(t *testing.T) {
	c := NewAttitudeController(DefaultConfig(), nil)
	assert.NotPanics(t, func() { c.Tock(tick) })
	assert.Equal(t, mgl64.QuatIdent(), c.TargetAttitude())
}

func TestTockSkipsBadDt(t *testing.T) {
	r := newRig(DefaultConfig())
	for _, dt := range []float64{0, -tick, math.NaN(), math.Inf(1)} {
		r.ctrl.Tock(dt)
	}
	assert.Zero(t, r.engine.forceCalls)
	assert.Zero(t, r.engine.throttleCalls)
}

func TestStabilizeAtRest(t *testing.T) {
	r := newRig(DefaultConfig())
	r.engine.hover = 0.4

	r.ctrl.Tock(tick)
	assertVecInDelta(t, mgl64.Vec3{}, r.engine.forces, 1e-9)
	assert.InDelta(t, 0.4, r.engine.throttle, 1e-9)
	assert.InDelta(t, 0, angleBetween(r.ctrl.TargetAttitude(), mgl64.QuatIdent()), 1e-9)
}

func TestStabilizeSlewsTargetAtRateLimit(t *testing.T) {
	r := newRig(DefaultConfig())
	r.input.stick = Stick{Roll: 1, Throttle: 0.5}

	r.ctrl.Tock(tick)
	assert.InDelta(t, -2, EulerFromQuat(r.ctrl.TargetAttitude()).Roll, 1e-6)

	for i := 0; i < 40; i++ {
		r.ctrl.Tock(tick)
	}
	e := EulerFromQuat(r.ctrl.TargetAttitude())
	assert.InDelta(t, -45, e.Roll, 1e-6)
	assert.InDelta(t, 0, e.Pitch, 1e-6)
}

func TestStabilizeYawRate(t *testing.T) {
	r := newRig(DefaultConfig())
	r.input.stick = Stick{Yaw: 0.5, Throttle: 0.5}

	r.ctrl.Tock(tick)
	assert.InDelta(t, 1, EulerFromQuat(r.ctrl.TargetAttitude()).Yaw, 1e-6)
	assert.InDelta(t, 50, r.engine.forces[2], 1e-6)
	assert.InDelta(t, 0, r.engine.forces[0], 1e-4)
}

func TestAltHoldDrivesPositionController(t *testing.T) {
	r := newRig(withMode(FlightModeAltHold))
	r.input.stick = Stick{Throttle: 1}

	r.ctrl.Tock(tick)
	require.Len(t, r.position.climbRates, 1)
	assert.InDelta(t, 20, r.position.climbRates[0], 1e-9)
	assert.Equal(t, []float64{tick}, r.position.climbDts)
	assert.Equal(t, 1, r.position.updates)
	assert.Zero(t, r.engine.throttleCalls, "the vertical loop owns throttle")
	assert.Equal(t, 1, r.engine.forceCalls)
}

func TestAccroIntegratesRates(t *testing.T) {
	r := newRig(withMode(FlightModeAccro))
	r.input.stick = Stick{Roll: 1, Throttle: 0.5}

	r.ctrl.Tock(tick)
	assert.InDelta(t, -2, EulerFromQuat(r.ctrl.TargetAttitude()).Roll, 1e-6)

	maxRate := mgl64.DegToRad(200)
	assert.InDelta(t, -maxRate, r.ctrl.LastRateCommand()[0], 1e-9)
	assert.InDelta(t, -100, r.ctrl.LastRotationForces()[0], 1e-6)
	assert.Equal(t, r.engine.forces, r.ctrl.LastRotationForces())
	assert.InDelta(t, 0.5, r.engine.throttle, 1e-9)
}

func TestAccroHoldsAttitudeWithCentredSticks(t *testing.T) {
	r := newRig(withMode(FlightModeAccro))
	r.body.orientation = Euler{Roll: 25, Pitch: -10, Yaw: 70}.Quat()
	r.ctrl.Reset()

	r.ctrl.Tock(tick)
	assert.InDelta(t, 0, angleBetween(r.ctrl.TargetAttitude(), r.body.orientation), 1e-9)
	assertVecInDelta(t, mgl64.Vec3{}, r.engine.forces, 1e-3)
}

func TestDirectPassesSticksThrough(t *testing.T) {
	r := newRig(withMode(FlightModeDirect))
	r.input.stick = Stick{Roll: 0.2, Pitch: -0.3, Yaw: 0.4, Throttle: 1.5}

	r.ctrl.Tock(tick)
	assert.Equal(t, 1.0, r.engine.throttle)
	assert.Equal(t, mgl64.Vec3{0.2, -0.3, 0.4}, r.engine.forces)
}

func TestNonFiniteSticksAreZeroed(t *testing.T) {
	for m := FlightModeDirect; m <= FlightModeAccro; m++ {
		t.Run(m.String(), func(t *testing.T) {
			r := newRig(withMode(m))
			r.input.stick = Stick{Roll: math.NaN(), Pitch: math.Inf(1), Yaw: math.Inf(-1), Throttle: math.NaN()}

			r.ctrl.Tock(tick)
			for _, f := range r.engine.forces {
				assert.False(t, math.IsNaN(f) || math.IsInf(f, 0))
			}
			assert.False(t, math.IsNaN(r.engine.throttle))
			assert.True(t, finiteQuat(r.ctrl.TargetAttitude()))
		})
	}
}

func TestTargetStaysUnitLength(t *testing.T) {
	sticks := []Stick{
		{Roll: 1, Pitch: 1, Yaw: 1, Throttle: 1},
		{Roll: -0.7, Pitch: 0.2, Yaw: -1, Throttle: 0.2},
		{Roll: 0.05, Pitch: -1, Yaw: 0.3, Throttle: 0.5},
	}
	for m := FlightModeStabilize; m <= FlightModeAccro; m++ {
		t.Run(m.String(), func(t *testing.T) {
			r := newRig(withMode(m))
			for i := 0; i < 600; i++ {
				r.input.stick = sticks[(i/50)%len(sticks)]
				r.ctrl.Tock(tick)
				r.integrate(tick)
				require.InDelta(t, 1, r.ctrl.TargetAttitude().Len(), 1e-9, "tick %d", i)
			}
		})
	}
}

func TestSetTargetReseedsFromBody(t *testing.T) {
	r := newRig(DefaultConfig())
	r.body.orientation = Euler{Pitch: 15}.Quat()

	r.ctrl.setTarget(mgl64.Quat{W: math.NaN()})
	assert.InDelta(t, 0, angleBetween(r.ctrl.TargetAttitude(), r.body.orientation), 1e-9)

	r.body.orientation = mgl64.Quat{W: math.Inf(1)}
	r.ctrl.setTarget(mgl64.Quat{W: math.NaN()})
	assert.Equal(t, mgl64.QuatIdent(), r.ctrl.TargetAttitude())
}

func TestClosedLoopLevelsOut(t *testing.T) {
	for _, loop := range []ControlLoop{ControlLoopP, ControlLoopPID} {
		t.Run(loop.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.RotationControlLoop = loop
			r := newRig(cfg)
			r.body.orientation = Euler{Roll: 30, Pitch: -20}.Quat()
			r.ctrl.Reset()

			for i := 0; i < 300; i++ {
				r.ctrl.Tock(tick)
				r.integrate(tick)
			}
			e := EulerFromQuat(r.body.orientation)
			assert.InDelta(t, 0, e.Roll, 0.5)
			assert.InDelta(t, 0, e.Pitch, 0.5)
			assert.Less(t, r.body.angular.Len(), 0.05)
		})
	}
}

func TestClosedLoopTracksLean(t *testing.T) {
	r := newRig(DefaultConfig())
	r.input.stick = Stick{Pitch: 0.5, Throttle: 0.5}

	for i := 0; i < 300; i++ {
		r.ctrl.Tock(tick)
		r.integrate(tick)
	}
	assert.InDelta(t, -22.5, EulerFromQuat(r.body.orientation).Pitch, 0.5)
}

func TestSetControlLoop(t *testing.T) {
	r := newRig(DefaultConfig())
	r.ctrl.SetControlLoop(ControlLoopSPD)
	assert.Equal(t, ControlLoopSPD, r.ctrl.Config().RotationControlLoop)
	assert.Equal(t, ControlLoopSPD, r.ctrl.rate.Loop)
}
