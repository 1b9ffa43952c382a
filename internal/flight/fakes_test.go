package flight

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

type fakeBody struct {
	orientation mgl64.Quat
	angular     mgl64.Vec3
}

func (b *fakeBody) Orientation() mgl64.Quat     { return b.orientation }
func (b *fakeBody) AngularVelocity() mgl64.Vec3 { return b.angular }

type fakeInput struct {
	stick Stick
	mid   float64
}

func (i *fakeInput) StickInput() Stick         { return i.stick }
func (i *fakeInput) ThrottleMidStick() float64 { return i.mid }

type fakeAHRS struct{ body *fakeBody }

func (a fakeAHRS) Orientation() mgl64.Quat { return a.body.orientation }

type fakePosition struct {
	current float64
	target  float64
	active  bool

	targetCalls    []float64
	toCurrentCalls int
	climbRates     []float64
	climbDts       []float64
	updates        int
}

func (p *fakePosition) SetAltitudeTarget(alt float64) {
	p.targetCalls = append(p.targetCalls, alt)
	p.target = alt
	p.active = alt != 0
}

func (p *fakePosition) SetAltitudeTargetToCurrent() {
	p.toCurrentCalls++
	p.target = p.current
	p.active = true
}

func (p *fakePosition) IsAltitudeHoldActive() bool { return p.active }

func (p *fakePosition) SetAltitudeTargetFromClimbRate(rate, dt float64) {
	p.climbRates = append(p.climbRates, rate)
	p.climbDts = append(p.climbDts, dt)
}

func (p *fakePosition) UpdateVerticalAxis(float64) { p.updates++ }

type fakeEngine struct {
	hover float64

	throttle      float64
	forces        mgl64.Vec3
	throttleCalls int
	forceCalls    int
}

func (e *fakeEngine) SetThrottlePercent(t float64) {
	e.throttle = t
	e.throttleCalls++
}

func (e *fakeEngine) SetRotationForces(f mgl64.Vec3) {
	e.forces = f
	e.forceCalls++
}

func (e *fakeEngine) HoverThrottle() float64 { return e.hover }

type recordingPID struct {
	min, max, kp, ki, kd float64

	inits, resets, steps int
}

func (p *recordingPID) Init(min, max, kp, ki, kd float64) {
	p.min, p.max, p.kp, p.ki, p.kd = min, max, kp, ki, kd
	p.inits++
}

func (p *recordingPID) Reset() { p.resets++ }

func (p *recordingPID) Step(target, actual, dt float64) float64 {
	p.steps++
	return mgl64.Clamp(p.kp*(target-actual), p.min, p.max)
}

type rig struct {
	ctrl     *AttitudeController
	body     *fakeBody
	input    *fakeInput
	position *fakePosition
	engine   *fakeEngine
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRig(cfg Config) *rig {
	r := &rig{
		body:     &fakeBody{orientation: mgl64.QuatIdent()},
		input:    &fakeInput{stick: Stick{Throttle: 0.5}, mid: 0.5},
		position: &fakePosition{current: 12},
		engine:   &fakeEngine{hover: 0.5},
	}
	r.ctrl = NewAttitudeController(cfg, discardLogger())
	r.ctrl.Init(r.body, r.input, fakeAHRS{r.body}, r.position, r.engine)
	return r
}

func assertVecInDelta(t *testing.T, want, got mgl64.Vec3, delta float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v", i, got)
	}
}
