package flight

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.einride.tech/pid"
)

// RatePID adapts go.einride.tech/pid to the PID contract with an output clamp.
type RatePID struct {
	min, max float64
	ctrl     pid.Controller
}

func NewRatePID(min, max float64, gains PIDGains) *RatePID {
	p := &RatePID{}
	p.Init(min, max, gains.P, gains.I, gains.D)
	return p
}

func (p *RatePID) Init(min, max, kp, ki, kd float64) {
	p.min, p.max = min, max
	p.ctrl = pid.Controller{
		Config: pid.ControllerConfig{
			ProportionalGain: kp,
			IntegralGain:     ki,
			DerivativeGain:   kd,
		},
	}
}

func (p *RatePID) Reset() {
	p.ctrl.State = pid.ControllerState{}
}

func (p *RatePID) Step(target, actual, dt float64) float64 {
	interval := time.Duration(dt * float64(time.Second))
	if interval <= 0 {
		return 0
	}
	p.ctrl.Update(pid.ControllerInput{
		ReferenceSignal:  target,
		ActualSignal:     actual,
		SamplingInterval: interval,
	})
	return mgl64.Clamp(p.ctrl.State.ControlSignal, p.min, p.max)
}
