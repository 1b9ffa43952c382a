package flight

import (
	"github.com/go-gl/mathgl/mgl64"
)

// RateController turns a body-frame angular velocity error into a velocity
// change to apply, using one of the ControlLoop strategies.
type RateController struct {
	Loop ControlLoop

	MaxRollPitchRate float64 // rad/s
	MaxYawRate       float64 // rad/s

	SPDDamping   float64
	SPDFrequency float64

	// Roll, pitch, yaw. They run on rates normalised by the axis max rate, so
	// one gain set holds for any configured max rate.
	PIDs [3]PID
}

func NewRateController(cfg Config) *RateController {
	r := &RateController{
		PIDs: [3]PID{&RatePID{}, &RatePID{}, &RatePID{}},
	}
	r.Configure(cfg)
	return r
}

// Configure reloads limits, loop selection and gains from cfg. PIDs are
// initialised with an output range of [-1, 1].
func (r *RateController) Configure(cfg Config) {
	r.Loop = cfg.RotationControlLoop
	r.MaxRollPitchRate = mgl64.DegToRad(cfg.AccroRollPitchPGain)
	r.MaxYawRate = mgl64.DegToRad(cfg.YawPGain)
	r.SPDDamping = cfg.SPDDamping
	r.SPDFrequency = cfg.SPDFrequency

	for i, g := range [3]PIDGains{cfg.RateRollPID, cfg.RatePitchPID, cfg.RateYawPID} {
		r.PIDs[i].Init(-1, 1, g.P, g.I, g.D)
	}
}

func (r *RateController) Reset() {
	for _, p := range r.PIDs {
		p.Reset()
	}
}

func (r *RateController) maxRates() mgl64.Vec3 {
	return mgl64.Vec3{r.MaxRollPitchRate, r.MaxRollPitchRate, r.MaxYawRate}
}

// Command returns the angular velocity change to apply, in rad/s, body frame,
// clamped per axis to the configured max rates.
func (r *RateController) Command(current, target mgl64.Vec3, dt float64) mgl64.Vec3 {
	var apply mgl64.Vec3
	switch r.Loop {
	case ControlLoopPID:
		apply = r.stepPID(current, target, dt)
	case ControlLoopSPD:
		apply = StepSPD(current, target, r.SPDFrequency, r.SPDDamping, dt)
	default:
		apply = target.Sub(current)
	}

	limits := r.maxRates()
	for i := range apply {
		apply[i] = mgl64.Clamp(sanitizeFinite(apply[i]), -limits[i], limits[i])
	}
	return apply
}

func (r *RateController) stepPID(current, target mgl64.Vec3, dt float64) mgl64.Vec3 {
	limits := r.maxRates()
	var out mgl64.Vec3
	for i := range out {
		max := limits[i]
		if max < epsilon {
			continue
		}
		out[i] = r.PIDs[i].Step(target[i]/max, current[i]/max, dt) * max
	}
	return out
}

// StepSPD runs one semi-implicit spring-damper step on every axis. The g
// factor keeps it stable when frequency*dt is large.
func StepSPD(current, target mgl64.Vec3, frequency, damping, dt float64) mgl64.Vec3 {
	kpg, kdg := spdGains(frequency, damping, dt)
	return target.Mul(kpg).Sub(current.Mul(kdg))
}

func spdGains(frequency, damping, dt float64) (kpg, kdg float64) {
	kp := frequency * frequency * 9
	kd := 4.5 * frequency * damping

	den := 1 + kd*dt + kp*dt*dt
	if den < epsilon {
		return 0, 0
	}
	g := 1 / den
	return kp * g, (kd + kp*dt) * g
}

// Normalize scales a command to per-axis fractions of max rate per second,
// the unit the engine sink expects. Axes with no rate authority output zero.
func (r *RateController) Normalize(apply mgl64.Vec3, dt float64) mgl64.Vec3 {
	if dt < epsilon {
		return mgl64.Vec3{}
	}
	limits := r.maxRates()
	var out mgl64.Vec3
	for i := range out {
		if limits[i] < epsilon {
			continue
		}
		out[i] = apply[i] / limits[i] / dt
	}
	return out
}
