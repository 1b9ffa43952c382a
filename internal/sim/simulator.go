package sim

import (
	"log/slog"
	"math"
	"time"

	"drone-fc/internal/flight"

	"github.com/go-gl/mathgl/mgl64"
)

// maxSubSteps caps fixed updates per frame to avoid a spiral of death on stalls.
const maxSubSteps = 5

// Options describes the simulated vehicle and its start state.
type Options struct {
	UPS            int // Fixed updates per second
	StartAltitude  float64
	StartAttitude  flight.Euler
	Mass           float64 // kg
	MaxThrustRatio float64 // Total max thrust over weight
}

func DefaultOptions() Options {
	return Options{
		UPS:            240,
		StartAltitude:  10,
		Mass:           0.249,
		MaxThrustRatio: 2.5,
	}
}

// Simulator couples one drone with the attitude controller and an input
// source, and advances them in fixed steps.
type Simulator struct {
	opts Options
	log  *slog.Logger

	drone *Drone
	ahrs  *DroneAHRS
	alt   *AltitudeHold
	ctrl  *flight.AttitudeController
	input Input

	fixed time.Duration
	acc   time.Duration
	clock float64
	steps int
}

// NewSimulator builds a simulator with an armed drone at the start state.
// A nil input holds the sticks centred; a nil logger uses slog.Default.
func NewSimulator(cfg flight.Config, opts Options, input Input, logger *slog.Logger) *Simulator {
	def := DefaultOptions()
	if opts.UPS <= 0 {
		opts.UPS = def.UPS
	}
	if !(opts.Mass > 0) {
		opts.Mass = def.Mass
	}
	if !(opts.MaxThrustRatio > 1) {
		opts.MaxThrustRatio = def.MaxThrustRatio
	}
	if logger == nil {
		logger = slog.Default()
	}
	if input == nil {
		input = NewScriptedInput(0.5)
	}

	d := NewDrone(opts.Mass, opts.MaxThrustRatio)
	d.MaxRollPitchRate = mgl64.DegToRad(cfg.AccroRollPitchPGain)
	d.MaxYawRate = mgl64.DegToRad(cfg.YawPGain)

	s := &Simulator{
		opts:  opts,
		log:   logger,
		drone: d,
		ahrs:  NewDroneAHRS(d),
		alt:   NewAltitudeHold(d),
		ctrl:  flight.NewAttitudeController(cfg, logger.With("component", "attitude")),
		input: input,
		fixed: time.Second / time.Duration(opts.UPS),
	}
	s.Reset()
	return s
}

// Reset puts the drone back at the start state, armed at hover throttle,
// rewinds a scripted input and rebinds the controller. The current flight
// mode is kept.
func (s *Simulator) Reset() {
	d := s.drone
	d.Rotation = s.opts.StartAttitude.Quat()
	d.PrevRotation = d.Rotation
	d.Velocity = mgl64.Vec3{}
	d.AngularVel = mgl64.Vec3{}
	d.Position = mgl64.Vec3{0, 0, math.Max(s.opts.StartAltitude, d.groundClearance())}
	d.PrevPosition = d.Position
	d.OnGround = false

	d.Arm()
	d.SetRotationForces(mgl64.Vec3{})
	d.SetThrottlePercent(d.HoverThrottle())

	if r, ok := s.input.(interface{ Rewind() }); ok {
		r.Rewind()
	}
	s.alt.SetAltitudeTarget(0)
	s.ctrl.Init(d, s.input, s.ahrs, s.alt, d)

	s.acc = 0
	s.clock = 0
	s.steps = 0
	s.log.Info("simulation reset",
		"mode", s.ctrl.FlightMode().String(),
		"altitude", d.Altitude(),
		"hover_throttle", d.HoverThrottle())
}

// Step advances input, controller and physics by dt seconds, in that order.
func (s *Simulator) Step(dt float64) {
	if mode, ok := s.input.Advance(dt); ok {
		s.ctrl.SelectFlightMode(mode)
	}
	s.ctrl.Tock(dt)
	s.drone.Update(dt)
	s.clock += dt
	s.steps++
}

// Advance feeds one frame of wall time into the fixed-step accumulator and
// returns the number of steps taken.
func (s *Simulator) Advance(frame time.Duration) int {
	// Clamp to avoid spiral-of-death on stalls
	if frame > time.Second/4 {
		frame = time.Second / 4
	}
	if frame > 0 {
		s.acc += frame
	}

	steps := 0
	for s.acc >= s.fixed && steps < maxSubSteps {
		s.Step(s.fixed.Seconds())
		s.acc -= s.fixed
		steps++
	}
	return steps
}

// Alpha is the fraction of a fixed step left in the accumulator, for
// interpolating the rendered state.
func (s *Simulator) Alpha() float64 {
	return mgl64.Clamp(float64(s.acc)/float64(s.fixed), 0, 1)
}

// RunHeadless runs fixed steps until steps have been taken or dur of wall
// time has passed, whichever limit is set. It returns the steps performed.
func (s *Simulator) RunHeadless(steps int, dur time.Duration) int {
	fixed := s.fixed.Seconds()
	perSecond := s.opts.UPS
	performed := 0
	start := time.Now()
	useSteps := steps > 0
	useDur := dur > 0
	if !useSteps && !useDur {
		return 0
	}

	for {
		if useSteps && performed >= steps {
			break
		}
		if useDur && time.Since(start) >= dur {
			break
		}
		s.Step(fixed)
		performed++
		if performed%perSecond == 0 {
			s.log.Debug("telemetry", "state", s.Telemetry())
		}
	}
	return performed
}

func (s *Simulator) Drone() *Drone                          { return s.drone }
func (s *Simulator) AHRS() *DroneAHRS                       { return s.ahrs }
func (s *Simulator) AltitudeHold() *AltitudeHold            { return s.alt }
func (s *Simulator) Controller() *flight.AttitudeController { return s.ctrl }
func (s *Simulator) FixedStep() time.Duration               { return s.fixed }
func (s *Simulator) Time() float64                          { return s.clock }
func (s *Simulator) Steps() int                             { return s.steps }

// Telemetry is a snapshot of the simulation for printing and logging.
type Telemetry struct {
	Time      float64
	Mode      flight.FlightMode
	Position  mgl64.Vec3
	Velocity  mgl64.Vec3
	Attitude  flight.Euler
	Target    flight.Euler
	Throttle  float64 // percent
	Forces    mgl64.Vec3
	AltHold   bool
	AltTarget float64
}

func (s *Simulator) Telemetry() Telemetry {
	return Telemetry{
		Time:      s.clock,
		Mode:      s.ctrl.FlightMode(),
		Position:  s.drone.Position,
		Velocity:  s.drone.Velocity,
		Attitude:  s.ahrs.Euler(),
		Target:    flight.EulerFromQuat(s.ctrl.TargetAttitude()),
		Throttle:  s.drone.ThrottlePercent,
		Forces:    s.ctrl.LastRotationForces(),
		AltHold:   s.alt.IsAltitudeHoldActive(),
		AltTarget: s.alt.Target(),
	}
}

func (t Telemetry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("t", t.Time),
		slog.String("mode", t.Mode.String()),
		slog.Float64("alt", t.Position.Z()),
		slog.Float64("vz", t.Velocity.Z()),
		slog.Float64("roll", t.Attitude.Roll),
		slog.Float64("pitch", t.Attitude.Pitch),
		slog.Float64("yaw", t.Attitude.Yaw),
		slog.Float64("throttle", t.Throttle),
	)
}
