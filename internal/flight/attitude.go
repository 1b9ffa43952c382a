package flight

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AttitudeController is the flight mode state machine. It owns the target
// attitude and the rate loop, and is ticked once per physics step by Tock.
// It is not safe for concurrent use.
type AttitudeController struct {
	cfg Config
	log *slog.Logger

	mode   FlightMode
	target mgl64.Quat
	rate   *RateController

	body     Body
	input    InputSource
	ahrs     AHRS
	position PositionController
	engine   EngineSink

	// Per-tick copies, valid for the duration of one Tock.
	dt    float64
	pilot Stick

	lastForces  mgl64.Vec3
	lastCommand mgl64.Vec3
}

type modeHandler struct {
	enter func(c *AttitudeController)
	tock  func(c *AttitudeController)
}

var modeHandlers = [...]modeHandler{
	FlightModeDirect:    {enter: func(*AttitudeController) {}, tock: (*AttitudeController).tockDirect},
	FlightModeStabilize: {enter: (*AttitudeController).disableAltitudeHold, tock: (*AttitudeController).tockStabilize},
	FlightModeAltHold:   {enter: (*AttitudeController).enterAltHold, tock: (*AttitudeController).tockAltHold},
	FlightModeAccro:     {enter: (*AttitudeController).disableAltitudeHold, tock: (*AttitudeController).tockAccro},
}

// NewAttitudeController builds an unbound controller. A nil logger uses slog.Default.
func NewAttitudeController(cfg Config, logger *slog.Logger) *AttitudeController {
	if logger == nil {
		logger = slog.Default()
	}
	mode := cfg.FlightMode
	if !mode.valid() {
		mode = FlightModeStabilize
	}
	return &AttitudeController{
		cfg:    cfg,
		log:    logger,
		mode:   mode,
		target: mgl64.QuatIdent(),
		rate:   NewRateController(cfg),
	}
}

// Init binds the collaborators, resets the controller and enters the
// configured flight mode.
func (c *AttitudeController) Init(body Body, input InputSource, ahrs AHRS, position PositionController, engine EngineSink) {
	c.body = body
	c.input = input
	c.ahrs = ahrs
	c.position = position
	c.engine = engine

	c.rate.Configure(c.cfg)
	c.Reset()
	c.SelectFlightMode(c.mode)
}

// Reset re-seeds the target attitude from the body and clears PID state.
func (c *AttitudeController) Reset() {
	if c.body != nil {
		c.target = mgl64.QuatIdent()
		c.setTarget(c.body.Orientation())
	}
	c.rate.Reset()
}

// SelectFlightMode switches mode and runs the new mode's entry action. Unknown
// modes are ignored.
func (c *AttitudeController) SelectFlightMode(mode FlightMode) {
	if !mode.valid() {
		c.log.Warn("ignoring unknown flight mode", "mode", int(mode), "current", c.mode.String())
		return
	}
	if mode != c.mode {
		c.log.Info("flight mode changed", "from", c.mode.String(), "to", mode.String())
	}
	c.mode = mode
	if c.position != nil {
		modeHandlers[mode].enter(c)
	}
}

// SetControlLoop switches the rate loop strategy between ticks.
func (c *AttitudeController) SetControlLoop(loop ControlLoop) {
	c.cfg.RotationControlLoop = loop
	c.rate.Loop = loop
}

// Tock advances the controller by dt seconds. A non-positive or non-finite dt
// skips the tick.
func (c *AttitudeController) Tock(dt float64) {
	if c.body == nil || c.input == nil || c.engine == nil || c.position == nil {
		return
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		c.log.Debug("skipping tick", "dt", dt)
		return
	}
	c.dt = dt
	c.pilot = c.input.StickInput().sanitized()

	modeHandlers[c.mode].tock(c)
}

func (c *AttitudeController) FlightMode() FlightMode     { return c.mode }
func (c *AttitudeController) Config() Config             { return c.cfg }
func (c *AttitudeController) TargetAttitude() mgl64.Quat { return c.target }
func (c *AttitudeController) AHRS() AHRS                 { return c.ahrs }

// LastRotationForces returns the rotation forces emitted by the last tick.
func (c *AttitudeController) LastRotationForces() mgl64.Vec3 { return c.lastForces }

// LastRateCommand returns the clamped rate command (rad/s, body frame) of the
// last tick that ran the rate loop.
func (c *AttitudeController) LastRateCommand() mgl64.Vec3 { return c.lastCommand }

func (c *AttitudeController) shaper() Shaper { return c.cfg.Shaper() }

func (c *AttitudeController) desiredThrottle() float64 {
	return c.shaper().DesiredThrottle(c.pilot.Throttle, c.input.ThrottleMidStick(), c.engine.HoverThrottle())
}

func (c *AttitudeController) emitRotation(forces mgl64.Vec3) {
	c.lastForces = forces
	c.engine.SetRotationForces(forces)
}

// Entry actions

func (c *AttitudeController) disableAltitudeHold() {
	c.position.SetAltitudeTarget(0)
}

func (c *AttitudeController) enterAltHold() {
	if !c.position.IsAltitudeHoldActive() {
		c.position.SetAltitudeTargetToCurrent()
	}
}

// Per-tick handlers

func (c *AttitudeController) tockDirect() {
	c.engine.SetThrottlePercent(mgl64.Clamp(c.pilot.Throttle, 0, 1))
	c.emitRotation(mgl64.Vec3{c.pilot.Roll, c.pilot.Pitch, c.pilot.Yaw})
}

func (c *AttitudeController) tockStabilize() {
	s := c.shaper()
	roll, pitch := s.DesiredLeanAngles(c.pilot.Roll, c.pilot.Pitch)
	yawRate := s.DesiredYawRate(c.pilot.Yaw)
	throttle := c.desiredThrottle()

	c.ApplyAngleRollPitchRateYaw(roll, pitch, yawRate, c.dt)
	c.engine.SetThrottlePercent(throttle)
}

func (c *AttitudeController) tockAltHold() {
	s := c.shaper()
	roll, pitch := s.DesiredLeanAngles(c.pilot.Roll, c.pilot.Pitch)
	yawRate := s.DesiredYawRate(c.pilot.Yaw)
	climbRate := s.DesiredClimbRate(c.pilot.Throttle, c.input.ThrottleMidStick())

	c.ApplyAngleRollPitchRateYaw(roll, pitch, yawRate, c.dt)
	c.position.SetAltitudeTargetFromClimbRate(climbRate, c.dt)
	c.position.UpdateVerticalAxis(c.dt)
}

func (c *AttitudeController) tockAccro() {
	s := c.shaper()
	rollRate, pitchRate, yawRate := s.DesiredAngleRates(c.pilot.Roll, c.pilot.Pitch, c.pilot.Yaw)
	throttle := c.desiredThrottle()

	c.ApplyRateBodyRollPitchYaw(rollRate, pitchRate, yawRate, c.dt)
	c.engine.SetThrottlePercent(throttle)
}
