package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const gravityAccel = 9.81 // m/s²

// Engine models a single rotor/prop unit.
type Engine struct {
	Position   mgl64.Vec3 // Body position (X forward, Y left, Z up)
	Spin       int        // +1 = CW, -1 = CCW (yaw torque sign)
	Efficiency float64    // 0..1 multiplier for available thrust
	Functional bool       // If false, produces no thrust
	MaxThrust  float64    // N at 100% throttle per engine
	Mass       float64    // kg mass allocated to motor/arm at this position
}

// Drone is a rigid quadcopter body in a Z-up world. It implements
// flight.Body and flight.EngineSink.
type Drone struct {
	Position   mgl64.Vec3 // m, world
	Velocity   mgl64.Vec3 // m/s, world
	Rotation   mgl64.Quat // body to world
	AngularVel mgl64.Vec3 // rad/s, world

	// Previous state for render interpolation
	PrevPosition mgl64.Vec3
	PrevRotation mgl64.Quat

	Mass       float64    // kg
	Dimensions mgl64.Vec3 // L x W x H in meters
	Inertia    mgl64.Vec3 // Ix, Iy, Iz about body axes

	ThrottlePercent float64    // 0-100% throttle
	RotationForces  mgl64.Vec3 // Per-axis fractions of max rate per second, body frame

	// Rotation authority: a rotation force of 1 held for 1s adds this much rate.
	MaxRollPitchRate float64 // rad/s
	MaxYawRate       float64 // rad/s

	RateDamping  float64 // 1/s, exponential
	DragCoeff    float64
	AirDensity   float64    // kg/m³ (varies with altitude)
	WindVelocity mgl64.Vec3 // m/s, world

	IsArmed  bool
	OnGround bool

	Engines []Engine
}

// NewDrone builds a DJI Mini 2 sized quad in X layout whose engines together
// lift maxThrustRatio times its weight.
func NewDrone(mass, maxThrustRatio float64) *Drone {
	d := &Drone{
		Rotation:     mgl64.QuatIdent(),
		PrevRotation: mgl64.QuatIdent(),

		Mass:       mass,
		Dimensions: mgl64.Vec3{0.159, 0.202, 0.055},

		MaxRollPitchRate: mgl64.DegToRad(200),
		MaxYawRate:       mgl64.DegToRad(200),

		RateDamping: 2.0,
		DragCoeff:   0.1,
		AirDensity:  1.225, // sea level
	}

	armX := 0.10 // meters forward/back
	armY := 0.12 // meters left/right
	perMax := maxThrustRatio * mass * gravityAccel / 4
	perMass := 0.1 * mass
	d.Engines = []Engine{
		{Position: mgl64.Vec3{armX, -armY, 0}, Spin: +1, Efficiency: 1, Functional: true, MaxThrust: perMax, Mass: perMass},  // front-right (CW)
		{Position: mgl64.Vec3{armX, armY, 0}, Spin: -1, Efficiency: 1, Functional: true, MaxThrust: perMax, Mass: perMass},   // front-left (CCW)
		{Position: mgl64.Vec3{-armX, -armY, 0}, Spin: -1, Efficiency: 1, Functional: true, MaxThrust: perMax, Mass: perMass}, // rear-right (CCW)
		{Position: mgl64.Vec3{-armX, armY, 0}, Spin: +1, Efficiency: 1, Functional: true, MaxThrust: perMax, Mass: perMass},  // rear-left (CW)
	}
	d.RecomputeInertia()
	d.Position = mgl64.Vec3{0, 0, d.groundClearance()}
	d.PrevPosition = d.Position
	d.OnGround = true
	return d
}

func (d *Drone) Arm() { d.IsArmed = true }

func (d *Drone) Disarm() {
	d.IsArmed = false
	d.ThrottlePercent = 0
	d.RotationForces = mgl64.Vec3{}
}

// SetThrottle takes a throttle in percent, clamped to 0-100.
func (d *Drone) SetThrottle(throttlePercent float64) {
	d.ThrottlePercent = mgl64.Clamp(sanitizeFinite(throttlePercent), 0, 100)
}

func (d *Drone) Orientation() mgl64.Quat     { return d.Rotation }
func (d *Drone) AngularVelocity() mgl64.Vec3 { return d.AngularVel }

// SetThrottlePercent takes a throttle fraction in [0, 1].
func (d *Drone) SetThrottlePercent(throttle float64) {
	d.SetThrottle(throttle * 100)
}

func (d *Drone) SetRotationForces(forces mgl64.Vec3) {
	for i := range forces {
		forces[i] = sanitizeFinite(forces[i])
	}
	d.RotationForces = forces
}

// HoverThrottle returns the throttle fraction whose thrust balances weight
// with the engines currently available. It is 1 when they cannot.
func (d *Drone) HoverThrottle() float64 {
	available := d.availableThrust()
	if available <= 0 {
		return 1
	}
	// thrust = throttle² * available
	return math.Min(1, math.Sqrt(d.Mass*gravityAccel/available))
}

func (d *Drone) availableThrust() float64 {
	var sum float64
	for _, e := range d.Engines {
		if e.Functional {
			sum += e.Efficiency * e.MaxThrust
		}
	}
	return sum
}

// Altitude is the height of the body centre above ground.
func (d *Drone) Altitude() float64 { return d.Position.Z() }

// Up returns the body Z axis in world coordinates.
func (d *Drone) Up() mgl64.Vec3 {
	return d.Rotation.Normalize().Rotate(mgl64.Vec3{0, 0, 1})
}

func (d *Drone) Update(dt float64) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return
	}
	// Capture previous state for interpolation before mutating
	d.PrevPosition = d.Position
	d.PrevRotation = d.Rotation

	// If disarmed, cut thrust but continue physics (free-fall under gravity)
	if !d.IsArmed {
		d.ThrottlePercent = 0
		d.RotationForces = mgl64.Vec3{}
	}

	d.updateAirDensity()

	gravity := mgl64.Vec3{0, 0, -gravityAccel * d.Mass}
	thrust, torque := d.calculateThrustAndTorque()
	drag := d.calculateDrag()

	acceleration := gravity.Add(thrust).Add(drag).Mul(1 / d.Mass)
	d.Velocity = d.Velocity.Add(acceleration.Mul(dt))
	d.Position = d.Position.Add(d.Velocity.Mul(dt))

	d.handleGroundCollision()
	d.updateAngularMotion(torque, dt)

	// Numerical safety: guard against NaN/Inf creeping in
	for i := 0; i < 3; i++ {
		d.Position[i] = sanitizeFinite(d.Position[i])
		d.Velocity[i] = sanitizeFinite(d.Velocity[i])
		d.AngularVel[i] = sanitizeFinite(d.AngularVel[i])
	}
	if !finiteQuat(d.Rotation) {
		d.Rotation = d.PrevRotation
	}
}

// calculateThrustAndTorque returns world thrust and the body torque caused by
// uneven engines.
func (d *Drone) calculateThrustAndTorque() (mgl64.Vec3, mgl64.Vec3) {
	if !d.IsArmed || d.ThrottlePercent <= 0 || len(d.Engines) == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}

	// Quadratic response curve
	tf := d.ThrottlePercent / 100.0
	tf = tf * tf

	// Ground effect factor
	ge := 1.0
	if h := d.Altitude(); h < 2.0 {
		ge = 1.0 + (0.15 * (2.0 - math.Max(h, 0)) / 2.0)
	}

	var sum float64
	var torque mgl64.Vec3
	yawCoeff := 0.02

	for _, e := range d.Engines {
		eff := e.Efficiency
		if !e.Functional {
			eff = 0
		}
		f := eff * tf * e.MaxThrust * ge
		sum += f
		// r x F with F = (0, 0, f)
		torque[0] += e.Position.Y() * f
		torque[1] -= e.Position.X() * f
		torque[2] += float64(e.Spin) * yawCoeff * f
	}
	return d.Up().Mul(sum), torque
}

// calculateDrag returns quadratic air resistance on the air-relative velocity.
func (d *Drone) calculateDrag() mgl64.Vec3 {
	airVel := d.Velocity.Sub(d.WindVelocity)
	speed := airVel.Len()
	if speed < 0.01 {
		return mgl64.Vec3{}
	}
	frontArea := d.Dimensions.X() * d.Dimensions.Z()

	// Drag = 0.5 * ρ * v² * Cd * A
	magnitude := 0.5 * d.AirDensity * speed * speed * d.DragCoeff * frontArea
	return airVel.Mul(-magnitude / speed)
}

func (d *Drone) updateAirDensity() {
	d.AirDensity = 1.225 * math.Exp(-math.Max(d.Altitude(), 0)/8400.0)
}

// groundClearance is the projected half-extent of the body onto world up, so
// corners stay above ground when tilted.
func (d *Drone) groundClearance() float64 {
	half := d.Dimensions.Mul(0.5)
	q := d.Rotation.Normalize()
	var h float64
	for i, axis := range [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		h += half[i] * math.Abs(q.Rotate(axis).Z())
	}
	return h
}

func (d *Drone) handleGroundCollision() {
	ground := d.groundClearance()
	d.OnGround = d.Position.Z() <= ground && d.Velocity.Z() <= 0.1
	if d.Position.Z() >= ground {
		return
	}
	d.Position[2] = ground
	if d.Velocity.Z() < 0 {
		d.Velocity[2] = 0
	}
	// Friction on ground
	d.Velocity[0] *= 0.8
	d.Velocity[1] *= 0.8
	d.OnGround = true
}

// updateAngularMotion applies rotation commands and engine torque in the body
// frame, damps, then integrates the orientation about the world rate axis.
func (d *Drone) updateAngularMotion(torque mgl64.Vec3, dt float64) {
	q := d.Rotation.Normalize()
	w := q.Conjugate().Rotate(d.AngularVel)

	authority := mgl64.Vec3{d.MaxRollPitchRate, d.MaxRollPitchRate, d.MaxYawRate}
	for i := 0; i < 3; i++ {
		w[i] += d.RotationForces[i] * authority[i] * dt
		if d.Inertia[i] > 0 {
			w[i] += torque[i] / d.Inertia[i] * dt
		}
	}
	w = w.Mul(math.Exp(-d.RateDamping * dt))

	world := q.Rotate(w)
	if l := world.Len(); l > 1e-12 {
		q = mgl64.QuatRotate(l*dt, world.Mul(1/l)).Mul(q)
	}
	d.Rotation = q.Normalize()
	d.AngularVel = world
}

// RecomputeInertia recalculates the inertia tensor (diagonal approximation)
// using a central rectangular prism for the body and point masses for engines.
func (d *Drone) RecomputeInertia() {
	mBody := d.Mass
	for _, e := range d.Engines {
		mBody -= e.Mass
	}
	if mBody < 0 {
		mBody = 0
	}

	l, w, h := d.Dimensions.X(), d.Dimensions.Y(), d.Dimensions.Z()
	c := 1.0 / 12.0
	inertia := mgl64.Vec3{
		c * mBody * (w*w + h*h),
		c * mBody * (l*l + h*h),
		c * mBody * (l*l + w*w),
	}
	for _, e := range d.Engines {
		x, y, z := e.Position.Elem()
		inertia[0] += e.Mass * (y*y + z*z)
		inertia[1] += e.Mass * (x*x + z*z)
		inertia[2] += e.Mass * (x*x + y*y)
	}

	const minMOI = 1e-6
	for i := range inertia {
		inertia[i] = math.Max(inertia[i], minMOI)
	}
	d.Inertia = inertia
}

// Engine failure/derating APIs
func (d *Drone) FailEngine(i int) {
	if i < 0 || i >= len(d.Engines) {
		return
	}
	d.Engines[i].Functional = false
	d.Engines[i].Efficiency = 0
}

func (d *Drone) RepairEngine(i int) {
	if i < 0 || i >= len(d.Engines) {
		return
	}
	d.Engines[i].Functional = true
	d.Engines[i].Efficiency = 1
}

func (d *Drone) SetEngineEfficiency(i int, eff float64) {
	if i < 0 || i >= len(d.Engines) {
		return
	}
	eff = mgl64.Clamp(eff, 0, 1)
	d.Engines[i].Efficiency = eff
	d.Engines[i].Functional = eff > 0
}

// InterpolatedOrientation blends the previous and current orientation for
// rendering between fixed steps.
func (d *Drone) InterpolatedOrientation(alpha float64) mgl64.Quat {
	return mgl64.QuatNlerp(d.PrevRotation, d.Rotation, mgl64.Clamp(alpha, 0, 1))
}

func sanitizeFinite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func finiteQuat(q mgl64.Quat) bool {
	for _, v := range [4]float64{q.W, q.V[0], q.V[1], q.V[2]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
