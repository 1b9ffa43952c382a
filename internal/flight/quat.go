package flight

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// World frame is Z-up; body frame is X forward, Y left, Z up.
var (
	axisX   = mgl64.Vec3{1, 0, 0}
	axisY   = mgl64.Vec3{0, 1, 0}
	worldUp = mgl64.Vec3{0, 0, 1}
)

// Euler holds Tait-Bryan angles in degrees, applied yaw (Z), then pitch (Y), then roll (X).
type Euler struct {
	Roll, Pitch, Yaw float64
}

func (e Euler) Quat() mgl64.Quat {
	yaw := mgl64.QuatRotate(mgl64.DegToRad(e.Yaw), worldUp)
	pitch := mgl64.QuatRotate(mgl64.DegToRad(e.Pitch), axisY)
	roll := mgl64.QuatRotate(mgl64.DegToRad(e.Roll), axisX)
	return yaw.Mul(pitch).Mul(roll).Normalize()
}

// EulerFromQuat decomposes q in the order used by Euler.Quat. Pitch is limited
// to +-90 degrees.
func EulerFromQuat(q mgl64.Quat) Euler {
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	pitch := math.Asin(mgl64.Clamp(2*(w*y-z*x), -1, 1))
	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Euler{
		Roll:  mgl64.RadToDeg(roll),
		Pitch: mgl64.RadToDeg(pitch),
		Yaw:   mgl64.RadToDeg(yaw),
	}
}

// shortestArc returns the rotation taking from onto to. The sign of to is
// flipped when needed so the result never spans more than half a turn.
func shortestArc(from, to mgl64.Quat) mgl64.Quat {
	if to.Dot(from) < 0 {
		to = to.Scale(-1)
	}
	return to.Mul(from.Inverse()).Normalize()
}

// toAxisAngle returns a unit axis and an angle in radians. A rotation too
// small to carry a direction yields the X axis and zero.
func toAxisAngle(q mgl64.Quat) (mgl64.Vec3, float64) {
	w := mgl64.Clamp(q.W, -1, 1)
	s := math.Sqrt(1 - w*w)
	if s < 1e-9 || q.V.Len() < 1e-12 {
		return axisX, 0
	}
	return q.V.Normalize(), 2 * math.Acos(w)
}

func finiteQuat(q mgl64.Quat) bool {
	for _, v := range [4]float64{q.W, q.V[0], q.V[1], q.V[2]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// toBody expresses a world-frame vector in the frame of orientation.
func toBody(orientation mgl64.Quat, v mgl64.Vec3) mgl64.Vec3 {
	return orientation.Normalize().Conjugate().Rotate(v)
}
