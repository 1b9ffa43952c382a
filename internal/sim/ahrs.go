package sim

import (
	"drone-fc/internal/flight"

	"github.com/go-gl/mathgl/mgl64"
)

// DroneAHRS reports the drone's true attitude. It implements flight.AHRS.
type DroneAHRS struct {
	drone *Drone
}

func NewDroneAHRS(d *Drone) *DroneAHRS { return &DroneAHRS{drone: d} }

func (a *DroneAHRS) Orientation() mgl64.Quat { return a.drone.Rotation.Normalize() }

// Euler returns roll, pitch and yaw in degrees.
func (a *DroneAHRS) Euler() flight.Euler { return flight.EulerFromQuat(a.Orientation()) }
