//go:build !test
// +build !test

package main

import (
	"math"

	"drone-fc/internal/flight"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	throttleRampRate = 0.5  // Full stick travel per 2s with W/S held
	joystickDeadband = 0.05 // Axis magnitude ignored around centre
)

var modeKeys = map[glfw.Key]flight.FlightMode{
	glfw.Key1: flight.FlightModeDirect,
	glfw.Key2: flight.FlightModeStabilize,
	glfw.Key3: flight.FlightModeAltHold,
	glfw.Key4: flight.FlightModeAccro,
}

// KeyboardInput turns keys, or a joystick when one is present, into pilot
// sticks. Throttle is sticky on the keyboard and starts at mid stick.
type KeyboardInput struct {
	keys       map[glfw.Key]bool
	keyPressed map[glfw.Key]bool // Single key press detection

	mid      float64
	throttle float64
	stick    flight.Stick
	reset    bool
}

func NewKeyboardInput(midStick float64) *KeyboardInput {
	return &KeyboardInput{
		keys:       make(map[glfw.Key]bool),
		keyPressed: make(map[glfw.Key]bool),
		mid:        midStick,
		throttle:   midStick,
		stick:      flight.Stick{Throttle: midStick},
	}
}

func (i *KeyboardInput) SetupCallbacks(window *glfw.Window) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Press {
			i.keys[key] = true
			i.keyPressed[key] = true
		} else if action == glfw.Release {
			i.keys[key] = false
		}
	})
}

func (i *KeyboardInput) IsKeyPressed(key glfw.Key) bool {
	return i.keys[key]
}

func (i *KeyboardInput) WasKeyPressed(key glfw.Key) bool {
	if i.keyPressed[key] {
		i.keyPressed[key] = false // Reset for next frame
		return true
	}
	return false
}

// TakeReset reports whether R was pressed since the last call.
func (i *KeyboardInput) TakeReset() bool {
	r := i.reset
	i.reset = false
	return r
}

// Advance samples the keys once per fixed step.
func (i *KeyboardInput) Advance(dt float64) (mode flight.FlightMode, changed bool) {
	for key, m := range modeKeys {
		if i.WasKeyPressed(key) {
			mode, changed = m, true
		}
	}
	if i.WasKeyPressed(glfw.KeyR) {
		i.reset = true
	}

	if i.IsKeyPressed(glfw.KeyW) {
		i.throttle += throttleRampRate * dt
	}
	if i.IsKeyPressed(glfw.KeyS) {
		i.throttle -= throttleRampRate * dt
	}
	if i.WasKeyPressed(glfw.KeyX) {
		i.throttle = i.mid
	}
	if i.WasKeyPressed(glfw.KeyZ) {
		i.throttle = 0
	}
	i.throttle = mgl64.Clamp(i.throttle, 0, 1)

	// Positive roll banks left, positive pitch raises the nose, positive yaw turns left.
	i.stick = flight.Stick{
		Roll:     axisFromKeys(i.IsKeyPressed(glfw.KeyQ), i.IsKeyPressed(glfw.KeyE)),
		Pitch:    axisFromKeys(i.IsKeyPressed(glfw.KeyDown), i.IsKeyPressed(glfw.KeyUp)),
		Yaw:      axisFromKeys(i.IsKeyPressed(glfw.KeyA), i.IsKeyPressed(glfw.KeyD)),
		Throttle: i.throttle,
	}
	if glfw.Joystick1.Present() {
		i.applyJoystick(glfw.Joystick1.GetAxes())
	}
	return mode, changed
}

// applyJoystick reads a mode-2 layout: left stick yaw/throttle, right stick
// roll/pitch. Axes at rest leave the keyboard sticks alone.
func (i *KeyboardInput) applyJoystick(axes []float32) {
	if len(axes) < 4 {
		return
	}
	if v := deadband(float64(axes[0])); v != 0 {
		i.stick.Yaw = -v
	}
	i.stick.Throttle = mgl64.Clamp((1-float64(axes[1]))/2, 0, 1)
	if v := deadband(float64(axes[2])); v != 0 {
		i.stick.Roll = -v
	}
	if v := deadband(float64(axes[3])); v != 0 {
		i.stick.Pitch = v
	}
}

func (i *KeyboardInput) StickInput() flight.Stick  { return i.stick }
func (i *KeyboardInput) ThrottleMidStick() float64 { return i.mid }

func axisFromKeys(pos, neg bool) float64 {
	v := 0.0
	if pos {
		v++
	}
	if neg {
		v--
	}
	return v
}

func deadband(v float64) float64 {
	if math.Abs(v) < joystickDeadband {
		return 0
	}
	return mgl64.Clamp(v, -1, 1)
}
