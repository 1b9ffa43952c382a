//go:build !test
// +build !test

package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"runtime"
	"time"

	"drone-fc/internal/config"
	"drone-fc/internal/flight"
	"drone-fc/internal/logging"
	"drone-fc/internal/sim"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	windowWidth  = 1024
	windowHeight = 768
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	fc, err := cfg.Controller.Flight()
	if err != nil {
		log.Fatal(err)
	}
	logFile, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger := logging.Setup(logFile, cfg.Log.Level)
	slog.SetDefault(logger)

	if err := glfw.Init(); err != nil {
		log.Fatal("Failed to initialize GLFW:", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(windowWidth, windowHeight, "Quadcopter Flight Controller", nil, nil)
	if err != nil {
		log.Fatal("Failed to create window:", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		log.Fatal("Failed to initialize OpenGL:", err)
	}
	logger.Info("opengl ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	input := NewKeyboardInput(cfg.Sim.ThrottleMidStick)
	input.SetupCallbacks(window)

	s := sim.NewSimulator(fc, sim.Options{
		UPS:           cfg.Sim.UPS,
		StartAltitude: cfg.Sim.StartAltitude,
		StartAttitude: flight.Euler{
			Roll:  cfg.Sim.StartRollDeg,
			Pitch: cfg.Sim.StartPitchDeg,
			Yaw:   cfg.Sim.StartYawDeg,
		},
		Mass:           cfg.Sim.Mass,
		MaxThrustRatio: cfg.Sim.MaxThrustRatio,
	}, input, logger)

	printControls()
	run(window, s, input)
}

func printControls() {
	fmt.Println("=== QUADCOPTER FLIGHT CONTROLLER ===")
	fmt.Println("  W/S - Throttle up/down   X - Mid stick   Z - Zero throttle")
	fmt.Println("  Q/E - Roll left/right    Up/Down - Pitch forward/back")
	fmt.Println("  A/D - Yaw left/right     R - Reset")
	fmt.Println("  1 - Direct  2 - Stabilize  3 - AltHold  4 - Accro")
	fmt.Println("  A joystick, when present, overrides the sticks (mode 2 layout).")
}

func run(window *glfw.Window, s *sim.Simulator, input *KeyboardInput) {
	prev := time.Now()
	titleTimer := 0.0

	for !window.ShouldClose() {
		now := time.Now()
		frame := now.Sub(prev)
		prev = now

		s.Advance(frame)
		if input.TakeReset() {
			s.Reset()
		}

		titleTimer += frame.Seconds()
		if titleTimer >= 0.25 {
			titleTimer = 0
			window.SetTitle(statusLine(s.Telemetry()))
		}

		renderHorizon(window, s.Drone().InterpolatedOrientation(s.Alpha()))
		window.SwapBuffers()
		glfw.PollEvents()
	}
}

func statusLine(t sim.Telemetry) string {
	return fmt.Sprintf("%s | alt %.1fm vz %+.1f | roll %+.0f pitch %+.0f yaw %+.0f | thr %.0f%%",
		t.Mode, t.Position.Z(), t.Velocity.Z(), t.Attitude.Roll, t.Attitude.Pitch, t.Attitude.Yaw, t.Throttle)
}

// renderHorizon paints a pitch-scaled horizon line with scissored clears and
// tints the sky by bank angle.
func renderHorizon(window *glfw.Window, orientation mgl64.Quat) {
	w, h := window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(w), int32(h))

	e := flight.EulerFromQuat(orientation)
	bank := float32(mgl64.Clamp(e.Roll/90, -1, 1))

	gl.Disable(gl.SCISSOR_TEST)
	gl.ClearColor(0.5+0.3*max(bank, 0), 0.7, 0.9+0.1*min(bank, 0), 1.0) // Sky
	gl.Clear(gl.COLOR_BUFFER_BIT)

	// Nose up lowers the horizon.
	horizon := 0.5 - mgl64.Clamp(e.Pitch/90, -1, 1)*0.5
	groundHeight := int32(mgl64.Clamp(horizon, 0, 1) * float64(h))
	if groundHeight > 0 {
		gl.Enable(gl.SCISSOR_TEST)
		gl.Scissor(0, 0, int32(w), groundHeight)
		gl.ClearColor(0.45, 0.33, 0.2, 1.0) // Ground
		gl.Clear(gl.COLOR_BUFFER_BIT)
		gl.Disable(gl.SCISSOR_TEST)
	}
}
