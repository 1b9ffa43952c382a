package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"drone-fc/internal/config"
	"drone-fc/internal/flight"
	"drone-fc/internal/logging"
	"drone-fc/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults when empty)")
	steps := flag.Int("steps", -1, "Number of fixed updates to run (overrides sim.steps)")
	ups := flag.Int("ups", 0, "Fixed updates per second (overrides sim.ups)")
	duration := flag.Duration("duration", 0, "Wall time to run if steps=0 (e.g., 2s)")
	mode := flag.String("mode", "", "Flight mode: direct, stabilize, althold, accro")
	loop := flag.String("loop", "", "Rate loop: p, pid, spd")
	failEngine := flag.Int("fail-engine", -1, "Engine index to fail at start (0-3)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *steps >= 0 {
		cfg.Sim.Steps = *steps
	}
	if *ups > 0 {
		cfg.Sim.UPS = *ups
	}
	if *mode != "" {
		cfg.Controller.FlightMode = *mode
	}
	if *loop != "" {
		cfg.Controller.ControlLoop = *loop
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

	segments, err := scriptSegments(cfg.Script)
	if err != nil {
		log.Fatal(err)
	}
	input := sim.NewScriptedInput(cfg.Sim.ThrottleMidStick, segments...)

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

	if *failEngine >= 0 {
		s.Drone().FailEngine(*failEngine)
		logger.Info("engine failed", "engine", *failEngine, "hover_throttle", s.Drone().HoverThrottle())
	}

	dur := time.Duration(0)
	if cfg.Sim.Steps == 0 {
		dur = *duration
		if dur <= 0 {
			dur = time.Second
		}
	}
	performed := s.RunHeadless(cfg.Sim.Steps, dur)

	t := s.Telemetry()
	fmt.Printf("Completed %d steps (%.2fs sim). mode=%s loop=%s\n",
		performed, t.Time, t.Mode, fc.RotationControlLoop)
	fmt.Printf("  pos=(%.2f, %.2f, %.2f) vel=(%.2f, %.2f, %.2f)\n",
		t.Position.X(), t.Position.Y(), t.Position.Z(), t.Velocity.X(), t.Velocity.Y(), t.Velocity.Z())
	fmt.Printf("  attitude roll=%.1f pitch=%.1f yaw=%.1f target roll=%.1f pitch=%.1f yaw=%.1f\n",
		t.Attitude.Roll, t.Attitude.Pitch, t.Attitude.Yaw, t.Target.Roll, t.Target.Pitch, t.Target.Yaw)
	fmt.Printf("  throttle=%.0f%% forces=(%.3f, %.3f, %.3f) althold=%v target=%.2f\n",
		t.Throttle, t.Forces.X(), t.Forces.Y(), t.Forces.Z(), t.AltHold, t.AltTarget)
}

func scriptSegments(steps []config.ScriptStep) ([]sim.Segment, error) {
	segments := make([]sim.Segment, 0, len(steps))
	for i, st := range steps {
		seg := sim.Segment{
			At:    st.At,
			Stick: flight.Stick{Roll: st.Roll, Pitch: st.Pitch, Yaw: st.Yaw, Throttle: st.Throttle},
		}
		if st.Mode != "" {
			m, err := flight.ParseFlightMode(st.Mode)
			if err != nil {
				return nil, fmt.Errorf("script[%d]: %w", i, err)
			}
			seg.SetMode, seg.Mode = true, m
		}
		segments = append(segments, seg)
	}
	return segments, nil
}
