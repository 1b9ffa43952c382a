package config

import (
	"fmt"
	"math"
	"strings"

	"drone-fc/internal/flight"

	"github.com/spf13/viper"
)

// LogConfig selects the log level and an optional log file.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type PIDConfig struct {
	P float64 `mapstructure:"p"`
	I float64 `mapstructure:"i"`
	D float64 `mapstructure:"d"`
}

// ControllerConfig mirrors flight.Config with names suited to a YAML file.
type ControllerConfig struct {
	FlightMode          string    `mapstructure:"flight_mode"`
	AngleMax            float64   `mapstructure:"angle_max"`
	SmoothingGain       float64   `mapstructure:"smoothing_gain"`
	AccroThrottleMid    float64   `mapstructure:"accro_throttle_mid"`
	PilotSpeedDown      float64   `mapstructure:"pilot_speed_down"`
	PilotSpeedUp        float64   `mapstructure:"pilot_speed_up"`
	YawPGain            float64   `mapstructure:"yaw_p_gain"`
	AccroRollPitchPGain float64   `mapstructure:"accro_roll_pitch_p_gain"`
	AccroYawExpo        float64   `mapstructure:"accro_yaw_expo"`
	AccroRollPitchExpo  float64   `mapstructure:"accro_roll_pitch_expo"`
	ThrottleDeadzone    float64   `mapstructure:"throttle_deadzone"`
	ControlLoop         string    `mapstructure:"control_loop"`
	RateRollPID         PIDConfig `mapstructure:"rate_roll_pid"`
	RatePitchPID        PIDConfig `mapstructure:"rate_pitch_pid"`
	RateYawPID          PIDConfig `mapstructure:"rate_yaw_pid"`
	SPDDamping          float64   `mapstructure:"spd_damping"`
	SPDFrequency        float64   `mapstructure:"spd_frequency"`
}

// SimConfig holds the host simulation settings.
type SimConfig struct {
	UPS              int     `mapstructure:"ups"`
	Steps            int     `mapstructure:"steps"`
	StartAltitude    float64 `mapstructure:"start_altitude"`
	StartRollDeg     float64 `mapstructure:"start_roll_deg"`
	StartPitchDeg    float64 `mapstructure:"start_pitch_deg"`
	StartYawDeg      float64 `mapstructure:"start_yaw_deg"`
	ThrottleMidStick float64 `mapstructure:"throttle_mid_stick"`
	Mass             float64 `mapstructure:"mass"`
	MaxThrustRatio   float64 `mapstructure:"max_thrust_ratio"`
}

// ScriptStep sets the sticks from At seconds until the next step. A non-empty
// Mode switches flight mode when the step starts.
type ScriptStep struct {
	At       float64 `mapstructure:"at"`
	Roll     float64 `mapstructure:"roll"`
	Pitch    float64 `mapstructure:"pitch"`
	Yaw      float64 `mapstructure:"yaw"`
	Throttle float64 `mapstructure:"throttle"`
	Mode     string  `mapstructure:"mode"`
}

type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Controller ControllerConfig `mapstructure:"controller"`
	Sim        SimConfig        `mapstructure:"sim"`
	Script     []ScriptStep     `mapstructure:"script"`
}

func setDefaults(v *viper.Viper) {
	d := flight.DefaultConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("controller.flight_mode", d.FlightMode.String())
	v.SetDefault("controller.angle_max", d.AngleMax)
	v.SetDefault("controller.smoothing_gain", d.SmoothingGain)
	v.SetDefault("controller.accro_throttle_mid", d.AccroThrottleMid)
	v.SetDefault("controller.pilot_speed_down", d.PilotSpeedDown)
	v.SetDefault("controller.pilot_speed_up", d.PilotSpeedUp)
	v.SetDefault("controller.yaw_p_gain", d.YawPGain)
	v.SetDefault("controller.accro_roll_pitch_p_gain", d.AccroRollPitchPGain)
	v.SetDefault("controller.accro_yaw_expo", d.AccroYawExpo)
	v.SetDefault("controller.accro_roll_pitch_expo", d.AccroRollPitchExpo)
	v.SetDefault("controller.throttle_deadzone", d.ThrottleDeadzone)
	v.SetDefault("controller.control_loop", d.RotationControlLoop.String())
	for key, g := range map[string]flight.PIDGains{
		"rate_roll_pid":  d.RateRollPID,
		"rate_pitch_pid": d.RatePitchPID,
		"rate_yaw_pid":   d.RateYawPID,
	} {
		v.SetDefault("controller."+key+".p", g.P)
		v.SetDefault("controller."+key+".i", g.I)
		v.SetDefault("controller."+key+".d", g.D)
	}
	v.SetDefault("controller.spd_damping", d.SPDDamping)
	v.SetDefault("controller.spd_frequency", d.SPDFrequency)

	v.SetDefault("sim.ups", 240)
	v.SetDefault("sim.steps", 2400)
	v.SetDefault("sim.start_altitude", 10.0)
	v.SetDefault("sim.start_roll_deg", 0.0)
	v.SetDefault("sim.start_pitch_deg", 0.0)
	v.SetDefault("sim.start_yaw_deg", 0.0)
	v.SetDefault("sim.throttle_mid_stick", 0.5)
	v.SetDefault("sim.mass", 0.249)
	v.SetDefault("sim.max_thrust_ratio", 2.5)
}

// Load reads a YAML config file on top of the defaults. An empty path yields
// the defaults alone. Environment variables prefixed FC_ override both, with
// dots replaced by underscores (FC_CONTROLLER_FLIGHT_MODE).
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the controller cannot work with. Values the
// controller clamps on its own, such as angle_max or the expos, pass through.
func (c Config) Validate() error {
	if _, err := c.Controller.Flight(); err != nil {
		return err
	}
	if err := c.Sim.validate(); err != nil {
		return err
	}

	last := 0.0
	for i, s := range c.Script {
		for name, v := range map[string]float64{"at": s.At, "roll": s.Roll, "pitch": s.Pitch, "yaw": s.Yaw, "throttle": s.Throttle} {
			if !finite(v) {
				return fmt.Errorf("script[%d].%s is not finite", i, name)
			}
		}
		if s.At < last {
			return fmt.Errorf("script[%d].at %.3f is before the previous step", i, s.At)
		}
		last = s.At
		if s.Mode != "" {
			if _, err := flight.ParseFlightMode(s.Mode); err != nil {
				return fmt.Errorf("script[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func (s SimConfig) validate() error {
	if s.UPS <= 0 {
		return fmt.Errorf("sim.ups must be positive, got %d", s.UPS)
	}
	if s.Steps < 0 {
		return fmt.Errorf("sim.steps must not be negative, got %d", s.Steps)
	}
	fields := map[string]float64{
		"start_altitude":     s.StartAltitude,
		"start_roll_deg":     s.StartRollDeg,
		"start_pitch_deg":    s.StartPitchDeg,
		"start_yaw_deg":      s.StartYawDeg,
		"throttle_mid_stick": s.ThrottleMidStick,
		"mass":               s.Mass,
		"max_thrust_ratio":   s.MaxThrustRatio,
	}
	for name, v := range fields {
		if !finite(v) {
			return fmt.Errorf("sim.%s is not finite", name)
		}
	}
	if s.ThrottleMidStick <= 0 || s.ThrottleMidStick >= 1 {
		return fmt.Errorf("sim.throttle_mid_stick must be in (0, 1), got %g", s.ThrottleMidStick)
	}
	if s.Mass <= 0 {
		return fmt.Errorf("sim.mass must be positive, got %g", s.Mass)
	}
	if s.MaxThrustRatio <= 1 {
		return fmt.Errorf("sim.max_thrust_ratio must exceed 1 to hover, got %g", s.MaxThrustRatio)
	}
	return nil
}

// Flight converts the section to a flight.Config.
func (c ControllerConfig) Flight() (flight.Config, error) {
	mode, err := flight.ParseFlightMode(c.FlightMode)
	if err != nil {
		return flight.Config{}, fmt.Errorf("controller.flight_mode: %w", err)
	}
	loop, err := flight.ParseControlLoop(c.ControlLoop)
	if err != nil {
		return flight.Config{}, fmt.Errorf("controller.control_loop: %w", err)
	}

	fc := flight.Config{
		FlightMode:          mode,
		AngleMax:            c.AngleMax,
		SmoothingGain:       c.SmoothingGain,
		AccroThrottleMid:    c.AccroThrottleMid,
		PilotSpeedDown:      c.PilotSpeedDown,
		PilotSpeedUp:        c.PilotSpeedUp,
		YawPGain:            c.YawPGain,
		AccroRollPitchPGain: c.AccroRollPitchPGain,
		AccroYawExpo:        c.AccroYawExpo,
		AccroRollPitchExpo:  c.AccroRollPitchExpo,
		ThrottleDeadzone:    c.ThrottleDeadzone,
		RotationControlLoop: loop,
		RateRollPID:         c.RateRollPID.gains(),
		RatePitchPID:        c.RatePitchPID.gains(),
		RateYawPID:          c.RateYawPID.gains(),
		SPDDamping:          c.SPDDamping,
		SPDFrequency:        c.SPDFrequency,
	}

	numeric := []float64{
		fc.AngleMax, fc.SmoothingGain, fc.AccroThrottleMid, fc.PilotSpeedDown, fc.PilotSpeedUp,
		fc.YawPGain, fc.AccroRollPitchPGain, fc.AccroYawExpo, fc.AccroRollPitchExpo, fc.ThrottleDeadzone,
		fc.RateRollPID.P, fc.RateRollPID.I, fc.RateRollPID.D,
		fc.RatePitchPID.P, fc.RatePitchPID.I, fc.RatePitchPID.D,
		fc.RateYawPID.P, fc.RateYawPID.I, fc.RateYawPID.D,
		fc.SPDDamping, fc.SPDFrequency,
	}
	for _, v := range numeric {
		if !finite(v) {
			return flight.Config{}, fmt.Errorf("controller: non-finite parameter %g", v)
		}
	}
	return fc, nil
}

func (p PIDConfig) gains() flight.PIDGains {
	return flight.PIDGains{P: p.P, I: p.I, D: p.D}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
