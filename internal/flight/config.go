package flight

// PIDGains holds the three gains of one rate axis.
type PIDGains struct {
	P, I, D float64
}

// Config holds the tunables of an AttitudeController. Out-of-range values are
// clamped where they are used, never rejected.
type Config struct {
	FlightMode FlightMode

	AngleMax         float64 // Max lean angle in Stabilize/AltHold (deg), clamped to 0..80
	SmoothingGain    float64 // 0..1, carried for tuning files; not consumed by the loops
	AccroThrottleMid float64 // Carried for tuning files; mid stick comes from the InputSource
	PilotSpeedDown   float64 // Max descent rate in AltHold (m/s)
	PilotSpeedUp     float64 // Max climb rate in AltHold (m/s)

	YawPGain            float64 // Max yaw rate (deg/s)
	AccroRollPitchPGain float64 // Max roll/pitch rate (deg/s)
	AccroYawExpo        float64 // -0.5..1, 0 disables
	AccroRollPitchExpo  float64 // -0.5..1, 0 disables
	ThrottleDeadzone    float64 // Fraction above and below mid stick, clamped to 0..0.4

	RotationControlLoop ControlLoop
	RateRollPID         PIDGains
	RatePitchPID        PIDGains
	RateYawPID          PIDGains

	SPDDamping   float64 // 1 = critically damped, <1 under, >1 over
	SPDFrequency float64 // Reaches ~95% of target in 1/frequency seconds
}

func DefaultConfig() Config {
	return Config{
		FlightMode: FlightModeStabilize,

		AngleMax:         45.0,
		SmoothingGain:    0.5,
		AccroThrottleMid: 0.5,
		PilotSpeedDown:   20.0,
		PilotSpeedUp:     20.0,

		YawPGain:            200.0,
		AccroRollPitchPGain: 200.0,
		AccroYawExpo:        0.0,
		AccroRollPitchExpo:  0.0,
		ThrottleDeadzone:    0.1,

		RotationControlLoop: ControlLoopP,
		RateRollPID:         PIDGains{P: 1.0},
		RatePitchPID:        PIDGains{P: 1.0},
		RateYawPID:          PIDGains{P: 1.0},

		SPDDamping:   1.0,
		SPDFrequency: 0.1,
	}
}

// Shaper returns the stick shaping view of the config.
func (c Config) Shaper() Shaper {
	return Shaper{
		AngleMax:         c.AngleMax,
		RollPitchRate:    c.AccroRollPitchPGain,
		YawRate:          c.YawPGain,
		RollPitchExpo:    c.AccroRollPitchExpo,
		YawExpo:          c.AccroYawExpo,
		ThrottleDeadzone: c.ThrottleDeadzone,
		SpeedUp:          c.PilotSpeedUp,
		SpeedDown:        c.PilotSpeedDown,
	}
}
