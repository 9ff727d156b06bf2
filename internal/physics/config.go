// Package physics implements the ball simulation of the Pong core:
// integration, wall and paddle collision response and trajectory prediction.
// Everything here is a pure function of its arguments and the engine config.
package physics

import "math"

// Confidence bounds for interception estimates.
// A trajectory hit never scores below MinHitConfidence, the linear fallback
// always scores FallbackConfidence, so callers can tell them apart.
const (
	MinHitConfidence   = 0.3
	FallbackConfidence = 0.1
)

// Config holds the engine tunables. Velocities are pixels per tick.
type Config struct {
	MaxSpeed            float64 `yaml:"max_speed"`
	MinSpeed            float64 `yaml:"min_speed"`
	WallBounceDamping   float64 `yaml:"wall_bounce_damping"`   // Speed factor on wall hit
	PaddleBounceDamping float64 `yaml:"paddle_bounce_damping"` // Speed factor on paddle hit
	Friction            float64 `yaml:"friction"`              // Per-tick velocity factor
	Gravity             float64 `yaml:"gravity"`               // Added to velocity.y per tick
	SpeedIncreasePerHit float64 `yaml:"speed_increase_per_hit"`
	MaxBounceAngleDeg   float64 `yaml:"max_bounce_angle_deg"` // Either side of the paddle normal
	PaddleInfluence     float64 `yaml:"paddle_influence"`     // Share of paddle velocity imparted on hit
	PredictionSteps     int     `yaml:"prediction_steps"`
	InterceptTolerance  float64 `yaml:"intercept_tolerance"` // Max |x - paddleX| counted as a hit
}

// DefaultConfig returns the process-wide default tunables.
func DefaultConfig() Config {
	return Config{
		MaxSpeed:            15,
		MinSpeed:            3,
		WallBounceDamping:   0.98,
		PaddleBounceDamping: 1.05,
		Friction:            0.999,
		Gravity:             0,
		SpeedIncreasePerHit: 0.1,
		MaxBounceAngleDeg:   60,
		PaddleInfluence:     0.3,
		PredictionSteps:     180,
		InterceptTolerance:  10,
	}
}

// MaxBounceAngle returns the bounce limit in radians.
func (c Config) MaxBounceAngle() float64 {
	return c.MaxBounceAngleDeg * math.Pi / 180
}

// normalized fills zero or inverted fields from the defaults so a partially
// written YAML file can never produce an unusable engine.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MaxSpeed <= 0 {
		c.MaxSpeed = d.MaxSpeed
	}
	if c.MinSpeed <= 0 {
		c.MinSpeed = d.MinSpeed
	}
	if c.MinSpeed > c.MaxSpeed {
		c.MinSpeed = c.MaxSpeed
	}
	if c.WallBounceDamping <= 0 {
		c.WallBounceDamping = d.WallBounceDamping
	}
	if c.PaddleBounceDamping <= 0 {
		c.PaddleBounceDamping = d.PaddleBounceDamping
	}
	if c.Friction <= 0 || c.Friction > 1 {
		c.Friction = d.Friction
	}
	if c.MaxBounceAngleDeg <= 0 || c.MaxBounceAngleDeg >= 90 {
		c.MaxBounceAngleDeg = d.MaxBounceAngleDeg
	}
	if c.PaddleInfluence <= 0 {
		c.PaddleInfluence = d.PaddleInfluence
	}
	if c.PredictionSteps <= 0 {
		c.PredictionSteps = d.PredictionSteps
	}
	if c.InterceptTolerance <= 0 {
		c.InterceptTolerance = d.InterceptTolerance
	}
	return c
}
