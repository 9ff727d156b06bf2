package physics

import (
	"math"
	"sync/atomic"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
)

// CollisionResult describes the outcome of a ball/paddle test.
type CollisionResult struct {
	HasCollision bool
	NewVelocity  core.Vector2D
	BounceAngle  float64 // Radians, within ±MaxBounceAngleDeg
	HitOffset    float64 // -1 top edge, 0 center, +1 bottom edge
}

// Interception is a predicted crossing of a paddle's x-coordinate.
type Interception struct {
	Y          float64
	Time       float64 // Ticks until the crossing
	Confidence float64
	// Fallback marks a straight-line estimate that ignores wall bounces.
	// It can be badly wrong near the top and bottom walls.
	Fallback bool
}

// Engine advances balls and resolves collisions. It keeps no per-call state,
// so a single instance can serve every concurrent match.
type Engine struct {
	cfg atomic.Pointer[Config]
}

// NewEngine creates an engine with the given tunables.
func NewEngine(cfg Config) *Engine {
	e := &Engine{}
	e.UpdateConfig(cfg)
	return e
}

// Config returns a copy of the current tunables.
func (e *Engine) Config() Config {
	return *e.cfg.Load()
}

// UpdateConfig replaces the whole config record atomically.
// Calls in flight keep using the record they loaded.
func (e *Engine) UpdateConfig(cfg Config) {
	n := cfg.normalized()
	e.cfg.Store(&n)
}

// Advance moves the ball by one step of dt ticks: friction, gravity, speed
// clamp, integration and top/bottom wall reflection. Left and right edges are
// scoring edges and are left to the caller. The returned state is always
// finite, within the vertical bounds and within the speed range.
func (e *Engine) Advance(ball core.BallState, width, height, dt float64) core.BallState {
	cfg := e.cfg.Load()
	if !core.IsFinite(dt) || dt <= 0 {
		dt = 1
	}

	b := sanitizeBall(ball, width, height, cfg)

	b.Velocity = b.Velocity.Scale(math.Pow(cfg.Friction, dt))
	b.Velocity.Y += cfg.Gravity * dt
	b.Velocity = clampSpeed(b.Velocity, cfg)

	b.Position = b.Position.Add(b.Velocity.Scale(dt))

	top, bottom := verticalBounds(b.Radius, height)
	if b.Position.Y <= top {
		b.Position.Y = top
		b.Velocity.Y = math.Abs(b.Velocity.Y) * cfg.WallBounceDamping
	} else if b.Position.Y >= bottom {
		b.Position.Y = bottom
		b.Velocity.Y = -math.Abs(b.Velocity.Y) * cfg.WallBounceDamping
	}

	b.Velocity = clampSpeed(b.Velocity, cfg)
	return b
}

// PaddleCollision tests the ball's bounding square against the paddle
// rectangle and computes the bounce. The hit offset maps linearly onto the
// bounce angle; a moving paddle adds PaddleInfluence of its vertical velocity.
// The ball always leaves heading away from the paddle center.
// Without overlap the input velocity is returned and HasCollision is false.
func (e *Engine) PaddleCollision(ball core.BallState, paddle core.PlayerState) CollisionResult {
	cfg := e.cfg.Load()

	paddleBox := paddle.Bounds()
	if !ball.Position.IsFinite() || !ball.Bounds().Intersects(paddleBox) {
		return CollisionResult{NewVelocity: ball.Velocity}
	}

	offset := 0.0
	if paddle.Height > 0 {
		offset = core.ClampF((ball.Position.Y-paddle.CenterY())/(paddle.Height/2), -1, 1)
	}
	angle := offset * cfg.MaxBounceAngle()

	dir := 1.0
	if ball.Position.X < paddleBox.Center().X {
		dir = -1
	}

	speed := ball.Speed()
	if !core.IsFinite(speed) {
		speed = cfg.MinSpeed
	}
	speed = math.Min(cfg.MaxSpeed, speed*cfg.PaddleBounceDamping+cfg.SpeedIncreasePerHit)

	v := core.Vec(dir*speed*math.Cos(angle), speed*math.Sin(angle))
	if core.IsFinite(paddle.Velocity.Y) {
		v.Y += cfg.PaddleInfluence * paddle.Velocity.Y
	}

	return CollisionResult{
		HasCollision: true,
		NewVelocity:  clampSpeed(v, cfg),
		BounceAngle:  angle,
		HitOffset:    offset,
	}
}

// PredictTrajectory re-simulates the ball for up to steps iterations and
// returns the sampled positions. It stops before the first sample that leaves
// [0, width] horizontally, i.e. where a point would be scored.
func (e *Engine) PredictTrajectory(ball core.BallState, width, height float64, steps int, dt float64) []core.Vector2D {
	if steps <= 0 {
		return nil
	}

	points := make([]core.Vector2D, 0, steps)
	b := ball
	for range steps {
		b = e.Advance(b, width, height, dt)
		if b.Position.X < 0 || b.Position.X > width {
			break
		}
		points = append(points, b.Position)
	}
	return points
}

// InterceptionPoint predicts where the ball crosses paddleX.
// A trajectory sample within InterceptTolerance of paddleX yields a hit whose
// confidence decays linearly with its depth into the prediction horizon.
// Otherwise a linear estimate is returned with Fallback set.
func (e *Engine) InterceptionPoint(ball core.BallState, paddleX, width, height float64) Interception {
	cfg := e.cfg.Load()
	steps := cfg.PredictionSteps

	for i, p := range e.PredictTrajectory(ball, width, height, steps, 1) {
		if math.Abs(p.X-paddleX) > cfg.InterceptTolerance {
			continue
		}
		depth := float64(i) / float64(steps)
		return Interception{
			Y:          p.Y,
			Time:       float64(i + 1),
			Confidence: 1 - (1-MinHitConfidence)*depth,
		}
	}

	return linearInterception(ball, paddleX, height)
}

// linearInterception ignores wall bounces; the result is clamped into the
// canvas so it is at least a reachable paddle target.
func linearInterception(ball core.BallState, paddleX, height float64) Interception {
	est := Interception{
		Y:          core.ClampF(ball.Position.Y, 0, height),
		Confidence: FallbackConfidence,
		Fallback:   true,
	}

	vx := ball.Velocity.X
	if !core.IsFinite(vx) || vx == 0 || !ball.Velocity.IsFinite() {
		return est
	}
	t := (paddleX - ball.Position.X) / vx
	if t <= 0 || !core.IsFinite(t) {
		return est
	}

	est.Y = core.ClampF(ball.Position.Y+ball.Velocity.Y*t, 0, height)
	est.Time = t
	return est
}

// clampSpeed scales v so that its length lies in [MinSpeed, MaxSpeed].
// A zero vector has no direction and becomes a minimum-speed push along +x.
func clampSpeed(v core.Vector2D, cfg *Config) core.Vector2D {
	speed := v.Length()
	switch {
	case !core.IsFinite(speed) || speed == 0:
		return core.Vec(cfg.MinSpeed, 0)
	case speed > cfg.MaxSpeed:
		return v.Scale(cfg.MaxSpeed / speed)
	case speed < cfg.MinSpeed:
		return v.Scale(cfg.MinSpeed / speed)
	default:
		return v
	}
}

func sanitizeBall(b core.BallState, width, height float64, cfg *Config) core.BallState {
	if !core.IsFinite(b.Radius) || b.Radius < 0 {
		b.Radius = 0
	}
	if !b.Position.IsFinite() {
		b.Position = core.Vec(width/2, height/2)
	}
	if !b.Velocity.IsFinite() {
		b.Velocity = core.Vec(cfg.MinSpeed, 0)
	}
	return b
}

func verticalBounds(radius, height float64) (top, bottom float64) {
	top, bottom = radius, height-radius
	if bottom < top {
		top, bottom = height/2, height/2
	}
	return top, bottom
}
