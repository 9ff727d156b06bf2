package physics

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
)

const (
	testW = 800.0
	testH = 600.0
	eps   = 1e-9
)

func newBall(x, y, vx, vy float64) core.BallState {
	return core.BallState{
		Position: core.Vec(x, y),
		Velocity: core.Vec(vx, vy),
		Radius:   8,
	}
}

func leftPaddle() core.PlayerState {
	return core.PlayerState{
		PaddlePosition: core.Vec(20, 250),
		Width:          10,
		Height:         100,
	}
}

func TestAdvanceSpeedClamp(t *testing.T) {
	e := NewEngine(DefaultConfig())
	cfg := e.Config()

	tests := []struct {
		name string
		ball core.BallState
	}{
		{"too fast", newBall(400, 300, 100, 100)},
		{"too slow", newBall(400, 300, 0.1, 0)},
		{"stationary", newBall(400, 300, 0, 0)},
		{"in range", newBall(400, 300, 3, 2)},
		{"vertical only", newBall(400, 300, 0, -40)},
		{"nan velocity", newBall(400, 300, math.NaN(), 1)},
		{"inf velocity", newBall(400, 300, math.Inf(1), math.Inf(-1))},
		{"into top wall", newBall(400, 1, 2, -14)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.ball
			for i := range 50 {
				b = e.Advance(b, testW, testH, 1)
				speed := b.Speed()
				if speed < cfg.MinSpeed-eps || speed > cfg.MaxSpeed+eps {
					t.Fatalf("tick %d: speed %v outside [%v, %v]", i, speed, cfg.MinSpeed, cfg.MaxSpeed)
				}
				if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
					t.Fatalf("tick %d: non-finite state %+v", i, b)
				}
			}
		})
	}
}

func TestAdvanceWallReflection(t *testing.T) {
	e := NewEngine(DefaultConfig())

	b := e.Advance(newBall(400, 0, 3, -5), testW, testH, 1)
	if b.Velocity.Y <= 0 {
		t.Errorf("top wall: velocity.y = %v, expected > 0", b.Velocity.Y)
	}
	if b.Position.Y < b.Radius {
		t.Errorf("top wall: position.y = %v, expected >= radius %v", b.Position.Y, b.Radius)
	}

	b = e.Advance(newBall(400, testH, 3, 5), testW, testH, 1)
	if b.Velocity.Y >= 0 {
		t.Errorf("bottom wall: velocity.y = %v, expected < 0", b.Velocity.Y)
	}
	if b.Position.Y > testH-b.Radius {
		t.Errorf("bottom wall: position.y = %v, expected <= %v", b.Position.Y, testH-b.Radius)
	}
}

func TestAdvanceLeavesScoringEdgesAlone(t *testing.T) {
	e := NewEngine(DefaultConfig())

	b := e.Advance(newBall(798, 300, 10, 0), testW, testH, 1)
	if b.Position.X <= testW {
		t.Errorf("ball should cross the right edge, x = %v", b.Position.X)
	}
	if b.Velocity.X <= 0 {
		t.Errorf("right edge must not reflect, velocity.x = %v", b.Velocity.X)
	}
}

func TestAdvanceStaysInVerticalBounds(t *testing.T) {
	e := NewEngine(DefaultConfig())
	rng := rand.New(rand.NewSource(7))

	for range 200 {
		b := newBall(rng.Float64()*testW, rng.Float64()*testH, rng.Float64()*40-20, rng.Float64()*40-20)
		for range 100 {
			b = e.Advance(b, testW, testH, 1)
			if b.Position.Y < b.Radius-eps || b.Position.Y > testH-b.Radius+eps {
				t.Fatalf("ball escaped vertically: %+v", b.Position)
			}
		}
	}
}

func TestAdvanceRepairsNonFinitePosition(t *testing.T) {
	e := NewEngine(DefaultConfig())

	b := e.Advance(newBall(math.NaN(), math.Inf(1), 3, 0), testW, testH, 1)
	if !b.Position.IsFinite() {
		t.Fatalf("position not repaired: %+v", b.Position)
	}
	if math.Abs(b.Position.Y-testH/2) > e.Config().MaxSpeed {
		t.Errorf("repaired ball should restart near the center, got %+v", b.Position)
	}
}

func TestAdvanceBadDeltaTime(t *testing.T) {
	e := NewEngine(DefaultConfig())
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		b := e.Advance(newBall(400, 300, 3, 2), testW, testH, dt)
		if !b.Position.IsFinite() {
			t.Errorf("dt=%v produced non-finite position %+v", dt, b.Position)
		}
	}
}

func TestPaddleCollisionAngleBounds(t *testing.T) {
	e := NewEngine(DefaultConfig())
	paddle := leftPaddle()
	maxAngle := math.Pi / 3

	for y := 245.0; y <= 355; y += 2.5 {
		res := e.PaddleCollision(newBall(28, y, -6, 1), paddle)
		if !res.HasCollision {
			t.Fatalf("y=%v: expected a collision", y)
		}
		if res.BounceAngle < -maxAngle-eps || res.BounceAngle > maxAngle+eps {
			t.Errorf("y=%v: bounce angle %v outside ±60°", y, res.BounceAngle)
		}
		if res.HitOffset < -1 || res.HitOffset > 1 {
			t.Errorf("y=%v: hit offset %v outside [-1, 1]", y, res.HitOffset)
		}
	}
}

func TestMaxBounceAngleDegrees(t *testing.T) {
	tests := []struct {
		deg  float64
		want float64
	}{
		{60, math.Pi / 3},
		{45, math.Pi / 4},
		{0, math.Pi / 3},   // unset falls back to 60
		{120, math.Pi / 3}, // past vertical falls back to 60
	}
	for _, tc := range tests {
		cfg := DefaultConfig()
		cfg.MaxBounceAngleDeg = tc.deg
		got := NewEngine(cfg).Config().MaxBounceAngle()
		if math.Abs(got-tc.want) > eps {
			t.Errorf("%v degrees = %v rad, expected %v", tc.deg, got, tc.want)
		}
	}

	// Top edge hit with a 45 degree limit.
	cfg := DefaultConfig()
	cfg.MaxBounceAngleDeg = 45
	res := NewEngine(cfg).PaddleCollision(newBall(28, 250, -6, 0), leftPaddle())
	if !res.HasCollision || math.Abs(math.Abs(res.BounceAngle)-math.Pi/4) > eps {
		t.Errorf("edge hit angle = %v, expected ±%v", res.BounceAngle, math.Pi/4)
	}
}

func TestPaddleCollisionCenterHit(t *testing.T) {
	e := NewEngine(DefaultConfig())

	res := e.PaddleCollision(newBall(28, 300, -5, 0), leftPaddle())
	if !res.HasCollision {
		t.Fatal("expected a collision")
	}
	if math.Abs(res.BounceAngle) > eps {
		t.Errorf("center hit bounce angle = %v, expected 0", res.BounceAngle)
	}
	if res.NewVelocity.X <= 0 {
		t.Errorf("ball should leave the left paddle to the right, vx = %v", res.NewVelocity.X)
	}
	if math.Abs(res.NewVelocity.Y) > eps {
		t.Errorf("center hit on a still paddle should be flat, vy = %v", res.NewVelocity.Y)
	}

	want := 5*1.05 + 0.1
	if math.Abs(res.NewVelocity.Length()-want) > 1e-6 {
		t.Errorf("speed after hit = %v, expected %v", res.NewVelocity.Length(), want)
	}
}

func TestPaddleCollisionNoOverlap(t *testing.T) {
	e := NewEngine(DefaultConfig())
	ball := newBall(400, 300, -5, 2)

	res := e.PaddleCollision(ball, leftPaddle())
	if res.HasCollision {
		t.Error("expected no collision")
	}
	if res.NewVelocity != ball.Velocity {
		t.Errorf("NewVelocity = %+v, expected unchanged %+v", res.NewVelocity, ball.Velocity)
	}
}

func TestPaddleCollisionDirectionAwayFromPaddle(t *testing.T) {
	e := NewEngine(DefaultConfig())

	// Moving away already (tunnelled hit) still ends up heading right.
	res := e.PaddleCollision(newBall(29, 300, 4, 0), leftPaddle())
	if res.NewVelocity.X <= 0 {
		t.Errorf("left paddle: vx = %v, expected > 0", res.NewVelocity.X)
	}

	right := core.PlayerState{PaddlePosition: core.Vec(770, 250), Width: 10, Height: 100}
	res = e.PaddleCollision(newBall(765, 300, 4, 0), right)
	if !res.HasCollision || res.NewVelocity.X >= 0 {
		t.Errorf("right paddle: %+v, expected collision with vx < 0", res)
	}
}

func TestPaddleCollisionPaddleInfluence(t *testing.T) {
	e := NewEngine(DefaultConfig())
	ball := newBall(28, 300, -5, 0)

	still := e.PaddleCollision(ball, leftPaddle())

	moving := leftPaddle()
	moving.Velocity = core.Vec(0, 10)
	spun := e.PaddleCollision(ball, moving)

	if diff := spun.NewVelocity.Y - still.NewVelocity.Y; math.Abs(diff-3) > 1e-6 {
		t.Errorf("paddle influence added %v to vy, expected 3", diff)
	}
}

func TestPredictTrajectoryStopsAtScoringEdge(t *testing.T) {
	e := NewEngine(DefaultConfig())
	ball := newBall(700, 300, 10, 3)

	points := e.PredictTrajectory(ball, testW, testH, 100, 1)
	if len(points) == 0 || len(points) >= 100 {
		t.Fatalf("expected an early stop, got %d points", len(points))
	}
	for i, p := range points {
		if p.X < 0 || p.X > testW {
			t.Errorf("point %d outside the canvas: %+v", i, p)
		}
	}

	again := e.PredictTrajectory(ball, testW, testH, 100, 1)
	if len(again) != len(points) || again[len(again)-1] != points[len(points)-1] {
		t.Error("PredictTrajectory is not restartable")
	}

	if e.PredictTrajectory(ball, testW, testH, 0, 1) != nil {
		t.Error("zero steps should yield no points")
	}
}

func TestInterceptionPointHit(t *testing.T) {
	e := NewEngine(DefaultConfig())

	res := e.InterceptionPoint(newBall(400, 300, 5, 0), 770, testW, testH)
	if res.Fallback {
		t.Fatal("expected a trajectory hit, got fallback")
	}
	if math.Abs(res.Y-300) > 1 {
		t.Errorf("Y = %v, expected ~300", res.Y)
	}
	if res.Confidence < MinHitConfidence || res.Confidence > 1 {
		t.Errorf("confidence %v outside [%v, 1]", res.Confidence, MinHitConfidence)
	}
	if res.Time <= 0 {
		t.Errorf("time = %v, expected > 0", res.Time)
	}
}

func TestInterceptionPointConfidenceDecays(t *testing.T) {
	e := NewEngine(DefaultConfig())

	near := e.InterceptionPoint(newBall(700, 300, 5, 0), 770, testW, testH)
	far := e.InterceptionPoint(newBall(200, 300, 5, 0), 770, testW, testH)
	if near.Fallback || far.Fallback {
		t.Fatal("expected trajectory hits")
	}
	if near.Confidence <= far.Confidence {
		t.Errorf("near confidence %v should exceed far confidence %v", near.Confidence, far.Confidence)
	}
}

func TestInterceptionPointFallback(t *testing.T) {
	e := NewEngine(DefaultConfig())

	tests := []struct {
		name string
		ball core.BallState
	}{
		{"moving away", newBall(400, 300, -5, 0)},
		{"beyond horizon", newBall(10, 300, 3, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := e.InterceptionPoint(tc.ball, 790, testW, testH)
			if !res.Fallback {
				t.Fatalf("expected fallback, got %+v", res)
			}
			if res.Confidence >= MinHitConfidence {
				t.Errorf("fallback confidence %v must be below any hit", res.Confidence)
			}
			if res.Y < 0 || res.Y > testH {
				t.Errorf("fallback Y %v outside the canvas", res.Y)
			}
		})
	}
}

func TestUpdateConfigReplacesRecord(t *testing.T) {
	e := NewEngine(DefaultConfig())

	cfg := DefaultConfig()
	cfg.MaxSpeed = 20
	cfg.MinSpeed = 0 // normalized back to the default
	e.UpdateConfig(cfg)

	got := e.Config()
	if got.MaxSpeed != 20 {
		t.Errorf("MaxSpeed = %v, expected 20", got.MaxSpeed)
	}
	if got.MinSpeed != DefaultConfig().MinSpeed {
		t.Errorf("MinSpeed = %v, expected default", got.MinSpeed)
	}
}

func TestEngineConcurrentUse(t *testing.T) {
	e := NewEngine(DefaultConfig())

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			b := newBall(400, 300, 3, float64(seed)-4)
			for range 500 {
				b = e.Advance(b, testW, testH, 1)
				e.PaddleCollision(b, leftPaddle())
			}
		}(int64(i))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 100 {
			e.UpdateConfig(DefaultConfig())
		}
	}()
	wg.Wait()
}
