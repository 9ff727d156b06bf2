package multiplayer

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
)

func testMatchConfig() core.MatchConfig {
	cfg := core.DefaultMatchConfig()
	cfg.Seed = 1
	cfg.WinScore = 100
	return cfg
}

func newTestSync(cfg core.MatchConfig, onEnd func(core.GameState)) *Synchronizer {
	return NewSynchronizer(SyncOptions{
		MatchID:   "test-match",
		Player1ID: "alice",
		Player2ID: "bob",
		Match:     cfg,
		OnEnd:     onEnd,
	})
}

// parkBall stops the ball in the middle so paddle tests are not disturbed
// by scoring.
func parkBall(s *Synchronizer) {
	s.mu.Lock()
	s.state.Ball.Position = core.Vec(400, 300)
	s.state.Ball.Velocity = core.Vec(3, 0)
	s.mu.Unlock()
}

func stateIsFinite(st core.GameState) bool {
	for _, v := range []core.Vector2D{
		st.Ball.Position, st.Ball.Velocity,
		st.Players.Player1.PaddlePosition, st.Players.Player1.Velocity,
		st.Players.Player2.PaddlePosition, st.Players.Player2.Velocity,
	} {
		if !v.IsFinite() {
			return false
		}
	}
	return true
}

func TestNewSynchronizerInitialState(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)
	snap := s.Snapshot()

	if !snap.GameActive || snap.Winner != core.NoPlayer {
		t.Errorf("new match should be active without a winner: %+v", snap)
	}
	if snap.Score != (core.Score{}) {
		t.Errorf("score = %+v, expected zero", snap.Score)
	}
	if snap.Ball.Position != core.Vec(400, 300) {
		t.Errorf("ball at %+v, expected canvas center", snap.Ball.Position)
	}
	for _, slot := range []PlayerSlot{Player1, Player2} {
		if y := snap.Players.Get(slot).PaddlePosition.Y; y != 250 {
			t.Errorf("%s paddle y = %v, expected centered 250", slot, y)
		}
	}
	if snap.Players.Player1.ID != "alice" || snap.Players.Player2.ID != "bob" {
		t.Errorf("player ids = %q/%q", snap.Players.Player1.ID, snap.Players.Player2.ID)
	}
	if s.Status() != SyncCreated {
		t.Errorf("status = %s, expected created", s.Status())
	}
}

func TestStopSyncIdempotent(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)

	s.StopSync()
	s.StopSync()
	if s.Status() != SyncCreated {
		t.Errorf("stop before start changed status to %s", s.Status())
	}

	s.StartSync(func(core.GameState) {})
	if s.Status() != SyncRunning {
		t.Errorf("status = %s, expected running", s.Status())
	}
	s.StopSync()
	s.StopSync()
	if s.Status() != SyncStopped {
		t.Errorf("status = %s, expected stopped", s.Status())
	}
}

func TestPaddleBounds(t *testing.T) {
	tests := []struct {
		name string
		y    float64
		want float64
	}{
		{"negative", -10, 0},
		{"huge", 999999, 500},
		{"inside", 123, 123},
		{"max", 500, 500},
		{"nan keeps position", math.NaN(), 250},
		{"+inf keeps position", math.Inf(1), 250},
		{"-inf keeps position", math.Inf(-1), 250},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSync(testMatchConfig(), nil)
			parkBall(s)

			s.UpdatePaddlePosition(Player1, tc.y)
			var snap core.GameState
			for range 40 {
				snap = s.Step()
			}
			got := snap.Players.Player1.PaddlePosition.Y
			if got != tc.want {
				t.Errorf("paddle y = %v, expected %v", got, tc.want)
			}
			if got < 0 || got > 500 {
				t.Errorf("paddle y %v escaped [0, 500]", got)
			}
			if !stateIsFinite(snap) {
				t.Errorf("non-finite state after input %v", tc.y)
			}
		})
	}
}

func TestAbsolutePositionMovesAtPaddleSpeed(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		ticks  int // Ticks needed from y=250
	}{
		{"far down", 500, 32},
		{"far up", -10, 32},
		{"near", 253, 1},
		{"unaligned", 131, 15},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSync(testMatchConfig(), nil)
			parkBall(s)
			s.UpdatePaddlePosition(Player1, tc.target)

			want := core.ClampF(tc.target, 0, 500)
			prev := 250.0
			for i := 1; i <= 40; i++ {
				p := s.Step().Players.Player1
				if dy := p.PaddlePosition.Y - prev; math.Abs(dy) > 8 || p.Velocity.Y != dy {
					t.Fatalf("tick %d: moved %v with velocity %v, limit 8", i, dy, p.Velocity.Y)
				}
				prev = p.PaddlePosition.Y
				if i < tc.ticks && prev == want {
					t.Fatalf("reached %v after %d ticks, expected %d", want, i, tc.ticks)
				}
			}
			if prev != want {
				t.Errorf("paddle settled at %v, expected %v", prev, want)
			}
		})
	}
}

func TestAbsolutePositionKeepsBallVelocitySane(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)
	s.mu.Lock()
	s.state.Players.Player1.PaddlePosition.Y = 200
	s.state.Ball.Position = core.Vec(45, 260)
	s.state.Ball.Velocity = core.Vec(-10, 0)
	s.mu.Unlock()

	s.UpdatePaddlePosition(Player1, 400)
	snap := s.Step()
	if snap.Rally != 1 {
		t.Fatalf("rally = %d, expected the ball to hit the moving paddle", snap.Rally)
	}
	if vy := snap.Players.Player1.Velocity.Y; vy > 8 {
		t.Errorf("paddle velocity %v exceeds paddle speed", vy)
	}
	if v := snap.Ball.Velocity; math.Abs(v.Y) > math.Abs(v.X)*math.Tan(math.Pi/3)+0.3*8+1e-9 {
		t.Errorf("ball velocity %+v steeper than the bounce limit allows", v)
	}
}

func TestNewerInputReplacesTarget(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)
	parkBall(s)

	s.UpdatePaddlePosition(Player1, 500)
	s.Step()
	s.AddInput(Player1, core.NewHumanInput(core.ActionUp, 1))
	s.Step()
	y := s.Step().Players.Player1.PaddlePosition.Y
	if y != 250 {
		t.Errorf("paddle y = %v, expected the up input to cancel the target (250)", y)
	}
}

func TestPaddleBoundsSequence(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)
	parkBall(s)

	for i, y := range []float64{-10, 999999, -10, 42, 999999, 999999, -1e18} {
		s.UpdatePaddlePosition(Player2, y)
		if i%2 == 0 {
			s.AddInput(Player2, core.NewHumanInput(core.ActionDown, 1))
		}
		got := s.Step().Players.Player2.PaddlePosition.Y
		if got < 0 || got > 500 {
			t.Fatalf("step %d: paddle y %v escaped [0, 500]", i, got)
		}
	}
}

func TestDirectionalInput(t *testing.T) {
	tests := []struct {
		name      string
		input     core.PlayerInput
		wantDelta float64
	}{
		{"down full", core.NewHumanInput(core.ActionDown, 1), 8},
		{"up half", core.NewHumanInput(core.ActionUp, 0.5), -4},
		{"intensity clamped", core.NewHumanInput(core.ActionDown, 5), 8},
		{"negative intensity", core.NewHumanInput(core.ActionDown, -3), 0},
		{"nan intensity", core.NewHumanInput(core.ActionDown, math.NaN()), 0},
		{"inf intensity", core.NewHumanInput(core.ActionUp, math.Inf(1)), 0},
		{"none", core.NewHumanInput(core.ActionNone, 1), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSync(testMatchConfig(), nil)
			parkBall(s)

			s.AddInput(Player1, tc.input)
			snap := s.Step()
			p := snap.Players.Player1
			if delta := p.PaddlePosition.Y - 250; delta != tc.wantDelta {
				t.Errorf("paddle moved %v, expected %v", delta, tc.wantDelta)
			}
			if p.Velocity.Y != tc.wantDelta {
				t.Errorf("paddle velocity %v, expected %v", p.Velocity.Y, tc.wantDelta)
			}
		})
	}
}

func TestNewestInputWins(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)
	parkBall(s)

	s.AddInput(Player1, core.NewHumanInput(core.ActionUp, 1))
	s.AddInput(Player1, core.NewHumanInput(core.ActionUp, 1))
	s.AddInput(Player1, core.NewHumanInput(core.ActionDown, 1))

	if y := s.Step().Players.Player1.PaddlePosition.Y; y != 258 {
		t.Errorf("paddle y = %v, expected 258", y)
	}
	if n := len(s.InputHistory(Player1)); n != 3 {
		t.Errorf("history holds %d inputs, expected 3", n)
	}
	if y := s.Step().Players.Player1.PaddlePosition.Y; y != 258 {
		t.Errorf("zero-duration input kept moving the paddle to %v", y)
	}
}

func TestInputDurationHolds(t *testing.T) {
	cfg := testMatchConfig()
	s := newTestSync(cfg, nil)
	parkBall(s)

	in := core.NewHumanInput(core.ActionDown, 1)
	in.Duration = 5 * cfg.TickInterval()
	s.AddInput(Player1, in)

	var snap core.GameState
	for range 10 {
		snap = s.Step()
	}
	if y := snap.Players.Player1.PaddlePosition.Y; y != 290 {
		t.Errorf("paddle y = %v, expected 5 ticks of movement to 290", y)
	}
	if v := snap.Players.Player1.Velocity.Y; v != 0 {
		t.Errorf("paddle velocity %v after the hold expired, expected 0", v)
	}
}

func TestRallyScenario(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)
	s.mu.Lock()
	s.state.Ball = core.BallState{Position: core.Vec(400, 300), Velocity: core.Vec(3, 2), Radius: 8}
	s.mu.Unlock()

	prevX := 400.0
	for i := range 1000 {
		snap := s.Step()
		if !stateIsFinite(snap) {
			t.Fatalf("tick %d: non-finite snapshot %+v", i, snap)
		}
		if snap.Rally > 0 || snap.Score.Player1 > 0 {
			return
		}
		if snap.Score.Player2 > 0 {
			t.Fatalf("tick %d: ball moving right gave player2 a point", i)
		}
		if snap.Ball.Position.X <= prevX {
			t.Fatalf("tick %d: x went from %v to %v", i, prevX, snap.Ball.Position.X)
		}
		prevX = snap.Ball.Position.X
	}
	t.Fatal("ball never reached the right paddle or edge")
}

func TestPaddleHitBouncesBack(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)
	s.mu.Lock()
	s.state.Ball = core.BallState{Position: core.Vec(760, 300), Velocity: core.Vec(6, 0), Radius: 8}
	s.mu.Unlock()

	snap := s.Step()
	if snap.Rally != 1 {
		t.Fatalf("rally = %d, expected a paddle hit", snap.Rally)
	}
	if snap.Ball.Velocity.X >= 0 {
		t.Errorf("ball velocity %+v, expected to head left", snap.Ball.Velocity)
	}
	if face := 770.0; snap.Ball.Position.X > face-snap.Ball.Radius {
		t.Errorf("ball x %v not pushed in front of the paddle face", snap.Ball.Position.X)
	}
	if snap.Ball.LastCollisionTime.IsZero() {
		t.Error("collision time not stamped")
	}
}

func TestScoringAndMatchEnd(t *testing.T) {
	cfg := testMatchConfig()
	cfg.WinScore = 1

	ended := make(chan core.GameState, 1)
	s := newTestSync(cfg, func(final core.GameState) {
		ended <- final
	})
	s.mu.Lock()
	s.state.Ball = core.BallState{Position: core.Vec(795, 300), Velocity: core.Vec(10, 0), Radius: 8}
	s.mu.Unlock()

	snap := s.Step()
	if snap.Score.Player1 != 1 {
		t.Fatalf("score = %+v, expected player1 to score", snap.Score)
	}
	if snap.GameActive || snap.Winner != Player1 {
		t.Errorf("match should be over with player1 winning: active=%v winner=%s", snap.GameActive, snap.Winner)
	}
	if snap.Ball.Position != core.Vec(400, 300) {
		t.Errorf("ball not re-served from center: %+v", snap.Ball.Position)
	}
	if snap.Ball.Velocity.X <= 0 {
		t.Errorf("serve should head toward player2, who conceded; got %+v", snap.Ball.Velocity)
	}

	select {
	case final := <-ended:
		if final.Winner != Player1 || final.Tick != snap.Tick {
			t.Errorf("OnEnd got %+v", final)
		}
	default:
		t.Fatal("OnEnd not called")
	}

	if !s.Finished() || s.Status() != SyncStopped {
		t.Errorf("finished=%v status=%s", s.Finished(), s.Status())
	}

	after := s.Step()
	if after.Tick != snap.Tick {
		t.Errorf("finished match kept ticking: %d -> %d", snap.Tick, after.Tick)
	}

	s.StartSync(func(core.GameState) { t.Error("finished match broadcast") })
	if s.Status() != SyncStopped {
		t.Errorf("StartSync after finish changed status to %s", s.Status())
	}
}

func TestBroadcastFaultIsolation(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)

	panicked := make(chan struct{}, 1)
	s.StartSync(func(core.GameState) {
		select {
		case panicked <- struct{}{}:
		default:
		}
		panic("consumer failure")
	})

	select {
	case <-panicked:
	case <-time.After(time.Second):
		t.Fatal("failing callback never invoked")
	}
	time.Sleep(50 * time.Millisecond)
	s.StopSync()

	ticks := make(chan uint64, 256)
	s.StartSync(func(snap core.GameState) {
		select {
		case ticks <- snap.Tick:
		default:
		}
	})
	defer s.StopSync()

	var last uint64
	for i := range 5 {
		select {
		case tick := <-ticks:
			if tick <= last {
				t.Fatalf("broadcast %d out of order: %d after %d", i, tick, last)
			}
			last = tick
		case <-time.After(time.Second):
			t.Fatal("restarted sync delivered no ticks")
		}
	}
}

func TestStartSyncReplacesDriver(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)

	var mu sync.Mutex
	var oldCalls int
	s.StartSync(func(core.GameState) {
		mu.Lock()
		oldCalls++
		mu.Unlock()
	})

	fresh := make(chan struct{}, 256)
	s.StartSync(func(core.GameState) {
		select {
		case fresh <- struct{}{}:
		default:
		}
	})
	defer s.StopSync()

	select {
	case <-fresh:
	case <-time.After(time.Second):
		t.Fatal("new callback never invoked")
	}

	mu.Lock()
	before := oldCalls
	mu.Unlock()
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	after := oldCalls
	mu.Unlock()
	if after != before {
		t.Errorf("replaced callback still invoked: %d -> %d", before, after)
	}
}

func TestCallbackMayStopAndSnapshot(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)

	done := make(chan uint64, 1)
	s.StartSync(func(snap core.GameState) {
		cur := s.Snapshot()
		s.StopSync()
		select {
		case done <- cur.Tick:
		default:
		}
	})

	select {
	case tick := <-done:
		if tick == 0 {
			t.Error("snapshot inside the callback did not reflect the tick")
		}
	case <-time.After(time.Second):
		t.Fatal("callback deadlocked or never ran")
	}
	if s.Status() != SyncStopped {
		t.Errorf("status = %s, expected stopped", s.Status())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)
	s.AddInput(Player1, core.NewPositionInput(10))

	snap := s.Snapshot()
	snap.Ball.Position = core.Vec(-1, -1)
	snap.Score.Player1 = 99

	again := s.Snapshot()
	if again.Ball.Position == snap.Ball.Position || again.Score.Player1 == 99 {
		t.Error("mutating a snapshot leaked into the synchronizer")
	}
}

func TestForfeit(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)
	s.StartSync(func(core.GameState) {})

	final, ok := s.Forfeit(Player2)
	if !ok {
		t.Fatal("first forfeit should succeed")
	}
	if final.GameActive || final.Winner != Player2 {
		t.Errorf("final = active %v winner %s", final.GameActive, final.Winner)
	}
	if _, ok := s.Forfeit(Player1); ok {
		t.Error("second forfeit should report an already finished match")
	}
	if s.Status() != SyncStopped {
		t.Errorf("status = %s, expected stopped", s.Status())
	}
}

func TestConcurrentInputWhileRunning(t *testing.T) {
	s := newTestSync(testMatchConfig(), nil)
	s.StartSync(func(core.GameState) {})
	defer s.StopSync()

	var wg sync.WaitGroup
	for p := range 4 {
		wg.Add(1)
		go func(slot PlayerSlot) {
			defer wg.Done()
			for i := range 500 {
				if i%3 == 0 {
					s.UpdatePaddlePosition(slot, float64(i*7-300))
				} else {
					s.AddInput(slot, core.NewHumanInput(core.ActionUp, math.NaN()))
				}
				_ = s.Snapshot()
			}
		}(PlayerSlot(p%2 + 1))
	}
	wg.Wait()
	time.Sleep(50 * time.Millisecond)

	snap := s.Snapshot()
	if !stateIsFinite(snap) {
		t.Fatalf("non-finite state: %+v", snap)
	}
	for _, slot := range []PlayerSlot{Player1, Player2} {
		if y := snap.Players.Get(slot).PaddlePosition.Y; y < 0 || y > 500 {
			t.Errorf("%s paddle y %v out of bounds", slot, y)
		}
	}
}
