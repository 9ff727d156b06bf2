package multiplayer

import (
	"io"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/physics"
)

// BroadcastFunc receives one snapshot per tick. It runs on the tick goroutine
// and must not block for long; panics are recovered and logged.
type BroadcastFunc func(core.GameState)

// SyncState is the lifecycle state of a Synchronizer.
type SyncState int32

const (
	SyncCreated SyncState = iota
	SyncRunning
	SyncStopped
)

func (s SyncState) String() string {
	switch s {
	case SyncCreated:
		return "created"
	case SyncRunning:
		return "running"
	case SyncStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// serveSpread is the max deviation of a serve from the horizontal.
const serveSpread = math.Pi / 6

// SyncOptions configures a new Synchronizer.
type SyncOptions struct {
	MatchID   MatchID
	Player1ID string
	Player2ID string
	Match     core.MatchConfig
	Engine    *physics.Engine // Shared engine; nil creates one with default tunables
	Logger    *log.Logger

	// OnEnd receives the final snapshot once the win score is reached.
	// It runs on the tick goroutine, outside the state lock.
	OnEnd func(core.GameState)
}

// Synchronizer owns the authoritative state of one match and advances it at
// a fixed tick rate. The state is written only by ticks; everyone else reads
// deep-copied snapshots.
type Synchronizer struct {
	cfg    core.MatchConfig
	engine *physics.Engine
	inputs *InputBuffer
	logger *log.Logger
	onEnd  func(core.GameState)

	mu       sync.Mutex // Guards everything below and serializes ticks
	state    core.GameState
	held     [2]heldInput
	rng      *rand.Rand
	failures int // Consecutive broadcast panics

	runMu  sync.Mutex // Guards the tick driver
	stop   chan struct{}
	status atomic.Int32

	finished atomic.Bool
	snapshot atomic.Pointer[core.GameState]
}

// heldInput is the input currently moving a paddle and how many more ticks
// it applies.
type heldInput struct {
	input core.PlayerInput
	ticks int
}

// NewSynchronizer creates a match in the Created state with both paddles
// centered, the ball served from the center and the score at zero.
func NewSynchronizer(opts SyncOptions) *Synchronizer {
	cfg := opts.Match
	engine := opts.Engine
	if engine == nil {
		engine = physics.NewEngine(physics.DefaultConfig())
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Synchronizer{
		cfg:    cfg,
		engine: engine,
		inputs: NewInputBuffer(cfg.InputBufferCap, cfg.InputHistory),
		logger: logger.With("match", opts.MatchID),
		onEnd:  opts.OnEnd,
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // gameplay randomness
	}

	paddleY := cfg.MaxPaddleY() / 2
	s.state = core.GameState{
		MatchID: string(opts.MatchID),
		Players: core.Players{
			Player1: core.PlayerState{
				ID:             opts.Player1ID,
				PaddlePosition: core.Vec(cfg.PaddleX(Player1), paddleY),
				Width:          cfg.PaddleWidth,
				Height:         cfg.PaddleHeight,
			},
			Player2: core.PlayerState{
				ID:             opts.Player2ID,
				PaddlePosition: core.Vec(cfg.PaddleX(Player2), paddleY),
				Width:          cfg.PaddleWidth,
				Height:         cfg.PaddleHeight,
			},
		},
		Ball:       core.BallState{Radius: cfg.BallRadius},
		Canvas:     core.Canvas{Width: cfg.CanvasWidth, Height: cfg.CanvasHeight},
		GameActive: true,
	}

	toward := Player1
	if s.rng.Intn(2) == 1 {
		toward = Player2
	}
	s.serveLocked(toward)
	s.publishLocked()

	s.status.Store(int32(SyncCreated))
	return s
}

// Config returns the match parameters.
func (s *Synchronizer) Config() core.MatchConfig {
	return s.cfg
}

// Status returns the lifecycle state.
func (s *Synchronizer) Status() SyncState {
	return SyncState(s.status.Load())
}

// Finished reports whether the match reached a terminal state.
func (s *Synchronizer) Finished() bool {
	return s.finished.Load()
}

// StartSync starts ticking at the configured rate and sends every snapshot
// to broadcast. A running driver is cancelled and replaced, so calling it
// again swaps the callback. After the match has finished it does nothing.
func (s *Synchronizer) StartSync(broadcast BroadcastFunc) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	if s.finished.Load() {
		s.status.Store(int32(SyncStopped))
		return
	}

	stop := make(chan struct{})
	s.stop = stop
	s.status.Store(int32(SyncRunning))

	go s.run(stop, broadcast)
	s.logger.Debug("sync started", "tick_rate", s.cfg.TickRate)
}

// StopSync cancels the tick driver. It is idempotent, does not wait for an
// in-flight tick and may be called from inside the broadcast callback.
func (s *Synchronizer) StopSync() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.stop != nil {
		close(s.stop)
		s.stop = nil
		s.logger.Debug("sync stopped")
	}
	if s.Status() != SyncCreated || s.finished.Load() {
		s.status.Store(int32(SyncStopped))
	}
}

func (s *Synchronizer) run(stop <-chan struct{}, broadcast BroadcastFunc) {
	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			final, ended := s.tick(stop, broadcast)
			if ended {
				s.finish(final)
				return
			}
		}
	}
}

// Step advances one tick synchronously without broadcasting and returns the
// resulting snapshot. A tick that ends the match stops the driver and fires
// OnEnd like a driven tick would.
func (s *Synchronizer) Step() core.GameState {
	snap, ended := s.tick(nil, nil)
	if ended {
		s.finish(snap)
	}
	return snap
}

// tick runs one simulation step under the state lock. A closed stop channel
// means the driver was cancelled while waiting for the lock; the tick is
// skipped so no state changes after StopSync returns to a waiting caller.
func (s *Synchronizer) tick(stop <-chan struct{}, broadcast BroadcastFunc) (core.GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stop != nil {
		select {
		case <-stop:
			return s.state.Clone(), false
		default:
		}
	}
	if !s.state.GameActive {
		return s.state.Clone(), false
	}

	ended := s.stepLocked()
	snap := s.publishLocked()
	if broadcast != nil {
		s.broadcastLocked(broadcast, snap)
	}
	return snap, ended
}

func (s *Synchronizer) finish(final core.GameState) {
	s.StopSync()
	s.logger.Info("match finished",
		"winner", final.Winner,
		"score1", final.Score.Player1,
		"score2", final.Score.Player2,
		"ticks", final.Tick)
	if s.onEnd != nil {
		s.onEnd(final)
	}
}

// Forfeit ends the match immediately with winner as the winner, stops the
// driver and returns the final snapshot. OnEnd is not called. It returns
// false if the match had already finished.
func (s *Synchronizer) Forfeit(winner PlayerSlot) (core.GameState, bool) {
	s.mu.Lock()
	if !s.state.GameActive {
		snap := s.state.Clone()
		s.mu.Unlock()
		return snap, false
	}
	s.state.GameActive = false
	s.state.Winner = winner
	s.finished.Store(true)
	snap := s.publishLocked()
	s.mu.Unlock()

	s.StopSync()
	return snap, true
}

// AddInput queues an input for the slot. Unknown slots are ignored.
// It never blocks on the tick loop.
func (s *Synchronizer) AddInput(slot PlayerSlot, in core.PlayerInput) {
	s.inputs.Add(slot, in)
}

// UpdatePaddlePosition queues an absolute paddle position for the slot.
// The target is clamped into the canvas and the paddle moves toward it at
// PaddleSpeed per tick until it arrives or a newer input replaces it.
func (s *Synchronizer) UpdatePaddlePosition(slot PlayerSlot, y float64) {
	s.inputs.Add(slot, core.NewPositionInput(y))
}

// InputHistory returns the slot's recently processed inputs.
func (s *Synchronizer) InputHistory(slot PlayerSlot) []core.PlayerInput {
	return s.inputs.History(slot)
}

// Snapshot returns a copy of the most recently published state.
// It takes no lock and is safe from inside the broadcast callback.
func (s *Synchronizer) Snapshot() core.GameState {
	return s.snapshot.Load().Clone()
}

func (s *Synchronizer) stepLocked() bool {
	st := &s.state

	for _, slot := range [...]PlayerSlot{Player1, Player2} {
		s.applyInputLocked(slot)
	}

	ball := s.engine.Advance(st.Ball, st.Canvas.Width, st.Canvas.Height, 1)
	for _, slot := range [...]PlayerSlot{Player1, Player2} {
		paddle := st.Players.Get(slot)
		res := s.engine.PaddleCollision(ball, *paddle)
		if !res.HasCollision {
			continue
		}
		ball.Velocity = res.NewVelocity
		ball.LastCollisionTime = time.Now()
		s.pushOutLocked(&ball, slot)
		st.Rally++
		break
	}
	st.Ball = ball
	st.Tick++

	var scorer PlayerSlot
	switch {
	case ball.Position.X < 0:
		scorer = Player2
	case ball.Position.X > st.Canvas.Width:
		scorer = Player1
	default:
		return false
	}

	st.Score.Inc(scorer)
	s.logger.Debug("point", "scorer", scorer, "score1", st.Score.Player1, "score2", st.Score.Player2, "rally", st.Rally)
	s.serveLocked(scorer.Opponent())

	if st.Score.Of(scorer) >= s.cfg.WinScore {
		st.GameActive = false
		st.Winner = scorer
		s.finished.Store(true)
		return true
	}
	return false
}

// applyInputLocked takes the newest pending input of the slot (the rest go to
// history), moves the paddle and derives its velocity in pixels per tick.
func (s *Synchronizer) applyInputLocked(slot PlayerSlot) {
	idx := int(slot) - 1
	paddle := s.state.Players.Get(slot)
	prev := paddle.PaddlePosition.Y

	if pending := s.inputs.Drain(slot); len(pending) > 0 {
		latest := pending[len(pending)-1]
		s.held[idx] = heldInput{input: latest, ticks: s.holdTicks(latest)}
		s.inputs.Record(slot, pending...)
	}

	h := &s.held[idx]
	if h.ticks > 0 {
		paddle.PaddlePosition.Y = s.nextPaddleY(prev, h.input)
		switch {
		case h.input.TargetY == nil:
			h.ticks--
		case paddle.PaddlePosition.Y == prev:
			// Target reached or unreachable.
			h.ticks = 0
		}
	}
	paddle.Velocity = core.Vec(0, paddle.PaddlePosition.Y-prev)
}

// holdTicks converts an input duration into a number of ticks.
// Absolute positions are held until the paddle stops; a zero duration means
// one tick.
func (s *Synchronizer) holdTicks(in core.PlayerInput) int {
	if in.TargetY != nil || in.Duration <= 0 {
		return 1
	}
	interval := s.cfg.TickInterval()
	return max(1, int((in.Duration+interval-1)/interval))
}

// nextPaddleY applies one tick of an input to y. An absolute target moves
// the paddle toward it by at most PaddleSpeed. Non-finite values leave the
// paddle where it is; everything else is clamped into the canvas.
func (s *Synchronizer) nextPaddleY(y float64, in core.PlayerInput) float64 {
	maxY := s.cfg.MaxPaddleY()
	if in.TargetY != nil {
		target := *in.TargetY
		if !core.IsFinite(target) {
			return y
		}
		gap := core.ClampF(target, 0, maxY) - y
		return core.ClampF(y+core.ClampF(gap, -s.cfg.PaddleSpeed, s.cfg.PaddleSpeed), 0, maxY)
	}

	step := s.cfg.PaddleSpeed * in.Action.Direction() * in.EffectiveIntensity()
	if !core.IsFinite(step) {
		return y
	}
	return core.ClampF(y+step, 0, maxY)
}

// pushOutLocked moves a ball that bounced off the slot's paddle in front of
// the paddle face so it does not collide again on the next tick.
func (s *Synchronizer) pushOutLocked(ball *core.BallState, slot PlayerSlot) {
	face := s.cfg.PaddleFaceX(slot)
	switch {
	case slot == Player1 && ball.Velocity.X > 0:
		ball.Position.X = math.Max(ball.Position.X, face+ball.Radius)
	case slot == Player2 && ball.Velocity.X < 0:
		ball.Position.X = math.Min(ball.Position.X, face-ball.Radius)
	}
}

// serveLocked puts the ball at the center heading toward the given slot at
// the initial speed with a random angle.
func (s *Synchronizer) serveLocked(toward PlayerSlot) {
	dir := 1.0
	if toward == Player1 {
		dir = -1
	}
	angle := (s.rng.Float64()*2 - 1) * serveSpread
	speed := s.cfg.InitialBallSpeed

	s.state.Ball.Position = core.Vec(s.cfg.CanvasWidth/2, s.cfg.CanvasHeight/2)
	s.state.Ball.Velocity = core.Vec(dir*speed*math.Cos(angle), speed*math.Sin(angle))
	s.state.Rally = 0
}

// publishLocked stores a fresh snapshot for Snapshot and returns it.
func (s *Synchronizer) publishLocked() core.GameState {
	s.state.InputBuffer = core.InputBuffers{
		Player1: s.inputs.Pending(Player1),
		Player2: s.inputs.Pending(Player2),
	}
	snap := s.state.Clone()
	stored := snap.Clone()
	s.snapshot.Store(&stored)
	return snap
}

func (s *Synchronizer) broadcastLocked(broadcast BroadcastFunc, snap core.GameState) {
	defer func() {
		if r := recover(); r != nil {
			s.failures++
			if s.failures == 1 || s.failures%max(1, s.cfg.TickRate) == 0 {
				s.logger.Error("broadcast failed", "tick", snap.Tick, "err", r, "consecutive", s.failures)
			}
		}
	}()
	broadcast(snap)
	s.failures = 0
}
