package ai

import (
	"io"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
)

// Defaults for Options.
const (
	DefaultDecisionInterval = time.Second
	DefaultDeadZone         = 10.0
	DefaultErrorRange       = 80.0
)

// MoveHandler receives every move the AI decides on.
type MoveHandler func(core.PlayerInput)

// Options configures an AI opponent.
type Options struct {
	Slot             core.PlayerSlot // Paddle the AI controls
	Profile          Profile
	DecisionInterval time.Duration // Min time between accepted observations
	DeadZone         float64       // No move when the target is this close to the paddle center
	ErrorRange       float64       // Max aiming error at accuracy 0
	PaddleSpeed      float64       // Paddle step per tick at full intensity
	TickRate         int
	Seed             int64
	Logger           *log.Logger
}

// AI is a computer opponent bound to one paddle slot.
type AI struct {
	slot        core.PlayerSlot
	interval    time.Duration
	deadZone    float64
	errorRange  float64
	paddleSpeed float64
	tickRate    int
	onMove      MoveHandler
	logger      *log.Logger

	active atomic.Bool
	epoch  atomic.Uint64 // Bumped on every activation

	mu           sync.Mutex
	profile      Profile
	lastAccepted time.Time
	rng          *rand.Rand
}

// New creates an inactive AI that delivers its moves to onMove.
func New(opts Options, onMove MoveHandler) *AI {
	if opts.DecisionInterval <= 0 {
		opts.DecisionInterval = DefaultDecisionInterval
	}
	if opts.DeadZone <= 0 {
		opts.DeadZone = DefaultDeadZone
	}
	if opts.ErrorRange <= 0 {
		opts.ErrorRange = DefaultErrorRange
	}
	if opts.TickRate <= 0 {
		opts.TickRate = 60
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &AI{
		slot:        opts.Slot,
		interval:    opts.DecisionInterval,
		deadZone:    opts.DeadZone,
		errorRange:  opts.ErrorRange,
		paddleSpeed: opts.PaddleSpeed,
		tickRate:    opts.TickRate,
		onMove:      onMove,
		logger:      opts.Logger.With("ai", opts.Slot),
		profile:     opts.Profile,
		rng:         rand.New(rand.NewSource(opts.Seed)), //nolint:gosec // gameplay randomness
	}
}

// Activate starts accepting observations.
func (a *AI) Activate() {
	if a.active.Load() {
		return
	}
	a.epoch.Add(1)
	a.mu.Lock()
	a.lastAccepted = time.Time{}
	a.mu.Unlock()
	a.active.Store(true)
	a.logger.Debug("activated", "difficulty", a.Profile().Name)
}

// Deactivate stops accepting observations. Decisions already scheduled are
// dropped when they fire.
func (a *AI) Deactivate() {
	if a.active.Swap(false) {
		a.logger.Debug("deactivated")
	}
}

// Active reports whether the AI is active.
func (a *AI) Active() bool {
	return a.active.Load()
}

// Profile returns the current difficulty profile.
func (a *AI) Profile() Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile
}

// SetDifficulty switches the profile. A decision already scheduled keeps the
// profile it was scheduled with.
func (a *AI) SetDifficulty(p Profile) {
	a.mu.Lock()
	a.profile = p
	a.mu.Unlock()
}

// Observe offers a snapshot. It is accepted when the AI is active and at
// least the decision interval has passed since the last accepted one; the
// decision then runs after the profile's reaction time. Reports whether the
// snapshot was accepted.
func (a *AI) Observe(state core.GameState) bool {
	if !a.active.Load() {
		return false
	}

	now := time.Now()
	a.mu.Lock()
	if !a.lastAccepted.IsZero() && now.Sub(a.lastAccepted) < a.interval {
		a.mu.Unlock()
		return false
	}
	a.lastAccepted = now
	profile := a.profile
	a.mu.Unlock()

	epoch := a.epoch.Load()
	snap := state.Clone()
	time.AfterFunc(profile.ReactionTime, func() {
		a.fire(epoch, snap, profile)
	})
	return true
}

// fire runs a scheduled decision unless the AI was deactivated (or
// deactivated and reactivated) since it was scheduled.
func (a *AI) fire(epoch uint64, state core.GameState, profile Profile) {
	if !a.active.Load() || a.epoch.Load() != epoch {
		return
	}
	in, ok := a.Decide(state, profile)
	if !ok || a.onMove == nil {
		return
	}
	a.onMove(in)
}

// Decide computes the move for a snapshot under the given profile.
// ok is false when the paddle is already within the dead zone of the target.
func (a *AI) Decide(state core.GameState, profile Profile) (core.PlayerInput, bool) {
	paddle := state.Players.Get(a.slot)
	if paddle == nil {
		return core.PlayerInput{}, false
	}

	target := a.targetY(state, profile.PredictionDepth)
	a.mu.Lock()
	target += (a.rng.Float64()*2 - 1) * (1 - core.ClampF(profile.Accuracy, 0, 1)) * a.errorRange
	a.mu.Unlock()

	gap := target - paddle.CenterY()
	if !core.IsFinite(gap) || math.Abs(gap) <= a.deadZone {
		return core.PlayerInput{}, false
	}

	action := core.ActionDown
	if gap < 0 {
		action = core.ActionUp
	}
	intensity := core.ClampF(profile.Speed, 0, 1)

	return core.PlayerInput{
		Action:    action,
		Timestamp: time.Now(),
		Source:    core.SourceAI,
		Intensity: intensity,
		Duration:  a.holdFor(math.Abs(gap), intensity),
	}, true
}

// holdFor returns how long to hold a move to cover gap pixels, capped at the
// decision interval.
func (a *AI) holdFor(gap, intensity float64) time.Duration {
	perTick := a.paddleSpeed * intensity
	if perTick <= 0 {
		return a.interval
	}
	tick := time.Second / time.Duration(a.tickRate)
	d := time.Duration(math.Ceil(gap/perTick)) * tick
	return min(max(d, tick), a.interval)
}

// targetY predicts where the ball will be when it reaches the AI paddle.
// Depth <= 1 just tracks the ball.
func (a *AI) targetY(state core.GameState, depth int) float64 {
	ball := state.Ball
	height := state.Canvas.Height
	if depth <= 1 || height <= 0 {
		return ball.Position.Y
	}

	paddle := state.Players.Get(a.slot)
	faceX := paddle.PaddlePosition.X
	if a.slot == core.Player1 {
		faceX += paddle.Width
	}

	vx := ball.Velocity.X
	t := (faceX - ball.Position.X) / vx
	if vx == 0 || !core.IsFinite(t) || t <= 0 {
		return ball.Position.Y
	}
	t = math.Min(t, float64(depth*a.tickRate))

	return foldY(ball.Position.Y+ball.Velocity.Y*t, height)
}

// foldY reflects y back into [0, height] as if bouncing off both walls.
func foldY(y, height float64) float64 {
	if !core.IsFinite(y) {
		return height / 2
	}
	period := 2 * height
	m := math.Mod(y, period)
	if m < 0 {
		m += period
	}
	if m > height {
		m = period - m
	}
	return m
}
