package core

import "time"

// BallState is the ball of a single match. Value type, never shared.
type BallState struct {
	Position          Vector2D  `json:"position"`
	Velocity          Vector2D  `json:"velocity"`
	Radius            float64   `json:"radius"`
	LastCollisionTime time.Time `json:"lastCollisionTime"`
}

// Bounds returns the square bounding the ball's circle.
func (b BallState) Bounds() Rect {
	return NewRect(b.Position.X-b.Radius, b.Position.Y-b.Radius, 2*b.Radius, 2*b.Radius)
}

// Speed returns the magnitude of the ball velocity.
func (b BallState) Speed() float64 {
	return b.Velocity.Length()
}

// PlayerState is one paddle slot. Velocity is derived by the tick loop.
type PlayerState struct {
	ID             string   `json:"id"`
	PaddlePosition Vector2D `json:"paddlePosition"`
	Velocity       Vector2D `json:"velocity"`
	Width          float64  `json:"width"`
	Height         float64  `json:"height"`
}

// Bounds returns the paddle rectangle.
func (p PlayerState) Bounds() Rect {
	return NewRect(p.PaddlePosition.X, p.PaddlePosition.Y, p.Width, p.Height)
}

// CenterY returns the paddle's vertical center.
func (p PlayerState) CenterY() float64 {
	return p.PaddlePosition.Y + p.Height/2
}

// Players holds both paddle slots.
type Players struct {
	Player1 PlayerState `json:"player1"`
	Player2 PlayerState `json:"player2"`
}

// Get returns a pointer to the slot's state, or nil for an unknown slot.
func (p *Players) Get(slot PlayerSlot) *PlayerState {
	switch slot {
	case Player1:
		return &p.Player1
	case Player2:
		return &p.Player2
	default:
		return nil
	}
}

// Score holds the points of both slots.
type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// Of returns the score of the given slot.
func (s Score) Of(slot PlayerSlot) int {
	switch slot {
	case Player1:
		return s.Player1
	case Player2:
		return s.Player2
	default:
		return 0
	}
}

// Inc adds a point to the given slot.
func (s *Score) Inc(slot PlayerSlot) {
	switch slot {
	case Player1:
		s.Player1++
	case Player2:
		s.Player2++
	}
}

// Canvas is the playfield size.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InputBuffers holds the pending inputs of both slots at snapshot time.
type InputBuffers struct {
	Player1 []PlayerInput `json:"player1"`
	Player2 []PlayerInput `json:"player2"`
}

// GameState is the full state of one match. The live value is owned by the
// synchronizer's tick loop; everybody else only sees Clone()d snapshots.
type GameState struct {
	MatchID     string       `json:"matchId"`
	Tick        uint64       `json:"tick"`
	Players     Players      `json:"players"`
	Ball        BallState    `json:"ball"`
	InputBuffer InputBuffers `json:"inputBuffer"`
	Score       Score        `json:"score"`
	Canvas      Canvas       `json:"canvas"`
	GameActive  bool         `json:"gameActive"`
	Winner      PlayerSlot   `json:"winner"` // NoPlayer until the match is decided
	Rally       int          `json:"rally"`  // Paddle hits since the last serve
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s GameState) Clone() GameState {
	s.InputBuffer = InputBuffers{
		Player1: cloneInputs(s.InputBuffer.Player1),
		Player2: cloneInputs(s.InputBuffer.Player2),
	}
	return s
}

func cloneInputs(in []PlayerInput) []PlayerInput {
	if len(in) == 0 {
		return nil
	}
	out := make([]PlayerInput, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}
