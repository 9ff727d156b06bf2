package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PlayerSlot identifies one of the two paddles in a match.
type PlayerSlot int

const (
	NoPlayer PlayerSlot = iota // No slot / no winner yet
	Player1                    // Left paddle
	Player2                    // Right paddle
)

// Valid reports whether s is one of the two paddle slots.
func (s PlayerSlot) Valid() bool {
	return s == Player1 || s == Player2
}

// Opponent returns the other slot. NoPlayer maps to NoPlayer.
func (s PlayerSlot) Opponent() PlayerSlot {
	switch s {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return NoPlayer
	}
}

// String returns the wire name of the slot.
func (s PlayerSlot) String() string {
	switch s {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	default:
		return "none"
	}
}

// MarshalText encodes the slot by its wire name so snapshots and events
// agree on "player1", "player2" and "none".
func (s PlayerSlot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the wire names; an empty string is NoPlayer.
func (s *PlayerSlot) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "player1":
		*s = Player1
	case "player2":
		*s = Player2
	case "none", "":
		*s = NoPlayer
	default:
		return fmt.Errorf("unknown player slot %q", text)
	}
	return nil
}

// Action is a paddle movement intent.
type Action string

const (
	ActionNone Action = "none"
	ActionUp   Action = "up"
	ActionDown Action = "down"
)

// ParseAction converts a wire direction into an Action.
// Anything unrecognised becomes ActionNone.
func ParseAction(s string) Action {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "-1":
		return ActionUp
	case "down", "1":
		return ActionDown
	default:
		return ActionNone
	}
}

// Direction returns -1 for up, +1 for down and 0 otherwise.
// Canvas y grows downwards.
func (a Action) Direction() float64 {
	switch a {
	case ActionUp:
		return -1
	case ActionDown:
		return 1
	default:
		return 0
	}
}

// InputSource tells where a PlayerInput came from.
type InputSource string

const (
	SourceHuman InputSource = "human"
	SourceAI    InputSource = "ai"
)

// PlayerInput is a single control intent queued for one paddle.
// It is immutable once enqueued.
type PlayerInput struct {
	Action    Action        `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	Source    InputSource   `json:"source"`
	Intensity float64       `json:"intensity"` // Conceptually [0,1], clamped when applied
	Duration  time.Duration `json:"duration"`  // How long the move is held; 0 = one tick

	// TargetY is an absolute paddle position reported by the client.
	// When set it takes precedence over Action.
	TargetY *float64 `json:"targetY,omitempty"`
}

// NewHumanInput creates a directional input from a human player.
func NewHumanInput(action Action, intensity float64) PlayerInput {
	return PlayerInput{
		Action:    action,
		Timestamp: time.Now(),
		Source:    SourceHuman,
		Intensity: intensity,
	}
}

// NewPositionInput creates an absolute-position input from a human player.
func NewPositionInput(y float64) PlayerInput {
	return PlayerInput{
		Action:    ActionNone,
		Timestamp: time.Now(),
		Source:    SourceHuman,
		Intensity: 1,
		TargetY:   &y,
	}
}

// EffectiveIntensity returns the intensity clamped to [0,1].
// Non-finite values degrade to 0 so a corrupted input means "no movement".
func (in PlayerInput) EffectiveIntensity() float64 {
	if !IsFinite(in.Intensity) {
		return 0
	}
	return math.Max(0, math.Min(1, in.Intensity))
}

// Clone returns a copy that does not share the TargetY pointer.
func (in PlayerInput) Clone() PlayerInput {
	if in.TargetY != nil {
		y := *in.TargetY
		in.TargetY = &y
	}
	return in
}
