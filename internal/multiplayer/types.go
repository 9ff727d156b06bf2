// Package multiplayer runs authoritative Pong matches: the per-match input
// buffer and tick loop, transport-neutral session handles, and the manager
// that pairs sessions into matches and reports results.
package multiplayer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/ai"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
)

// PlayerSlot is an alias to core.PlayerSlot for convenience.
type PlayerSlot = core.PlayerSlot

// Re-export slot constants for convenience.
const (
	Player1 = core.Player1
	Player2 = core.Player2
)

// SessionID uniquely identifies a connected client (WebSocket or SSH).
type SessionID string

// MatchID uniquely identifies a match.
type MatchID string

// GameType selects how a match is staffed.
type GameType string

const (
	GameTypeAI  GameType = "ai"  // Human vs AI opponent
	GameTypePvP GameType = "pvp" // Two humans, paired through the waiting slot
)

// Errors reported to sessions as error events.
var (
	ErrUnknownGameType   = errors.New("unknown game type")
	ErrUnknownDifficulty = ai.ErrUnknownDifficulty
	ErrAlreadyInMatch    = errors.New("already in a match or waiting for one")
	ErrNotInMatch        = errors.New("not in a match")
	ErrNoOpponent        = errors.New("no opponent found")
	ErrNotAIMatch        = errors.New("difficulty only applies to ai matches")
)

// ParseGameType validates a wire game type.
func ParseGameType(s string) (GameType, error) {
	switch gt := GameType(strings.ToLower(strings.TrimSpace(s))); gt {
	case GameTypeAI, GameTypePvP:
		return gt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGameType, s)
	}
}

// EndReason describes why a match ended.
type EndReason int

const (
	EndReasonCompleted  EndReason = iota // Win score reached
	EndReasonDisconnect                  // A player left or dropped; opponent wins by forfeit
	EndReasonCancelled                   // Server shut down
)

// String returns the stored name of the reason.
func (r EndReason) String() string {
	switch r {
	case EndReasonCompleted:
		return "completed"
	case EndReasonDisconnect:
		return "disconnect"
	case EndReasonCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
