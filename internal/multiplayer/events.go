package multiplayer

import (
	"time"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
)

// SessionEvent represents an event sent from the manager to a session.
type SessionEvent interface {
	sessionEvent()
}

// GameJoinedEvent is sent when a session is placed into a running match.
type GameJoinedEvent struct {
	MatchID    MatchID
	GameType   GameType
	Slot       PlayerSlot // Which paddle this session controls
	OpponentID string
}

func (GameJoinedEvent) sessionEvent() {}

// WaitingEvent is sent when a pvp joiner is parked in the waiting slot.
type WaitingEvent struct {
	GameType GameType
}

func (WaitingEvent) sessionEvent() {}

// GameStateUpdateEvent carries one tick's snapshot.
type GameStateUpdateEvent struct {
	MatchID MatchID
	State   core.GameState
}

func (GameStateUpdateEvent) sessionEvent() {}

// GameEndedEvent is sent to the participants when a match ends.
type GameEndedEvent struct {
	MatchID    MatchID
	Reason     EndReason
	Winner     PlayerSlot
	WinnerID   string
	FinalScore core.Score
}

func (GameEndedEvent) sessionEvent() {}

// DifficultyChangedEvent confirms a new AI difficulty for the running match.
type DifficultyChangedEvent struct {
	MatchID    MatchID
	Difficulty string
}

func (DifficultyChangedEvent) sessionEvent() {}

// ErrorEvent reports a rejected command.
type ErrorEvent struct {
	Message string
}

func (ErrorEvent) sessionEvent() {}

// ManagerMessage represents a message from a session to the manager.
type ManagerMessage interface {
	managerMessage()
}

// JoinGameMsg asks for a match. Difficulty only applies to ai games;
// empty selects the configured default.
type JoinGameMsg struct {
	SessionID  SessionID
	GameType   string
	Difficulty string
}

func (JoinGameMsg) managerMessage() {}

// PaddleMoveMsg forwards a paddle intent. Y, when set, is an absolute paddle
// position and takes precedence over Direction.
type PaddleMoveMsg struct {
	SessionID SessionID
	Y         *float64
	Direction core.Action
	Intensity float64
	Duration  time.Duration
}

func (PaddleMoveMsg) managerMessage() {}

// SetDifficultyMsg switches the AI opponent of the session's match.
type SetDifficultyMsg struct {
	SessionID  SessionID
	Difficulty string
}

func (SetDifficultyMsg) managerMessage() {}

// LeaveGameMsg leaves the current match or the waiting slot.
type LeaveGameMsg struct {
	SessionID SessionID
}

func (LeaveGameMsg) managerMessage() {}

// SessionDisconnectedMsg is sent when a session's transport goes away.
type SessionDisconnectedMsg struct {
	SessionID SessionID
}

func (SessionDisconnectedMsg) managerMessage() {}

// matchEndedMsg is posted by a synchronizer's OnEnd hook.
type matchEndedMsg struct {
	MatchID MatchID
	Final   core.GameState
}

func (matchEndedMsg) managerMessage() {}
