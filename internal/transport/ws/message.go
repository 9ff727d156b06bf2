// Package ws is the WebSocket transport: it authenticates browser clients,
// decodes their JSON commands for the match manager and streams match events
// back to them.
package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/multiplayer"
)

// Client -> Server message types
const (
	MsgJoinGame      = "join_game"
	MsgPaddleMove    = "paddle_move"
	MsgSetDifficulty = "set_difficulty"
	MsgLeaveGame     = "leave_game"
)

// Server -> Client message types
const (
	MsgGameJoined        = "game_joined"
	MsgWaiting           = "waiting_for_opponent"
	MsgGameStateUpdate   = "game_state_update"
	MsgDifficultyChanged = "difficulty_changed"
	MsgGameEnded         = "game_ended"
	MsgError             = "error"
)

// Decode errors. They are reported back to the client and never close the
// connection.
var (
	ErrMalformed     = errors.New("malformed message")
	ErrUnknownType   = errors.New("unknown message type")
	ErrBadDirection  = errors.New("invalid direction")
	ErrMissingTarget = errors.New("paddle_move needs y or direction")
)

// inbound is the union of every client message.
type inbound struct {
	Type       string          `json:"type"`
	GameType   string          `json:"gameType"`
	Difficulty string          `json:"difficulty"`
	Y          *float64        `json:"y"`
	Direction  json.RawMessage `json:"direction"`
	Intensity  *float64        `json:"intensity"`
	DurationMS int64           `json:"durationMs"`
}

// Decode parses one client frame into a manager message for the session.
func Decode(data []byte, sid multiplayer.SessionID) (multiplayer.ManagerMessage, error) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch in.Type {
	case MsgJoinGame:
		return multiplayer.JoinGameMsg{
			SessionID:  sid,
			GameType:   in.GameType,
			Difficulty: in.Difficulty,
		}, nil

	case MsgPaddleMove:
		dir, err := parseDirection(in.Direction)
		if err != nil {
			return nil, err
		}
		if in.Y == nil && len(in.Direction) == 0 {
			return nil, ErrMissingTarget
		}
		intensity := 1.0
		if in.Intensity != nil {
			intensity = *in.Intensity
		}
		return multiplayer.PaddleMoveMsg{
			SessionID: sid,
			Y:         in.Y,
			Direction: dir,
			Intensity: intensity,
			Duration:  time.Duration(max(0, in.DurationMS)) * time.Millisecond,
		}, nil

	case MsgSetDifficulty:
		if in.Difficulty == "" {
			return nil, fmt.Errorf("%w: missing difficulty", ErrMalformed)
		}
		return multiplayer.SetDifficultyMsg{SessionID: sid, Difficulty: in.Difficulty}, nil

	case MsgLeaveGame:
		return multiplayer.LeaveGameMsg{SessionID: sid}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}
}

// parseDirection accepts "up"/"down"/"none" or -1/0/1.
func parseDirection(raw json.RawMessage) (core.Action, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return core.ActionNone, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return core.ActionNone, fmt.Errorf("%w: %v", ErrBadDirection, err)
		}
		switch a := core.ParseAction(s); {
		case a != core.ActionNone:
			return a, nil
		case s == "none" || s == "0" || s == "":
			return core.ActionNone, nil
		default:
			return core.ActionNone, fmt.Errorf("%w: %q", ErrBadDirection, s)
		}
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return core.ActionNone, fmt.Errorf("%w: %s", ErrBadDirection, raw)
	}
	switch {
	case n < 0:
		return core.ActionUp, nil
	case n > 0:
		return core.ActionDown, nil
	default:
		return core.ActionNone, nil
	}
}

type gameJoinedFrame struct {
	Type       string `json:"type"`
	MatchID    string `json:"matchId"`
	GameType   string `json:"gameType"`
	Slot       string `json:"slot"`
	OpponentID string `json:"opponentId"`
}

type waitingFrame struct {
	Type     string `json:"type"`
	GameType string `json:"gameType"`
}

type stateFrame struct {
	Type      string         `json:"type"`
	MatchID   string         `json:"matchId"`
	GameState core.GameState `json:"gameState"`
}

type difficultyFrame struct {
	Type       string `json:"type"`
	MatchID    string `json:"matchId"`
	Difficulty string `json:"difficulty"`
}

type endedFrame struct {
	Type       string     `json:"type"`
	MatchID    string     `json:"matchId"`
	Reason     string     `json:"reason"`
	Winner     string     `json:"winner"`     // Player id, empty when cancelled
	WinnerSlot string     `json:"winnerSlot"` // player1, player2 or none
	FinalScore core.Score `json:"finalScore"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Encode renders a session event as a server frame.
func Encode(evt multiplayer.SessionEvent) ([]byte, error) {
	var frame any
	switch e := evt.(type) {
	case multiplayer.GameJoinedEvent:
		frame = gameJoinedFrame{
			Type:       MsgGameJoined,
			MatchID:    string(e.MatchID),
			GameType:   string(e.GameType),
			Slot:       e.Slot.String(),
			OpponentID: e.OpponentID,
		}
	case multiplayer.WaitingEvent:
		frame = waitingFrame{Type: MsgWaiting, GameType: string(e.GameType)}
	case multiplayer.GameStateUpdateEvent:
		frame = stateFrame{Type: MsgGameStateUpdate, MatchID: string(e.MatchID), GameState: sanitize(e.State)}
	case multiplayer.DifficultyChangedEvent:
		frame = difficultyFrame{Type: MsgDifficultyChanged, MatchID: string(e.MatchID), Difficulty: e.Difficulty}
	case multiplayer.GameEndedEvent:
		frame = endedFrame{
			Type:       MsgGameEnded,
			MatchID:    string(e.MatchID),
			Reason:     e.Reason.String(),
			Winner:     e.WinnerID,
			WinnerSlot: e.Winner.String(),
			FinalScore: e.FinalScore,
		}
	case multiplayer.ErrorEvent:
		frame = errorFrame{Type: MsgError, Error: e.Message}
	default:
		return nil, fmt.Errorf("ws: cannot encode %T", evt)
	}
	return json.Marshal(frame)
}

// errorFrameFor builds the frame sent for a rejected client message.
func errorFrameFor(err error) []byte {
	data, _ := json.Marshal(errorFrame{Type: MsgError, Error: err.Error()})
	return data
}

// sanitize drops non-finite values from queued inputs, which encoding/json
// refuses to marshal. Simulated state is always finite. Queues are copied
// before editing since the snapshot is shared by every recipient.
func sanitize(s core.GameState) core.GameState {
	s.InputBuffer.Player1 = finiteInputs(s.InputBuffer.Player1)
	s.InputBuffer.Player2 = finiteInputs(s.InputBuffer.Player2)
	return s
}

func finiteInputs(q []core.PlayerInput) []core.PlayerInput {
	clean := true
	for _, in := range q {
		if !finiteInput(in) {
			clean = false
			break
		}
	}
	if clean {
		return q
	}

	out := make([]core.PlayerInput, len(q))
	for i, in := range q {
		in = in.Clone()
		if !core.IsFinite(in.Intensity) {
			in.Intensity = 0
		}
		if in.TargetY != nil && !core.IsFinite(*in.TargetY) {
			in.TargetY = nil
		}
		out[i] = in
	}
	return out
}

func finiteInput(in core.PlayerInput) bool {
	return core.IsFinite(in.Intensity) && (in.TargetY == nil || core.IsFinite(*in.TargetY))
}
