package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/ai"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
)

// KeyMap holds the client's key bindings. It implements help.KeyMap.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Easy   key.Binding
	Medium key.Binding
	Hard   key.Binding
	PvP    key.Binding
	Again  key.Binding
	Leave  key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("w", "up", "k"),
			key.WithHelp("↑/w", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("s", "down", "j"),
			key.WithHelp("↓/s", "down"),
		),
		Easy: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "easy"),
		),
		Medium: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "medium"),
		),
		Hard: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "hard"),
		),
		PvP: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "vs player"),
		),
		Again: key.NewBinding(
			key.WithKeys("r", "enter"),
			key.WithHelp("r", "play again"),
		),
		Leave: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc", "leave"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Leave, k.Quit}
}

// aiMatchHelp adds the difficulty switch shown during ai matches.
func (k KeyMap) aiMatchHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Easy, k.Medium, k.Hard, k.Leave}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Easy, k.Medium, k.Hard, k.PvP},
		{k.Again, k.Leave, k.Quit},
	}
}

// lobbyHelp lists the bindings shown before a match.
func (k KeyMap) lobbyHelp() []key.Binding {
	return []key.Binding{k.Easy, k.Medium, k.Hard, k.PvP, k.Quit}
}

// endedHelp lists the bindings shown after a match.
func (k KeyMap) endedHelp() []key.Binding {
	return []key.Binding{k.Again, k.Leave, k.Quit}
}

// Direction maps a key to a paddle action; ok is false for other keys.
func (k KeyMap) Direction(msg fmt.Stringer) (core.Action, bool) {
	switch {
	case key.Matches(msg, k.Up):
		return core.ActionUp, true
	case key.Matches(msg, k.Down):
		return core.ActionDown, true
	}
	return core.ActionNone, false
}

// Difficulty maps a lobby key to an AI difficulty.
func (k KeyMap) Difficulty(msg fmt.Stringer) (string, bool) {
	switch {
	case key.Matches(msg, k.Easy):
		return ai.DifficultyEasy, true
	case key.Matches(msg, k.Medium):
		return ai.DifficultyMedium, true
	case key.Matches(msg, k.Hard):
		return ai.DifficultyHard, true
	}
	return "", false
}
