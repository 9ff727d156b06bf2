package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/multiplayer"
)

// DefaultHoldTime is how long one key press keeps the paddle moving.
// Terminals report no key release, so auto-repeat renews the hold.
const DefaultHoldTime = 120 * time.Millisecond

// Dispatcher receives client commands. *multiplayer.Manager satisfies it.
type Dispatcher interface {
	Send(msg multiplayer.ManagerMessage)
}

// Options configures a terminal client.
type Options struct {
	PlayerName string        // Shown on the scoreboard
	Difficulty string        // AI difficulty joined at start when AutoJoin is set
	AutoJoin   bool          // Join an AI match immediately
	HoldTime   time.Duration // Paddle hold per key press
}

type phase int

const (
	phaseLobby   phase = iota // Choosing an opponent
	phaseWaiting              // Parked in the pvp waiting slot
	phasePlaying              // In a running match
	phaseEnded                // Match over, showing the result
)

// sessionClosedMsg is sent when the session handle is closed.
type sessionClosedMsg struct{}

// Model is the Bubble Tea model of one terminal player.
type Model struct {
	manager Dispatcher
	session *multiplayer.ChannelSession
	opts    Options
	keys    KeyMap
	help    help.Model
	width   int
	height  int

	phase      phase
	gameType   multiplayer.GameType
	difficulty string
	matchID    multiplayer.MatchID
	slot       core.PlayerSlot
	opponent   string
	snapshot   core.GameState
	hasState   bool
	ended      multiplayer.GameEndedEvent
	errMsg     string
	quitting   bool
}

// NewModel creates a client model bound to a registered session.
func NewModel(manager Dispatcher, session *multiplayer.ChannelSession, opts Options) Model {
	if opts.HoldTime <= 0 {
		opts.HoldTime = DefaultHoldTime
	}
	if opts.PlayerName == "" {
		opts.PlayerName = session.UserID()
	}
	return Model{
		manager:    manager,
		session:    session,
		opts:       opts,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		width:      80,
		height:     24,
		difficulty: opts.Difficulty,
	}
}

// Attach creates and registers a channel session for a terminal player.
// The returned cleanup leaves any match and unregisters the session.
func Attach(manager Dispatcher, sessions *multiplayer.SessionRegistry, userID string) (*multiplayer.ChannelSession, func()) {
	session := multiplayer.NewChannelSession(multiplayer.SessionID(uuid.NewString()), userID, 256)
	sessions.Register(session)
	return session, func() {
		sessions.Unregister(session.ID())
		manager.Send(multiplayer.SessionDisconnectedMsg{SessionID: session.ID()})
		session.Close()
	}
}

// Init starts listening for manager events.
func (m Model) Init() tea.Cmd {
	if m.opts.AutoJoin {
		m.join(multiplayer.GameTypeAI, m.difficulty)
	}
	return m.waitForEvent()
}

// waitForEvent returns a command that waits for the next session event.
func (m Model) waitForEvent() tea.Cmd {
	events, done := m.session.Events(), m.session.Done()
	return func() tea.Msg {
		select {
		case evt := <-events:
			return evt
		case <-done:
			return sessionClosedMsg{}
		}
	}
}

func (m *Model) join(gameType multiplayer.GameType, difficulty string) {
	m.gameType = gameType
	m.difficulty = difficulty
	m.errMsg = ""
	m.manager.Send(multiplayer.JoinGameMsg{
		SessionID:  m.session.ID(),
		GameType:   string(gameType),
		Difficulty: difficulty,
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case multiplayer.GameJoinedEvent:
		m.phase = phasePlaying
		m.matchID = msg.MatchID
		m.gameType = msg.GameType
		m.slot = msg.Slot
		m.opponent = msg.OpponentID
		m.hasState = false
		m.errMsg = ""
		return m, m.waitForEvent()

	case multiplayer.WaitingEvent:
		m.phase = phaseWaiting
		return m, m.waitForEvent()

	case multiplayer.GameStateUpdateEvent:
		if msg.MatchID == m.matchID {
			m.snapshot = msg.State
			m.hasState = true
		}
		return m, m.waitForEvent()

	case multiplayer.GameEndedEvent:
		if msg.MatchID == m.matchID {
			m.phase = phaseEnded
			m.ended = msg
		}
		return m, m.waitForEvent()

	case multiplayer.DifficultyChangedEvent:
		if msg.MatchID == m.matchID {
			m.difficulty = msg.Difficulty
		}
		return m, m.waitForEvent()

	case multiplayer.ErrorEvent:
		m.errMsg = msg.Message
		if m.phase == phaseWaiting {
			m.phase = phaseLobby
		}
		return m, m.waitForEvent()

	case sessionClosedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" || (m.phase != phasePlaying && msg.String() == "q") {
		if m.phase == phasePlaying || m.phase == phaseWaiting {
			m.manager.Send(multiplayer.LeaveGameMsg{SessionID: m.session.ID()})
		}
		m.quitting = true
		return m, tea.Quit
	}

	switch m.phase {
	case phaseLobby:
		if d, ok := m.keys.Difficulty(msg); ok {
			m.join(multiplayer.GameTypeAI, d)
		} else if msg.String() == "p" {
			m.join(multiplayer.GameTypePvP, "")
		}

	case phaseWaiting:
		if msg.String() == "esc" || msg.String() == "b" {
			m.manager.Send(multiplayer.LeaveGameMsg{SessionID: m.session.ID()})
			m.phase = phaseLobby
		}

	case phasePlaying:
		if action, ok := m.keys.Direction(msg); ok {
			m.manager.Send(multiplayer.PaddleMoveMsg{
				SessionID: m.session.ID(),
				Direction: action,
				Intensity: 1,
				Duration:  m.opts.HoldTime,
			})
		} else if d, ok := m.keys.Difficulty(msg); ok && m.gameType == multiplayer.GameTypeAI {
			m.manager.Send(multiplayer.SetDifficultyMsg{SessionID: m.session.ID(), Difficulty: d})
		} else if msg.String() == "esc" || msg.String() == "q" {
			// The match ends through the GameEndedEvent that follows.
			m.manager.Send(multiplayer.LeaveGameMsg{SessionID: m.session.ID()})
		}

	case phaseEnded:
		switch msg.String() {
		case "r", "enter":
			m.join(m.gameType, m.difficulty)
		case "esc", "b":
			m.phase = phaseLobby
		}
	}
	return m, nil
}

// View renders the current phase.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.phase {
	case phaseLobby:
		body = m.lobbyView()
	case phaseWaiting:
		body = lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render("PONG"),
			"",
			"Waiting for an opponent...",
			dimStyle.Render("esc to cancel"),
		)
		body = lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	default:
		body = m.matchView()
	}

	if m.errMsg != "" {
		body += "\n" + errorStyle.Render("! "+m.errMsg)
	}
	return body
}

func (m Model) lobbyView() string {
	lines := []string{
		titleStyle.Render("PONG"),
		"",
		"Choose your opponent",
		"",
		m.help.ShortHelpView(m.keys.lobbyHelp()),
	}
	return lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m Model) matchView() string {
	fieldW := max(10, m.width-2)
	fieldH := max(5, m.height-4)

	left, right := m.opts.PlayerName, m.opponent
	if m.gameType == multiplayer.GameTypeAI && m.difficulty != "" {
		right += " (" + m.difficulty + ")"
	}
	if m.slot == core.Player2 {
		left, right = right, left
	}
	header := scoreLine(left, right, m.snapshot.Score, m.width)

	var field string
	switch {
	case m.phase == phaseEnded:
		field = lipgloss.Place(fieldW, fieldH, lipgloss.Center, lipgloss.Center, m.resultBanner())
	case !m.hasState:
		field = lipgloss.Place(fieldW, fieldH, lipgloss.Center, lipgloss.Center, dimStyle.Render("starting..."))
	default:
		screen := core.NewScreen(fieldW, fieldH)
		DrawState(screen, m.snapshot)
		field = RenderScreen(screen)
	}

	footer := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.gameType == multiplayer.GameTypeAI {
		footer = m.help.ShortHelpView(m.keys.aiMatchHelp())
	}
	if m.phase == phaseEnded {
		footer = m.help.ShortHelpView(m.keys.endedHelp())
	}
	return strings.Join([]string{header, fieldBorder.Render(field), footer}, "\n")
}

func (m Model) resultBanner() string {
	var title string
	switch m.ended.Winner {
	case m.slot:
		title = "YOU WIN!"
	case core.NoPlayer:
		title = "MATCH CANCELLED"
	default:
		title = "YOU LOSE"
	}
	if m.ended.Reason == multiplayer.EndReasonDisconnect && m.ended.Winner == m.slot {
		title += " (opponent left)"
	}
	score := fmt.Sprintf("%d - %d", m.ended.FinalScore.Player1, m.ended.FinalScore.Player2)
	return bannerStyle.Render(lipgloss.JoinVertical(lipgloss.Center, title, score))
}

// InMatch reports whether a match is running.
func (m Model) InMatch() bool {
	return m.phase == phasePlaying
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}
