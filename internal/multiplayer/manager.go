package multiplayer

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/ai"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/physics"
)

// AIPlayerID is the player id recorded for the computer opponent.
const AIPlayerID = "ai"

// ManagerConfig holds configuration for the manager.
type ManagerConfig struct {
	Match             core.MatchConfig
	Profiles          map[string]ai.Profile // nil uses ai.DefaultProfiles
	DefaultDifficulty string
	DecisionInterval  time.Duration // AI observation throttle
	DeadZone          float64       // AI dead zone in pixels
	ErrorRange        float64       // AI aiming error at accuracy 0
	WaitingTimeout    time.Duration // How long a pvp joiner waits for an opponent
	CleanupPeriod     time.Duration // How often the waiting slot is checked
	RecordTimeout     time.Duration // Deadline for one result write
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Match:             core.DefaultMatchConfig(),
		DefaultDifficulty: ai.DifficultyMedium,
		DecisionInterval:  ai.DefaultDecisionInterval,
		DeadZone:          ai.DefaultDeadZone,
		ErrorRange:        ai.DefaultErrorRange,
		WaitingTimeout:    2 * time.Minute,
		CleanupPeriod:     10 * time.Second,
		RecordTimeout:     5 * time.Second,
	}
}

// MatchResult is the outcome of a finished match handed to the recorder.
type MatchResult struct {
	MatchID   string
	GameType  string
	Player1ID string
	Player2ID string
	Score1    int
	Score2    int
	WinnerID  string // Empty when the match was cancelled
	EndReason string
	Duration  time.Duration
	EndedAt   time.Time
}

// ResultRecorder persists finished matches. A failure is logged and never
// affects the finished match.
type ResultRecorder interface {
	RecordMatchResult(ctx context.Context, result MatchResult) error
}

// match is one running game and its participants.
type match struct {
	id        MatchID
	gameType  GameType
	sync      *Synchronizer
	sessions  [2]SessionHandle // nil for the AI slot
	playerIDs [2]string
	ai        *ai.AI
	startedAt time.Time
}

func (m *match) slotOf(id SessionID) (PlayerSlot, bool) {
	for i, s := range m.sessions {
		if s != nil && s.ID() == id {
			return PlayerSlot(i + 1), true
		}
	}
	return core.NoPlayer, false
}

func (m *match) send(evt SessionEvent) {
	for _, s := range m.sessions {
		if s != nil {
			s.Send(evt)
		}
	}
}

// waiting is a pvp joiner parked until an opponent arrives.
type waiting struct {
	session SessionHandle
	since   time.Time
}

// Manager pairs sessions into matches, routes their input and reports
// results. All state changes happen on its message goroutine.
type Manager struct {
	config   ManagerConfig
	engine   *physics.Engine
	sessions *SessionRegistry
	recorder ResultRecorder // Optional, can be nil
	logger   *log.Logger

	mu           sync.RWMutex
	matches      map[MatchID]*match
	sessionMatch map[SessionID]MatchID
	waiting      *waiting

	msgChan  chan ManagerMessage
	done     chan struct{}
	stopOnce sync.Once
	records  sync.WaitGroup
}

// NewManager creates a new manager. The engine is shared by every match.
func NewManager(cfg ManagerConfig, engine *physics.Engine, sessions *SessionRegistry, logger *log.Logger) *Manager {
	if cfg.Profiles == nil {
		cfg.Profiles = ai.DefaultProfiles()
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = DefaultManagerConfig().CleanupPeriod
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = DefaultManagerConfig().RecordTimeout
	}
	if engine == nil {
		engine = physics.NewEngine(physics.DefaultConfig())
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Manager{
		config:       cfg,
		engine:       engine,
		sessions:     sessions,
		logger:       logger,
		matches:      make(map[MatchID]*match),
		sessionMatch: make(map[SessionID]MatchID),
		msgChan:      make(chan ManagerMessage, 256),
		done:         make(chan struct{}),
	}
}

// SetResultRecorder sets the optional result recorder. Call before Start.
func (m *Manager) SetResultRecorder(r ResultRecorder) {
	m.recorder = r
}

// Start begins the manager's background processing.
func (m *Manager) Start() {
	go m.processMessages()
	go m.cleanupLoop()
}

// Stop cancels all running matches, shuts down the message loop and waits
// for pending result writes.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)

		m.mu.Lock()
		for id, mt := range m.matches {
			m.endMatchLocked(mt, EndReasonCancelled, core.NoPlayer, nil)
			delete(m.matches, id)
		}
		m.waiting = nil
		m.mu.Unlock()

		m.records.Wait()
	})
}

// Send posts a message for async processing. It returns immediately once
// the manager has stopped.
func (m *Manager) Send(msg ManagerMessage) {
	select {
	case m.msgChan <- msg:
	case <-m.done:
	}
}

func (m *Manager) processMessages() {
	for {
		select {
		case msg := <-m.msgChan:
			m.handleMessage(msg)
		case <-m.done:
			return
		}
	}
}

func (m *Manager) handleMessage(msg ManagerMessage) {
	switch msg := msg.(type) {
	case JoinGameMsg:
		m.handleJoinGame(msg)
	case PaddleMoveMsg:
		m.handlePaddleMove(msg)
	case SetDifficultyMsg:
		m.handleSetDifficulty(msg)
	case LeaveGameMsg:
		m.handleLeave(msg.SessionID, "left")
	case SessionDisconnectedMsg:
		m.handleLeave(msg.SessionID, "disconnected")
	case matchEndedMsg:
		m.handleMatchEnded(msg)
	}
}

func (m *Manager) handleJoinGame(msg JoinGameMsg) {
	session, ok := m.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	gameType, err := ParseGameType(msg.GameType)
	if err != nil {
		session.Send(ErrorEvent{Message: err.Error()})
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busyLocked(msg.SessionID) {
		session.Send(ErrorEvent{Message: ErrAlreadyInMatch.Error()})
		return
	}

	switch gameType {
	case GameTypeAI:
		difficulty := msg.Difficulty
		if difficulty == "" {
			difficulty = m.config.DefaultDifficulty
		}
		profile, err := ai.LookupProfile(m.config.Profiles, difficulty)
		if err != nil {
			session.Send(ErrorEvent{Message: err.Error()})
			return
		}
		m.startAIMatchLocked(session, profile)

	case GameTypePvP:
		if m.waiting == nil {
			m.waiting = &waiting{session: session, since: time.Now()}
			session.Send(WaitingEvent{GameType: GameTypePvP})
			m.logger.Info("waiting for opponent", "session", session.ID(), "user", session.UserID())
			return
		}
		host := m.waiting.session
		m.waiting = nil
		m.startPvPMatchLocked(host, session)
	}
}

func (m *Manager) busyLocked(id SessionID) bool {
	if _, inMatch := m.sessionMatch[id]; inMatch {
		return true
	}
	return m.waiting != nil && m.waiting.session.ID() == id
}

func (m *Manager) newMatchLocked(gameType GameType, p1, p2 SessionHandle, p1ID, p2ID string) *match {
	id := MatchID(uuid.NewString())
	mt := &match{
		id:        id,
		gameType:  gameType,
		sessions:  [2]SessionHandle{p1, p2},
		playerIDs: [2]string{p1ID, p2ID},
		startedAt: time.Now(),
	}
	mt.sync = NewSynchronizer(SyncOptions{
		MatchID:   id,
		Player1ID: p1ID,
		Player2ID: p2ID,
		Match:     m.config.Match,
		Engine:    m.engine,
		Logger:    m.logger,
		OnEnd: func(final core.GameState) {
			m.Send(matchEndedMsg{MatchID: id, Final: final})
		},
	})

	m.matches[id] = mt
	for _, s := range mt.sessions {
		if s != nil {
			m.sessionMatch[s.ID()] = id
		}
	}
	return mt
}

func (m *Manager) startAIMatchLocked(session SessionHandle, profile ai.Profile) {
	mt := m.newMatchLocked(GameTypeAI, session, nil, session.UserID(), AIPlayerID)

	opponent := ai.New(ai.Options{
		Slot:             Player2,
		Profile:          profile,
		DecisionInterval: m.config.DecisionInterval,
		DeadZone:         m.config.DeadZone,
		ErrorRange:       m.config.ErrorRange,
		PaddleSpeed:      m.config.Match.PaddleSpeed,
		TickRate:         m.config.Match.TickRate,
		Logger:           m.logger.With("match", mt.id),
	}, func(in core.PlayerInput) {
		mt.sync.AddInput(Player2, in)
	})
	mt.ai = opponent
	opponent.Activate()

	session.Send(GameJoinedEvent{
		MatchID:    mt.id,
		GameType:   GameTypeAI,
		Slot:       Player1,
		OpponentID: AIPlayerID,
	})
	m.logger.Info("match started", "match", mt.id, "type", GameTypeAI, "player1", session.UserID(), "difficulty", profile.Name)

	mt.sync.StartSync(func(snap core.GameState) {
		session.Send(GameStateUpdateEvent{MatchID: mt.id, State: snap})
		opponent.Observe(snap)
	})
}

func (m *Manager) startPvPMatchLocked(host, joiner SessionHandle) {
	mt := m.newMatchLocked(GameTypePvP, host, joiner, host.UserID(), joiner.UserID())

	host.Send(GameJoinedEvent{MatchID: mt.id, GameType: GameTypePvP, Slot: Player1, OpponentID: joiner.UserID()})
	joiner.Send(GameJoinedEvent{MatchID: mt.id, GameType: GameTypePvP, Slot: Player2, OpponentID: host.UserID()})
	m.logger.Info("match started", "match", mt.id, "type", GameTypePvP, "player1", host.UserID(), "player2", joiner.UserID())

	mt.sync.StartSync(func(snap core.GameState) {
		mt.send(GameStateUpdateEvent{MatchID: mt.id, State: snap})
	})
}

func (m *Manager) handlePaddleMove(msg PaddleMoveMsg) {
	m.mu.RLock()
	var (
		mt   *match
		slot PlayerSlot
	)
	if id, ok := m.sessionMatch[msg.SessionID]; ok {
		mt = m.matches[id]
	}
	if mt != nil {
		slot, _ = mt.slotOf(msg.SessionID)
	}
	m.mu.RUnlock()

	if mt == nil {
		if session, ok := m.sessions.Get(msg.SessionID); ok {
			session.Send(ErrorEvent{Message: ErrNotInMatch.Error()})
		}
		return
	}

	if msg.Y != nil {
		mt.sync.UpdatePaddlePosition(slot, *msg.Y)
		return
	}
	in := core.NewHumanInput(msg.Direction, msg.Intensity)
	in.Duration = msg.Duration
	mt.sync.AddInput(slot, in)
}

func (m *Manager) handleSetDifficulty(msg SetDifficultyMsg) {
	session, ok := m.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	m.mu.RLock()
	var mt *match
	if id, ok := m.sessionMatch[msg.SessionID]; ok {
		mt = m.matches[id]
	}
	m.mu.RUnlock()

	switch {
	case mt == nil:
		session.Send(ErrorEvent{Message: ErrNotInMatch.Error()})
		return
	case mt.ai == nil:
		session.Send(ErrorEvent{Message: ErrNotAIMatch.Error()})
		return
	}

	profile, err := ai.LookupProfile(m.config.Profiles, msg.Difficulty)
	if err != nil {
		session.Send(ErrorEvent{Message: err.Error()})
		return
	}
	mt.ai.SetDifficulty(profile)
	session.Send(DifficultyChangedEvent{MatchID: mt.id, Difficulty: profile.Name})
	m.logger.Info("difficulty changed", "match", mt.id, "difficulty", profile.Name)
}

// handleLeave removes a session from the waiting slot or ends its match with
// the opponent winning by forfeit.
func (m *Manager) handleLeave(id SessionID, why string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiting != nil && m.waiting.session.ID() == id {
		m.waiting = nil
		m.logger.Info("left waiting slot", "session", id, "reason", why)
		return
	}

	matchID, ok := m.sessionMatch[id]
	if !ok {
		return
	}
	mt, ok := m.matches[matchID]
	if !ok {
		delete(m.sessionMatch, id)
		return
	}

	slot, _ := mt.slotOf(id)
	m.logger.Info("player left match", "match", mt.id, "slot", slot, "reason", why)
	final, ok := mt.sync.Forfeit(slot.Opponent())
	if !ok {
		// Already decided on the board; the pending matchEndedMsg reports it.
		return
	}
	m.endMatchLocked(mt, EndReasonDisconnect, slot.Opponent(), &final)
	delete(m.matches, mt.id)
}

func (m *Manager) handleMatchEnded(msg matchEndedMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mt, ok := m.matches[msg.MatchID]
	if !ok {
		return
	}
	m.endMatchLocked(mt, EndReasonCompleted, msg.Final.Winner, &msg.Final)
	delete(m.matches, mt.id)
}

// endMatchLocked stops the match, notifies the participants and records the
// result. final nil means the current snapshot is used.
func (m *Manager) endMatchLocked(mt *match, reason EndReason, winner PlayerSlot, final *core.GameState) {
	mt.sync.StopSync()
	if mt.ai != nil {
		mt.ai.Deactivate()
	}

	state := mt.sync.Snapshot()
	if final != nil {
		state = *final
	}

	for _, s := range mt.sessions {
		if s != nil {
			delete(m.sessionMatch, s.ID())
		}
	}

	winnerID := ""
	if winner.Valid() {
		winnerID = mt.playerIDs[winner-1]
	}
	mt.send(GameEndedEvent{
		MatchID:    mt.id,
		Reason:     reason,
		Winner:     winner,
		WinnerID:   winnerID,
		FinalScore: state.Score,
	})

	m.logger.Info("match ended",
		"match", mt.id,
		"reason", reason,
		"winner", winnerID,
		"score1", state.Score.Player1,
		"score2", state.Score.Player2)

	if m.recorder == nil {
		return
	}
	now := time.Now()
	result := MatchResult{
		MatchID:   string(mt.id),
		GameType:  string(mt.gameType),
		Player1ID: mt.playerIDs[0],
		Player2ID: mt.playerIDs[1],
		Score1:    state.Score.Player1,
		Score2:    state.Score.Player2,
		WinnerID:  winnerID,
		EndReason: reason.String(),
		Duration:  now.Sub(mt.startedAt),
		EndedAt:   now,
	}
	m.records.Add(1)
	go func() {
		defer m.records.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.config.RecordTimeout)
		defer cancel()
		if err := m.recorder.RecordMatchResult(ctx, result); err != nil {
			m.logger.Error("record match result", "match", result.MatchID, "err", err)
		}
	}()
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(m.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.expireWaiting(time.Now())
		case <-m.done:
			return
		}
	}
}

func (m *Manager) expireWaiting(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiting == nil || m.config.WaitingTimeout <= 0 {
		return
	}
	if now.Sub(m.waiting.since) > m.config.WaitingTimeout {
		m.waiting.session.Send(ErrorEvent{Message: ErrNoOpponent.Error()})
		m.logger.Info("waiting slot expired", "session", m.waiting.session.ID())
		m.waiting = nil
	}
}

// SessionMatch returns the match a session is playing in.
func (m *Manager) SessionMatch(id SessionID) (MatchID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matchID, ok := m.sessionMatch[id]
	return matchID, ok
}

// MatchSnapshot returns the latest snapshot of a running match.
func (m *Manager) MatchSnapshot(id MatchID) (core.GameState, bool) {
	m.mu.RLock()
	mt, ok := m.matches[id]
	m.mu.RUnlock()
	if !ok {
		return core.GameState{}, false
	}
	return mt.sync.Snapshot(), true
}

// IsWaiting reports whether a session holds the pvp waiting slot.
func (m *Manager) IsWaiting(id SessionID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.waiting != nil && m.waiting.session.ID() == id
}

// MatchCount returns the number of running matches.
func (m *Manager) MatchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matches)
}
