package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/multiplayer"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/physics"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/platform/tui"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/storage"
)

var (
	flagDifficulty string
	flagName       string
	flagNoRecord   bool
	flagLogFile    string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play against the AI in this terminal",
	Long: `Start a local match against the computer opponent.

Controls:
  W/Up     - Move paddle up
  S/Down   - Move paddle down
  1/2/3    - Switch to easy/medium/hard
  Esc      - Leave the match
  R        - Play again (after a match)
  Q/Ctrl+C - Quit

Difficulty options:
  easy, medium, hard (default: config ai.default_difficulty)

Examples:
  pong play
  pong play --difficulty hard
  pong play --name alice --no-record`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "AI difficulty: easy, medium, hard")
	playCmd.Flags().StringVar(&flagName, "name", "", "Player name (default: $USER)")
	playCmd.Flags().BoolVar(&flagNoRecord, "no-record", false, "Do not store the result")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file while playing")
}

func runPlay(_ *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("play needs an interactive terminal")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagDifficulty != "" {
		cfg.AI.DefaultDifficulty = flagDifficulty
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// The alt screen owns stdout, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, cfg.Log)

	sessions := multiplayer.NewSessionRegistry()
	manager := multiplayer.NewManager(cfg.ManagerConfig(), physics.NewEngine(cfg.Physics), sessions, logger.WithPrefix("match"))

	if !flagNoRecord {
		store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			// Playing offline is still possible; the result is just lost.
			logger.Warn("storage unavailable, results will not be recorded", "err", err)
		} else {
			defer store.Close()
			manager.SetResultRecorder(store)
		}
	}
	manager.Start()
	defer manager.Stop()

	name := flagName
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "player"
	}

	session, cleanup := tui.Attach(manager, sessions, name)
	defer cleanup()

	model := tui.NewModel(manager, session, tui.Options{
		PlayerName: name,
		Difficulty: cfg.AI.DefaultDifficulty,
		AutoJoin:   true,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal client: %w", err)
	}
	return nil
}
