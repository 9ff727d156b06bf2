// Package config provides YAML-based configuration loading for the Pong
// server: match geometry, physics tunables, AI profiles, storage and logging.
package config

import (
	"time"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/ai"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/multiplayer"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/physics"
)

// Config is the whole process configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Storage StorageConfig  `yaml:"storage"`
	Match   MatchConfig    `yaml:"match"`
	Physics physics.Config `yaml:"physics"`
	AI      AIConfig       `yaml:"ai"`
	Log     LogConfig      `yaml:"log"`
}

// ServerConfig defines the network surfaces.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`            // HTTP/WebSocket listen address
	SSHAddr        string        `yaml:"ssh_addr"`        // SSH play surface, empty disables
	SSHHostKey     string        `yaml:"ssh_host_key"`    // Host key path, generated if missing
	JWTSecret      string        `yaml:"jwt_secret"`      // HS256 secret; empty allows guests
	AllowedOrigins []string      `yaml:"allowed_origins"` // WebSocket origin patterns
	ReadLimit      int64         `yaml:"read_limit"`      // Max inbound frame size in bytes
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	SendBuffer     int           `yaml:"send_buffer"` // Outbound frames queued per connection
}

// StorageConfig selects the result store.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // File path for sqlite, connection string for postgres
}

// MatchConfig defines per-match parameters.
type MatchConfig struct {
	CanvasWidth      float64       `yaml:"canvas_width"`
	CanvasHeight     float64       `yaml:"canvas_height"`
	TickRate         int           `yaml:"tick_rate"`
	WinScore         int           `yaml:"win_score"`
	PaddleWidth      float64       `yaml:"paddle_width"`
	PaddleHeight     float64       `yaml:"paddle_height"`
	PaddleOffset     float64       `yaml:"paddle_offset"`
	PaddleSpeed      float64       `yaml:"paddle_speed"`
	BallRadius       float64       `yaml:"ball_radius"`
	InitialBallSpeed float64       `yaml:"initial_ball_speed"`
	InputBufferCap   int           `yaml:"input_buffer_cap"`
	InputHistory     int           `yaml:"input_history"`
	WaitingTimeout   time.Duration `yaml:"waiting_timeout"`
}

// AIConfig defines the computer opponent.
type AIConfig struct {
	DefaultDifficulty string                `yaml:"default_difficulty"`
	DecisionInterval  time.Duration         `yaml:"decision_interval"`
	DeadZone          float64               `yaml:"dead_zone"`
	ErrorRange        float64               `yaml:"error_range"`
	Profiles          map[string]ai.Profile `yaml:"profiles"` // Overrides merged over the built-ins
}

// LogConfig defines logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json or logfmt
}

// Core converts the match section into the synchronizer's parameters.
func (m MatchConfig) Core() core.MatchConfig {
	return core.MatchConfig{
		CanvasWidth:      m.CanvasWidth,
		CanvasHeight:     m.CanvasHeight,
		TickRate:         m.TickRate,
		WinScore:         m.WinScore,
		PaddleWidth:      m.PaddleWidth,
		PaddleHeight:     m.PaddleHeight,
		PaddleOffset:     m.PaddleOffset,
		PaddleSpeed:      m.PaddleSpeed,
		BallRadius:       m.BallRadius,
		InitialBallSpeed: m.InitialBallSpeed,
		InputBufferCap:   m.InputBufferCap,
		InputHistory:     m.InputHistory,
	}
}

// ManagerConfig builds the match manager configuration.
func (c Config) ManagerConfig() multiplayer.ManagerConfig {
	mc := multiplayer.DefaultManagerConfig()
	mc.Match = c.Match.Core()
	mc.Profiles = c.AI.ProfileSet()
	mc.DefaultDifficulty = c.AI.DefaultDifficulty
	mc.DecisionInterval = c.AI.DecisionInterval
	mc.DeadZone = c.AI.DeadZone
	mc.ErrorRange = c.AI.ErrorRange
	mc.WaitingTimeout = c.Match.WaitingTimeout
	return mc
}
