package config

import (
	_ "embed"
	"time"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/ai"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/physics"
)

//go:embed defaults/pong.yaml
var defaultPongYAML []byte

// Default returns the hardcoded configuration. The embedded YAML carries the
// same values and is what Load normally falls back to.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			SSHAddr:      "",
			SSHHostKey:   "~/.pong/ssh_host_ed25519",
			ReadLimit:    4096,
			WriteTimeout: 5 * time.Second,
			SendBuffer:   128,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "~/.pong/pong.db",
		},
		Match: MatchConfig{
			CanvasWidth:      800,
			CanvasHeight:     600,
			TickRate:         60,
			WinScore:         5,
			PaddleWidth:      10,
			PaddleHeight:     100,
			PaddleOffset:     20,
			PaddleSpeed:      8,
			BallRadius:       8,
			InitialBallSpeed: 5,
			InputBufferCap:   100,
			InputHistory:     32,
			WaitingTimeout:   2 * time.Minute,
		},
		Physics: physics.DefaultConfig(),
		AI: AIConfig{
			DefaultDifficulty: ai.DifficultyMedium,
			DecisionInterval:  ai.DefaultDecisionInterval,
			DeadZone:          ai.DefaultDeadZone,
			ErrorRange:        ai.DefaultErrorRange,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
