package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/ai"
)

// Load loads the configuration. Values missing from a file keep their
// defaults.
// Search order: customPath -> ~/.pong/config.yaml -> ./configs/pong.yaml -> embedded default
func Load(customPath string) (Config, error) {
	cfg := Default()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = Default()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/pong.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = Default()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultPongYAML, &cfg); err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pong", filename)
}

// ApplyEnv loads envFile (if it exists; empty means ".env") into the process
// environment without overriding variables already set, then applies the
// PONG_* overrides to cfg.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	strs := map[string]*string{
		"PONG_ADDR":          &cfg.Server.Addr,
		"PONG_SSH_ADDR":      &cfg.Server.SSHAddr,
		"PONG_SSH_HOST_KEY":  &cfg.Server.SSHHostKey,
		"PONG_JWT_SECRET":    &cfg.Server.JWTSecret,
		"PONG_DB_DRIVER":     &cfg.Storage.Driver,
		"PONG_DB_DSN":        &cfg.Storage.DSN,
		"PONG_AI_DIFFICULTY": &cfg.AI.DefaultDifficulty,
		"PONG_LOG_LEVEL":     &cfg.Log.Level,
		"PONG_LOG_FORMAT":    &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PONG_TICK_RATE": &cfg.Match.TickRate,
		"PONG_WIN_SCORE": &cfg.Match.WinScore,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", key, v, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("PONG_ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects configurations no match could run with.
func (c Config) Validate() error {
	var errs []error
	m := c.Match

	if m.CanvasWidth <= 0 || m.CanvasHeight <= 0 {
		errs = append(errs, fmt.Errorf("match: canvas must be positive, got %vx%v", m.CanvasWidth, m.CanvasHeight))
	}
	if m.TickRate <= 0 || m.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("match: tick_rate must be in (0, 1000], got %d", m.TickRate))
	}
	if m.WinScore <= 0 {
		errs = append(errs, fmt.Errorf("match: win_score must be positive, got %d", m.WinScore))
	}
	if m.PaddleHeight <= 0 || m.PaddleHeight >= m.CanvasHeight {
		errs = append(errs, fmt.Errorf("match: paddle_height must be in (0, canvas_height), got %v", m.PaddleHeight))
	}
	if m.PaddleWidth <= 0 || 2*(m.PaddleOffset+m.PaddleWidth) >= m.CanvasWidth {
		errs = append(errs, fmt.Errorf("match: paddles do not fit the canvas"))
	}
	if m.PaddleSpeed <= 0 || m.BallRadius <= 0 || m.InitialBallSpeed <= 0 {
		errs = append(errs, fmt.Errorf("match: paddle_speed, ball_radius and initial_ball_speed must be positive"))
	}

	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage: unknown driver %q", c.Storage.Driver))
	}

	if _, err := ai.LookupProfile(c.AI.ProfileSet(), c.AI.DefaultDifficulty); err != nil {
		errs = append(errs, fmt.Errorf("ai: default_difficulty: %w", err))
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	switch c.Log.Format {
	case "", "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
