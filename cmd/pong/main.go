// pong is a real-time Pong server with a terminal client.
//
// Usage:
//
//	pong serve               - Start the WebSocket/HTTP server (and optional SSH surface)
//	pong play                - Play against the AI in this terminal
//	pong matches             - Show recorded match results
//	pong token               - Issue a client JWT
//
// Global flags:
//
//	--config <path>     - Config file (default: ~/.pong/config.yaml, then embedded defaults)
//	--env-file <path>   - Dotenv file with PONG_* overrides (default: .env)
//	--db <dsn>          - Override the storage DSN
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagEnvFile  string
	flagDB       string
	flagLogLevel string
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pong",
	Short: "Real-time Pong server and terminal client",
	Long: `Pong runs authoritative server-side Pong matches: players join over
WebSocket (or SSH), the server simulates the ball at a fixed tick rate and
broadcasts snapshots, and finished matches are recorded.

Available commands:
  serve    - Start the match server
  play     - Play against the AI locally
  matches  - Show match history and player stats
  token    - Issue a client token

Examples:
  pong serve
  pong serve --ssh :23234
  pong play --difficulty hard
  pong matches --player alice`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Path to dotenv file (default: .env)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Storage DSN (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(tokenCmd)
}

// loadConfig resolves the config file, environment and flags, in that order.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg, flagEnvFile); err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.Storage.DSN = flagDB
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *log.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "pong",
		Level:           level,
		Formatter:       formatter,
	})
}
