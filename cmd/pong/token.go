package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/transport/ws"
)

var (
	flagTokenID  string
	flagUsername string
	flagTokenTTL time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a client JWT signed with the server secret",
	Long: `Print an HS256 token that the server accepts on /ws.

The secret comes from server.jwt_secret or PONG_JWT_SECRET.

Examples:
  pong token --username alice
  pong token --id 42 --username bob --ttl 1h`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&flagTokenID, "id", "", "Player id claim (default: random UUID)")
	tokenCmd.Flags().StringVar(&flagUsername, "username", "", "Username claim")
	tokenCmd.Flags().DurationVar(&flagTokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}

func runToken(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	id := flagTokenID
	if id == "" {
		id = uuid.NewString()
	}

	token, err := ws.NewAuthenticator(cfg.Server.JWTSecret).Issue(id, flagUsername, flagTokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
