package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/multiplayer"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/physics"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/platform/tui"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/storage"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/transport/ws"
)

var (
	flagAddr        string
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Pong match server",
	Long: `Start the HTTP server that accepts WebSocket players on /ws and serves
match history under /api.

Clients authenticate with a JWT (?token= or Authorization: Bearer) signed
with the configured secret. Without a secret every connection is a guest.

When an SSH address is set, players can also connect with any SSH client
and play in the terminal against the same match manager.

Examples:
  pong serve                        # Listen on :8080
  pong serve --addr :9000
  pong serve --ssh :23234           # Also serve the terminal client over SSH
  pong serve --db ./pong.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH listen address, empty disables (overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to SSH host key file (auto-generated if missing)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "SSH idle timeout in minutes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagSSHAddr != "" {
		cfg.Server.SSHAddr = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.Server.SSHHostKey = flagHostKey
	}

	logger := newLogger(os.Stderr, cfg.Log)

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("storage ready", "driver", cfg.Storage.Driver)

	sessions := multiplayer.NewSessionRegistry()
	manager := multiplayer.NewManager(cfg.ManagerConfig(), physics.NewEngine(cfg.Physics), sessions, logger.WithPrefix("match"))
	manager.SetResultRecorder(store)
	manager.Start()
	// Stop before the deferred store.Close so cancelled matches are recorded.
	defer manager.Stop()

	auth := ws.NewAuthenticator(cfg.Server.JWTSecret)
	if auth.GuestMode() {
		logger.Warn("no jwt secret configured, every connection joins as a guest")
	}

	handler := ws.NewHandler(manager, sessions, auth, store, ws.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadLimit:      cfg.Server.ReadLimit,
		WriteTimeout:   cfg.Server.WriteTimeout,
		SendBuffer:     cfg.Server.SendBuffer,
	}, logger.WithPrefix("ws"))

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var sshServer *tui.SSHServer
	if cfg.Server.SSHAddr != "" {
		sshServer, err = tui.NewSSHServer(tui.SSHServerConfig{
			Address:     cfg.Server.SSHAddr,
			HostKeyPath: cfg.Server.SSHHostKey,
			Difficulty:  cfg.AI.DefaultDifficulty,
			IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		}, manager, sessions, logger.WithPrefix("ssh"))
		if err != nil {
			return err
		}
		go func() {
			if err := sshServer.ListenAndServe(); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server failed", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("http shutdown", "err", shutdownErr)
	}
	if sshServer != nil {
		if shutdownErr := sshServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("ssh shutdown", "err", shutdownErr)
		}
	}
	return err
}
