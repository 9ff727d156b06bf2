package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/multiplayer"
	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/storage"
)

// Dispatcher receives decoded client commands. *multiplayer.Manager
// satisfies it.
type Dispatcher interface {
	Send(msg multiplayer.ManagerMessage)
	MatchCount() int
}

// MatchStore serves the read-only history API. *storage.Store satisfies it.
type MatchStore interface {
	MatchByID(ctx context.Context, matchID string) (*storage.MatchRecord, error)
	RecentMatches(ctx context.Context, limit int) ([]storage.MatchRecord, error)
	PlayerMatchHistory(ctx context.Context, playerID string, limit int) ([]storage.MatchRecord, error)
	PlayerStats(ctx context.Context, playerID string) (*storage.PlayerStats, error)
}

// Options tunes the WebSocket endpoint.
type Options struct {
	AllowedOrigins []string      // Origin patterns accepted besides same-host
	ReadLimit      int64         // Max inbound frame size in bytes
	WriteTimeout   time.Duration // Per-frame write deadline
	SendBuffer     int           // Outbound frames queued per connection
}

// Handler serves the WebSocket endpoint and the match history API.
type Handler struct {
	manager  Dispatcher
	sessions *multiplayer.SessionRegistry
	auth     *Authenticator
	store    MatchStore // Optional, can be nil
	opts     Options
	logger   *log.Logger
}

// NewHandler creates the transport handler.
func NewHandler(manager Dispatcher, sessions *multiplayer.SessionRegistry, auth *Authenticator, store MatchStore, opts Options, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if auth == nil {
		auth = NewAuthenticator("")
	}
	return &Handler{
		manager:  manager,
		sessions: sessions,
		auth:     auth,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
}

// Router builds the HTTP routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", h.ServeWS)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/matches", h.recentMatches).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}", h.matchByID).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/matches", h.playerMatches).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/stats", h.playerStats).Methods(http.MethodGet)
	return r
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ident, err := h.auth.Identify(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.AllowedOrigins,
	})
	if err != nil {
		h.logger.Warn("ws accept", "err", err)
		return
	}
	if h.opts.ReadLimit > 0 {
		wsConn.SetReadLimit(h.opts.ReadLimit)
	}

	sid := multiplayer.SessionID(uuid.NewString())
	logger := h.logger.With("session", sid, "player", ident.ID)
	conn := NewConn(wsConn, sid, ident.ID, h.opts.SendBuffer, h.opts.WriteTimeout, logger)

	h.sessions.Register(conn)
	logger.Info("connected", "guest", ident.Guest, "open_sessions", len(h.sessions.ByUser(ident.ID)))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go conn.WriteLoop(ctx)

	conn.ReadLoop(ctx, func(data []byte) {
		msg, err := Decode(data, sid)
		if err != nil {
			conn.enqueue(errorFrameFor(err))
			return
		}
		h.manager.Send(msg)
	})

	h.sessions.Unregister(sid)
	h.manager.Send(multiplayer.SessionDisconnectedMsg{SessionID: sid})
	conn.Close()
	logger.Info("disconnected")
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Count(),
		"matches":  h.manager.MatchCount(),
	})
}

// matchView is the API rendering of a stored match.
type matchView struct {
	storage.MatchRecord
	DurationMS int64 `json:"duration_ms"`
}

func viewsOf(records []storage.MatchRecord) []matchView {
	views := make([]matchView, 0, len(records))
	for _, rec := range records {
		views = append(views, matchView{MatchRecord: rec, DurationMS: rec.Duration.Milliseconds()})
	}
	return views
}

func (h *Handler) recentMatches(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	records, err := h.store.RecentMatches(r.Context(), limitParam(r))
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(records))
}

func (h *Handler) matchByID(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	rec, err := h.store.MatchByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.serverError(w, err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, errorFrame{Type: MsgError, Error: "match not found"})
		return
	}
	writeJSON(w, http.StatusOK, matchView{MatchRecord: *rec, DurationMS: rec.Duration.Milliseconds()})
}

func (h *Handler) playerMatches(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	records, err := h.store.PlayerMatchHistory(r.Context(), mux.Vars(r)["id"], limitParam(r))
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(records))
}

func (h *Handler) playerStats(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	stats, err := h.store.PlayerStats(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorFrame{Type: MsgError, Error: "match history disabled"})
		return false
	}
	return true
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	h.logger.Error("history query", "err", err)
	writeJSON(w, http.StatusInternalServerError, errorFrame{Type: MsgError, Error: "internal error"})
}

// limitParam reads ?limit=, capped at 100. Zero lets the store pick.
func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return min(n, 100)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
