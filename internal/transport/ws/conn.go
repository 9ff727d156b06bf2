package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/multiplayer"
)

// Conn is a WebSocket client bound to a verified player identity.
// It implements multiplayer.SessionHandle.
type Conn struct {
	ws           *websocket.Conn
	id           multiplayer.SessionID
	userID       string
	sendCh       chan []byte
	done         chan struct{}
	once         sync.Once
	writeTimeout time.Duration
	logger       *log.Logger
}

// NewConn wraps an accepted WebSocket. sendBuffer bounds the frames queued
// for a slow client; the oldest frame is dropped when it is full.
func NewConn(ws *websocket.Conn, id multiplayer.SessionID, userID string, sendBuffer int, writeTimeout time.Duration, logger *log.Logger) *Conn {
	if sendBuffer < 1 {
		sendBuffer = 64
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Conn{
		ws:           ws,
		id:           id,
		userID:       userID,
		sendCh:       make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// ID returns the session identifier.
func (c *Conn) ID() multiplayer.SessionID {
	return c.id
}

// UserID returns the player identity from the token.
func (c *Conn) UserID() string {
	return c.userID
}

// Send encodes the event and queues it for the write loop. It never blocks.
func (c *Conn) Send(evt multiplayer.SessionEvent) {
	data, err := Encode(evt)
	if err != nil {
		c.logger.Error("encode event", "err", err)
		return
	}
	c.enqueue(data)
}

func (c *Conn) enqueue(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.sendCh <- data:
	default:
		// Full: drop the oldest frame, a newer snapshot supersedes it.
		select {
		case <-c.sendCh:
		default:
		}
		select {
		case c.sendCh <- data:
		default:
			c.logger.Warn("send buffer full, dropping frame")
		}
	}
}

// ReadLoop reads frames until the connection fails or ctx ends, handing
// each one to handle.
func (c *Conn) ReadLoop(ctx context.Context, handle func([]byte)) {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				c.logger.Debug("read error", "err", err)
			}
			c.Close()
			return
		}
		handle(data)
	}
}

// WriteLoop writes queued frames until the connection closes.
func (c *Conn) WriteLoop(ctx context.Context) {
	for {
		select {
		case data := <-c.sendCh:
			wctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
			err := c.ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.logger.Debug("write error", "err", err)
				c.Close()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the connection. Safe to call multiple times.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close(websocket.StatusNormalClosure, "")
	})
}

// Done returns a channel closed when the connection ends.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

var _ multiplayer.SessionHandle = (*Conn)(nil)
