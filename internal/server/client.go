package server

import (
	"log/slog"
	"sync"
)

// Conn - a bidirectional line stream. Lines never carry their terminator;
// a multi-line message is written with a single WriteLine call.
type Conn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

// client - one admitted connection with its outbox.
type client struct {
	conn     Conn
	logger   *slog.Logger
	playerID string

	mu     sync.Mutex
	closed bool
	send   chan string
	done   chan struct{}
}

func newClient(logger *slog.Logger, conn Conn, outbox int) *client {
	return &client{
		conn:   conn,
		logger: logger,
		send:   make(chan string, outbox),
		done:   make(chan struct{}),
	}
}

// enqueue never blocks. A client that cannot keep up is disconnected.
func (that *client) enqueue(line string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	select {
	case that.send <- line:
		return true
	default:
		that.logger.Warn("outbox full, dropping client", "playerID", that.playerID)
		that.closeLocked()
		return false
	}
}

// shutdown stops accepting lines. The writer flushes what is queued and closes the connection.
func (that *client) shutdown() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closeLocked()
}

func (that *client) closeLocked() {
	if !that.closed {
		that.closed = true
		close(that.send)
	}
}

func (that *client) writeLoop() {
	defer close(that.done)
	defer func() {
		if err := that.conn.Close(); err != nil {
			that.logger.Debug("close connection", "error", err)
		}
	}()

	for line := range that.send {
		if err := that.conn.WriteLine(line); err != nil {
			that.logger.Info("write failed", "error", err)
			that.shutdown()
			for range that.send { //nolint:revive // drain
			}
			return
		}
	}
}
