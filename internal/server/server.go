package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/goban-server/internal/apperror"
	"github.com/rocketscienceinc/goban-server/internal/protocol"
	"github.com/rocketscienceinc/goban-server/internal/session"
)

const (
	maxClients         = 2
	defaultOutboxSize  = 64
	defaultJoinTimeout = 30 * time.Second
)

var ErrServerClosed = errors.New("session server is closed")

type Option func(*Server)

// WithOutboxSize bounds the lines queued per connection before it is dropped.
func WithOutboxSize(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.outboxSize = size
		}
	}
}

// WithJoinTimeout bounds how long a connection may stay without sending JOIN.
func WithJoinTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.joinTimeout = timeout
		}
	}
}

type handlerFunc func(c *client, line string) error

// Server seats up to two players around one game session.
// Every command runs under a single mutex together with the fan-out of its
// events, so all clients observe the same order.
type Server struct {
	logger *slog.Logger

	mu          sync.Mutex
	session     *session.GameSession
	clients     map[*client]struct{}
	subscribers []chan session.Update
	closed      bool

	outboxSize  int
	joinTimeout time.Duration
	handlers    map[string]handlerFunc
}

func New(logger *slog.Logger, gameSession *session.GameSession, opts ...Option) *Server {
	server := &Server{
		logger:      logger.With("component", "session-server", "session", gameSession.ID()),
		session:     gameSession,
		clients:     make(map[*client]struct{}, maxClients),
		outboxSize:  defaultOutboxSize,
		joinTimeout: defaultJoinTimeout,
		handlers:    make(map[string]handlerFunc),
	}

	for _, opt := range opts {
		opt(server)
	}

	server.handlers[protocol.VerbJoin] = server.handleRejoin
	server.handlers[protocol.VerbMove] = server.handleMove
	server.handlers[protocol.VerbPass] = server.handlePass
	server.handlers[protocol.VerbResign] = server.handleResign
	server.handlers[protocol.VerbMark] = server.handleMark
	server.handlers[protocol.VerbAccept] = server.handleAccept
	server.handlers[protocol.VerbResume] = server.handleResume

	return server
}

// Subscribe returns a channel receiving one Update per successful command.
// Updates are dropped when the channel is full.
func (that *Server) Subscribe(buffer int) <-chan session.Update {
	that.mu.Lock()
	defer that.mu.Unlock()

	ch := make(chan session.Update, buffer)
	if that.closed {
		close(ch)
		return ch
	}

	that.subscribers = append(that.subscribers, ch)
	return ch
}

// Close disconnects every client and closes subscriber channels.
func (that *Server) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}
	that.closed = true

	for c := range that.clients {
		c.shutdown()
	}
	for _, ch := range that.subscribers {
		close(ch)
	}
	that.subscribers = nil
}

// Serve runs the lifecycle of one connection and returns when it ends.
func (that *Server) Serve(ctx context.Context, conn Conn) error {
	log := that.logger.With("method", "Serve", "remote", conn.RemoteAddr())

	c, err := that.admit(conn)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-ctx.Done():
			c.shutdown()
		case <-c.done:
		}
	}()

	defer func() {
		that.release(c)
		<-c.done
	}()

	c.enqueue(protocol.Welcome)

	joinTimer := time.AfterFunc(that.joinTimeout, func() { that.expire(log, c) })
	err = that.join(c)
	joinTimer.Stop()

	if err != nil {
		log.Info("join rejected", "error", err)
		return nil
	}

	log = log.With("playerID", c.playerID)
	log.Info("player joined")

	for {
		line, readErr := conn.ReadLine()
		if readErr != nil {
			log.Info("connection closed", "error", readErr)
			return nil
		}

		that.dispatch(c, line)
	}
}

// admit registers a connection for the JOIN handshake. Slots are taken by JOIN, not by connecting.
func (that *Server) admit(conn Conn) (*client, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		_ = conn.Close()
		return nil, ErrServerClosed
	}

	c := newClient(that.logger.With("remote", conn.RemoteAddr()), conn, that.outboxSize)
	that.clients[c] = struct{}{}
	go c.writeLoop()

	return c, nil
}

func (that *Server) release(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.clients, c)
	c.shutdown()
}

// join expects JOIN <name> as the first line and seats the player.
func (that *Server) join(c *client) error {
	line, err := c.conn.ReadLine()
	if err != nil {
		return fmt.Errorf("read join: %w", err)
	}

	name, err := protocol.ParseJoin(line)
	if err != nil {
		c.enqueue(protocol.ErrorLine(errExpectingJoin))
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.seatedLocked() >= maxClients {
		c.enqueue(protocol.ErrorLine(apperror.ErrSessionFull))
		return apperror.ErrSessionFull
	}

	player, err := that.session.Join(name)
	if err != nil {
		c.enqueue(protocol.ErrorLine(err))
		return err
	}

	c.playerID = player.ID
	c.enqueue(protocol.AssignLine(player.ID, player.Color))
	that.flushLocked()

	return nil
}

// expire drops a connection that is still in the handshake.
func (that *Server) expire(log *slog.Logger, c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if c.playerID == "" {
		log.Info("join timeout, closing connection")
		c.shutdown()
	}
}

func (that *Server) seatedLocked() int {
	seated := 0
	for c := range that.clients {
		if c.playerID != "" {
			seated++
		}
	}

	return seated
}

// dispatch runs one command. Rejections go to the sender only.
func (that *Server) dispatch(c *client, line string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		c.enqueue(protocol.ErrorLine(err))
		return
	}

	handler, ok := that.handlers[cmd.Verb]
	if !ok {
		c.enqueue(protocol.ErrorLine(fmt.Errorf("%w: unknown command %s", apperror.ErrMalformedCommand, cmd.Verb)))
		return
	}

	if err = handler(c, line); err != nil {
		that.logger.Debug("command rejected", "playerID", c.playerID, "command", cmd.Verb, "error", err)
		c.enqueue(protocol.ErrorLine(err))
		return
	}

	that.flushLocked()
}

// flushLocked drains session events, broadcasts their lines and publishes the update.
func (that *Server) flushLocked() {
	events := that.session.DrainEvents()
	if len(events) == 0 {
		return
	}

	for _, event := range events {
		for _, line := range renderEvent(event) {
			for c := range that.clients {
				if c.playerID != "" {
					c.enqueue(line)
				}
			}
		}
	}

	update := session.Update{
		SessionID: that.session.ID(),
		Events:    events,
		Snapshot:  that.session.Snapshot(),
	}
	for _, ch := range that.subscribers {
		select {
		case ch <- update:
		default:
			that.logger.Warn("subscriber is full, update dropped", "events", len(events))
		}
	}
}
