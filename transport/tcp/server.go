package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/rocketscienceinc/goban-server/internal/server"
)

type sessionServer interface {
	Serve(ctx context.Context, conn server.Conn) error
}

// Server accepts raw TCP clients speaking the line protocol.
type Server struct {
	logger  *slog.Logger
	session sessionServer

	mu       sync.Mutex
	listener net.Listener
}

func New(logger *slog.Logger, session sessionServer) *Server {
	return &Server{
		logger:  logger.With("component", "tcp"),
		session: session,
	}
}

// Start listens on port until ctx is cancelled. Each connection gets its own goroutine.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return that.Serve(ctx, listener)
}

func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", listener.Addr().String())

	that.mu.Lock()
	that.listener = listener
	that.mu.Unlock()

	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error("failed to close listener", "error", err)
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		log.Info("client connected", "remote", conn.RemoteAddr().String())

		wg.Add(1)
		go func() {
			defer wg.Done()

			if serveErr := that.session.Serve(ctx, newLineConn(conn)); serveErr != nil {
				log.Info("connection rejected", "remote", conn.RemoteAddr().String(), "error", serveErr)
			}
		}()
	}
}

// Addr returns the bound address once serving has started.
func (that *Server) Addr() net.Addr {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.listener == nil {
		return nil
	}

	return that.listener.Addr()
}
