package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/goban-server/internal/bot"
	"github.com/rocketscienceinc/goban-server/internal/config"
	"github.com/rocketscienceinc/goban-server/internal/persistence"
	"github.com/rocketscienceinc/goban-server/internal/repository"
	"github.com/rocketscienceinc/goban-server/internal/repository/storage"
	"github.com/rocketscienceinc/goban-server/internal/server"
	"github.com/rocketscienceinc/goban-server/internal/service"
	"github.com/rocketscienceinc/goban-server/internal/session"
	"github.com/rocketscienceinc/goban-server/transport/rest"
	"github.com/rocketscienceinc/goban-server/transport/tcp"
	"github.com/rocketscienceinc/goban-server/transport/websocket"
)

const (
	botDialAttempts = 10
	botDialBackoff  = 200 * time.Millisecond
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	gameSession := session.New(
		session.WithBoardSize(conf.BoardSize),
		session.WithKoHistory(conf.KoHistory),
	)
	sessionServer := server.New(logger, gameSession)
	defer sessionServer.Close()

	log.Info("Session created", "session", gameSession.ID(), "boardSize", conf.BoardSize)

	handler, closeArchive, err := archiveRouter(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeArchive()

	if conf.Archive.Enabled || conf.Archive.URL != "" {
		recorder := service.NewArchiveRecorder(logger, persistence.NewClient(conf.ArchiveURL()))
		go recorder.Run(ctx, sessionServer.Subscribe(conf.Archive.EventBuffer))
	}

	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisStorage, redisErr := storage.NewRedisStorage(ctx, redisAddrString)
		if redisErr != nil {
			return fmt.Errorf("could not connect to redis storage: %w", redisErr)
		}

		defer func() {
			if closeErr := redisStorage.Close(); closeErr != nil {
				log.Error("could not close redis storage", "error", closeErr)
			}
		}()

		snapshotRepo := repository.NewSnapshotRepository(redisStorage, conf.Redis.SnapshotTTL)
		recorder := service.NewSnapshotRecorder(logger, snapshotRepo)
		go recorder.Run(ctx, sessionServer.Subscribe(conf.Archive.EventBuffer))
	}

	// run TCP server
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		if tcpErr := tcp.New(logger, sessionServer).Start(ctx, conf.TCPPort); tcpErr != nil {
			log.Error("TCP server error", "error", tcpErr)
			tcpErrCh <- tcpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.WebSocketPort)
		if wsErr := websocket.New(logger, sessionServer).Start(ctx, conf.WebSocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, handler); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	if conf.Bot.Enabled {
		go runBot(ctx, logger, conf)
	}

	// listeners stop before the stores they write to are closed
	defer cancel()

	select {
	case err = <-tcpErrCh:
		return fmt.Errorf("TCP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// archiveRouter opens the sqlite archive when enabled and builds the HTTP routes around it.
func archiveRouter(ctx context.Context, logger *slog.Logger, conf *config.Config) (http.Handler, func(), error) {
	if !conf.Archive.Enabled {
		return rest.NewRouter(logger, nil), func() {}, nil
	}

	sqliteStorage, err := storage.NewSQLiteStorage(conf.Archive.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open archive storage: %w", err)
	}

	if err = sqliteStorage.Init(ctx); err != nil {
		_ = sqliteStorage.Close()
		return nil, nil, fmt.Errorf("could not migrate archive storage: %w", err)
	}

	archive := service.NewArchiveService(logger, repository.NewArchiveRepository(sqliteStorage.Connection))

	closeFn := func() {
		if closeErr := sqliteStorage.Close(); closeErr != nil {
			logger.Error("could not close archive storage", "error", closeErr)
		}
	}

	return rest.NewRouter(logger, archive), closeFn, nil
}

// runBot seats the random bot over TCP once the listener is up.
func runBot(ctx context.Context, logger *slog.Logger, conf *config.Config) {
	log := logger.With("component", "app", "method", "runBot")
	addr := net.JoinHostPort("localhost", conf.TCPPort)
	player := bot.New(logger, conf.Bot.Name)

	for attempt := 1; attempt <= botDialAttempts; attempt++ {
		err := player.Run(ctx, addr)
		if err == nil || ctx.Err() != nil {
			return
		}

		var opErr *net.OpError
		if !errors.As(err, &opErr) {
			log.Warn("bot stopped", "error", err)
			return
		}

		log.Debug("bot dial failed, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(botDialBackoff):
		}
	}

	log.Warn("bot gave up connecting", "addr", addr)
}
