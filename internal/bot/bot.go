package bot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/rocketscienceinc/goban-server/internal/entity"
	"github.com/rocketscienceinc/goban-server/internal/protocol"
)

const maxRejections = 2

var (
	ErrJoinRejected = errors.New("bot join rejected")
	ErrConnClosed   = errors.New("connection closed before END")
)

type Option func(*Bot)

// WithSeed makes the move choice reproducible.
func WithSeed(seed int64) Option {
	return func(b *Bot) {
		b.rng = rand.New(rand.NewSource(seed)) //nolint: gosec // move choice only
	}
}

// Bot is a random-move client. It speaks the line protocol like any other player.
type Bot struct {
	logger *slog.Logger
	name   string
	rng    *rand.Rand

	id    string
	color entity.Stone
	board *entity.Board

	pending    *entity.Position
	tried      map[entity.Position]bool
	rejections int
}

func New(logger *slog.Logger, name string, opts ...Option) *Bot {
	bot := &Bot{
		logger: logger.With("component", "bot", "name", name),
		name:   name,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint: gosec // move choice only
		tried:  make(map[entity.Position]bool),
	}

	for _, opt := range opts {
		opt(bot)
	}

	return bot
}

// Run dials addr over TCP and plays one game.
func (that *Bot) Run(ctx context.Context, addr string) error {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("bot failed to connect: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	return that.Play(ctx, conn)
}

// Play joins the session on rw and answers server messages until END.
func (that *Bot) Play(ctx context.Context, rw io.ReadWriter) error {
	log := that.logger.With("method", "Play")

	if err := that.send(rw, protocol.VerbJoin+" "+that.name); err != nil {
		return err
	}

	scanner := bufio.NewScanner(rw)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimRight(scanner.Text(), "\r")

		done, err := that.handle(rw, scanner, line)
		if err != nil {
			return err
		}
		if done {
			log.Info("game over")
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("bot read failed: %w", err)
	}

	return ErrConnClosed
}

func (that *Bot) handle(w io.Writer, scanner *bufio.Scanner, line string) (bool, error) {
	if id, color, ok := protocol.ParseAssign(line); ok {
		that.id, that.color = id, color
		return false, nil
	}

	if color, ok := protocol.TurnFromInfo(line); ok {
		if color == that.color {
			that.tried = make(map[entity.Position]bool)
			that.rejections = 0
			return false, that.move(w)
		}
		return false, nil
	}

	switch {
	case line == protocol.Board:
		return false, that.readBoard(scanner)

	case strings.HasPrefix(line, protocol.Error+" "):
		return false, that.rejected(w, line)

	case line == protocol.Scoring:
		return false, that.send(w, protocol.VerbAccept)

	case strings.HasPrefix(line, protocol.VerbMark+" "):
		// a mark withdraws acceptances
		return false, that.send(w, protocol.VerbAccept)

	case line == protocol.End:
		return true, nil

	case strings.HasPrefix(line, protocol.VerbMove+" "+that.id+" "):
		that.pending = nil
		that.rejections = 0
	}

	return false, nil
}

func (that *Bot) rejected(w io.Writer, line string) error {
	if that.id == "" {
		return fmt.Errorf("%w: %s", ErrJoinRejected, strings.TrimPrefix(line, protocol.Error+" "))
	}

	if that.pending == nil {
		that.logger.Debug("ignoring error", "line", line)
		return nil
	}

	that.tried[*that.pending] = true
	that.rejections++

	if that.rejections >= maxRejections {
		return that.pass(w)
	}

	return that.move(w)
}

func (that *Bot) move(w io.Writer) error {
	if that.board == nil {
		return that.pass(w)
	}

	candidates := make([]entity.Position, 0)
	for _, p := range that.board.EmptyPositions() {
		if !that.tried[p] {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 {
		return that.pass(w)
	}

	choice := candidates[that.rng.Intn(len(candidates))]
	that.pending = &choice

	return that.send(w, fmt.Sprintf("%s %d %d", protocol.VerbMove, choice.X, choice.Y))
}

func (that *Bot) pass(w io.Writer) error {
	that.pending = nil
	that.rejections = 0

	return that.send(w, protocol.VerbPass)
}

// readBoard consumes the rows following a BOARD header. The first row gives the size.
func (that *Bot) readBoard(scanner *bufio.Scanner) error {
	if !scanner.Scan() {
		return ErrConnClosed
	}

	first := strings.TrimRight(scanner.Text(), "\r")
	rows := []string{first}
	for len(rows) < len(first) {
		if !scanner.Scan() {
			return ErrConnClosed
		}
		rows = append(rows, strings.TrimRight(scanner.Text(), "\r"))
	}

	board, err := entity.ParseBoard(strings.Join(rows, "\n"))
	if err != nil {
		return fmt.Errorf("bot failed to parse board: %w", err)
	}

	that.board = board
	return nil
}

func (that *Bot) send(w io.Writer, line string) error {
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return fmt.Errorf("bot write failed: %w", err)
	}

	return nil
}
