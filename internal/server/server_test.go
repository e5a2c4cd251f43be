package server

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/goban-server/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

// pipeConn is an in-memory Conn: tests push client lines into in and read server lines from out.
type pipeConn struct {
	addr string
	in   chan string
	out  chan string

	closeOnce sync.Once
	closed    chan struct{}
}

func newPipeConn(addr string) *pipeConn {
	return &pipeConn{
		addr:   addr,
		in:     make(chan string, 16),
		out:    make(chan string, 128),
		closed: make(chan struct{}),
	}
}

func (that *pipeConn) ReadLine() (string, error) {
	select {
	case line := <-that.in:
		return line, nil
	case <-that.closed:
		return "", io.EOF
	}
}

func (that *pipeConn) WriteLine(line string) error {
	select {
	case <-that.closed:
		return io.ErrClosedPipe
	default:
	}

	that.out <- line
	return nil
}

func (that *pipeConn) Close() error {
	that.closeOnce.Do(func() { close(that.closed) })
	return nil
}

func (that *pipeConn) RemoteAddr() string {
	return that.addr
}

func (that *pipeConn) send(line string) {
	that.in <- line
}

func (that *pipeConn) expect(t *testing.T, want ...string) {
	t.Helper()

	for _, line := range want {
		select {
		case got := <-that.out:
			require.Equal(t, line, got)
		case <-time.After(waitTimeout):
			require.Failf(t, "timeout", "waiting for %q on %s", line, that.addr)
		}
	}
}

func (that *pipeConn) expectClosed(t *testing.T) {
	t.Helper()

	select {
	case <-that.closed:
	case <-time.After(waitTimeout):
		require.Fail(t, "connection was not closed")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type fixture struct {
	server *Server
	ctx    context.Context
	wg     sync.WaitGroup
}

func newFixture(t *testing.T, boardSize int, opts ...Option) *fixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	f := &fixture{
		server: New(testLogger(), session.New(session.WithBoardSize(boardSize)), opts...),
		ctx:    ctx,
	}

	t.Cleanup(func() {
		cancel()
		f.wg.Wait()
	})

	return f
}

func (that *fixture) connect(addr string) *pipeConn {
	conn := newPipeConn(addr)

	that.wg.Add(1)
	go func() {
		defer that.wg.Done()
		_ = that.server.Serve(that.ctx, conn)
	}()

	return conn
}

// seat connects black and white and consumes the start-up lines.
func (that *fixture) seat(t *testing.T) (*pipeConn, *pipeConn) {
	t.Helper()

	black := that.connect("black")
	black.expect(t, "WELCOME")
	black.send("JOIN alice")
	black.expect(t, "ASSIGN p0 BLACK", "INFO Player alice joined as BLACK")

	white := that.connect("white")
	white.expect(t, "WELCOME")
	white.send("JOIN bob")
	white.expect(t, "ASSIGN p1 WHITE")

	for _, conn := range []*pipeConn{black, white} {
		conn.expect(t,
			"INFO Player bob joined as WHITE",
			"START",
			"BOARD\n...\n...\n...",
			"INFO Current turn: BLACK",
		)
	}

	return black, white
}

func TestServer_Join(t *testing.T) {
	t.Run("Two players start the game", func(t *testing.T) {
		f := newFixture(t, 3)

		f.seat(t)
	})

	t.Run("First line must be JOIN", func(t *testing.T) {
		// Given: a fresh server
		f := newFixture(t, 3)
		conn := f.connect("stranger")
		conn.expect(t, "WELCOME")

		// When: the client sends something else first
		conn.send("MOVE 1 1")

		// Then: it is told what to send and disconnected
		conn.expect(t, "ERROR Expecting: JOIN <name>")
		conn.expectClosed(t)
	})

	t.Run("Third player is refused", func(t *testing.T) {
		f := newFixture(t, 3)
		f.seat(t)

		extra := f.connect("extra")
		extra.expect(t, "WELCOME")
		extra.send("JOIN carol")

		extra.expect(t, "ERROR game already has two players")
		extra.expectClosed(t)
	})

	t.Run("Idle connection does not hold a seat", func(t *testing.T) {
		// Given: a connection that never sends JOIN
		f := newFixture(t, 3)
		idle := f.connect("idle")
		idle.expect(t, "WELCOME")

		// When: two players join after it
		// Then: the game starts
		f.seat(t)

		// and the idle connection saw none of it
		select {
		case line := <-idle.out:
			require.Failf(t, "unexpected broadcast", "idle connection got %q", line)
		default:
		}
	})

	t.Run("Connection without JOIN is closed after the timeout", func(t *testing.T) {
		f := newFixture(t, 3, WithJoinTimeout(50*time.Millisecond))

		idle := f.connect("idle")
		idle.expect(t, "WELCOME")

		idle.expectClosed(t)
	})

	t.Run("Joined player is not timed out", func(t *testing.T) {
		f := newFixture(t, 3, WithJoinTimeout(50*time.Millisecond))
		black, white := f.seat(t)

		time.Sleep(100 * time.Millisecond)
		black.send("MOVE 0 0")

		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t, "MOVE p0 0 0", "BOARD\nB..\n...\n...", "INFO Next turn: WHITE")
		}
	})
}

func TestServer_Commands(t *testing.T) {
	t.Run("Move is broadcast to both players", func(t *testing.T) {
		f := newFixture(t, 3)
		black, white := f.seat(t)

		black.send("move 1 1")

		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t, "MOVE p0 1 1", "BOARD\n...\n.B.\n...", "INFO Next turn: WHITE")
		}
	})

	t.Run("Rejections go to the sender only", func(t *testing.T) {
		f := newFixture(t, 3)
		black, white := f.seat(t)

		// When: white moves out of turn and black sends garbage
		white.send("MOVE 0 0")
		white.expect(t, "ERROR not your turn")
		black.send("MOVE a b")
		black.expect(t, `ERROR malformed command: bad x coordinate "a"`)
		black.send("FLY")
		black.expect(t, "ERROR malformed command: unknown command FLY")

		// Then: the next broadcast is the first line both see
		black.send("MOVE 9 9")
		black.expect(t, "ERROR off board")
		black.send("MOVE 0 0")
		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t, "MOVE p0 0 0")
		}
	})

	t.Run("Capture lines", func(t *testing.T) {
		f := newFixture(t, 3)
		black, white := f.seat(t)
		play := func(conn *pipeConn, cmd string, lines int) {
			conn.send(cmd)
			for i := 0; i < lines; i++ {
				<-black.out
				<-white.out
			}
		}

		play(black, "MOVE 0 0", 3)
		play(white, "MOVE 1 0", 3)
		play(black, "MOVE 2 0", 3)
		play(white, "MOVE 2 2", 3)

		black.send("MOVE 1 1")

		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t,
				"MOVE p0 1 1",
				"CAPTURE 1",
				"CAPTURED BY BLACK 1",
				"BOARD\nB.B\n.B.\n..W",
				"INFO Next turn: WHITE",
			)
		}
	})

	t.Run("Passing, scoring and acceptance", func(t *testing.T) {
		f := newFixture(t, 3)
		black, white := f.seat(t)

		black.send("MOVE 1 1")
		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t, "MOVE p0 1 1", "BOARD\n...\n.B.\n...", "INFO Next turn: WHITE")
		}

		white.send("PASS")
		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t, "PASS p1", "INFO Next turn: BLACK")
		}

		black.send("PASS")
		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t, "PASS p0", "SCORING")
		}

		black.send("MOVE 0 0")
		black.expect(t, "ERROR command not allowed in current phase")

		black.send("ACCEPT")
		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t, "ACCEPTED p0")
		}

		white.send("ACCEPT")
		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t,
				"ACCEPTED p1",
				"BOARD\n...\n.B.\n...",
				"SCORE BLACK 9 WHITE 0",
				"WINNER BLACK, SCORE BLACK 9 WHITE 0",
				"END",
			)
		}
	})

	t.Run("Mark and resume", func(t *testing.T) {
		f := newFixture(t, 3)
		black, white := f.seat(t)

		black.send("PASS")
		white.expect(t, "PASS p0", "INFO Next turn: WHITE")
		white.send("PASS")
		black.expect(t, "PASS p0", "INFO Next turn: WHITE", "PASS p1", "SCORING")
		white.expect(t, "PASS p1", "SCORING")

		white.send("MARK 1 1 DEAD")
		white.expect(t, "ERROR no group")

		white.send("RESUME")
		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t, "RESUME", "INFO Next turn: BLACK")
		}
	})

	t.Run("Resignation ends the game", func(t *testing.T) {
		f := newFixture(t, 3)
		black, white := f.seat(t)

		white.send("RESIGN")

		for _, conn := range []*pipeConn{black, white} {
			conn.expect(t, "RESIGN p1", "WINNER BLACK, SCORE RESIGNATION", "END")
		}
	})
}

func TestServer_Subscribe(t *testing.T) {
	f := newFixture(t, 3)
	updates := f.server.Subscribe(8)

	black, _ := f.seat(t)
	black.send("MOVE 2 2")

	var got []session.EventKind
	for len(got) < 4 {
		select {
		case update := <-updates:
			for _, event := range update.Events {
				got = append(got, event.Kind)
			}
		case <-time.After(waitTimeout):
			require.Fail(t, "no update")
		}
	}

	assert.Equal(t, []session.EventKind{
		session.EventPlayerJoined,
		session.EventPlayerJoined,
		session.EventGameStarted,
		session.EventMoveApplied,
	}, got)

	f.server.Close()
	_, open := <-updates
	assert.False(t, open)
}
