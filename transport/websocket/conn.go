package websocket

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/goban-server/internal/protocol"
)

const writeWait = 10 * time.Second

// frameConn maps one text frame to one protocol line.
type frameConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

// newFrameConn caps inbound frames at one protocol line; a larger frame ends the connection.
func newFrameConn(conn *websocket.Conn) *frameConn {
	conn.SetReadLimit(protocol.MaxLineLength)

	return &frameConn{conn: conn}
}

// ReadLine skips binary frames and strips a trailing line terminator.
func (that *frameConn) ReadLine() (string, error) {
	for {
		messageType, data, err := that.conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("read frame: %w", err)
		}

		if messageType == websocket.TextMessage {
			return strings.TrimRight(string(data), "\r\n"), nil
		}
	}
}

func (that *frameConn) WriteLine(line string) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	if err := that.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

func (that *frameConn) Close() error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	_ = that.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)

	return that.conn.Close()
}

func (that *frameConn) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}
