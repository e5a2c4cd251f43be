package tcp

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/rocketscienceinc/goban-server/internal/protocol"
)

// lineConn frames a stream connection as newline-terminated lines.
type lineConn struct {
	conn   net.Conn
	reader *bufio.Reader

	writeMu sync.Mutex
}

func newLineConn(conn net.Conn) *lineConn {
	return &lineConn{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, protocol.MaxLineLength),
	}
}

// ReadLine fails with protocol.ErrLineTooLong once a line outgrows the reader buffer.
func (that *lineConn) ReadLine() (string, error) {
	data, err := that.reader.ReadSlice('\n')
	line := strings.TrimRight(string(data), "\r\n")

	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return "", fmt.Errorf("read line: %w", protocol.ErrLineTooLong)
	case err != nil && len(data) == 0:
		return "", fmt.Errorf("read line: %w", err)
	}

	return line, nil
}

func (that *lineConn) WriteLine(line string) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if _, err := that.conn.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("write line: %w", err)
	}

	return nil
}

func (that *lineConn) Close() error {
	return that.conn.Close()
}

func (that *lineConn) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}
