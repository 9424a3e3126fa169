package server

import (
	"net"
	"time"
)

// writeWait bounds how long a single client write may block before the
// client is treated as dead. Keeps one stuck socket from stalling a whole
// broadcast cycle indefinitely.
const writeWait = 5 * time.Second

// Conn is a registered client endpoint. Implementations own the transport
// framing; the payload handed to WritePayload is a single JSON document.
type Conn interface {
	ID() string
	WritePayload(b []byte) error
	Close() error
}

// tcpConn frames payloads as newline-terminated lines on a raw socket.
type tcpConn struct {
	conn net.Conn
	id   string
}

func newTCPConn(c net.Conn) *tcpConn {
	return &tcpConn{conn: c, id: c.RemoteAddr().String()}
}

func (c *tcpConn) ID() string { return c.id }

func (c *tcpConn) WritePayload(b []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	frame := make([]byte, 0, len(b)+1)
	frame = append(frame, b...)
	frame = append(frame, '\n')
	_, err := c.conn.Write(frame)
	return err
}

func (c *tcpConn) Close() error { return c.conn.Close() }
