package server

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"
)

// wsConn frames payloads as websocket text frames over a raw upgraded socket.
type wsConn struct {
	conn net.Conn
	id   string
}

func newWSConn(c net.Conn) *wsConn {
	return &wsConn{conn: c, id: c.RemoteAddr().String()}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) WritePayload(b []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return wsutil.WriteServerText(c.conn, b)
}

func (c *wsConn) Close() error { return c.conn.Close() }

// WSHandler upgrades HTTP requests and attaches the resulting connection to
// the same client registry as the raw TCP consumers, so both transports see
// identical welcome and batch messages.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			s.logger.Debug("WebSocket upgrade failed", zap.Error(err))
			return
		}
		c := newWSConn(conn)
		s.attach(c)
		go s.wsReadLoop(c)
	}
}

// wsReadLoop drains client frames so close handshakes are observed promptly.
// Feed data only flows server to client; inbound payloads are discarded.
func (s *Server) wsReadLoop(c *wsConn) {
	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			break
		}
		if header.Length > 0 {
			if _, err := io.CopyN(io.Discard, c.conn, header.Length); err != nil {
				break
			}
		}
		if header.OpCode == ws.OpClose {
			break
		}
	}
	if s.clients.RemoveAll([]Conn{c}) > 0 {
		s.logger.Info("Client disconnected",
			zap.String("remote", c.ID()),
			zap.Int("total_clients", s.clients.Len()))
	}
}
