package server

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"syscall"
)

// SendResult classifies the outcome of a single client write, replacing
// control-flow unwinding with a tag the caller branches on.
type SendResult int

const (
	// Sent means the full frame was written.
	Sent SendResult = iota
	// Disconnected means the client went away (reset, broken pipe, closed
	// socket, write timeout). Expected in steady state; logged only in
	// aggregate.
	Disconnected
	// UnexpectedError covers everything else, primarily encoding failures.
	// Logged with detail.
	UnexpectedError
)

// Send encodes msg and writes it to c as one frame. It never mutates the
// client registry; callers evict the connection on any non-Sent result.
func Send(c Conn, msg any) (SendResult, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return UnexpectedError, err
	}
	if err := c.WritePayload(payload); err != nil {
		if isDisconnect(err) {
			return Disconnected, err
		}
		return UnexpectedError, err
	}
	return Sent, nil
}

// isDisconnect reports whether err is an expected transport failure for a
// client that has gone away.
func isDisconnect(err error) bool {
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
