package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"pypoker-client/pkg/protocol"
)

const writeWait = time.Second * 10
const handshakeTimeout = time.Second * 10
const maxMessageSize = 1 << 20

// Conn is the socket a session talks over, *websocket.Conn satisfies it
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// controlWriter is implemented by connections that can send a close frame
type controlWriter interface {
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// Dial opens the websocket to the game server
func Dial(ctx context.Context, url string, header http.Header) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("could not dial %s (%s): %w", url, resp.Status, err)
		}

		return nil, fmt.Errorf("could not dial %s: %w", url, err)
	}

	conn.SetReadLimit(maxMessageSize)
	return conn, nil
}

func readLoop(conn Conn, log logrus.FieldLogger, inbound chan<- protocol.Frame, errc chan<- error, done <-chan struct{}) {
	for {
		var f protocol.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Error("could not read frame")
			}

			errc <- err
			return
		}

		log.WithField("frame", f.String()).Trace("received frame")

		select {
		case inbound <- f:
		case <-done:
			return
		}
	}
}

func writeLoop(conn Conn, log logrus.FieldLogger, out <-chan protocol.Frame, errc chan<- error, done <-chan struct{}) {
	for {
		select {
		case f := <-out:
			log.WithField("frame", f.String()).Trace("sending frame")

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				log.WithError(err).Error("could not write frame")
				errc <- err
				return
			}
		case <-done:
			return
		}
	}
}

// closeConn sends a close frame when the connection supports it, then closes
func closeConn(conn Conn, reason error) {
	if cw, ok := conn.(controlWriter); ok {
		code := websocket.CloseNormalClosure
		text := ""
		if reason != nil && !errors.Is(reason, context.Canceled) {
			code = websocket.CloseGoingAway
			text = reason.Error()
			if len(text) > 120 {
				text = text[:120]
			}
		}

		_ = cw.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	}

	_ = conn.Close()
}
