package relay

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Connection wraps one open WebSocket. gorilla/websocket requires writes to
// be serialized, so all outbound frames go through a buffered channel drained
// by a single writer goroutine.
type Connection struct {
	id           string
	ws           *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	logger       zerolog.Logger
}

func NewConnection(ws *websocket.Conn, bufferSize int, writeTimeout time.Duration, logger zerolog.Logger) *Connection {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	c := &Connection{
		id:           uuid.NewString(),
		ws:           ws,
		send:         make(chan []byte, bufferSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		logger:       logger,
	}

	go c.writeLoop()

	return c
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				c.Close()
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug().Err(err).Str("connection_id", c.id).Msg("Write failed, closing connection")
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Send queues an already-serialized frame without blocking. Delivery is
// best-effort: a closed connection or a full buffer drops the frame.
func (c *Connection) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *Connection) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(data)
}

// Close is safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}
