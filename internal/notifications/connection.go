package notifications

import (
	"errors"
	"sync"

	"orderpipeline/internal/domain"
)

var (
	errConnectionClosed = errors.New("connection closed")
	errBufferFull       = errors.New("connection buffer full")
)

// Connection is one live client session subscribed under a userId. The hub
// writes events into the buffered channel; the owning session drains it and
// watches Done for closure.
type Connection struct {
	userID    string
	events    chan *domain.OrderEvent
	done      chan struct{}
	closeOnce sync.Once
}

func (c *Connection) UserID() string { return c.userID }

// Events yields the delivered order events for this session.
func (c *Connection) Events() <-chan *domain.OrderEvent { return c.events }

// Done is closed when the hub removes the connection.
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// send attempts a non-blocking delivery. A closed connection or a full
// buffer is a delivery failure; the hub responds by removing the connection.
func (c *Connection) send(event *domain.OrderEvent) error {
	select {
	case <-c.done:
		return errConnectionClosed
	default:
	}

	select {
	case c.events <- event:
		return nil
	case <-c.done:
		return errConnectionClosed
	default:
		return errBufferFull
	}
}
