package collab

import (
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"
)

// fakeConn is the in-process stand-in for a transport connection.
type fakeConn struct {
	id   string
	fail bool

	mu     sync.Mutex
	events []emitted
}

type emitted struct {
	event   string
	payload any
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: ulid.Make().String()}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, payload any) error {
	if c.fail {
		return errors.New("connection closed")
	}
	c.mu.Lock()
	c.events = append(c.events, emitted{event: event, payload: payload})
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) received(event string) []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []emitted
	for _, e := range c.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (c *fakeConn) count(event string) int { return len(c.received(event)) }
