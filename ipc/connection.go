package ipc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
)

// Handler answers one envelope. A nil envelope with a nil error sends
// nothing back.
type Handler func(env Envelope) (*Envelope, error)

// Connection serves one game host. Replies go out in the order requests
// arrive; Send may be called from other goroutines between them.
type Connection struct {
	conn     net.Conn
	handlers map[string]Handler

	writeMu sync.Mutex
	frames  atomic.Uint64
	log     *slog.Logger
}

func NewConnection(conn net.Conn, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		conn:     conn,
		handlers: handlers,
		log:      slog.Default(),
	}
}

// Bind tags the connection's log lines with the session.
func (c *Connection) Bind(session string) {
	c.log = slog.Default().With("session", session)
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// Frames counts the envelopes read so far.
func (c *Connection) Frames() uint64 { return c.frames.Load() }

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.write(env)
}

func (c *Connection) write(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteEnvelope(c.conn, env)
}

// Serve reads and dispatches until the host hangs up or ctx ends, then
// closes the socket. A failed handler is answered with an error envelope
// so the host never waits on a reply that will not come.
func (c *Connection) Serve(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()
	defer c.conn.Close()

	for {
		env, err := ReadEnvelope(c.conn)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				c.log.Info("connection closed on shutdown", "frames", c.Frames())
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				c.log.Info("host disconnected", "frames", c.Frames())
			default:
				c.log.Warn("connection read failed", "frames", c.Frames(), "error", err)
			}
			return
		}
		c.frames.Add(1)

		handler, ok := c.handlers[env.Type]
		if !ok {
			c.log.Warn("no handler for message type", "type", env.Type)
			continue
		}

		resp, err := handler(env)
		if err != nil {
			c.log.Error("handler failed", "type", env.Type, "error", err)
			if werr := c.Send(TypeError, ErrorMessage{Request: env.Type, Error: err.Error()}); werr != nil {
				c.log.Error("error reply not sent", "type", env.Type, "error", werr)
				return
			}
			continue
		}
		if resp == nil {
			continue
		}
		if err := c.write(*resp); err != nil {
			c.log.Error("reply not sent", "type", resp.Type, "error", err)
			return
		}
		c.log.Debug("sent reply", "type", resp.Type)
	}
}
