package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/yndnr/sod-go/pkg/frame"
)

var (
	// ErrRejected is returned when the daemon answers with a REJECT.
	ErrRejected = errors.New("request rejected")

	// ErrUnexpectedReply is returned for a frame the client cannot act on.
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// Prompter answers the daemon's prompts.
type Prompter interface {
	Prompt(text string) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(text string) (string, error)

// Prompt calls f.
func (f PrompterFunc) Prompt(text string) (string, error) { return f(text) }

// Client runs transactions over one daemon connection.
type Client struct {
	conn      net.Conn
	buf       frame.Frame
	closeOnce sync.Once
}

// Dial connects to the daemon. An empty network selects
// frame.DefaultNetwork.
func Dial(network, path string) (*Client, error) {
	conn, err := frame.Dial(network, path)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", path, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, buf: *frame.New()}
}

// Close closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.conn.Close() })
	return err
}

// Login authenticates user. Each NAK prompt is passed to p and the answer
// sent back with the daemon's correlation value. It returns nil once the
// daemon acknowledges.
func (c *Client) Login(ctx context.Context, user string, p Prompter) error {
	if p == nil {
		return errors.New("connection: prompter is required")
	}
	stop := c.watch(ctx)
	defer stop()
	defer c.buf.Wipe()

	c.buf.Prepare(user, frame.AuthRequest, 0)
	if err := c.send(ctx); err != nil {
		return err
	}

	for {
		if err := c.receive(ctx); err != nil {
			return err
		}

		switch c.buf.Code {
		case frame.AuthNak:
			correlation := c.buf.Correlation
			answer, err := p.Prompt(c.buf.Text())
			if err != nil {
				return fmt.Errorf("prompt: %w", err)
			}
			c.buf.Prepare(answer, frame.AuthRequest, correlation)
			err = c.send(ctx)
			c.buf.Wipe()
			if err != nil {
				return err
			}
		case frame.AuthAck:
			return nil
		case frame.AuthReject:
			return ErrRejected
		default:
			return fmt.Errorf("%w: %s", ErrUnexpectedReply, c.buf.Code)
		}
	}
}

// Logout closes the daemon's open session for user.
func (c *Client) Logout(ctx context.Context, user string) error {
	stop := c.watch(ctx)
	defer stop()

	c.buf.Prepare(user, frame.TermRequest, 0)
	if err := c.send(ctx); err != nil {
		return err
	}
	if err := c.receive(ctx); err != nil {
		return err
	}

	switch c.buf.Code {
	case frame.TermAck:
		return nil
	case frame.TermReject:
		return ErrRejected
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedReply, c.buf.Code)
	}
}

// watch closes the connection when ctx ends, unblocking any exchange.
func (c *Client) watch(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() { _ = c.Close() })
}

func (c *Client) send(ctx context.Context) error {
	if err := frame.Send(c.conn, &c.buf); err != nil {
		return c.wrap(ctx, err)
	}
	return nil
}

func (c *Client) receive(ctx context.Context) error {
	if err := frame.Receive(c.conn, &c.buf); err != nil {
		return c.wrap(ctx, err)
	}
	return nil
}

func (c *Client) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
