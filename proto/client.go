package proto

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// NoTag is the tag of frames the server sends on its own, such as
// subscription events. It is never allocated to a request.
const NoTag = 0xFFFFFFFF

// ErrClosed is the cause recorded when the client is closed by Close.
var ErrClosed = errors.New("pulseaudio: client closed")

// Client correlates requests and replies on one connection. A read loop
// and a write loop run for the lifetime of the connection; replies may
// arrive in any order and are matched by tag.
//
// Completion callbacks and OnEvent run on the read loop. They may issue
// requests with Go but must not wait for a reply there.
type Client struct {
	Logger *slog.Logger

	// OnEvent receives every subscription event.
	OnEvent func(*SubscribeEvent)
	// OnConnectionClosed is called once when the connection ends. The
	// error is ErrClosed after Close, io.EOF when the server hung up.
	OnConnectionClosed func(err error)

	// MaxFrameSize limits the size of incoming frames. Zero means no limit.
	MaxFrameSize uint32

	conn io.ReadWriteCloser
	v    atomic.Uint32

	mu      sync.Mutex
	nextID  uint32
	pending map[uint32]*pendingRequest
	err     error

	send chan []byte
	done chan struct{}
	eg   errgroup.Group
}

type pendingRequest struct {
	command uint32
	reply   Reply
	done    func(error)
}

type errorReply struct{ Code uint32 }

func (c *Client) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return discardLogger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Version returns the protocol version replies are decoded with.
func (c *Client) Version() Version {
	return Version(c.v.Load())
}

// SetVersion lowers the protocol version to what the server supports.
func (c *Client) SetVersion(v Version) {
	for {
		old := c.v.Load()
		if c.v.CompareAndSwap(old, uint32(Version(old).Min(v))) {
			return
		}
	}
}

// Open starts the read and write loops on conn.
func (c *Client) Open(conn io.ReadWriteCloser) {
	c.conn = conn
	c.v.Store(uint32(ProtocolVersion))
	c.send = make(chan []byte)
	c.done = make(chan struct{})
	c.pending = make(map[uint32]*pendingRequest)
	c.eg.Go(c.readLoop)
	c.eg.Go(c.writeLoop)
}

// Go sends a request. done is called exactly once with the outcome, after
// the reply has been decoded into rpl. rpl may be nil if the reply carries
// nothing of interest. Argument errors are returned immediately and done
// is not called.
func (c *Client) Go(req RequestArgs, rpl Reply, done func(error)) error {
	if rpl != nil && req.command() != rpl.IsReplyTo() {
		return fmt.Errorf("pulseaudio: reply type %T does not match %s: %w", rpl, OpName(req.command()), ErrInvalidArgument)
	}
	if err := Validate(req); err != nil {
		return fmt.Errorf("pulseaudio: %s: %w", OpName(req.command()), err)
	}

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return fmt.Errorf("pulseaudio: %s: %w: %w", OpName(req.command()), ErrConnectionTerminated, err)
	}
	if c.pending == nil {
		c.mu.Unlock()
		return fmt.Errorf("pulseaudio: %s: %w", OpName(req.command()), ErrBadState)
	}
	tag := c.allocTag()
	frame, err := EncodeCommand(req.command(), tag, req, c.Version())
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("pulseaudio: %s: %w", OpName(req.command()), err)
	}
	c.pending[tag] = &pendingRequest{command: req.command(), reply: rpl, done: done}
	c.mu.Unlock()

	c.log().Debug("pulseaudio: send", "command", OpName(req.command()), "tag", tag, "bytes", len(frame))
	select {
	case c.send <- frame:
	case <-c.done:
		// the request has been rejected by fail
	}
	return nil
}

// Request sends a request and waits for its reply. If ctx ends first the
// request stays pending on the server and its reply is discarded.
func (c *Client) Request(ctx context.Context, req RequestArgs, rpl Reply) error {
	var tmp Reply
	if rpl != nil {
		tmp = reflect.New(reflect.TypeOf(rpl).Elem()).Interface().(Reply)
	}
	ch := make(chan error, 1)
	if err := c.Go(req, tmp, func(err error) { ch <- err }); err != nil {
		return err
	}
	select {
	case err := <-ch:
		if err == nil && rpl != nil {
			reflect.ValueOf(rpl).Elem().Set(reflect.ValueOf(tmp).Elem())
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// allocTag returns the next free tag. c.mu must be held.
func (c *Client) allocTag() uint32 {
	for {
		tag := c.nextID
		c.nextID++
		if c.nextID == NoTag {
			c.nextID = 0
		}
		if _, busy := c.pending[tag]; !busy {
			return tag
		}
	}
}

// ResetTags restarts tag allocation at 0. It fails with ErrBadState while
// requests are pending.
func (c *Client) ResetTags() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) != 0 {
		return fmt.Errorf("pulseaudio: %d requests pending: %w", len(c.pending), ErrBadState)
	}
	c.nextID = 0
	return nil
}

// Close closes the connection. Pending requests fail with
// ErrConnectionTerminated. Close does not wait for the loops to exit; use
// Wait for that.
func (c *Client) Close() error {
	c.fail(ErrClosed)
	return nil
}

// Done is closed when the connection has ended.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the connection ended, or nil while it is open.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Wait waits for both loops to exit and returns the error that ended the
// connection. It returns nil if the client was closed with Close.
func (c *Client) Wait() error {
	c.eg.Wait()
	if err := c.Err(); !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}

func (c *Client) writeLoop() error {
	for {
		select {
		case frame := <-c.send:
			if _, err := c.conn.Write(frame); err != nil {
				err = fmt.Errorf("pulseaudio: write: %w", err)
				c.fail(err)
				return err
			}
		case <-c.done:
			return nil
		}
	}
}

func (c *Client) readLoop() error {
	fr := NewFrameReader(c.conn)
	fr.MaxSize = c.MaxFrameSize
	for {
		f, err := fr.ReadFrame()
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}
			c.fail(err)
			return err
		}
		if err := c.dispatch(f); err != nil {
			c.log().Error("pulseaudio: malformed packet, closing connection", "error", err)
			c.fail(err)
			return err
		}
	}
}

func (c *Client) dispatch(f *Frame) error {
	if f.Channel != ControlChannel {
		return fmt.Errorf("pulseaudio: unexpected data on channel %d: %w", f.Channel, ErrProtocolError)
	}
	cmd, tag, args, err := ParseCommand(f.Body)
	if err != nil {
		return err
	}
	c.log().Debug("pulseaudio: receive", "command", OpName(cmd), "tag", tag, "bytes", len(f.Body))

	switch cmd {
	case OpError:
		p, err := c.take(cmd, tag)
		if err != nil {
			return err
		}
		var e errorReply
		if err := Unmarshal(args, &e, c.Version()); err != nil {
			p.done(fmt.Errorf("%w: %w", ErrConnectionTerminated, err))
			return err
		}
		if e.Code == 0 {
			c.log().Warn("pulseaudio: error reply without error code", "command", OpName(p.command))
		}
		p.done(Error(e.Code))
		return nil

	case OpReply:
		p, err := c.take(cmd, tag)
		if err != nil {
			return err
		}
		if p.reply != nil {
			if err := Unmarshal(args, p.reply, c.Version()); err != nil {
				err = fmt.Errorf("pulseaudio: %s reply: %w", OpName(p.command), err)
				p.done(fmt.Errorf("%w: %w", ErrConnectionTerminated, err))
				return err
			}
		}
		p.done(nil)
		return nil

	case OpSubscribeEvent:
		if tag != NoTag {
			return fmt.Errorf("pulseaudio: subscription event with tag %d: %w", tag, ErrProtocolError)
		}
		var ev SubscribeEvent
		if err := Unmarshal(args, &ev, c.Version()); err != nil {
			return err
		}
		if c.OnEvent != nil {
			c.OnEvent(&ev)
		}
		return nil
	}
	return fmt.Errorf("pulseaudio: unexpected %s with tag %d: %w", OpName(cmd), tag, ErrProtocolError)
}

// take removes the request waiting for tag.
func (c *Client) take(cmd, tag uint32) (*pendingRequest, error) {
	c.mu.Lock()
	p, ok := c.pending[tag]
	delete(c.pending, tag)
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("pulseaudio: %s for unknown tag %d: %w", OpName(cmd), tag, ErrProtocolError)
	}
	return p, nil
}

// fail ends the connection. Only the first call has an effect.
func (c *Client) fail(cause error) {
	c.mu.Lock()
	if c.err != nil || c.done == nil {
		c.mu.Unlock()
		return
	}
	c.err = cause
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	close(c.done)
	c.conn.Close()

	tags := make([]uint32, 0, len(pending))
	for tag := range pending {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	rejected := fmt.Errorf("%w: %w", ErrConnectionTerminated, cause)
	for _, tag := range tags {
		pending[tag].done(rejected)
	}

	if !errors.Is(cause, ErrClosed) {
		c.log().Info("pulseaudio: connection closed", "error", cause, "pending", len(tags))
	}
	if c.OnConnectionClosed != nil {
		c.OnConnectionClosed(cause)
	}
}
