// Package pulsetest provides an in-process server speaking the native
// protocol, for tests.
package pulsetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/deskaudio/pulse/proto"
)

// A Request is a command received by the server.
type Request struct {
	Command uint32
	Tag     uint32
	Args    []byte
	// Frame is the complete frame as it was read, descriptor included.
	Frame   []byte
	Version proto.Version
}

// Decode decodes the arguments of the request into v.
func (r *Request) Decode(v interface{}) error {
	return proto.Unmarshal(r.Args, v, r.Version)
}

// A HandlerFunc answers a request. A nil reply is sent as an empty REPLY.
// A proto.Error is sent as an ERROR frame; any other error closes the
// connection.
type HandlerFunc func(r *Request) (reply interface{}, err error)

// Server accepts connections through DialContext. Its zero value is not
// usable; create one with NewServer.
type Server struct {
	// Version is sent in the AUTH reply.
	Version proto.Version
	// ClientIndex is sent in the SET_CLIENT_NAME reply.
	ClientIndex uint32
	// AuthError, when set, rejects every AUTH request.
	AuthError proto.Error
	// HangUp, when set, closes connections as soon as AUTH is received.
	HangUp bool

	mu       sync.Mutex
	handlers map[uint32]HandlerFunc
	conns    map[*conn]struct{}
	requests []*Request
	wg       sync.WaitGroup
}

func NewServer() *Server {
	return &Server{
		Version:  proto.ProtocolVersion,
		handlers: make(map[uint32]HandlerFunc),
		conns:    make(map[*conn]struct{}),
	}
}

// Handle registers fn for a command. A handler for AUTH replaces the
// built-in answer.
func (s *Server) Handle(command uint32, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[command] = fn
}

// Reply registers a handler that always answers with reply.
func (s *Server) Reply(command uint32, reply interface{}) {
	s.Handle(command, func(*Request) (interface{}, error) { return reply, nil })
}

// Requests returns every request received so far, in order.
func (s *Server) Requests() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}

// DialContext connects a new client to the server. It satisfies
// pulse.Dialer; network and address are ignored.
func (s *Server) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, server := net.Pipe()
	c := &conn{srv: s, nc: server, fr: proto.NewFrameReader(server), version: proto.ProtocolVersion}
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.serve()
	}()
	return client, nil
}

// Event sends a subscription event to every connected client.
func (s *Server) Event(ev proto.SubscriptionEventType, index uint32) error {
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		if err := c.send(proto.OpSubscribeEvent, proto.NoTag, &proto.SubscribeEvent{Event: ev, Index: proto.Index(index)}); err != nil {
			return err
		}
	}
	return nil
}

// Send writes a raw frame body to every connected client.
func (s *Server) Send(body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.wmu.Lock()
		err := proto.WriteFrame(c.nc, proto.ControlChannel, body)
		c.wmu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// HangUpAll closes every connection.
func (s *Server) HangUpAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.nc.Close()
	}
}

// Close closes every connection and waits for them to finish.
func (s *Server) Close() {
	s.HangUpAll()
	s.wg.Wait()
}

type conn struct {
	srv     *Server
	nc      net.Conn
	fr      *proto.FrameReader
	version proto.Version

	wmu sync.Mutex
}

func (c *conn) send(command, tag uint32, args interface{}) error {
	frame, err := proto.EncodeCommand(command, tag, args, c.version)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err = c.nc.Write(frame)
	return err
}

func (c *conn) serve() {
	defer func() {
		c.nc.Close()
		c.srv.mu.Lock()
		delete(c.srv.conns, c)
		c.srv.mu.Unlock()
	}()
	for {
		f, err := c.fr.ReadFrame()
		if err != nil {
			return
		}
		cmd, tag, args, err := proto.ParseCommand(f.Body)
		if err != nil {
			return
		}
		var frame bytes.Buffer
		if err := proto.WriteFrame(&frame, f.Channel, f.Body); err != nil {
			return
		}
		r := &Request{Command: cmd, Tag: tag, Args: args, Frame: frame.Bytes(), Version: c.version}

		c.srv.mu.Lock()
		c.srv.requests = append(c.srv.requests, r)
		handler := c.srv.handlers[cmd]
		c.srv.mu.Unlock()

		if err := c.handle(r, handler); err != nil {
			return
		}
	}
}

func (c *conn) handle(r *Request, handler HandlerFunc) error {
	switch r.Command {
	case proto.OpAuth:
		if c.srv.HangUp {
			return errors.New("hang up")
		}
		if handler != nil {
			break
		}
		var auth proto.Auth
		if err := r.Decode(&auth); err != nil {
			return err
		}
		if c.srv.AuthError != 0 {
			return c.sendError(r.Tag, c.srv.AuthError)
		}
		c.version = auth.Version.Min(c.srv.Version)
		return c.send(proto.OpReply, r.Tag, &proto.AuthReply{Version: c.srv.Version})
	case proto.OpSetClientName:
		var name proto.SetClientName
		if err := r.Decode(&name); err != nil {
			return err
		}
		return c.send(proto.OpReply, r.Tag, &proto.SetClientNameReply{ClientIndex: proto.Index(c.srv.ClientIndex)})
	}

	if handler == nil {
		return c.sendError(r.Tag, proto.ErrNotSupported)
	}
	reply, err := handler(r)
	var code proto.Error
	switch {
	case errors.As(err, &code):
		return c.sendError(r.Tag, code)
	case err != nil:
		return fmt.Errorf("pulsetest: %s: %w", proto.OpName(r.Command), err)
	}
	return c.send(proto.OpReply, r.Tag, reply)
}

func (c *conn) sendError(tag uint32, code proto.Error) error {
	return c.send(proto.OpError, tag, &struct{ Code uint32 }{uint32(code)})
}
