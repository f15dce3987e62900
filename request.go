package pulse

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/deskaudio/pulse/proto"
)

// RawRequest sends any request and waits for the reply. rpl may be nil.
// It fails with proto.ErrBadState unless the client is ready.
func (c *Client) RawRequest(ctx context.Context, req proto.RequestArgs, rpl proto.Reply) error {
	return c.request(ctx, req, rpl)
}

// Go sends a request without waiting. done is called exactly once, on the
// connection's read loop, unless an error is returned.
func (c *Client) Go(req proto.RequestArgs, rpl proto.Reply, done func(error)) error {
	pc, err := c.ready(req)
	if err != nil {
		return err
	}
	name := proto.OpName(proto.Command(req))
	start := time.Now()
	return pc.Go(req, rpl, func(err error) {
		c.cfg.Metrics.observeRequest(name, start, err)
		done(err)
	})
}

func (c *Client) ready(req proto.RequestArgs) (*proto.Client, error) {
	c.mu.Lock()
	pc, state := c.c, c.state
	c.mu.Unlock()
	if state != StateReady {
		return nil, fmt.Errorf("pulseaudio: %s: client is %s: %w", proto.OpName(proto.Command(req)), state, proto.ErrBadState)
	}
	return pc, nil
}

func (c *Client) request(ctx context.Context, req proto.RequestArgs, rpl proto.Reply) error {
	pc, err := c.ready(req)
	if err != nil {
		return err
	}
	name := proto.OpName(proto.Command(req))
	ctx, span := c.tracer.Start(ctx, "pulse."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("pulse.command", name),
			attribute.Int("pulse.protocol_version", pc.Version().Version()),
		),
	)
	defer span.End()

	start := time.Now()
	err = pc.Request(ctx, req, rpl)
	c.cfg.Metrics.observeRequest(name, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// ServerInfo returns information about the server.
func (c *Client) ServerInfo(ctx context.Context) (*proto.GetServerInfoReply, error) {
	var info proto.GetServerInfoReply
	if err := c.request(ctx, &proto.GetServerInfo{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) Module(ctx context.Context, index uint32) (*proto.GetModuleInfoReply, error) {
	var info proto.GetModuleInfoReply
	if err := c.request(ctx, &proto.GetModuleInfo{ModuleIndex: index}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ClientInfo returns information about a client connected to the server.
func (c *Client) ClientInfo(ctx context.Context, index uint32) (*proto.GetClientInfoReply, error) {
	var info proto.GetClientInfoReply
	if err := c.request(ctx, &proto.GetClientInfo{ClientIndex: index}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) KillClient(ctx context.Context, index uint32) error {
	return c.request(ctx, &proto.KillClient{ClientIndex: index}, nil)
}

// UpdateProperties changes this client's property list.
func (c *Client) UpdateProperties(ctx context.Context, mode proto.UpdateMode, props proto.PropList) error {
	return c.request(ctx, &proto.UpdateClientProplist{Mode: mode, Properties: props}, nil)
}

// RemoveProperties removes keys from this client's property list.
func (c *Client) RemoveProperties(ctx context.Context, keys ...string) error {
	return c.request(ctx, &proto.RemoveClientProplist{Keys: keys}, nil)
}

func (c *Client) Card(ctx context.Context, card proto.Selector) (*proto.GetCardInfoReply, error) {
	var info proto.GetCardInfoReply
	if err := c.request(ctx, &proto.GetCardInfo{Card: card}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetCardProfile activates a profile of a card.
func (c *Client) SetCardProfile(ctx context.Context, card proto.Selector, profile string) error {
	return c.request(ctx, &proto.SetCardProfile{Card: card, Profile: profile}, nil)
}

// SetPortLatencyOffset sets the latency offset of a card port in
// microseconds.
func (c *Client) SetPortLatencyOffset(ctx context.Context, card proto.Selector, port string, offset int64) error {
	return c.request(ctx, &proto.SetPortLatencyOffset{Card: card, Port: port, Offset: offset}, nil)
}
