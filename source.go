package pulse

import (
	"context"

	"github.com/deskaudio/pulse/proto"
)

// DefaultSourceName is understood by the server as the current default source.
const DefaultSourceName = "@DEFAULT_SOURCE@"

// A Source is an input device.
type Source struct {
	info proto.GetSourceInfoReply
}

// Source returns the input device selected by s.
func (c *Client) Source(ctx context.Context, s proto.Selector) (*Source, error) {
	var source Source
	if err := c.request(ctx, &proto.GetSourceInfo{Source: s}, &source.info); err != nil {
		return nil, err
	}
	return &source, nil
}

func (c *Client) DefaultSource(ctx context.Context) (*Source, error) {
	return c.Source(ctx, proto.ByName(DefaultSourceName))
}

func (c *Client) SourceByID(ctx context.Context, name string) (*Source, error) {
	return c.Source(ctx, proto.ByName(name))
}

// LookupSource returns the index of the source with the given name.
func (c *Client) LookupSource(ctx context.Context, name string) (proto.Index, error) {
	var reply proto.LookupSourceReply
	if err := c.request(ctx, &proto.LookupSource{SourceName: name}, &reply); err != nil {
		return proto.NoIndex, err
	}
	return reply.SourceIndex, nil
}

func (c *Client) SetSourceMute(ctx context.Context, s proto.Selector, mute bool) error {
	return c.request(ctx, &proto.SetSourceMute{Source: s, Mute: mute}, nil)
}

func (c *Client) SuspendSource(ctx context.Context, s proto.Selector, suspend bool) error {
	return c.request(ctx, &proto.SuspendSource{Source: s, Suspend: suspend}, nil)
}

func (c *Client) SetDefaultSource(ctx context.Context, name string) error {
	return c.request(ctx, &proto.SetDefaultSource{SourceName: name}, nil)
}

func (c *Client) SetSourcePort(ctx context.Context, s proto.Selector, port string) error {
	return c.request(ctx, &proto.SetSourcePort{Source: s, Port: port}, nil)
}

func (s *Source) ID() string {
	return s.info.SourceName
}

func (s *Source) Name() string {
	return s.info.Description
}

func (s *Source) Index() proto.Index {
	return s.info.SourceIndex
}

// IsMonitor reports whether the source records the output of a sink.
func (s *Source) IsMonitor() bool {
	return s.info.MonitorOfSink.Valid()
}

func (s *Source) Muted() bool {
	return s.info.Mute
}

func (s *Source) Volume() proto.Volume {
	return s.info.ChannelVolumes.Average()
}

func (s *Source) Selector() proto.Selector {
	return proto.ByIndex(uint32(s.info.SourceIndex))
}

func (s *Source) Info() *proto.GetSourceInfoReply {
	return &s.info
}
