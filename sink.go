package pulse

import (
	"context"

	"github.com/deskaudio/pulse/proto"
)

// DefaultSinkName is understood by the server as the current default sink.
const DefaultSinkName = "@DEFAULT_SINK@"

// A Sink is an output device.
type Sink struct {
	info proto.GetSinkInfoReply
}

// Sink returns the output device selected by s.
func (c *Client) Sink(ctx context.Context, s proto.Selector) (*Sink, error) {
	var sink Sink
	if err := c.request(ctx, &proto.GetSinkInfo{Sink: s}, &sink.info); err != nil {
		return nil, err
	}
	return &sink, nil
}

// DefaultSink returns the default output device.
func (c *Client) DefaultSink(ctx context.Context) (*Sink, error) {
	return c.Sink(ctx, proto.ByName(DefaultSinkName))
}

// SinkByID looks up a sink by its name.
func (c *Client) SinkByID(ctx context.Context, name string) (*Sink, error) {
	return c.Sink(ctx, proto.ByName(name))
}

// LookupSink returns the index of the sink with the given name.
func (c *Client) LookupSink(ctx context.Context, name string) (proto.Index, error) {
	var reply proto.LookupSinkReply
	if err := c.request(ctx, &proto.LookupSink{SinkName: name}, &reply); err != nil {
		return proto.NoIndex, err
	}
	return reply.SinkIndex, nil
}

func (c *Client) SetSinkMute(ctx context.Context, s proto.Selector, mute bool) error {
	return c.request(ctx, &proto.SetSinkMute{Sink: s, Mute: mute}, nil)
}

// SuspendSink suspends or resumes an output device.
func (c *Client) SuspendSink(ctx context.Context, s proto.Selector, suspend bool) error {
	return c.request(ctx, &proto.SuspendSink{Sink: s, Suspend: suspend}, nil)
}

// SetDefaultSink makes the named sink the default output device.
func (c *Client) SetDefaultSink(ctx context.Context, name string) error {
	return c.request(ctx, &proto.SetDefaultSink{SinkName: name}, nil)
}

// SetSinkPort activates a port of a sink.
func (c *Client) SetSinkPort(ctx context.Context, s proto.Selector, port string) error {
	return c.request(ctx, &proto.SetSinkPort{Sink: s, Port: port}, nil)
}

// ID returns the sink name. Sink names are unique identifiers, but not necessarily human-readable.
func (s *Sink) ID() string {
	return s.info.SinkName
}

// Name is a human-readable name describing the sink.
func (s *Sink) Name() string {
	return s.info.Description
}

// Channels returns the default channel map.
func (s *Sink) Channels() proto.ChannelMap {
	return s.info.ChannelMap
}

// SampleRate returns the default sample rate.
func (s *Sink) SampleRate() int {
	return int(s.info.SampleSpec.Rate)
}

// Index returns the sink index.
func (s *Sink) Index() proto.Index {
	return s.info.SinkIndex
}

func (s *Sink) Muted() bool {
	return s.info.Mute
}

// Volume returns the average volume of all channels.
func (s *Sink) Volume() proto.Volume {
	return s.info.ChannelVolumes.Average()
}

// Selector selects this sink by index.
func (s *Sink) Selector() proto.Selector {
	return proto.ByIndex(uint32(s.info.SinkIndex))
}

// Info returns everything the server reported about the sink.
func (s *Sink) Info() *proto.GetSinkInfoReply {
	return &s.info
}
