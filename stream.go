package pulse

import (
	"context"

	"github.com/deskaudio/pulse/proto"
)

// SinkInput returns a playback stream.
func (c *Client) SinkInput(ctx context.Context, index uint32) (*proto.GetSinkInputInfoReply, error) {
	var info proto.GetSinkInputInfoReply
	if err := c.request(ctx, &proto.GetSinkInputInfo{SinkInputIndex: index}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SourceOutput returns a record stream.
func (c *Client) SourceOutput(ctx context.Context, index uint32) (*proto.GetSourceOutputInfoReply, error) {
	var info proto.GetSourceOutputInfoReply
	if err := c.request(ctx, &proto.GetSourceOutputInfo{SourceOutputIndex: index}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) SetSinkInputMute(ctx context.Context, index uint32, mute bool) error {
	return c.request(ctx, &proto.SetSinkInputMute{SinkInputIndex: index, Mute: mute}, nil)
}

// SetSourceOutputMute needs protocol version 22.
func (c *Client) SetSourceOutputMute(ctx context.Context, index uint32, mute bool) error {
	return c.request(ctx, &proto.SetSourceOutputMute{SourceOutputIndex: index, Mute: mute}, nil)
}

func (c *Client) KillSinkInput(ctx context.Context, index uint32) error {
	return c.request(ctx, &proto.KillSinkInput{SinkInputIndex: index}, nil)
}

func (c *Client) KillSourceOutput(ctx context.Context, index uint32) error {
	return c.request(ctx, &proto.KillSourceOutput{SourceOutputIndex: index}, nil)
}

// MoveSinkInput moves a playback stream to another sink.
func (c *Client) MoveSinkInput(ctx context.Context, index uint32, sink proto.Selector) error {
	return c.request(ctx, &proto.MoveSinkInput{SinkInputIndex: index, Sink: sink}, nil)
}

// MoveSourceOutput moves a record stream to another source.
func (c *Client) MoveSourceOutput(ctx context.Context, index uint32, source proto.Selector) error {
	return c.request(ctx, &proto.MoveSourceOutput{SourceOutputIndex: index, Source: source}, nil)
}
