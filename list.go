package pulse

import (
	"context"

	"github.com/deskaudio/pulse/proto"
)

// Sinks returns a list of all available output devices.
func (c *Client) Sinks(ctx context.Context) ([]*Sink, error) {
	var reply proto.GetSinkInfoListReply
	if err := c.request(ctx, &proto.GetSinkInfoList{}, &reply); err != nil {
		return nil, err
	}
	sinks := make([]*Sink, len(reply))
	for i := range sinks {
		sinks[i] = &Sink{info: *reply[i]}
	}
	return sinks, nil
}

// Sources returns a list of all available input devices, including the
// monitors of sinks.
func (c *Client) Sources(ctx context.Context) ([]*Source, error) {
	var reply proto.GetSourceInfoListReply
	if err := c.request(ctx, &proto.GetSourceInfoList{}, &reply); err != nil {
		return nil, err
	}
	sources := make([]*Source, len(reply))
	for i := range sources {
		sources[i] = &Source{info: *reply[i]}
	}
	return sources, nil
}

func (c *Client) SinkInputs(ctx context.Context) ([]*proto.GetSinkInputInfoReply, error) {
	var reply proto.GetSinkInputInfoListReply
	if err := c.request(ctx, &proto.GetSinkInputInfoList{}, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) SourceOutputs(ctx context.Context) ([]*proto.GetSourceOutputInfoReply, error) {
	var reply proto.GetSourceOutputInfoListReply
	if err := c.request(ctx, &proto.GetSourceOutputInfoList{}, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) Modules(ctx context.Context) ([]*proto.GetModuleInfoReply, error) {
	var reply proto.GetModuleInfoListReply
	if err := c.request(ctx, &proto.GetModuleInfoList{}, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) Clients(ctx context.Context) ([]*proto.GetClientInfoReply, error) {
	var reply proto.GetClientInfoListReply
	if err := c.request(ctx, &proto.GetClientInfoList{}, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) Cards(ctx context.Context) ([]*proto.GetCardInfoReply, error) {
	var reply proto.GetCardInfoListReply
	if err := c.request(ctx, &proto.GetCardInfoList{}, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}
