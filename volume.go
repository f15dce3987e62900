package pulse

import (
	"context"
	"fmt"
	"math"

	"github.com/deskaudio/pulse/proto"
)

func ratioToVolume(r float64) (proto.Volume, error) {
	vf := r * float64(proto.VolumeNorm)
	if math.IsNaN(vf) || vf < 0 || vf > float64(proto.VolumeMax) {
		return 0, fmt.Errorf("pulseaudio: volume %g out of range: %w", r, proto.ErrInvalidArgument)
	}
	return proto.Volume(vf), nil
}

// Volumes builds the channel volumes for a device or stream with the given
// number of channels. 1.0 means normal volume; values above 1.0 are a
// software boost.
// Number of the ratios should match the number of the channels.
// If only one ratio is given, volume of all channels will be set to it.
func Volumes(channels int, ratio ...float64) (proto.ChannelVolumes, error) {
	var cvol proto.ChannelVolumes
	switch len(ratio) {
	case 1:
		v, err := ratioToVolume(ratio[0])
		if err != nil {
			return nil, err
		}
		cvol = proto.UniformVolumes(channels, v)
	case channels:
		for _, r := range ratio {
			v, err := ratioToVolume(r)
			if err != nil {
				return nil, err
			}
			cvol = append(cvol, uint32(v))
		}
	default:
		return nil, fmt.Errorf("pulseaudio: %d volumes for %d channels: %w", len(ratio), channels, proto.ErrInvalidArgument)
	}
	return cvol, nil
}

func (c *Client) SetSinkVolume(ctx context.Context, s proto.Selector, cvol proto.ChannelVolumes) error {
	return c.request(ctx, &proto.SetSinkVolume{Sink: s, ChannelVolumes: cvol}, nil)
}

func (c *Client) SetSourceVolume(ctx context.Context, s proto.Selector, cvol proto.ChannelVolumes) error {
	return c.request(ctx, &proto.SetSourceVolume{Source: s, ChannelVolumes: cvol}, nil)
}

func (c *Client) SetSinkInputVolume(ctx context.Context, index uint32, cvol proto.ChannelVolumes) error {
	return c.request(ctx, &proto.SetSinkInputVolume{SinkInputIndex: index, ChannelVolumes: cvol}, nil)
}

func (c *Client) SetSourceOutputVolume(ctx context.Context, index uint32, cvol proto.ChannelVolumes) error {
	return c.request(ctx, &proto.SetSourceOutputVolume{SourceOutputIndex: index, ChannelVolumes: cvol}, nil)
}

// SetSinkVolumeRatio sets the volume of a sink's channels, see Volumes.
func (c *Client) SetSinkVolumeRatio(ctx context.Context, s *Sink, ratio ...float64) error {
	cvol, err := Volumes(len(s.info.ChannelVolumes), ratio...)
	if err != nil {
		return err
	}
	return c.SetSinkVolume(ctx, s.Selector(), cvol)
}

// SetSourceVolumeRatio sets the volume of a source's channels, see Volumes.
func (c *Client) SetSourceVolumeRatio(ctx context.Context, s *Source, ratio ...float64) error {
	cvol, err := Volumes(len(s.info.ChannelVolumes), ratio...)
	if err != nil {
		return err
	}
	return c.SetSourceVolume(ctx, s.Selector(), cvol)
}
