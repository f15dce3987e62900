package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/deskaudio/pulse/proto"
)

func parseIndex(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 32)
	if err != nil || uint32(n) == proto.Undefined {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return uint32(n), nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

// parsePercents parses volume arguments such as "50" or "120%".
func parsePercents(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(strings.TrimSuffix(a, "%"), 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("invalid volume %q", a)
		}
		out[i] = f
	}
	return out, nil
}

// percentVolumes builds channel volumes from either one percentage for all
// channels or one per channel.
func percentVolumes(channels int, percents []float64) (proto.ChannelVolumes, error) {
	switch len(percents) {
	case 1:
		return proto.UniformVolumes(channels, proto.PercentVolume(percents[0])), nil
	case channels:
		cvol := make(proto.ChannelVolumes, channels)
		for i, p := range percents {
			cvol[i] = uint32(proto.PercentVolume(p))
		}
		return cvol, nil
	}
	return nil, fmt.Errorf("%d volumes for %d channels", len(percents), channels)
}

// parseMicroseconds parses a latency offset such as "-1500" or "2ms".
func parseMicroseconds(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid latency offset %q", s)
	}
	return d.Microseconds(), nil
}
