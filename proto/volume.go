package proto

import "math"

// Volume is a software volume, linear in perceived loudness.
type Volume uint32

const (
	VolumeMuted   Volume = 0
	VolumeNorm    Volume = 0x10000
	VolumeMax     Volume = math.MaxUint32 / 2
	VolumeInvalid Volume = math.MaxUint32
)

// LinearVolume converts a linear amplitude factor into a Volume.
func LinearVolume(linear float64) Volume {
	if linear <= 0 || math.IsNaN(linear) {
		return VolumeMuted
	}
	v := math.Round(math.Cbrt(linear) * float64(VolumeNorm))
	if v > float64(VolumeMax) {
		return VolumeMax
	}
	return Volume(v)
}

// Linear returns the linear amplitude factor of v.
func (v Volume) Linear() float64 {
	if v <= VolumeMuted {
		return 0
	}
	f := float64(v) / float64(VolumeNorm)
	return f * f * f
}

// Percent returns v relative to VolumeNorm.
func (v Volume) Percent() float64 {
	return float64(v) * 100 / float64(VolumeNorm)
}

// PercentVolume returns the Volume at the given percentage of VolumeNorm.
func PercentVolume(percent float64) Volume {
	if percent <= 0 || math.IsNaN(percent) {
		return VolumeMuted
	}
	v := math.Round(percent * float64(VolumeNorm) / 100)
	if v > float64(VolumeMax) {
		return VolumeMax
	}
	return Volume(v)
}

// UniformVolumes returns n channel volumes set to v.
func UniformVolumes(n int, v Volume) ChannelVolumes {
	cv := make(ChannelVolumes, n)
	for i := range cv {
		cv[i] = uint32(v)
	}
	return cv
}

// Average returns the mean volume over all channels.
func (cv ChannelVolumes) Average() Volume {
	if len(cv) == 0 {
		return VolumeMuted
	}
	var sum uint64
	for _, v := range cv {
		sum += uint64(v)
	}
	return Volume(sum / uint64(len(cv)))
}

// Max returns the loudest channel volume.
func (cv ChannelVolumes) Max() Volume {
	var m Volume
	for _, v := range cv {
		if Volume(v) > m {
			m = Volume(v)
		}
	}
	return m
}

func (cv ChannelVolumes) validate() error {
	if len(cv) == 0 || len(cv) > ChannelsMax {
		return invalidf("%d volume channels", len(cv))
	}
	for _, v := range cv {
		if Volume(v) > VolumeMax {
			return invalidf("volume %#x out of range", v)
		}
	}
	return nil
}
