package proto

// Version is a protocol version. The low 16 bits hold the version number,
// the high bits carry capability flags.
type Version uint32

const (
	// ProtocolVersion is the version this package speaks.
	ProtocolVersion Version = 32
	// MinimumVersion is the oldest server version accepted.
	MinimumVersion Version = 8
)

func (v Version) Version() int { return int(v & 0xFFFF) }

func (v Version) Min(u Version) Version {
	flags := v & u & 0xFFFF0000
	v &= 0xFFFF
	if v > u&0xFFFF {
		v = u & 0xFFFF
	}
	return v | flags
}
