package proto

// Raw sink flag bits.
const (
	sinkHWVolumeCtrl   = 0x0001
	sinkLatency        = 0x0002
	sinkHardware       = 0x0004
	sinkNetwork        = 0x0008
	sinkHWMuteCtrl     = 0x0010
	sinkDecibelVolume  = 0x0020
	sinkFlatVolume     = 0x0040
	sinkDynamicLatency = 0x0080
	sinkSetFormats     = 0x0100
)

// Raw source flag bits. Flat volume and dynamic latency are swapped
// compared to sinks.
const (
	sourceHWVolumeCtrl   = 0x0001
	sourceLatency        = 0x0002
	sourceHardware       = 0x0004
	sourceNetwork        = 0x0008
	sourceHWMuteCtrl     = 0x0010
	sourceDecibelVolume  = 0x0020
	sourceDynamicLatency = 0x0040
	sourceFlatVolume     = 0x0080
)

// DeviceFlags are the capabilities a sink or source announces.
type DeviceFlags struct {
	HardwareVolume bool // volume can be set in hardware
	LatencyQuery   bool // latency can be queried
	Hardware       bool // backed by a hardware device
	Network        bool // a network device
	HardwareMute   bool // mute can be set in hardware
	DecibelVolume  bool // volume can be translated to dB
	FlatVolume     bool
	DynamicLatency bool
	SetFormats     bool // the set of supported formats can be changed
}

// SinkFlags decodes the sink flag bitmask.
type SinkFlags struct{ DeviceFlags }

func (f SinkFlags) encodeWire(p *ProtocolWriter) {
	var u uint32
	set := func(b bool, bit uint32) {
		if b {
			u |= bit
		}
	}
	set(f.HardwareVolume, sinkHWVolumeCtrl)
	set(f.LatencyQuery, sinkLatency)
	set(f.Hardware, sinkHardware)
	set(f.Network, sinkNetwork)
	set(f.HardwareMute, sinkHWMuteCtrl)
	set(f.DecibelVolume, sinkDecibelVolume)
	set(f.FlatVolume, sinkFlatVolume)
	set(f.DynamicLatency, sinkDynamicLatency)
	set(f.SetFormats, sinkSetFormats)
	p.byte(tagUint32)
	p.uint32(u)
}

func (f *SinkFlags) decodeWire(p *ProtocolReader) {
	u := p.u32()
	f.DeviceFlags = DeviceFlags{
		HardwareVolume: u&sinkHWVolumeCtrl != 0,
		LatencyQuery:   u&sinkLatency != 0,
		Hardware:       u&sinkHardware != 0,
		Network:        u&sinkNetwork != 0,
		HardwareMute:   u&sinkHWMuteCtrl != 0,
		DecibelVolume:  u&sinkDecibelVolume != 0,
		FlatVolume:     u&sinkFlatVolume != 0,
		DynamicLatency: u&sinkDynamicLatency != 0,
		SetFormats:     u&sinkSetFormats != 0,
	}
}

// SourceFlags decodes the source flag bitmask. Sources never set SetFormats.
type SourceFlags struct{ DeviceFlags }

func (f SourceFlags) encodeWire(p *ProtocolWriter) {
	var u uint32
	set := func(b bool, bit uint32) {
		if b {
			u |= bit
		}
	}
	set(f.HardwareVolume, sourceHWVolumeCtrl)
	set(f.LatencyQuery, sourceLatency)
	set(f.Hardware, sourceHardware)
	set(f.Network, sourceNetwork)
	set(f.HardwareMute, sourceHWMuteCtrl)
	set(f.DecibelVolume, sourceDecibelVolume)
	set(f.DynamicLatency, sourceDynamicLatency)
	set(f.FlatVolume, sourceFlatVolume)
	p.byte(tagUint32)
	p.uint32(u)
}

func (f *SourceFlags) decodeWire(p *ProtocolReader) {
	u := p.u32()
	f.DeviceFlags = DeviceFlags{
		HardwareVolume: u&sourceHWVolumeCtrl != 0,
		LatencyQuery:   u&sourceLatency != 0,
		Hardware:       u&sourceHardware != 0,
		Network:        u&sourceNetwork != 0,
		HardwareMute:   u&sourceHWMuteCtrl != 0,
		DecibelVolume:  u&sourceDecibelVolume != 0,
		DynamicLatency: u&sourceDynamicLatency != 0,
		FlatVolume:     u&sourceFlatVolume != 0,
	}
}

// DeviceState is the state of a sink or source. The zero value is
// DeviceStateUnknown, which is also what servers too old to report a
// state decode to.
type DeviceState int

const (
	DeviceStateUnknown DeviceState = iota
	DeviceStateRunning
	DeviceStateIdle
	DeviceStateSuspended
)

func (s DeviceState) String() string {
	switch s {
	case DeviceStateRunning:
		return "running"
	case DeviceStateIdle:
		return "idle"
	case DeviceStateSuspended:
		return "suspended"
	}
	return "unknown"
}

func (s DeviceState) encodeWire(p *ProtocolWriter) {
	p.byte(tagUint32)
	switch s {
	case DeviceStateRunning:
		p.uint32(0)
	case DeviceStateIdle:
		p.uint32(1)
	case DeviceStateSuspended:
		p.uint32(2)
	default:
		p.uint32(Undefined)
	}
}

func (s *DeviceState) decodeWire(p *ProtocolReader) {
	switch p.u32() {
	case 0:
		*s = DeviceStateRunning
	case 1:
		*s = DeviceStateIdle
	case 2:
		*s = DeviceStateSuspended
	default:
		*s = DeviceStateUnknown
	}
}

// PortAvailable tells whether a port is plugged in.
type PortAvailable uint32

const (
	PortAvailableUnknown PortAvailable = 0
	PortAvailableNo      PortAvailable = 1
	PortAvailableYes     PortAvailable = 2
)

func (a PortAvailable) String() string {
	switch a {
	case PortAvailableNo:
		return "no"
	case PortAvailableYes:
		return "yes"
	}
	return "unknown"
}

// PortDirection tells whether a card port belongs to sinks or sources.
type PortDirection byte

const (
	DirectionOutput PortDirection = 1
	DirectionInput  PortDirection = 2
)

func (d PortDirection) String() string {
	switch d {
	case DirectionOutput:
		return "output"
	case DirectionInput:
		return "input"
	}
	return "unknown"
}

// Port is a sink or source port.
type Port struct {
	Name        string
	Description string
	Priority    uint32
	Available   PortAvailable "24"
}

// CardProfile is a profile of a card. Servers before version 29 do not
// report availability; their profiles are assumed available.
type CardProfile struct {
	Name        string
	Description string
	NumSinks    uint32
	NumSources  uint32
	Priority    uint32
	Available   ProfileAvailable "29"
}

func (c *CardProfile) setDefaults(v Version) {
	if v.Version() < 29 {
		c.Available = true
	}
}

// ProfileAvailable is a boolean sent as a 32 bit integer.
type ProfileAvailable bool

func (a ProfileAvailable) encodeWire(p *ProtocolWriter) {
	p.byte(tagUint32)
	if a {
		p.uint32(1)
	} else {
		p.uint32(0)
	}
}

func (a *ProfileAvailable) decodeWire(p *ProtocolReader) {
	*a = p.u32() != 0
}

// CardPort is a port of a card.
type CardPort struct {
	Name          string
	Description   string
	Priority      uint32
	Available     PortAvailable
	Direction     PortDirection
	Properties    PropList
	Profiles      []string
	LatencyOffset int64 "27"
}
