package proto

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Type tags preceding every value on the wire.
const (
	tagString       = 't'
	tagStringNull   = 'N'
	tagUint32       = 'L'
	tagUint8        = 'B'
	tagInt64        = 'r'
	tagSampleSpec   = 'a'
	tagArbitrary    = 'x'
	tagBooleanTrue  = '1'
	tagBooleanFalse = '0'
	tagUsec         = 'U'
	tagChannelMap   = 'm'
	tagCvolume      = 'v'
	tagPropList     = 'P'
	tagVolume       = 'V'
	tagFormatInfo   = 'f'
)

const (
	FormatUint8      = 0
	FormatALaw       = 1
	FormatULaw       = 2
	FormatInt16LE    = 3
	FormatInt16BE    = 4
	FormatFloat32LE  = 5
	FormatFloat32BE  = 6
	FormatInt32LE    = 7
	FormatInt32BE    = 8
	FormatInt24LE    = 9
	FormatInt24BE    = 10
	FormatInt24_32LE = 11
	FormatInt24_32BE = 12
)

const (
	ChannelMono               = 0
	ChannelFrontLeft          = 1
	ChannelFrontRight         = 2
	ChannelFrontCenter        = 3
	ChannelRearCenter         = 4
	ChannelRearLeft           = 5
	ChannelRearRight          = 6
	ChannelLFE                = 7
	ChannelFrontLeftOfCenter  = 8
	ChannelFrontRightOfCenter = 9
	ChannelSideLeft           = 10
	ChannelSideRight          = 11
	ChannelAux0               = 12
	ChannelTopCenter          = 44
	ChannelTopFrontLeft       = 45
	ChannelTopFrontRight      = 46
	ChannelTopFrontCenter     = 47
	ChannelTopRearLeft        = 48
	ChannelTopRearRight       = 49
	ChannelTopRearCenter      = 50
	ChannelLeft               = ChannelFrontLeft
	ChannelRight              = ChannelFrontRight
	ChannelCenter             = ChannelFrontCenter
)

// ChannelsMax is the largest number of channels a sample spec, channel map
// or volume array may carry.
const ChannelsMax = 32

const (
	EncodingAny    = 0
	EncodingPCM    = 1
	EncodingAC3    = 2
	EncodingEAC3   = 3
	EncodingMPEG   = 4
	EncodingDTS    = 5
	EncodingMPEG2  = 6
	EncodingTrueHD = 7
	EncodingDTSHD  = 8
)

// Undefined is the wire value of an unset index.
const Undefined = 0xFFFFFFFF

// Index identifies a server object. Indices the server reports as
// undefined decode as NoIndex.
type Index int64

// NoIndex marks an absent index.
const NoIndex Index = -1

// Valid reports whether i refers to an object.
func (i Index) Valid() bool { return i >= 0 && i < Undefined }

func (i Index) String() string {
	if !i.Valid() {
		return "n/a"
	}
	return strconv.FormatInt(int64(i), 10)
}

func (i Index) encodeWire(p *ProtocolWriter) {
	p.byte(tagUint32)
	if i.Valid() {
		p.uint32(uint32(i))
	} else {
		p.uint32(Undefined)
	}
}

func (i *Index) decodeWire(p *ProtocolReader) {
	u := p.u32()
	if u == Undefined {
		*i = NoIndex
	} else {
		*i = Index(u)
	}
}

// A Selector addresses a device either by index or by name.
// The zero value selects index 0.
type Selector struct {
	index  uint32
	name   string
	byName bool
}

// ByIndex selects an object by its index.
func ByIndex(index uint32) Selector { return Selector{index: index} }

// ByName selects an object by its name.
func ByName(name string) Selector { return Selector{index: Undefined, name: name, byName: true} }

// ParseSelector selects by index if s is a decimal number or "#" followed by
// one, and by name otherwise.
func ParseSelector(s string) Selector {
	digits := s
	if len(s) > 1 && s[0] == '#' {
		digits = s[1:]
	}
	if n, err := strconv.ParseUint(digits, 10, 32); err == nil && uint32(n) != Undefined {
		return ByIndex(uint32(n))
	}
	return ByName(s)
}

// Index returns the selected index, if the selector is index based.
func (s Selector) Index() (uint32, bool) { return s.index, !s.byName }

// Name returns the selected name, if the selector is name based.
func (s Selector) Name() (string, bool) { return s.name, s.byName }

func (s Selector) String() string {
	if s.byName {
		return s.name
	}
	return "#" + strconv.FormatUint(uint64(s.index), 10)
}

func (s Selector) validate() error {
	if s.byName {
		if s.name == "" {
			return invalidf("empty name")
		}
		return nil
	}
	if s.index == Undefined {
		return invalidf("index %#x is reserved", s.index)
	}
	return nil
}

func (s Selector) encodeWire(p *ProtocolWriter) {
	p.byte(tagUint32)
	p.uint32(s.index)
	p.stringValue(s.name)
}

func (s *Selector) decodeWire(p *ProtocolReader) {
	s.index = p.u32()
	s.name = p.stringValue()
	s.byName = s.index == Undefined
}

type SampleSpec struct {
	Format   byte
	Channels byte
	Rate     uint32
}

type Microseconds uint64

type ChannelMap []byte

// MarshalJSON writes the channel positions as a list of numbers rather
// than a base64 string.
func (m ChannelMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	pos := make([]int, len(m))
	for i, c := range m {
		pos[i] = int(c)
	}
	return json.Marshal(pos)
}

func (m *ChannelMap) UnmarshalJSON(b []byte) error {
	var pos []int
	if err := json.Unmarshal(b, &pos); err != nil {
		return err
	}
	if pos == nil {
		*m = nil
		return nil
	}
	cm := make(ChannelMap, len(pos))
	for i, p := range pos {
		if p < 0 || p > 0xFF {
			return fmt.Errorf("pulseaudio: channel position %d: %w", p, ErrInvalidArgument)
		}
		cm[i] = byte(p)
	}
	*m = cm
	return nil
}

type ChannelVolumes []uint32

type FormatInfo struct {
	Encoding   byte
	Properties PropList
}

// KeyList is a list of property keys terminated on the wire by a null string.
type KeyList []string

func (k KeyList) encodeWire(p *ProtocolWriter) {
	for _, key := range k {
		p.stringValue(key)
	}
	p.byte(tagStringNull)
}

func (k *KeyList) decodeWire(p *ProtocolReader) {
	*k = nil
	for p.err == nil {
		key := p.stringValue()
		if key == "" {
			return
		}
		*k = append(*k, key)
	}
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}
