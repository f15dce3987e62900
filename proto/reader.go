package proto

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
	"strconv"
)

// ProtocolReader decodes tagged values from the body of one frame. The
// first failure sticks: every later read returns zero values.
type ProtocolReader struct {
	buf []byte
	pos int
	err error
}

type wireDecoder interface {
	decodeWire(p *ProtocolReader)
}

type versionDefaulter interface {
	setDefaults(v Version)
}

func (p *ProtocolReader) fail(format string, args ...interface{}) {
	if p.err == nil {
		p.err = &DecodeError{Offset: p.pos, Reason: fmt.Sprintf(format, args...)}
	}
}

func (p *ProtocolReader) remaining() int { return len(p.buf) - p.pos }

func (p *ProtocolReader) need(n int) bool {
	if p.err != nil {
		return false
	}
	if n < 0 || p.remaining() < n {
		p.fail("need %d bytes, have %d", n, p.remaining())
		return false
	}
	return true
}

func (p *ProtocolReader) byte() byte {
	if !p.need(1) {
		return 0
	}
	b := p.buf[p.pos]
	p.pos++
	return b
}

func (p *ProtocolReader) uint32() uint32 {
	if !p.need(4) {
		return 0
	}
	u := binary.BigEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return u
}

func (p *ProtocolReader) uint64() uint64 {
	if !p.need(8) {
		return 0
	}
	u := binary.BigEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return u
}

func (p *ProtocolReader) bytes(n int) []byte {
	if !p.need(n) {
		return nil
	}
	b := p.buf[p.pos : p.pos+n : p.pos+n]
	p.pos += n
	return b
}

// string reads a NUL terminated string.
func (p *ProtocolReader) string() string {
	if p.err != nil {
		return ""
	}
	end := bytes.IndexByte(p.buf[p.pos:], 0)
	if end < 0 {
		p.fail("unterminated string")
		return ""
	}
	s := string(p.buf[p.pos : p.pos+end])
	p.pos += end + 1
	return s
}

// tag reads a type tag without consuming it on failure.
func (p *ProtocolReader) tag() (byte, bool) {
	if !p.need(1) {
		return 0, false
	}
	return p.buf[p.pos], true
}

func (p *ProtocolReader) expect(tag byte) bool {
	got, ok := p.tag()
	if !ok {
		return false
	}
	if got != tag {
		p.fail("expected tag %q, got %q", tag, got)
		return false
	}
	p.pos++
	return true
}

func (p *ProtocolReader) u8() byte {
	if !p.expect(tagUint8) {
		return 0
	}
	return p.byte()
}

func (p *ProtocolReader) u32() uint32 {
	if !p.expect(tagUint32) {
		return 0
	}
	return p.uint32()
}

func (p *ProtocolReader) stringValue() string {
	tag, ok := p.tag()
	if !ok {
		return ""
	}
	switch tag {
	case tagStringNull:
		p.pos++
		return ""
	case tagString:
		p.pos++
		return p.string()
	}
	p.fail("expected string, got tag %q", tag)
	return ""
}

func (p *ProtocolReader) boolValue() bool {
	tag, ok := p.tag()
	if !ok {
		return false
	}
	switch tag {
	case tagBooleanTrue:
		p.pos++
		return true
	case tagBooleanFalse:
		p.pos++
		return false
	}
	p.fail("expected boolean, got tag %q", tag)
	return false
}

// s64 reads the sign-magnitude packed 64 bit integer: the top bit of the
// first byte is the sign, the other 63 bits the magnitude.
func (p *ProtocolReader) s64() int64 {
	if !p.expect(tagInt64) {
		return 0
	}
	u := p.uint64()
	mag := int64(u &^ (1 << 63))
	if u>>63 != 0 {
		return -mag
	}
	return mag
}

func (p *ProtocolReader) arbitrary() []byte {
	if !p.expect(tagArbitrary) {
		return nil
	}
	n := p.uint32()
	if p.err == nil && int64(n) > int64(p.remaining()) {
		p.fail("arbitrary length %d exceeds packet", n)
		return nil
	}
	return p.bytes(int(n))
}

func (p *ProtocolReader) propList() PropList {
	if !p.expect(tagPropList) {
		return nil
	}
	out := make(PropList)
	for p.err == nil {
		key := p.stringValue()
		if key == "" {
			break
		}
		l := p.u32()
		value := p.arbitrary()
		if p.err != nil {
			break
		}
		if int(l) != len(value) {
			p.fail("property %q: length %d does not match value length %d", key, l, len(value))
			break
		}
		if n := len(value); n > 0 && value[n-1] == 0 {
			value = value[:n-1]
		}
		out.Set(key, string(value))
	}
	if p.err != nil {
		return nil
	}
	return out
}

func (p *ProtocolReader) formatInfo() FormatInfo {
	if !p.expect(tagFormatInfo) {
		return FormatInfo{}
	}
	enc := p.u8()
	return FormatInfo{Encoding: enc, Properties: p.propList()}
}

func (p *ProtocolReader) value(i interface{}, version Version) {
	v := reflect.ValueOf(i).Elem()
	t := v.Type()
	if v.Kind() != reflect.Struct {
		p.fail("cannot decode %s", t)
		return
	}
	for i := 0; i < v.NumField(); i++ {
		if p.err != nil {
			return
		}
		if !t.Field(i).IsExported() {
			p.fail("cannot decode unexported field %s.%s", t, t.Field(i).Name)
			return
		}
		f := v.Field(i)
		if !fieldPresent(t.Field(i).Tag, version) {
			if idx, ok := f.Addr().Interface().(*Index); ok {
				*idx = NoIndex
			}
			continue
		}
		p.field(f, version)
	}
	if d, ok := i.(versionDefaulter); ok {
		d.setDefaults(version)
	}
}

func (p *ProtocolReader) field(f reflect.Value, version Version) {
	switch f := f.Addr().Interface().(type) {
	case wireDecoder:
		f.decodeWire(p)
	case *string:
		*f = p.stringValue()
	case *uint32:
		*f = p.u32()
	case *byte:
		*f = p.u8()
	case *int64:
		*f = p.s64()
	case *bool:
		*f = p.boolValue()
	case *Volume:
		if p.expect(tagVolume) {
			*f = Volume(p.uint32())
		}
	case *Microseconds:
		if p.expect(tagUsec) {
			*f = Microseconds(p.uint64())
		}
	case *SampleSpec:
		if p.expect(tagSampleSpec) {
			*f = SampleSpec{p.byte(), p.byte(), p.uint32()}
		}
	case *ChannelMap:
		if p.expect(tagChannelMap) {
			n := int(p.byte())
			if m := p.bytes(n); m != nil {
				*f = append(ChannelMap(nil), m...)
			}
		}
	case *ChannelVolumes:
		if p.expect(tagCvolume) {
			n := int(p.byte())
			if !p.need(4 * n) {
				return
			}
			cv := make(ChannelVolumes, n)
			for i := range cv {
				cv[i] = p.uint32()
			}
			*f = cv
		}
	case *[]byte:
		if b := p.arbitrary(); b != nil {
			*f = append([]byte(nil), b...)
		}
	case *PropList:
		*f = p.propList()
	case *FormatInfo:
		*f = p.formatInfo()
	case *[]FormatInfo:
		n := int(p.u8())
		fi := make([]FormatInfo, 0, n)
		for i := 0; i < n && p.err == nil; i++ {
			fi = append(fi, p.formatInfo())
		}
		*f = fi
	case *[]string:
		n := p.u32()
		if p.err == nil && int64(n) > int64(p.remaining()) {
			p.fail("list length %d exceeds packet", n)
			return
		}
		s := make([]string, 0, n)
		for i := uint32(0); i < n && p.err == nil; i++ {
			s = append(s, p.stringValue())
		}
		*f = s
	default:
		fv := reflect.ValueOf(f).Elem()
		switch {
		case fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.Struct:
			n := p.u32()
			if p.err == nil && int64(n) > int64(p.remaining()) {
				p.fail("list length %d exceeds packet", n)
				return
			}
			sv := reflect.MakeSlice(fv.Type(), int(n), int(n))
			for i := 0; i < int(n) && p.err == nil; i++ {
				p.value(sv.Index(i).Addr().Interface(), version)
			}
			fv.Set(sv)
		case fv.Kind() == reflect.Uint32:
			fv.SetUint(uint64(p.u32()))
		case fv.Kind() == reflect.Uint8:
			fv.SetUint(uint64(p.u8()))
		default:
			p.fail("cannot decode %s", fv.Type())
		}
	}
}

// list decodes records back to back until the body is exhausted.
func (p *ProtocolReader) list(i interface{}, version Version) {
	v := reflect.ValueOf(i).Elem()
	elem := v.Type().Elem().Elem()
	for p.err == nil && p.remaining() > 0 {
		e := reflect.New(elem)
		p.value(e.Interface(), version)
		if p.err != nil {
			return
		}
		v.Set(reflect.Append(v, e))
	}
}

func (p *ProtocolReader) finish() {
	if p.err == nil && p.remaining() != 0 {
		p.fail("%d trailing bytes", p.remaining())
	}
}

// fieldPresent evaluates a version tag: "N" means the field exists from
// version N on, "<N" means it exists only before version N.
func fieldPresent(tag reflect.StructTag, version Version) bool {
	s := string(tag)
	if s == "" {
		return true
	}
	if s[0] == '<' {
		ver, err := strconv.Atoi(s[1:])
		return err != nil || version.Version() < ver
	}
	ver, err := strconv.Atoi(s)
	return err != nil || version.Version() >= ver
}

// Unmarshal decodes a message body into v, a pointer to a message struct
// or to a slice of message struct pointers. The body must be consumed
// exactly.
func Unmarshal(b []byte, v interface{}, version Version) error {
	p := ProtocolReader{buf: b}
	if reflect.TypeOf(v).Elem().Kind() == reflect.Slice {
		p.list(v, version)
	} else {
		p.value(v, version)
	}
	p.finish()
	return p.err
}
