package proto

import (
	"encoding/binary"
	"reflect"
	"sort"
	"strings"
)

// ProtocolWriter encodes tagged values. Without a buffer it only counts
// bytes, which is how the exact size of a frame is computed before the
// frame is allocated.
type ProtocolWriter struct {
	buf []byte
	pos int
	err error
}

type wireEncoder interface {
	encodeWire(p *ProtocolWriter)
}

func (p *ProtocolWriter) setErr(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *ProtocolWriter) byte(b byte) {
	if p.buf != nil {
		p.buf[p.pos] = b
	}
	p.pos++
}

func (p *ProtocolWriter) uint32(u uint32) {
	if p.buf != nil {
		binary.BigEndian.PutUint32(p.buf[p.pos:], u)
	}
	p.pos += 4
}

func (p *ProtocolWriter) uint64(u uint64) {
	if p.buf != nil {
		binary.BigEndian.PutUint64(p.buf[p.pos:], u)
	}
	p.pos += 8
}

func (p *ProtocolWriter) bytes(b []byte) {
	if p.buf != nil {
		copy(p.buf[p.pos:], b)
	}
	p.pos += len(b)
}

// string writes s followed by a NUL byte.
func (p *ProtocolWriter) string(s string) {
	if p.buf != nil {
		copy(p.buf[p.pos:], s)
		p.buf[p.pos+len(s)] = 0
	}
	p.pos += len(s) + 1
}

func (p *ProtocolWriter) stringValue(s string) {
	if s == "" {
		p.byte(tagStringNull)
		return
	}
	if strings.IndexByte(s, 0) >= 0 {
		p.setErr(invalidf("string %q contains NUL", s))
	}
	p.byte(tagString)
	p.string(s)
}

func (p *ProtocolWriter) boolValue(b bool) {
	if b {
		p.byte(tagBooleanTrue)
	} else {
		p.byte(tagBooleanFalse)
	}
}

// s64 writes v sign-magnitude packed.
func (p *ProtocolWriter) s64(v int64) {
	p.byte(tagInt64)
	if v < 0 {
		if v == -v {
			p.setErr(invalidf("%d cannot be encoded", v))
		}
		p.uint64(uint64(-v) | 1<<63)
		return
	}
	p.uint64(uint64(v))
}

func (p *ProtocolWriter) arbitrary(b []byte) {
	p.byte(tagArbitrary)
	p.uint32(uint32(len(b)))
	p.bytes(b)
}

func (p *ProtocolWriter) propList(list PropList) {
	p.byte(tagPropList)
	flat := list.Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := flat[k]
		p.stringValue(k)
		p.byte(tagUint32)
		p.uint32(uint32(len(v) + 1))
		p.byte(tagArbitrary)
		p.uint32(uint32(len(v) + 1))
		p.string(v)
	}
	p.byte(tagStringNull)
}

func (p *ProtocolWriter) formatInfo(f FormatInfo) {
	p.byte(tagFormatInfo)
	p.byte(tagUint8)
	p.byte(f.Encoding)
	p.propList(f.Properties)
}

func (p *ProtocolWriter) value(i interface{}, version Version) {
	if i == nil {
		return
	}
	v := reflect.ValueOf(i).Elem()
	t := v.Type()
	if v.Kind() != reflect.Struct {
		p.setErr(invalidf("cannot encode %s", t))
		return
	}
	for i := 0; i < v.NumField(); i++ {
		if !fieldPresent(t.Field(i).Tag, version) {
			continue
		}
		if !t.Field(i).IsExported() {
			p.setErr(invalidf("cannot encode unexported field %s.%s", t, t.Field(i).Name))
			return
		}
		p.field(v.Field(i), version)
	}
}

func (p *ProtocolWriter) field(fv reflect.Value, version Version) {
	switch f := fv.Interface().(type) {
	case wireEncoder:
		f.encodeWire(p)
	case string:
		p.stringValue(f)
	case uint32:
		p.byte(tagUint32)
		p.uint32(f)
	case byte:
		p.byte(tagUint8)
		p.byte(f)
	case int64:
		p.s64(f)
	case bool:
		p.boolValue(f)
	case Volume:
		p.byte(tagVolume)
		p.uint32(uint32(f))
	case Microseconds:
		p.byte(tagUsec)
		p.uint64(uint64(f))
	case SampleSpec:
		p.byte(tagSampleSpec)
		p.byte(f.Format)
		p.byte(f.Channels)
		p.uint32(f.Rate)
	case ChannelMap:
		if len(f) > ChannelsMax {
			p.setErr(invalidf("%d channels", len(f)))
		}
		p.byte(tagChannelMap)
		p.byte(byte(len(f)))
		p.bytes(f)
	case ChannelVolumes:
		if len(f) > ChannelsMax {
			p.setErr(invalidf("%d channels", len(f)))
		}
		p.byte(tagCvolume)
		p.byte(byte(len(f)))
		for _, v := range f {
			p.uint32(v)
		}
	case []byte:
		p.arbitrary(f)
	case PropList:
		p.propList(f)
	case FormatInfo:
		p.formatInfo(f)
	case []FormatInfo:
		if len(f) > 0xFF {
			p.setErr(invalidf("%d formats", len(f)))
		}
		p.byte(tagUint8)
		p.byte(byte(len(f)))
		for _, f := range f {
			p.formatInfo(f)
		}
	case []string:
		p.byte(tagUint32)
		p.uint32(uint32(len(f)))
		for _, s := range f {
			p.stringValue(s)
		}
	default:
		switch {
		case fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.Struct:
			p.byte(tagUint32)
			p.uint32(uint32(fv.Len()))
			for i := 0; i < fv.Len(); i++ {
				p.value(fv.Index(i).Addr().Interface(), version)
			}
		case fv.Kind() == reflect.Uint32:
			p.byte(tagUint32)
			p.uint32(uint32(fv.Uint()))
		case fv.Kind() == reflect.Uint8:
			p.byte(tagUint8)
			p.byte(byte(fv.Uint()))
		default:
			p.setErr(invalidf("cannot encode %s", fv.Type()))
		}
	}
}

// Marshal encodes v, a pointer to a message struct or to a slice of message
// struct pointers, as a message body.
func Marshal(v interface{}, version Version) ([]byte, error) {
	var m ProtocolWriter
	m.message(v, version)
	if m.err != nil {
		return nil, m.err
	}
	w := ProtocolWriter{buf: make([]byte, m.pos)}
	w.message(v, version)
	return w.buf, w.err
}

// message writes a struct, or the records of a list reply back to back.
func (p *ProtocolWriter) message(v interface{}, version Version) {
	if v == nil {
		return
	}
	rv := reflect.ValueOf(v).Elem()
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			p.value(rv.Index(i).Interface(), version)
		}
		return
	}
	p.value(v, version)
}
