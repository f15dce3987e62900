package proto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestProtocolReaderUint32(t *testing.T) {
	r := ProtocolReader{buf: prepareUint32Buf().Bytes()}

	for i := uint32(0); i < 1000; i++ {
		d := r.uint32()
		if r.err != nil {
			t.Errorf("expecting no error, got %v", r.err)
			return
		}

		if d != i {
			t.Errorf("expecting read %d, got %d", i, d)
			return
		}
	}

	if r.pos != 4000 {
		t.Errorf("expecting final pos %d, got %d", 4000, r.pos)
		return
	}
}

func BenchmarkProtocolReaderUint32(b *testing.B) {
	buf := prepareUint32Buf().Bytes()

	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		r := ProtocolReader{buf: buf}
		for i := uint32(0); i < 1000; i++ {
			d := r.uint32()
			if r.err != nil {
				b.Errorf("expecting no error, got %v", r.err)
				return
			}

			if d != i {
				b.Errorf("expecting read %d, got %d", i, d)
				return
			}
		}
	}
}

func prepareUint32Buf() *bytes.Buffer {
	var buf bytes.Buffer

	for i := uint32(0); i < 1000; i++ {
		err := binary.Write(&buf, binary.BigEndian, i)
		if err != nil {
			panic(err)
		}
	}

	return &buf
}

func prepareUint64Buf() *bytes.Buffer {
	var buf bytes.Buffer

	for i := uint64(0); i < 1000; i++ {
		err := binary.Write(&buf, binary.BigEndian, i)
		if err != nil {
			panic(err)
		}
	}

	return &buf
}

func TestProtocolReaderUint64(t *testing.T) {
	r := ProtocolReader{buf: prepareUint64Buf().Bytes()}

	for i := uint64(0); i < 1000; i++ {
		d := r.uint64()
		if r.err != nil {
			t.Errorf("expecting no error, got %v", r.err)
			return
		}

		if d != i {
			t.Errorf("expecting read %d, got %d", i, d)
			return
		}
	}

	if r.pos != 8000 {
		t.Errorf("expecting final pos %d, got %d", 8000, r.pos)
		return
	}
}

func TestProtocolReaderByte(t *testing.T) {
	buf := make([]byte, 255)
	for i := range buf {
		buf[i] = byte(i)
	}
	r := ProtocolReader{buf: buf}

	for i := byte(0); i < 255; i++ {
		d := r.byte()
		if r.err != nil {
			t.Errorf("expecting no error, got %v", r.err)
			return
		}

		if d != i {
			t.Errorf("expecting read %d, got %d", i, d)
			return
		}
	}

	if r.pos != 255 {
		t.Errorf("expecting final pos %d, got %d", 255, r.pos)
		return
	}
}

func TestProtocolReaderString(t *testing.T) {
	original := "Lorem ipsum dolor sit amet, consectetur adipiscing elit.\x00"
	r := ProtocolReader{buf: []byte(original)}

	s := r.string()

	if s != original[:len(original)-1] {
		t.Errorf("expecting %s, got %s", original[:len(original)-1], s)
		return
	}

	if r.pos != len(original) {
		t.Errorf("expecting final pos %d, got %d", len(original), r.pos)
		return
	}
}

func TestProtocolReaderUnterminatedString(t *testing.T) {
	r := ProtocolReader{buf: []byte("abc")}
	r.string()
	if !errors.Is(r.err, ErrProtocolError) {
		t.Errorf("expecting protocol error, got %v", r.err)
	}
}

func prepareXBuf() *bytes.Buffer {
	var buf bytes.Buffer

	buf.WriteByte(tagArbitrary)
	err := binary.Write(&buf, binary.BigEndian, uint32(1000))
	if err != nil {
		panic(err)
	}

	for i := uint32(0); i < 250; i++ {
		err := binary.Write(&buf, binary.BigEndian, i)
		if err != nil {
			panic(err)
		}
	}

	return &buf
}

func TestProtocolReaderArbitrary(t *testing.T) {
	r := ProtocolReader{buf: prepareXBuf().Bytes()}

	b := r.arbitrary()

	if len(b) != 1000 {
		t.Errorf("expecting length of %d, got %d", 1000, len(b))
		return
	}

	for i := uint32(0); i < 250; i++ {
		u := binary.BigEndian.Uint32(b[i*4 : (i+1)*4])

		if u != i {
			t.Errorf("expecting %d, got %d", i, u)
			return
		}
	}

	if r.pos != 1005 {
		t.Errorf("expecting final pos %d, got %d", 1005, r.pos)
		return
	}
}

func TestProtocolReaderArbitraryTooLong(t *testing.T) {
	buf := prepareXBuf().Bytes()
	r := ProtocolReader{buf: buf[:500]}

	if b := r.arbitrary(); b != nil {
		t.Errorf("expecting nil, got %d bytes", len(b))
	}
	var de *DecodeError
	if !errors.As(r.err, &de) {
		t.Fatalf("expecting decode error, got %v", r.err)
	}
	if de.Offset != 5 {
		t.Errorf("expecting error at offset 5, got %d", de.Offset)
	}
}

func TestProtocolReaderTagMismatch(t *testing.T) {
	r := ProtocolReader{buf: []byte{tagUint8, 7}}

	if v := r.u32(); v != 0 {
		t.Errorf("expecting 0, got %d", v)
	}
	if !errors.Is(r.err, ErrProtocolError) {
		t.Errorf("expecting protocol error, got %v", r.err)
	}
	if r.pos != 0 {
		t.Errorf("expecting pos 0 after mismatch, got %d", r.pos)
	}
	// the error sticks
	if v := r.byte(); v != 0 || r.pos != 0 {
		t.Errorf("expecting no progress after an error, got %d at %d", v, r.pos)
	}
}
