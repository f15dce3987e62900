package proto

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DescriptorSize is the size of the header preceding every frame body:
// body length, channel, offset (high and low word) and flags.
const DescriptorSize = 20

// ControlChannel is the channel of command frames. Any other channel
// carries audio data for a stream.
const ControlChannel = 0xFFFFFFFF

// A Frame is one unit on the wire.
type Frame struct {
	Channel uint32
	Offset  uint64
	Flags   uint32
	Body    []byte
}

// FrameReader splits a byte stream into frames. Reads of the underlying
// stream may return any number of bytes; a frame is returned once all of
// its bytes have arrived.
type FrameReader struct {
	r   *bufio.Reader
	hdr [DescriptorSize]byte

	// MaxSize limits the body length accepted. Zero means no limit.
	MaxSize uint32
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// ReadFrame reads the next frame. It returns io.EOF only if the stream
// ended cleanly between frames.
func (fr *FrameReader) ReadFrame() (*Frame, error) {
	if _, err := io.ReadFull(fr.r, fr.hdr[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(fr.hdr[0:])
	if fr.MaxSize > 0 && length > fr.MaxSize {
		return nil, fmt.Errorf("pulseaudio: frame of %d bytes: %w", length, ErrTooLarge)
	}
	f := &Frame{
		Channel: binary.BigEndian.Uint32(fr.hdr[4:]),
		Offset:  binary.BigEndian.Uint64(fr.hdr[8:]),
		Flags:   binary.BigEndian.Uint32(fr.hdr[16:]),
		Body:    make([]byte, length),
	}
	if _, err := io.ReadFull(fr.r, f.Body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("pulseaudio: read frame body: %w", err)
	}
	return f, nil
}

func putDescriptor(b []byte, length, channel uint32) {
	binary.BigEndian.PutUint32(b[0:], length)
	binary.BigEndian.PutUint32(b[4:], channel)
	binary.BigEndian.PutUint64(b[8:], 0)
	binary.BigEndian.PutUint32(b[16:], 0)
}

// WriteFrame writes body as one frame on channel with a single Write call.
func WriteFrame(w io.Writer, channel uint32, body []byte) error {
	buf := make([]byte, DescriptorSize+len(body))
	putDescriptor(buf, uint32(len(body)), channel)
	copy(buf[DescriptorSize:], body)
	_, err := w.Write(buf)
	return err
}

// EncodeCommand builds a complete control frame: descriptor, command,
// tag and the fields of args. The frame size is computed before the
// buffer is allocated.
func EncodeCommand(command, tag uint32, args interface{}, version Version) ([]byte, error) {
	write := func(p *ProtocolWriter) {
		p.byte(tagUint32)
		p.uint32(command)
		p.byte(tagUint32)
		p.uint32(tag)
		p.message(args, version)
	}
	var m ProtocolWriter
	write(&m)
	if m.err != nil {
		return nil, m.err
	}
	buf := make([]byte, DescriptorSize+m.pos)
	putDescriptor(buf, uint32(m.pos), ControlChannel)
	w := ProtocolWriter{buf: buf[DescriptorSize:]}
	write(&w)
	if w.err != nil {
		return nil, w.err
	}
	return buf, nil
}

// ParseCommand splits a control frame body into command, tag and the
// remaining arguments.
func ParseCommand(body []byte) (command, tag uint32, args []byte, err error) {
	p := ProtocolReader{buf: body}
	command = p.u32()
	tag = p.u32()
	if p.err != nil {
		return 0, 0, nil, p.err
	}
	return command, tag, body[p.pos:], nil
}
