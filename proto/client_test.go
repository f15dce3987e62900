package proto

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t    *testing.T
	conn net.Conn
	fr   *FrameReader
}

func newTestClient(t *testing.T) (*Client, *testServer, chan error) {
	t.Helper()
	a, b := net.Pipe()
	closed := make(chan error, 1)
	c := &Client{OnConnectionClosed: func(err error) { closed <- err }}
	c.Open(a)
	t.Cleanup(func() {
		c.Close()
		b.Close()
		c.Wait()
	})
	return c, &testServer{t: t, conn: b, fr: NewFrameReader(b)}, closed
}

func (s *testServer) next() (cmd, tag uint32, args []byte) {
	s.t.Helper()
	f, err := s.fr.ReadFrame()
	require.NoError(s.t, err)
	cmd, tag, args, err = ParseCommand(f.Body)
	require.NoError(s.t, err)
	return cmd, tag, args
}

func (s *testServer) send(cmd, tag uint32, args interface{}) {
	s.t.Helper()
	frame, err := EncodeCommand(cmd, tag, args, ProtocolVersion)
	require.NoError(s.t, err)
	_, err = s.conn.Write(frame)
	require.NoError(s.t, err)
}

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
		return nil
	}
}

func TestClientRequestReply(t *testing.T) {
	c, s, _ := newTestClient(t)

	var rpl GetSinkInfoReply
	done := make(chan error, 1)
	require.NoError(t, c.Go(&GetSinkInfo{Sink: ByIndex(0)}, &rpl, func(err error) { done <- err }))

	cmd, tag, args := s.next()
	assert.EqualValues(t, OpGetSinkInfo, cmd)
	assert.EqualValues(t, 0, tag)
	assert.Equal(t, []byte{'L', 0, 0, 0, 0, 'N'}, args)

	s.send(OpReply, tag, testSink())
	require.NoError(t, wait(t, done))
	assert.Equal(t, Index(0), rpl.SinkIndex)
	assert.Equal(t, "alsa_output.pci-0000_00_1f.3.analog-stereo", rpl.SinkName)
	assert.False(t, rpl.Mute)
}

func TestClientRepliesOutOfOrder(t *testing.T) {
	c, s, _ := newTestClient(t)

	var first, second LookupSinkReply
	done1 := make(chan error, 1)
	done2 := make(chan error, 1)
	require.NoError(t, c.Go(&LookupSink{SinkName: "a"}, &first, func(err error) { done1 <- err }))
	_, tag1, _ := s.next()
	require.NoError(t, c.Go(&LookupSink{SinkName: "b"}, &second, func(err error) { done2 <- err }))
	_, tag2, _ := s.next()
	assert.NotEqual(t, tag1, tag2)

	s.send(OpReply, tag2, &LookupSinkReply{SinkIndex: 2})
	require.NoError(t, wait(t, done2))
	s.send(OpReply, tag1, &LookupSinkReply{SinkIndex: 1})
	require.NoError(t, wait(t, done1))

	assert.Equal(t, Index(1), first.SinkIndex)
	assert.Equal(t, Index(2), second.SinkIndex)
}

func TestClientErrorReply(t *testing.T) {
	c, s, _ := newTestClient(t)

	done := make(chan error, 1)
	require.NoError(t, c.Go(&KillClient{ClientIndex: 9}, nil, func(err error) { done <- err }))
	_, tag, _ := s.next()
	s.send(OpError, tag, &errorReply{Code: uint32(ErrNoSuchEntity)})
	err := wait(t, done)
	assert.ErrorIs(t, err, ErrNoSuchEntity)
	assert.Equal(t, "pulseaudio: no such entity", err.Error())

	require.NoError(t, c.Go(&KillClient{ClientIndex: 9}, nil, func(err error) { done <- err }))
	_, tag, _ = s.next()
	s.send(OpError, tag, &errorReply{Code: 0})
	assert.Equal(t, ErrUnspecified, wait(t, done))

	require.NoError(t, c.Go(&KillClient{ClientIndex: 9}, nil, func(err error) { done <- err }))
	_, tag, _ = s.next()
	s.send(OpError, tag, &errorReply{Code: 1000})
	err = wait(t, done)
	assert.Equal(t, "pulseaudio: unknown error code 1000", err.Error())

	// the connection survives server errors
	assert.NoError(t, c.Err())
}

func TestClientSubscribeEvent(t *testing.T) {
	c, s, _ := newTestClient(t)
	events := make(chan *SubscribeEvent, 1)
	c.OnEvent = func(ev *SubscribeEvent) { events <- ev }

	s.send(OpSubscribeEvent, NoTag, &SubscribeEvent{Event: EventSink | EventChange, Index: 3})
	select {
	case ev := <-events:
		assert.Equal(t, "change", ev.Event.TypeName())
		assert.Equal(t, "sink", ev.Event.FacilityName())
		assert.Equal(t, Index(3), ev.Index)
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
	}
}

func TestClientMalformedPacket(t *testing.T) {
	c, s, closed := newTestClient(t)

	done := make(chan error, 1)
	require.NoError(t, c.Go(&GetServerInfo{}, &GetServerInfoReply{}, func(err error) { done <- err }))
	s.next()

	require.NoError(t, WriteFrame(s.conn, ControlChannel, []byte{'B', 0, 0, 0, 2, 'L', 0, 0, 0, 0}))

	assert.ErrorIs(t, wait(t, closed), ErrProtocolError)
	err := wait(t, done)
	assert.ErrorIs(t, err, ErrConnectionTerminated)
	assert.ErrorIs(t, err, ErrProtocolError)
	<-c.Done()

	// nothing more is read from the transport
	_, err = s.conn.Write([]byte{0})
	assert.Error(t, err)
	select {
	case err := <-closed:
		t.Fatalf("second close notification: %v", err)
	default:
	}
	assert.ErrorIs(t, c.Wait(), ErrProtocolError)
}

func TestClientReplyForUnknownTag(t *testing.T) {
	c, s, closed := newTestClient(t)
	s.send(OpReply, 77, nil)
	assert.ErrorIs(t, wait(t, closed), ErrProtocolError)
	assert.ErrorIs(t, c.Err(), ErrProtocolError)
}

func TestClientUnexpectedCommand(t *testing.T) {
	_, s, closed := newTestClient(t)
	s.send(OpRequest, NoTag, nil)
	assert.ErrorIs(t, wait(t, closed), ErrProtocolError)
}

func TestClientDataChannel(t *testing.T) {
	_, s, closed := newTestClient(t)
	require.NoError(t, WriteFrame(s.conn, 0, []byte{1, 2, 3, 4}))
	assert.ErrorIs(t, wait(t, closed), ErrProtocolError)
}

func TestClientServerHangup(t *testing.T) {
	c, s, closed := newTestClient(t)

	done := make(chan error, 1)
	require.NoError(t, c.Go(&GetServerInfo{}, &GetServerInfoReply{}, func(err error) { done <- err }))
	s.next()
	s.conn.Close()

	assert.Equal(t, io.EOF, wait(t, closed))
	err := wait(t, done)
	assert.ErrorIs(t, err, ErrConnectionTerminated)
	assert.ErrorIs(t, err, io.EOF)
}

func TestClientClosePendingRejected(t *testing.T) {
	c, s, closed := newTestClient(t)

	done := make(chan error, 2)
	require.NoError(t, c.Go(&GetServerInfo{}, nil, func(err error) { done <- err }))
	s.next()
	require.NoError(t, c.Go(&GetSinkInfoList{}, nil, func(err error) { done <- err }))
	s.next()

	require.NoError(t, c.Close())
	for i := 0; i < 2; i++ {
		err := wait(t, done)
		assert.ErrorIs(t, err, ErrConnectionTerminated)
		assert.ErrorIs(t, err, ErrClosed)
	}
	assert.Equal(t, ErrClosed, wait(t, closed))
	assert.NoError(t, c.Wait())

	err := c.Go(&GetServerInfo{}, nil, func(error) { t.Error("callback after close") })
	assert.ErrorIs(t, err, ErrConnectionTerminated)
}

func TestClientArgumentErrorsAreSynchronous(t *testing.T) {
	c, _, _ := newTestClient(t)

	err := c.Go(&SetSinkVolume{Sink: ByName("")}, nil, func(error) { t.Error("callback for invalid request") })
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = c.Go(&GetServerInfo{}, &LookupSinkReply{}, func(error) { t.Error("callback for invalid request") })
	assert.ErrorIs(t, err, ErrInvalidArgument)

	var idle Client
	err = idle.Go(&GetServerInfo{}, nil, func(error) {})
	assert.ErrorIs(t, err, ErrBadState)
}

func TestClientRequestContext(t *testing.T) {
	c, s, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	var rpl GetServerInfoReply
	go func() { errc <- c.Request(ctx, &GetServerInfo{}, &rpl) }()
	_, tag, _ := s.next()
	cancel()
	assert.True(t, errors.Is(wait(t, errc), context.Canceled))

	// a late reply is consumed without touching rpl
	s.send(OpReply, tag, &GetServerInfoReply{PackageName: "late"})
	go func() { errc <- c.Request(context.Background(), &GetServerInfo{}, &rpl) }()
	_, tag, _ = s.next()
	s.send(OpReply, tag, &GetServerInfoReply{PackageName: "pulseaudio", DefaultChannelMap: ChannelMap{ChannelMono}})
	require.NoError(t, wait(t, errc))
	assert.Equal(t, "pulseaudio", rpl.PackageName)
}

func TestTagWraparound(t *testing.T) {
	c := &Client{pending: make(map[uint32]*pendingRequest)}
	c.nextID = NoTag - 2

	var tags []uint32
	for i := 0; i < 4; i++ {
		tags = append(tags, c.allocTag())
	}
	assert.Equal(t, []uint32{NoTag - 2, NoTag - 1, 0, 1}, tags)

	c.pending[2] = &pendingRequest{}
	assert.EqualValues(t, 3, c.allocTag(), "tags in use are skipped")
}

func TestSetVersion(t *testing.T) {
	c, _, _ := newTestClient(t)
	assert.Equal(t, ProtocolVersion, c.Version())
	c.SetVersion(33)
	assert.Equal(t, ProtocolVersion, c.Version())
	c.SetVersion(13)
	assert.Equal(t, 13, c.Version().Version())
}

func TestResetTags(t *testing.T) {
	c, s, _ := newTestClient(t)

	done := make(chan error, 1)
	require.NoError(t, c.Go(&GetServerInfo{}, nil, func(err error) { done <- err }))
	_, tag, _ := s.next()
	assert.EqualValues(t, 0, tag)
	assert.ErrorIs(t, c.ResetTags(), ErrBadState)

	s.send(OpReply, tag, nil)
	require.NoError(t, wait(t, done))
	require.NoError(t, c.ResetTags())

	require.NoError(t, c.Go(&GetServerInfo{}, nil, func(err error) { done <- err }))
	_, tag, _ = s.next()
	assert.EqualValues(t, 0, tag)
}
