package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskaudio/pulse"
	"github.com/deskaudio/pulse/internal/pulsetest"
	"github.com/deskaudio/pulse/proto"
)

const speakers = "alsa_output.pci-0000_00_1f.3.analog-stereo"

func speakerSink() *proto.GetSinkInfoReply {
	return &proto.GetSinkInfoReply{
		SinkName:           speakers,
		Description:        "Built-in Audio Analog Stereo",
		SampleSpec:         proto.SampleSpec{Format: proto.FormatInt16LE, Channels: 2, Rate: 48000},
		ChannelMap:         proto.ChannelMap{proto.ChannelFrontLeft, proto.ChannelFrontRight},
		ChannelVolumes:     proto.UniformVolumes(2, proto.VolumeNorm),
		MonitorSourceIndex: 1,
		CardIndex:          proto.NoIndex,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T, cfg Config) (*pulsetest.Server, *pulse.Client, *Bridge) {
	t.Helper()
	srv := pulsetest.NewServer()
	t.Cleanup(srv.Close)
	srv.Handle(proto.OpGetSinkInfo, func(r *pulsetest.Request) (interface{}, error) {
		var req proto.GetSinkInfo
		if err := r.Decode(&req); err != nil {
			return nil, err
		}
		if idx, ok := req.Sink.Index(); ok && idx == 0 {
			return speakerSink(), nil
		}
		if name, ok := req.Sink.Name(); ok && name == speakers {
			return speakerSink(), nil
		}
		return nil, proto.ErrNoSuchEntity
	})
	srv.Reply(proto.OpGetSinkInfoList, &proto.GetSinkInfoListReply{speakerSink()})
	srv.Reply(proto.OpGetServerInfo, &proto.GetServerInfoReply{PackageName: "pulseaudio", DefaultSinkName: speakers})
	srv.Reply(proto.OpGetClientInfoList, &proto.GetClientInfoListReply{})
	srv.Reply(proto.OpSetSinkVolume, nil)
	srv.Reply(proto.OpSetSinkMute, nil)
	srv.Reply(proto.OpSubscribe, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := pulse.Connect(ctx, pulse.Config{
		Candidates: []pulse.Candidate{{Network: "unix", Address: "/run/user/1000/pulse/native"}},
		Cookie:     make([]byte, proto.CookieLength),
		Properties: proto.FlatPropList(map[string]string{"application.name": "bridge test"}),
		Dialer:     srv,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return srv, c, New(c, cfg)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReadEndpoints(t *testing.T) {
	_, _, b := setup(t, Config{})
	h := b.Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"ready"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/server", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info proto.GetServerInfoReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, speakers, info.DefaultSinkName)

	rec = do(t, h, http.MethodGet, "/api/sinks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sinks []proto.GetSinkInfoReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sinks))
	require.Len(t, sinks, 1)
	assert.Equal(t, speakers, sinks[0].SinkName)
	assert.Equal(t, proto.NoIndex, sinks[0].CardIndex)
	assert.Equal(t, proto.ChannelMap{proto.ChannelFrontLeft, proto.ChannelFrontRight}, sinks[0].ChannelMap)
	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.JSONEq(t, `[1,2]`, string(raw[0]["ChannelMap"]))

	rec = do(t, h, http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/sinks/"+speakers, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/sinks/3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"error":%q,"code":5}`, proto.ErrNoSuchEntity.Error()), rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/cards", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestSetSinkVolume(t *testing.T) {
	srv, _, b := setup(t, Config{})
	h := b.Handler()

	rec := do(t, h, http.MethodPut, "/api/sinks/0/volume", `{"percent":[50]}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPut, "/api/sinks/0/volume", `{"percent":[100,25]}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	var vols []proto.ChannelVolumes
	for _, r := range srv.Requests() {
		if r.Command != proto.OpSetSinkVolume {
			continue
		}
		var req proto.SetSinkVolume
		require.NoError(t, r.Decode(&req))
		idx, ok := req.Sink.Index()
		assert.True(t, ok)
		assert.EqualValues(t, 0, idx)
		vols = append(vols, req.ChannelVolumes)
	}
	assert.Equal(t, []proto.ChannelVolumes{{0x8000, 0x8000}, {0x10000, 0x4000}}, vols)

	rec = do(t, h, http.MethodPut, "/api/sinks/0/volume", `{"percent":[1,2,3]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPut, "/api/sinks/0/volume", `{"volume":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPut, "/api/sink-inputs/x/mute", `{"mute":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	_, _, b := setup(t, Config{RateLimit: 0.001, Burst: 1})
	h := b.Handler()

	rec := do(t, h, http.MethodPut, "/api/sinks/0/mute", `{"mute":true}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodPut, "/api/sinks/0/mute", `{"mute":false}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// reads are not limited
	rec = do(t, h, http.MethodGet, "/api/sinks/0", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := pulse.NewMetrics()
	require.NoError(t, m.Register(reg))
	_, _, b := setup(t, Config{Gatherer: reg})

	rec := do(t, b.Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pulse_connection_state")
}

func TestEventStream(t *testing.T) {
	srv, c, b := setup(t, Config{})
	require.NoError(t, c.Subscribe(context.Background(), proto.SubscriptionMaskAll))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- b.Run(ctx, ln, c.Done()) }()

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/events", nil)
	require.NoError(t, err)
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello Message
	require.NoError(t, ws.ReadJSON(&hello))
	assert.Equal(t, MessageHello, hello.Type)
	_, err = uuid.Parse(hello.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, b.Hub().ClientCount())

	require.NoError(t, srv.Event(proto.EventSink|proto.EventChange, 0))
	var msg Message
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, MessageEvent, msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "sink", msg.Event.Facility)
	assert.Equal(t, "change", msg.Event.Type)
	assert.Equal(t, proto.Index(0), msg.Event.Index)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 0, b.Hub().ClientCount())
}

func TestRunStopsWithClient(t *testing.T) {
	srv, c, b := setup(t, Config{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errc := make(chan error, 1)
	go func() { errc <- b.Run(context.Background(), ln, c.Done()) }()

	srv.HangUpAll()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, proto.ErrConnectionTerminated)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

type fakeConn struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return f.err
}

func (f *fakeConn) Drain() error { return nil }

func TestPublisher(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "", discardLogger())
	p.Publish(pulse.Event{Type: "new", Facility: "sink-input", Index: 12, Raw: proto.EventSinkInput | proto.EventNew})

	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "pulse.events.sink-input.new", conn.subjects[0])
	assert.JSONEq(t, `{"type":"new","facility":"sink-input","index":12}`, string(conn.payloads[0]))

	conn.err = errors.New("nats: connection closed")
	p = NewPublisher(conn, "desk.audio", discardLogger())
	p.Publish(pulse.Event{Type: "remove", Facility: "card", Index: 0})
	assert.Equal(t, "desk.audio.card.remove", conn.subjects[1])
	assert.NoError(t, p.Close())
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{proto.ErrInvalidArgument, http.StatusBadRequest},
		{fmt.Errorf("pulseaudio: sink: %w", proto.ErrNoSuchEntity), http.StatusNotFound},
		{proto.ErrAccessDenied, http.StatusForbidden},
		{fmt.Errorf("%w: %w", proto.ErrConnectionTerminated, io.EOF), http.StatusServiceUnavailable},
		{proto.ErrInternalError, http.StatusBadGateway},
		{errors.New("something else"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}
