package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/deskaudio/pulse/internal/pulsetest"
	"github.com/deskaudio/pulse/proto"
)

const speakers = "alsa_output.pci-0000_00_1f.3.analog-stereo"

func testServer(t *testing.T) *pulsetest.Server {
	srv := pulsetest.NewServer()
	t.Cleanup(srv.Close)

	sink := &proto.GetSinkInfoReply{
		SinkIndex:      0,
		SinkName:       speakers,
		Description:    "Built-in Audio Analog Stereo",
		SampleSpec:     proto.SampleSpec{Format: proto.FormatInt16LE, Channels: 2, Rate: 48000},
		ChannelMap:     proto.ChannelMap{proto.ChannelFrontLeft, proto.ChannelFrontRight},
		ChannelVolumes: proto.ChannelVolumes{0x8000, 0x8000},
		State:          proto.DeviceStateRunning,
		CardIndex:      proto.NoIndex,
	}
	srv.Reply(proto.OpGetSinkInfo, sink)
	srv.Reply(proto.OpGetSinkInfoList, &proto.GetSinkInfoListReply{sink})
	srv.Reply(proto.OpGetServerInfo, &proto.GetServerInfoReply{
		PackageName:       "pulseaudio",
		PackageVersion:    "16.1",
		DefaultSampleSpec: proto.SampleSpec{Format: proto.FormatInt16LE, Channels: 2, Rate: 44100},
		DefaultSinkName:   speakers,
	})
	srv.Reply(proto.OpLookupSink, &proto.LookupSinkReply{SinkIndex: 0})
	for _, op := range []uint32{proto.OpSetSinkVolume, proto.OpSetSinkMute, proto.OpSetPortLatencyOffset, proto.OpKillClient} {
		srv.Reply(op, nil)
	}
	return srv
}

// execute runs pulsectl with args against srv and returns its output.
func execute(t *testing.T, srv *pulsetest.Server, args ...string) (string, error) {
	t.Helper()
	a := &app{dialer: srv}
	cmd := newRootCmd(a)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join("testdata", "config.yaml"),
		"--server", "unix:/run/user/1000/pulse/native",
		"--cookie", filepath.Join("testdata", "cookie"),
	}, args...))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestListSinks(t *testing.T) {
	srv := testServer(t)

	out, err := execute(t, srv, "list", "sinks")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"INDEX", "NAME", "STATE", "VOLUME", "MUTED", "DESCRIPTION"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[1], speakers)
	assert.Contains(t, lines[1], "running")
	assert.Contains(t, lines[1], "50%")
	assert.True(t, strings.HasSuffix(lines[1], "(default)"), lines[1])

	out, err = execute(t, srv, "list", "sinks", "-o", "json")
	require.NoError(t, err)
	var sinks []proto.GetSinkInfoReply
	require.NoError(t, json.Unmarshal([]byte(out), &sinks))
	require.Len(t, sinks, 1)
	assert.Equal(t, speakers, sinks[0].SinkName)

	_, err = execute(t, srv, "list", "widgets")
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	srv := testServer(t)

	out, err := execute(t, srv, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "pulseaudio 16.1")
	assert.Contains(t, out, "s16le 2ch 44100Hz")

	out, err = execute(t, srv, "info", "-o", "yaml")
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, "pulseaudio", report["PackageName"])
	assert.Equal(t, 32, report["ProtocolVersion"])
	assert.Equal(t, "unix:/run/user/1000/pulse/native", report["Server"])
}

func TestControlCommands(t *testing.T) {
	srv := testServer(t)

	out, err := execute(t, srv, "volume", "sink", speakers, "100", "25%")
	require.NoError(t, err)
	assert.Contains(t, out, "volume set")

	_, err = execute(t, srv, "mute", "sink", "0", "on")
	require.NoError(t, err)
	_, err = execute(t, srv, "latency-offset", "0", "analog-output-speaker", "--", "-1500")
	require.NoError(t, err)
	_, err = execute(t, srv, "kill", "client", "7")
	require.NoError(t, err)

	_, err = execute(t, srv, "mute", "sink", "0", "maybe")
	assert.Error(t, err)
	_, err = execute(t, srv, "volume", "sink", "0", "1", "2", "3")
	assert.Error(t, err)

	var (
		vol    proto.SetSinkVolume
		mute   proto.SetSinkMute
		offset proto.SetPortLatencyOffset
		kill   proto.KillClient
	)
	for _, r := range srv.Requests() {
		switch r.Command {
		case proto.OpSetSinkVolume:
			require.NoError(t, r.Decode(&vol))
		case proto.OpSetSinkMute:
			require.NoError(t, r.Decode(&mute))
		case proto.OpSetPortLatencyOffset:
			require.NoError(t, r.Decode(&offset))
		case proto.OpKillClient:
			require.NoError(t, r.Decode(&kill))
		}
	}
	assert.Equal(t, proto.ChannelVolumes{0x10000, 0x4000}, vol.ChannelVolumes)
	assert.True(t, mute.Mute)
	assert.Equal(t, int64(-1500), offset.Offset)
	assert.EqualValues(t, 7, kill.ClientIndex)
}

func TestLookup(t *testing.T) {
	srv := testServer(t)
	out, err := execute(t, srv, "lookup", "sink", speakers, "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":0}`, out)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, nil, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestServerError(t *testing.T) {
	srv := testServer(t)
	_, err := execute(t, srv, "get", "card", "0")
	assert.ErrorIs(t, err, proto.ErrNotSupported)
}
