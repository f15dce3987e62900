package pulse

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskaudio/pulse/proto"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func fakeEnvironment(env map[string]string, files map[string][]byte) environment {
	return environment{
		getenv: func(k string) string { return env[k] },
		readFile: func(p string) ([]byte, error) {
			if b, ok := files[p]; ok {
				return b, nil
			}
			return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
		},
		home: "/home/user",
		uid:  1000,
	}
}

func cookieOf(b byte) []byte {
	return bytes.Repeat([]byte{b}, proto.CookieLength)
}

func TestParseClientConf(t *testing.T) {
	conf, err := parseClientConf(strings.NewReader(`
# comment
; another comment
default-server = unix:/tmp/pulse
cookie-file=/etc/pulse/cookie
auto-connect-localhost = yes
extra-arguments = --log-target=syslog
`))
	require.NoError(t, err)
	assert.Equal(t, clientConf{
		DefaultServer:        "unix:/tmp/pulse",
		CookieFile:           "/etc/pulse/cookie",
		AutoConnectLocalhost: true,
	}, conf)

	_, err = parseClientConf(strings.NewReader("default-server\n"))
	assert.Error(t, err)
	_, err = parseClientConf(strings.NewReader("auto-connect-localhost = maybe\n"))
	assert.Error(t, err)
}

func TestCandidateOrder(t *testing.T) {
	conf := clientConf{DefaultServer: "tcp:confhost"}
	x11 := map[string]string{"PULSE_SERVER": "tcp:x11host"}
	env := map[string]string{"PULSE_SERVER": "tcp:envhost"}

	cases := []struct {
		name   string
		server string
		env    map[string]string
		x11    map[string]string
		conf   clientConf
		want   string
	}{
		{"explicit", "tcp:explicit", env, x11, conf, "explicit:4713"},
		{"environment", "", env, x11, conf, "envhost:4713"},
		{"x11", "", nil, x11, conf, "x11host:4713"},
		{"config", "", nil, nil, conf, "confhost:4713"},
		{"unparsable explicit falls through", "{broken", env, nil, conf, "envhost:4713"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := fakeEnvironment(tc.env, nil)
			got := e.candidates(tc.server, tc.conf, tc.x11)
			require.Len(t, got, 1)
			assert.Equal(t, tc.want, got[0].Address)
		})
	}
}

func TestCandidateFallbacks(t *testing.T) {
	e := fakeEnvironment(map[string]string{"XDG_RUNTIME_DIR": "/run/user/1000"}, nil)
	got := e.candidates("", clientConf{AutoConnectLocalhost: true}, nil)
	want := []Candidate{
		{Network: "unix", Address: "/run/user/1000/pulse/native"},
		{Network: "unix", Address: "/var/run/pulse/native"},
		{Network: "tcp4", Address: "localhost:4713"},
		{Network: "tcp6", Address: "localhost:4713"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}

	got = fakeEnvironment(nil, nil).candidates("", clientConf{}, nil)
	want = []Candidate{
		{Network: "unix", Address: "/run/user/1000/pulse/native"},
		{Network: "unix", Address: "/var/run/pulse/native"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestCookieOrder(t *testing.T) {
	files := map[string][]byte{
		"/explicit":                       cookieOf(1),
		"/from-env":                       cookieOf(2),
		"/from-conf":                      cookieOf(4),
		"/home/user/.config/pulse/cookie": cookieOf(5),
		"/home/user/.pulse-cookie":        cookieOf(6),
	}
	x11 := map[string]string{"PULSE_COOKIE": hex.EncodeToString(cookieOf(3))}
	env := map[string]string{"PULSE_COOKIE": "/from-env"}
	conf := clientConf{CookieFile: "/from-conf"}

	e := fakeEnvironment(env, files)
	b, err := e.cookie("/explicit", conf, x11, discard)
	require.NoError(t, err)
	assert.Equal(t, cookieOf(1), b)

	b, err = e.cookie("", conf, x11, discard)
	require.NoError(t, err)
	assert.Equal(t, cookieOf(2), b)

	e = fakeEnvironment(nil, files)
	b, err = e.cookie("", conf, x11, discard)
	require.NoError(t, err)
	assert.Equal(t, cookieOf(3), b)

	b, err = e.cookie("", conf, nil, discard)
	require.NoError(t, err)
	assert.Equal(t, cookieOf(4), b)

	b, err = e.cookie("", clientConf{}, map[string]string{"PULSE_COOKIE": "zz"}, discard)
	require.NoError(t, err)
	assert.Equal(t, cookieOf(5), b)

	delete(files, "/home/user/.config/pulse/cookie")
	b, err = e.cookie("", clientConf{}, nil, discard)
	require.NoError(t, err)
	assert.Equal(t, cookieOf(6), b)

	delete(files, "/home/user/.pulse-cookie")
	b, err = e.cookie("", clientConf{}, nil, discard)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, proto.CookieLength), b, "anonymous")
}

func TestReadCookie(t *testing.T) {
	e := fakeEnvironment(nil, map[string][]byte{
		"/short": []byte("secret"),
		"/long":  append(cookieOf(7), 1, 2, 3),
	})
	_, err := e.readCookie("/short")
	assert.ErrorIs(t, err, proto.ErrNoAuthenticationKey)

	b, err := e.readCookie("/long")
	require.NoError(t, err)
	assert.Equal(t, cookieOf(7), b)

	_, err = e.readCookie("/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	// an explicit cookie path must exist
	_, err = e.cookie("/missing", clientConf{}, nil, discard)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestResolve(t *testing.T) {
	files := map[string][]byte{
		"/home/user/.config/pulse/client.conf": []byte("default-server = {otherhost}tcp:remote /tmp/native\ncookie-file = /conf-cookie\n"),
		"/conf-cookie":                         cookieOf(9),
	}
	e := fakeEnvironment(map[string]string{"DISPLAY": ":0"}, files)
	var displays []string
	e.x11 = func(display string, names ...string) (map[string]string, error) {
		displays = append(displays, display)
		assert.Equal(t, []string{"PULSE_SERVER", "PULSE_COOKIE"}, names)
		return nil, errors.New("no X11")
	}

	r, err := e.resolve("", "", discard)
	require.NoError(t, err)
	assert.Equal(t, []string{":0"}, displays)
	assert.Equal(t, []Candidate{
		{LocalName: "otherhost", Network: "tcp", Address: "remote:4713"},
		{Network: "unix", Address: "/tmp/native"},
	}, r.candidates)
	assert.Equal(t, cookieOf(9), r.cookie)

	e.getenv = func(k string) string {
		if k == "PULSE_CLIENTCONFIG" {
			return "/custom.conf"
		}
		return ""
	}
	assert.Equal(t, []string{"/custom.conf"}, e.configPaths())
}
