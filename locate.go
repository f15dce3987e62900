package pulse

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deskaudio/pulse/internal/x11prop"
	"github.com/deskaudio/pulse/proto"
)

// clientConf holds the directives of client.conf this package honours.
type clientConf struct {
	DefaultServer        string
	CookieFile           string
	AutoConnectLocalhost bool
}

// parseClientConf reads "key = value" lines. Comments start with # or ;.
// Unknown keys are ignored.
func parseClientConf(r io.Reader) (clientConf, error) {
	var conf clientConf
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" || text[0] == '#' || text[0] == ';' || text[0] == '.' || text[0] == '[' {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return conf, fmt.Errorf("line %d: missing '='", line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "default-server":
			conf.DefaultServer = value
		case "cookie-file":
			conf.CookieFile = value
		case "auto-connect-localhost":
			b, err := parseConfBool(value)
			if err != nil {
				return conf, fmt.Errorf("line %d: %s: %w", line, key, err)
			}
			conf.AutoConnectLocalhost = b
		}
	}
	return conf, s.Err()
}

func parseConfBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "yes", "true", "on", "y", "t":
		return true, nil
	case "0", "no", "false", "off", "n", "f":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// environment is what address and cookie resolution looks at. Tests
// replace it to run without touching the host.
type environment struct {
	getenv   func(string) string
	readFile func(string) ([]byte, error)
	home     string
	uid      int
	// x11 returns the root window properties of a display.
	x11 func(display string, names ...string) (map[string]string, error)
}

func hostEnvironment() environment {
	home, _ := os.UserHomeDir()
	return environment{
		getenv:   os.Getenv,
		readFile: os.ReadFile,
		home:     home,
		uid:      os.Getuid(),
		x11:      x11prop.Read,
	}
}

// resolved is the outcome of resolving the environment once.
type resolved struct {
	candidates []Candidate
	cookie     []byte
}

func (e environment) configPaths() []string {
	if p := e.getenv("PULSE_CLIENTCONFIG"); p != "" {
		return []string{p}
	}
	var paths []string
	if xdg := e.getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "pulse", "client.conf"))
	}
	if e.home != "" {
		paths = append(paths, filepath.Join(e.home, ".config", "pulse", "client.conf"))
	}
	return append(paths, "/etc/pulse/client.conf")
}

// loadClientConf returns the first client.conf found.
func (e environment) loadClientConf(log *slog.Logger) clientConf {
	for _, p := range e.configPaths() {
		b, err := e.readFile(p)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warn("pulseaudio: cannot read client config", "path", p, "error", err)
			}
			continue
		}
		conf, err := parseClientConf(bytes.NewReader(b))
		if err != nil {
			log.Warn("pulseaudio: invalid client config", "path", p, "error", err)
			return clientConf{}
		}
		log.Debug("pulseaudio: using client config", "path", p)
		return conf
	}
	return clientConf{}
}

// x11Props reads PULSE_SERVER and PULSE_COOKIE from the X11 root window.
func (e environment) x11Props(log *slog.Logger) map[string]string {
	display := e.getenv("DISPLAY")
	if display == "" || e.x11 == nil {
		return nil
	}
	props, err := e.x11(display, "PULSE_SERVER", "PULSE_COOKIE")
	if err != nil {
		log.Debug("pulseaudio: no X11 properties", "display", display, "error", err)
		return nil
	}
	return props
}

// resolve builds the candidate list and loads the cookie. server and
// cookiePath override the environment when set.
func (e environment) resolve(server, cookiePath string, log *slog.Logger) (resolved, error) {
	conf := e.loadClientConf(log)
	x11 := e.x11Props(log)

	var r resolved
	r.candidates = e.candidates(server, conf, x11)
	if len(r.candidates) == 0 {
		return r, ErrNoServer
	}
	cookie, err := e.cookie(cookiePath, conf, x11, log)
	if err != nil {
		return r, err
	}
	r.cookie = cookie
	return r, nil
}

func (e environment) candidates(server string, conf clientConf, x11 map[string]string) []Candidate {
	for _, s := range []string{server, e.getenv("PULSE_SERVER"), x11["PULSE_SERVER"], conf.DefaultServer} {
		if s == "" {
			continue
		}
		if c := ParseServerString(s); len(c) > 0 {
			return c
		}
	}

	var c []Candidate
	seen := make(map[string]bool)
	add := func(network, addr string) {
		if !seen[network+addr] {
			seen[network+addr] = true
			c = append(c, Candidate{Network: network, Address: addr})
		}
	}
	if dir := e.getenv("XDG_RUNTIME_DIR"); dir != "" {
		add("unix", filepath.Join(dir, "pulse", "native"))
	}
	add("unix", filepath.Join("/run/user", strconv.Itoa(e.uid), "pulse", "native"))
	add("unix", "/var/run/pulse/native")
	if conf.AutoConnectLocalhost {
		add("tcp4", "localhost:"+strconv.Itoa(DefaultPort))
		add("tcp6", "localhost:"+strconv.Itoa(DefaultPort))
	}
	return c
}

// cookie returns the authentication cookie. Without one, a cookie of
// zeros is sent; servers with anonymous authentication accept it.
func (e environment) cookie(path string, conf clientConf, x11 map[string]string, log *slog.Logger) ([]byte, error) {
	if path != "" {
		return e.readCookie(path)
	}
	if p := e.getenv("PULSE_COOKIE"); p != "" {
		return e.readCookie(p)
	}
	if h := x11["PULSE_COOKIE"]; h != "" {
		b, err := hex.DecodeString(h)
		if err == nil && len(b) == proto.CookieLength {
			return b, nil
		}
		log.Warn("pulseaudio: ignoring invalid X11 cookie")
	}
	if conf.CookieFile != "" {
		if b, err := e.readCookie(conf.CookieFile); err == nil {
			return b, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if e.home != "" {
		for _, p := range []string{
			filepath.Join(e.home, ".config", "pulse", "cookie"),
			filepath.Join(e.home, ".pulse-cookie"),
		} {
			b, err := e.readCookie(p)
			if err == nil {
				return b, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}
	log.Debug("pulseaudio: no cookie found, authenticating anonymously")
	return make([]byte, proto.CookieLength), nil
}

func (e environment) readCookie(path string) ([]byte, error) {
	b, err := e.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("pulseaudio: read cookie: %w", err)
	}
	if len(b) < proto.CookieLength {
		return nil, fmt.Errorf("pulseaudio: cookie %s has %d bytes: %w", path, len(b), proto.ErrNoAuthenticationKey)
	}
	return b[:proto.CookieLength], nil
}
