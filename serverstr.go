package pulse

import (
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the port of the native protocol over TCP.
const DefaultPort = 4713

// A Candidate is one address a server may be reachable at.
type Candidate struct {
	// LocalName restricts the candidate to the host of that name.
	LocalName string
	// Network is "unix", "tcp", "tcp4" or "tcp6".
	Network string
	Address string
}

func (c Candidate) String() string {
	s := c.Network + ":" + c.Address
	if c.LocalName != "" {
		s = "{" + c.LocalName + "}" + s
	}
	return s
}

// ParseServerString parses a whitespace separated list of server addresses:
//
//	/path/to/socket
//	unix:/path/to/socket
//	tcp:host[:port], tcp4:host[:port], tcp6:host[:port]
//	host[:port]
//
// Each may be prefixed with {hostname} to restrict it to one machine.
// Entries that cannot be parsed are skipped.
//
// See https://www.freedesktop.org/wiki/Software/PulseAudio/Documentation/User/ServerStrings/
func ParseServerString(str string) []Candidate {
	var result []Candidate
	for _, s := range strings.Fields(str) {
		server, ok := parseOneServerString(s)
		if !ok {
			continue
		}
		result = append(result, server)
	}
	return result
}

func parseOneServerString(s string) (Candidate, bool) {
	var server Candidate
	if s[0] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return Candidate{}, false
		}
		server.LocalName = s[1:end]
		s = s[end+1:]
	}
	switch {
	case len(s) == 0:
		return Candidate{}, false
	case s[0] == '/':
		server.Network = "unix"
		server.Address = s
	case strings.HasPrefix(s, "unix:"):
		server.Network = "unix"
		server.Address = s[5:]
	case strings.HasPrefix(s, "tcp6:"):
		server.Network = "tcp6"
		server.Address = withDefaultPort(s[5:])
	case strings.HasPrefix(s, "tcp4:"):
		server.Network = "tcp4"
		server.Address = withDefaultPort(s[5:])
	case strings.HasPrefix(s, "tcp:"):
		server.Network = "tcp"
		server.Address = withDefaultPort(s[4:])
	default:
		server.Network = "tcp"
		server.Address = withDefaultPort(s)
	}
	if server.Address == "" {
		return Candidate{}, false
	}
	return server, true
}

func withDefaultPort(hostport string) string {
	if hostport == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(hostport); err == nil {
		return hostport
	}
	host := strings.TrimSuffix(strings.TrimPrefix(hostport, "["), "]")
	return net.JoinHostPort(host, strconv.Itoa(DefaultPort))
}
