package pulse

import (
	"reflect"
	"testing"
)

func TestParseServerString(t *testing.T) {
	cases := []struct {
		input  string
		result []Candidate
	}{
		{
			"/path/to/socket",
			[]Candidate{
				{"", "unix", "/path/to/socket"},
			},
		},
		{
			"unix:/run/user/1000/pulse/native",
			[]Candidate{
				{"", "unix", "/run/user/1000/pulse/native"},
			},
		},
		{
			"tcp4:host:1234",
			[]Candidate{
				{"", "tcp4", "host:1234"},
			},
		},
		{
			"tcp6:[::1]:1234",
			[]Candidate{
				{"", "tcp6", "[::1]:1234"},
			},
		},
		{
			"tcp6:[::1]",
			[]Candidate{
				{"", "tcp6", "[::1]:4713"},
			},
		},
		{
			"tcp:address",
			[]Candidate{
				{"", "tcp", "address:4713"},
			},
		},
		{
			"gurki",
			[]Candidate{
				{"", "tcp", "gurki:4713"},
			},
		},
		{
			"{somewhere}/path/to/socket tcp:address:port",
			[]Candidate{
				{"somewhere", "unix", "/path/to/socket"},
				{"", "tcp", "address:port"},
			},
		},
		{
			"{broken/path unix: tcp:",
			nil,
		},
	}
	for _, c := range cases {
		s := ParseServerString(c.input)
		if !reflect.DeepEqual(c.result, s) {
			t.Errorf("Expected parse result: %+v, but got: %+v", c.result, s)
		}
	}
}

func TestCandidateString(t *testing.T) {
	c := Candidate{LocalName: "box", Network: "unix", Address: "/tmp/native"}
	if got := c.String(); got != "{box}unix:/tmp/native" {
		t.Errorf("got %q", got)
	}
}
