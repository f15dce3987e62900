package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskaudio/pulse/proto"
)

func TestParseIndex(t *testing.T) {
	n, err := parseIndex("12")
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
	n, err = parseIndex("#3")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	for _, s := range []string{"", "-1", "sink", "4294967295", "4294967296"} {
		_, err := parseIndex(s)
		assert.Error(t, err, s)
	}
}

func TestParseSwitch(t *testing.T) {
	for _, s := range []string{"on", "ON", "yes", "true", "1"} {
		b, err := parseSwitch(s)
		require.NoError(t, err)
		assert.True(t, b, s)
	}
	for _, s := range []string{"off", "no", "false", "0"} {
		b, err := parseSwitch(s)
		require.NoError(t, err)
		assert.False(t, b, s)
	}
	_, err := parseSwitch("toggle")
	assert.Error(t, err)
}

func TestPercentVolumes(t *testing.T) {
	p, err := parsePercents([]string{"50", "125%"})
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 125}, p)
	_, err = parsePercents([]string{"-5"})
	assert.Error(t, err)
	_, err = parsePercents([]string{"loud"})
	assert.Error(t, err)
	_, err = parsePercents([]string{"NaN"})
	assert.Error(t, err)

	cvol, err := percentVolumes(2, []float64{50})
	require.NoError(t, err)
	assert.Equal(t, proto.ChannelVolumes{0x8000, 0x8000}, cvol)

	cvol, err = percentVolumes(2, []float64{100, 25})
	require.NoError(t, err)
	assert.Equal(t, proto.ChannelVolumes{0x10000, 0x4000}, cvol)

	_, err = percentVolumes(2, []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestParseMicroseconds(t *testing.T) {
	cases := map[string]int64{
		"1500":  1500,
		"-1500": -1500,
		"15ms":  15000,
		"-2ms":  -2000,
		"1s":    1000000,
	}
	for s, want := range cases {
		got, err := parseMicroseconds(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	_, err := parseMicroseconds("soon")
	assert.Error(t, err)
}
