package pattern

import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func TestParse_ISO8601(t *testing.T) {
	p, err := Compile(
		`^(?P<timestamp>\S+ \S+) (?P<message>.*)$`,
		"2006-01-02 15:04:05",
		"UTC",
	)
	require.NoError(t, err)

	got := Parse("2018-01-01 12:39:01 first message", p, "2018")

	assert.Equal(t, uint64(1514810341000), got.Timestamp)
	assert.Equal(t, "first message", got.Message)
	assert.Nil(t, got.Loglevel)
}

func TestParse_SyslogFallbackYear(t *testing.T) {
	p, err := Compile(
		`^(?P<timestamp_syslog>\S+ +\d+ \S+) (?P<message>.*)$`,
		"Jan 2 15:04:05",
		"UTC",
	)
	require.NoError(t, err)
	assert.True(t, p.SyslogTS)

	got := Parse("Feb 28 13:29:46 second message", p, "2019")

	assert.Equal(t, uint64(1551360586000), got.Timestamp)
	assert.Equal(t, "second message", got.Message)
}

func TestParse_NoMatch(t *testing.T) {
	p, err := Compile(
		`^(?P<timestamp>\S+ \S+) (?P<loglevel>\w+) (?P<message>.*)$`,
		"2006-01-02 15:04:05",
		"UTC",
	)
	require.NoError(t, err)

	line := "this does not match the pattern at all"
	got := Parse(line, p, "2018")

	assert.Equal(t, uint64(0), got.Timestamp)
	assert.Nil(t, got.Loglevel)
	assert.Equal(t, "Failed to parse: "+line, got.Message)
}

func TestParse_LoglevelCaptured(t *testing.T) {
	p, err := Compile(
		`^(?P<timestamp>\S+ \S+) (?P<loglevel>\w+) (?P<message>.*)$`,
		"2006-01-02 15:04:05",
		"UTC",
	)
	require.NoError(t, err)

	got := Parse("2018-01-01 12:39:01 ERROR boom", p, "2018")

	require.NotNil(t, got.Loglevel)
	assert.Equal(t, "ERROR", *got.Loglevel)
	assert.Equal(t, "boom", got.Message)
}

func TestParse_UnparsableTimestampYieldsZero(t *testing.T) {
	p, err := Compile(
		`^(?P<timestamp>\S+) (?P<message>.*)$`,
		"2006-01-02 15:04:05",
		"UTC",
	)
	require.NoError(t, err)

	got := Parse("not-a-timestamp rest of line", p, "2018")

	assert.Equal(t, uint64(0), got.Timestamp)
	assert.Equal(t, "rest of line", got.Message)
}
