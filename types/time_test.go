package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2025-03-17T23:28:59.974405Z")
	require.NoError(t, err)
	assert.Equal(t, 2025, ts.Year())
	assert.Equal(t, time.March, ts.Month())
	assert.Equal(t, 23, ts.Hour())
	assert.Equal(t, 974405000, ts.Nanosecond())
	assert.Equal(t, time.UTC, ts.Location())

	// The trailing Z is literal text, not a zone shift.
	noZ, err := ParseTimestamp("2025-03-17T23:28:59.974405")
	require.NoError(t, err)
	assert.True(t, ts.Equal(noZ))

	_, err = ParseTimestamp("not a timestamp")
	assert.Error(t, err)
}

func TestFormatTimestampRoundTrip(t *testing.T) {
	in := "2025-03-17T23:28:59.974405Z"
	ts, err := ParseTimestamp(in)
	require.NoError(t, err)
	assert.Equal(t, in, FormatTimestamp(ts))
}

func TestTimestampFromLine(t *testing.T) {
	line := "2025-03-17T23:28:59.974405Z  INFO reth_node_events::node: Block added to canonical chain number=100"
	ts, ok := TimestampFromLine(line)
	require.True(t, ok)
	assert.Equal(t, 59, ts.Second())

	_, ok = TimestampFromLine("no timestamp here")
	assert.False(t, ok)
}

func TestParseElapsed(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"24.737359ms": 24737359 * time.Nanosecond,
		"1.2s":        1200 * time.Millisecond,
		"850µs":       850 * time.Microsecond,
	} {
		got, err := ParseElapsed(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseElapsed("fast")
	assert.Error(t, err)
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, 1500.0, Milliseconds(1500*time.Millisecond))
	assert.Equal(t, 0.5, Milliseconds(500*time.Microsecond))
}

func TestSortEventsStable(t *testing.T) {
	t0 := time.Date(2025, 3, 17, 23, 0, 0, 0, time.UTC)
	events := []Event{
		{Kind: EventBlockAdded, Time: t0.Add(time.Second), Seq: 5},
		{Kind: EventBlockAdded, Time: t0, Seq: 3},
		{Kind: EventBlockAdded, Time: t0, Seq: 1},
	}
	SortEvents(events)
	assert.Equal(t, []int{1, 3, 5}, []int{events[0].Seq, events[1].Seq, events[2].Seq})
}
