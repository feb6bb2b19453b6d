package correlate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/blockmetrics/types"
)

var base = time.Date(2025, 3, 17, 23, 0, 0, 0, time.UTC)

func added(number uint64, at time.Duration, seq int) types.Event {
	return types.Event{
		Kind:    types.EventBlockAdded,
		Time:    base.Add(at),
		Seq:     seq,
		Number:  number,
		Elapsed: 20 * time.Millisecond,
	}
}

func root(number uint64, at time.Duration, elapsed time.Duration) types.Event {
	return types.Event{
		Kind:        types.EventStateRootCalculated,
		Time:        base.Add(at),
		Number:      number,
		RootElapsed: elapsed,
	}
}

func proofs(at time.Duration, total time.Duration) types.Event {
	return types.Event{
		Kind:      types.EventProofsProcessed,
		Time:      base.Add(at),
		TotalTime: total,
	}
}

func TestCorrelateRootNearest(t *testing.T) {
	// Two occurrences of block 100 (dual-run file); each root event pairs
	// with the nearest anchor carrying its number.
	events := []types.Event{
		added(100, 0, 0),
		root(100, 2*time.Second, 10*time.Millisecond),
		added(100, time.Hour, 1),
		root(100, time.Hour+50*time.Second, 30*time.Millisecond),
	}

	records := Correlate(events)
	require.Len(t, records, 2)

	first := records[base]
	require.NotNil(t, first.RootElapsed)
	assert.Equal(t, 10*time.Millisecond, *first.RootElapsed)

	second := records[base.Add(time.Hour)]
	require.NotNil(t, second.RootElapsed)
	assert.Equal(t, 30*time.Millisecond, *second.RootElapsed)
}

func TestCorrelateRootKeepsNearestOfMany(t *testing.T) {
	// One record, two root events for its number: the nearer one wins no
	// matter which order the events arrive in.
	forward := []types.Event{
		added(100, 0, 0),
		root(100, 2*time.Second, 11*time.Millisecond),
		root(100, 50*time.Second, 99*time.Millisecond),
	}
	reversed := []types.Event{forward[0], forward[2], forward[1]}

	for _, events := range [][]types.Event{forward, reversed} {
		records := Correlate(events)
		require.NotNil(t, records[base].RootElapsed)
		assert.Equal(t, 11*time.Millisecond, *records[base].RootElapsed)
	}
}

func TestCorrelateRootWrongNumberIgnored(t *testing.T) {
	events := []types.Event{
		added(100, 0, 0),
		root(200, time.Second, 10*time.Millisecond),
	}
	records := Correlate(events)
	assert.Nil(t, records[base].RootElapsed)
}

func TestCorrelateProofForwardWindow(t *testing.T) {
	events := []types.Event{
		added(100, 0, 0),
		proofs(3*time.Second, 100*time.Millisecond),
		added(200, time.Minute, 1),
		proofs(time.Minute+15*time.Second, 200*time.Millisecond), // beyond the 10s window
	}

	records := Correlate(events)

	first := records[base]
	require.NotNil(t, first.Processing)
	assert.Equal(t, 100*time.Millisecond, *first.Processing)

	second := records[base.Add(time.Minute)]
	assert.Nil(t, second.Processing)
}

func TestCorrelateProofStrictlyAfter(t *testing.T) {
	// A proof event exactly at the anchor timestamp is not "after" it.
	events := []types.Event{
		added(100, 0, 0),
		proofs(0, 100*time.Millisecond),
	}
	records := Correlate(events)
	assert.Nil(t, records[base].Processing)
}

func TestCorrelateProofEarliestWins(t *testing.T) {
	events := []types.Event{
		added(100, 0, 0),
		proofs(5*time.Second, 500*time.Millisecond),
		proofs(time.Second, 100*time.Millisecond),
	}
	records := Correlate(events)
	require.NotNil(t, records[base].Processing)
	assert.Equal(t, 100*time.Millisecond, *records[base].Processing)
}

func TestCorrelateDuplicateTimestampKeepsFirst(t *testing.T) {
	ev1 := added(100, 0, 0)
	ev2 := added(101, 0, 1) // same timestamp, different block
	records := Correlate([]types.Event{ev1, ev2})
	require.Len(t, records, 1)
	assert.Equal(t, uint64(100), records[base].Number)
}

func TestCorrelateOrderIndependent(t *testing.T) {
	forward := []types.Event{
		added(100, 0, 0),
		root(100, time.Second, 10*time.Millisecond),
		proofs(2*time.Second, 50*time.Millisecond),
	}
	reversed := []types.Event{forward[2], forward[1], forward[0]}

	a := Correlate(forward)
	b := Correlate(reversed)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, *a[base].RootElapsed, *b[base].RootElapsed)
	assert.Equal(t, *a[base].Processing, *b[base].Processing)
}
