package correlate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/blockmetrics/types"
)

func recordsOf(recs ...*types.BlockRecord) types.RecordMap {
	m := make(types.RecordMap)
	for _, r := range recs {
		m[r.Time] = r
	}
	return m
}

func rec(number uint64, at time.Duration) *types.BlockRecord {
	return &types.BlockRecord{Number: number, Time: base.Add(at)}
}

func TestSplitDualRun(t *testing.T) {
	records := recordsOf(
		rec(100, 0),
		rec(101, time.Second),
		rec(100, time.Hour),
		rec(101, time.Hour+time.Second),
	)

	run1, run2, dual := Split(records)
	assert.True(t, dual)
	require.Len(t, run1.Records, 2)
	require.Len(t, run2.Records, 2)

	// Earlier occurrences go to run 1.
	assert.Equal(t, base, run1.ByNumber()[100].Time)
	assert.Equal(t, base.Add(time.Hour), run2.ByNumber()[100].Time)
}

func TestSplitSingleOccurrenceInBothRuns(t *testing.T) {
	records := recordsOf(
		rec(100, 0),
		rec(100, time.Hour),
		rec(200, 2*time.Second), // only once
	)

	run1, run2, dual := Split(records)
	assert.True(t, dual)
	assert.Same(t, run1.ByNumber()[200], run2.ByNumber()[200])
}

func TestSplitSingleRunFile(t *testing.T) {
	records := recordsOf(rec(100, 0), rec(101, time.Second))

	run1, run2, dual := Split(records)
	assert.False(t, dual)
	assert.Equal(t, run1.Numbers(), run2.Numbers())
}

func TestSplitMoreThanTwoKeepsEarliest(t *testing.T) {
	records := recordsOf(
		rec(100, 0),
		rec(100, time.Hour),
		rec(100, 2*time.Hour),
	)

	run1, run2, dual := Split(records)
	assert.True(t, dual)
	assert.Equal(t, base, run1.ByNumber()[100].Time)
	assert.Equal(t, base.Add(time.Hour), run2.ByNumber()[100].Time)
	assert.Len(t, run1.Records, 1)
	assert.Len(t, run2.Records, 1)
}

func TestSplitRunsOrderedByTime(t *testing.T) {
	records := recordsOf(
		rec(103, 3*time.Second),
		rec(100, 0),
		rec(101, time.Second),
	)
	run1, _, _ := Split(records)
	assert.Equal(t, uint64(100), run1.Records[0].Number)
	assert.Equal(t, uint64(101), run1.Records[1].Number)
	assert.Equal(t, uint64(103), run1.Records[2].Number)
}

func TestCommonBlocks(t *testing.T) {
	run1 := &types.Run{Index: 1, Records: []*types.BlockRecord{
		rec(100, 0), rec(101, time.Second), rec(103, 2*time.Second),
	}}
	run2 := &types.Run{Index: 2, Records: []*types.BlockRecord{
		rec(100, time.Hour), rec(103, time.Hour+time.Second), rec(104, time.Hour+2*time.Second),
	}}

	assert.Equal(t, []uint64{100, 103}, CommonBlocks(run1, run2))
	assert.Empty(t, CommonBlocks(run1, &types.Run{Index: 2}))
}

func TestBoundaryTime(t *testing.T) {
	records := recordsOf(
		rec(100, 0),
		rec(100, 10*time.Minute),
	)

	bt, ok := BoundaryTime(records, 100)
	require.True(t, ok)
	assert.Equal(t, base.Add(5*time.Minute), bt)

	_, ok = BoundaryTime(recordsOf(rec(200, 0)), 200)
	assert.False(t, ok)
	_, ok = BoundaryTime(records, 999)
	assert.False(t, ok)
}
