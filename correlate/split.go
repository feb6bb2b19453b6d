package correlate

import (
	"sort"
	"time"

	log "github.com/colorfulnotion/blockmetrics/log"
	"github.com/colorfulnotion/blockmetrics/types"
)

// Split partitions the records of one file into two runs. A file is
// dual-run when any block number occurs more than once: the earlier
// occurrence belongs to run 1, the later to run 2. A block seen only once
// lands in both runs so neither side silently loses it; its cross-run diff
// is zero and callers must tolerate that. Occurrences beyond the second are
// dropped with a warning, keeping the earliest two.
func Split(records types.RecordMap) (run1, run2 *types.Run, dual bool) {
	run1 = &types.Run{Index: 1}
	run2 = &types.Run{Index: 2}

	for number, group := range records.ByNumber() {
		switch {
		case len(group) == 1:
			run1.Records = append(run1.Records, group[0])
			run2.Records = append(run2.Records, group[0])
		default:
			dual = true
			run1.Records = append(run1.Records, group[0])
			run2.Records = append(run2.Records, group[1])
			if len(group) > 2 {
				log.Warn(log.CorrelateMonitoring, "block number seen more than twice, keeping earliest two",
					"number", number, "occurrences", len(group), "dropped", len(group)-2)
			}
		}
	}

	sortRun(run1)
	sortRun(run2)
	return run1, run2, dual
}

func sortRun(r *types.Run) {
	sort.Slice(r.Records, func(i, j int) bool {
		if r.Records[i].Time.Equal(r.Records[j].Time) {
			return r.Records[i].Seq < r.Records[j].Seq
		}
		return r.Records[i].Time.Before(r.Records[j].Time)
	})
}

// CommonBlocks returns the block numbers present in both runs, ascending.
// An empty result is a well-defined state, not an error.
func CommonBlocks(run1, run2 *types.Run) []uint64 {
	in2 := run2.ByNumber()
	var common []uint64
	for number := range run1.ByNumber() {
		if _, ok := in2[number]; ok {
			common = append(common, number)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })
	return common
}

// BoundaryTime computes the run boundary for a dual-run file as the midpoint
// between the first two anchor timestamps of the given block number. False
// when the block occurs fewer than two times.
func BoundaryTime(records types.RecordMap, number uint64) (time.Time, bool) {
	group := records.ByNumber()[number]
	if len(group) < 2 {
		return time.Time{}, false
	}
	first, second := group[0].Time, group[1].Time
	return first.Add(second.Sub(first) / 2), true
}
