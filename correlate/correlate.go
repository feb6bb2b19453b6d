// Package correlate merges extracted events into per-block timing records
// and partitions records into runs. Events of different kinds share no
// explicit key, so association is by timestamp proximity: bidirectional
// nearest-match for state-root events (which carry a block number), bounded
// forward search for proof-processing events (which do not).
package correlate

import (
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	log "github.com/colorfulnotion/blockmetrics/log"
	"github.com/colorfulnotion/blockmetrics/types"
)

// ProofForwardWindow bounds how far after a block-added event a
// proof-processing event may occur and still be attached to that block.
// Without the bound a block at the tail of a run would pair with proofs from
// a much later block.
const ProofForwardWindow = 10 * time.Second

// Correlate builds one BlockRecord per block-added event and enriches each
// with the nearest state-root time and the earliest qualifying
// proof-processing time. Input order does not matter; output is
// deterministic for a given event set. Fields with no match within
// tolerance stay nil.
func Correlate(events []types.Event) types.RecordMap {
	records := make(types.RecordMap)
	byNumber := make(map[uint64][]*types.BlockRecord)

	for _, ev := range events {
		if ev.Kind != types.EventBlockAdded {
			continue
		}
		if _, exists := records[ev.Time]; exists {
			log.Warn(log.CorrelateMonitoring, "duplicate block-added timestamp, keeping first", "ts", types.FormatTimestamp(ev.Time), "number", ev.Number)
			continue
		}
		rec := &types.BlockRecord{
			Number:  ev.Number,
			Hash:    ev.Hash,
			Time:    ev.Time,
			Seq:     ev.Seq,
			Elapsed: ev.Elapsed,
		}
		records[ev.Time] = rec
		byNumber[ev.Number] = append(byNumber[ev.Number], rec)
	}

	attachRootTimes(events, byNumber)
	attachProofTimes(events, records)

	log.Debug(log.CorrelateMonitoring, "correlated events", "records", len(records), "blocks", len(byNumber))
	return records
}

// attachRootTimes matches each state-root event against the records sharing
// its block number, nearest absolute timestamp delta winning. There is no
// window: root calculation sits right next to block commit, so the nearest
// record for the same number is always the right one. Several root events
// may resolve to the same record; the record keeps the nearest of them, not
// the last one processed.
func attachRootTimes(events []types.Event, byNumber map[uint64][]*types.BlockRecord) {
	attached := make(map[*types.BlockRecord]time.Duration)
	for _, ev := range events {
		if ev.Kind != types.EventStateRootCalculated {
			continue
		}
		candidates := byNumber[ev.Number]
		if len(candidates) == 0 {
			continue
		}
		best := candidates[0]
		bestDelta := absDelta(ev.Time, best.Time)
		for _, rec := range candidates[1:] {
			if d := absDelta(ev.Time, rec.Time); d < bestDelta {
				best, bestDelta = rec, d
			}
		}
		if prev, ok := attached[best]; ok && bestDelta >= prev {
			continue
		}
		attached[best] = bestDelta
		rootElapsed := ev.RootElapsed
		best.RootElapsed = &rootElapsed
		if best.Hash == (common.Hash{}) {
			best.Hash = ev.Hash
		}
	}
}

// attachProofTimes gives every record the earliest proof-processing event
// strictly after its anchor and within ProofForwardWindow. Proof events
// carry no block number, so two records close in time may legitimately claim
// the same event; there is no mutual exclusion.
func attachProofTimes(events []types.Event, records types.RecordMap) {
	proofs := types.FilterKind(events, types.EventProofsProcessed)
	types.SortEvents(proofs)
	if len(proofs) == 0 {
		return
	}

	for _, rec := range records {
		// Earliest proof strictly after the anchor.
		i := sort.Search(len(proofs), func(i int) bool {
			return proofs[i].Time.After(rec.Time)
		})
		if i == len(proofs) {
			continue
		}
		if proofs[i].Time.Sub(rec.Time) > ProofForwardWindow {
			continue
		}
		totalTime := proofs[i].TotalTime
		rec.Processing = &totalTime
	}
}

func absDelta(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
