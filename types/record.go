package types

import (
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// BlockRecord is the merged timing record for one block within one run.
// It is keyed by the timestamp of its anchor event (the block-added line),
// not by block number: block numbers repeat across runs and reorgs.
//
// RootElapsed and Processing are nil when no matching event was found within
// tolerance. They are never fabricated and never encoded as sentinel strings.
type BlockRecord struct {
	Number uint64
	Hash   common.Hash
	Time   time.Time // anchor timestamp (block-added)
	Seq    int

	Elapsed     time.Duration  // block-added elapsed
	RootElapsed *time.Duration // state-root calculation, nearest by |dt|
	Processing  *time.Duration // proof processing, earliest within forward window
}

// RecordMap holds correlation output keyed by anchor timestamp. Values are
// pointers: later events enrich a record in place, so references handed out
// before enrichment stay valid.
type RecordMap map[time.Time]*BlockRecord

// Ordered returns the records sorted by anchor timestamp, file position
// breaking ties.
func (m RecordMap) Ordered() []*BlockRecord {
	out := make([]*BlockRecord, 0, len(m))
	for _, rec := range m {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time.Equal(out[j].Time) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// ByNumber groups records by block number, each group ordered by anchor
// timestamp. Numbers with more than one entry indicate a dual-run file or a
// reorg.
func (m RecordMap) ByNumber() map[uint64][]*BlockRecord {
	groups := make(map[uint64][]*BlockRecord)
	for _, rec := range m.Ordered() {
		groups[rec.Number] = append(groups[rec.Number], rec)
	}
	return groups
}

// Run is one benchmark execution's ordered block history. Within one run a
// given block number appears at most once.
type Run struct {
	Index   int // 1 or 2
	Records []*BlockRecord
}

// ByNumber returns the run's records keyed by block number.
func (r *Run) ByNumber() map[uint64]*BlockRecord {
	out := make(map[uint64]*BlockRecord, len(r.Records))
	for _, rec := range r.Records {
		if _, ok := out[rec.Number]; !ok {
			out[rec.Number] = rec
		}
	}
	return out
}

// Numbers returns the block numbers present in the run, ascending.
func (r *Run) Numbers() []uint64 {
	byNum := r.ByNumber()
	out := make([]uint64, 0, len(byNum))
	for n := range byNum {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
