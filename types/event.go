package types

import (
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type EventKind int

const (
	EventBlockAdded EventKind = iota
	EventStateRootCalculated
	EventProofsProcessed
	EventEndConditionSample
)

func (k EventKind) String() string {
	switch k {
	case EventBlockAdded:
		return "block_added"
	case EventStateRootCalculated:
		return "state_root_calculated"
	case EventProofsProcessed:
		return "proofs_processed"
	case EventEndConditionSample:
		return "end_condition_sample"
	default:
		return "unknown"
	}
}

// Event is one typed, timestamped fact extracted from a single log line.
// Which fields are meaningful depends on Kind; events are never mutated
// after extraction.
type Event struct {
	Kind EventKind
	Time time.Time
	Seq  int    // position within the file, breaks timestamp ties
	Line string // the raw line the event was extracted from

	// EventBlockAdded, EventStateRootCalculated
	Number uint64
	Hash   common.Hash

	// EventBlockAdded
	Elapsed time.Duration

	// EventStateRootCalculated
	RootElapsed time.Duration

	// EventProofsProcessed
	TotalTime time.Duration

	// EventEndConditionSample
	ProofsProcessed            uint64
	StateUpdateProofsRequested uint64
	PrefetchProofsRequested    uint64
}

// SortEvents orders events by timestamp, file position breaking ties, so a
// re-extraction of the same file always yields the same order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Time.Equal(events[j].Time) {
			return events[i].Seq < events[j].Seq
		}
		return events[i].Time.Before(events[j].Time)
	})
}

// FilterKind returns the events of one kind, preserving order.
func FilterKind(events []Event, kind EventKind) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
