package types

import "time"

// BlockWindow is a heuristically inferred time range believed to correspond
// to one block's processing, derived from resets in the proofs_processed
// counter rather than explicit block markers. Index follows discovery order.
//
// Record is the block identity attached afterwards by proximity search; nil
// when nothing matched.
type BlockWindow struct {
	Index  int
	Start  time.Time
	End    time.Time
	Record *BlockRecord
}

// Contains reports whether ts falls inside the window, bounds inclusive.
func (w *BlockWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && !ts.After(w.End)
}

// WindowStats summarizes the counter samples inside one window. Rate is
// delta proofs_processed over delta time in proofs per second; it is zero
// whenever the window spans no measurable time.
type WindowStats struct {
	DurationMS float64
	Rate       float64
	Samples    int
}
