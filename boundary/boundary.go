// Package boundary reconstructs approximate block windows from the periodic
// end-condition counter stream. The counter grows while one block's proofs
// are processed and collapses when the next block starts, so a sharp drop
// marks a boundary. This is a heuristic: an oscillating counter can merge or
// split windows, and no smoothing is applied.
package boundary

import (
	"time"

	log "github.com/colorfulnotion/blockmetrics/log"
	"github.com/colorfulnotion/blockmetrics/types"
)

// Identity attachment search bounds around a window's end.
const (
	lookbehind = 5 * time.Second
	lookahead  = 10 * time.Second
)

// DetectWindows derives block windows from end-condition samples, which must
// be in time order. A new window opens whenever proofs_processed drops below
// half the previous sample's value or resets to exactly zero. maxWindows
// caps the output defensively; zero means no cap.
func DetectWindows(samples []types.Event, maxWindows int) []*types.BlockWindow {
	if len(samples) == 0 {
		return nil
	}

	var windows []*types.BlockWindow
	start := samples[0].Time
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1].ProofsProcessed
		cur := samples[i].ProofsProcessed
		if cur*2 >= prev && cur != 0 {
			continue
		}
		windows = append(windows, &types.BlockWindow{
			Index: len(windows),
			Start: start,
			End:   samples[i-1].Time,
		})
		start = samples[i].Time
		if maxWindows > 0 && len(windows) >= maxWindows {
			log.Warn(log.BoundaryMonitoring, "window cap reached, ignoring remaining samples", "cap", maxWindows)
			return windows
		}
	}
	if !start.Equal(samples[len(samples)-1].Time) {
		windows = append(windows, &types.BlockWindow{
			Index: len(windows),
			Start: start,
			End:   samples[len(samples)-1].Time,
		})
	}
	return windows
}

// AttachIdentity assigns each window the block record it most plausibly
// corresponds to. Block completion logs trail the proof samples they
// describe, so the first pass looks just past the window's end; when that
// finds nothing the search widens to cover the whole window plus margins.
// Windows with no match keep a nil Record.
func AttachIdentity(windows []*types.BlockWindow, records types.RecordMap) {
	ordered := records.Ordered()
	for _, w := range windows {
		w.Record = findRecord(ordered, w)
	}
}

func findRecord(ordered []*types.BlockRecord, w *types.BlockWindow) *types.BlockRecord {
	// Narrow pass: anchors around the window's end, nearest wins.
	var best *types.BlockRecord
	var bestDelta time.Duration
	lo, hi := w.End.Add(-lookbehind), w.End.Add(lookahead)
	for _, rec := range ordered {
		if rec.Time.Before(lo) || rec.Time.After(hi) {
			continue
		}
		d := rec.Time.Sub(w.End)
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDelta {
			best, bestDelta = rec, d
		}
	}
	if best != nil {
		return best
	}

	// Wide pass: anything from just before the window's start to the
	// lookahead bound, earliest wins.
	lo = w.Start.Add(-lookbehind)
	for _, rec := range ordered {
		if !rec.Time.Before(lo) && !rec.Time.After(hi) {
			return rec
		}
	}
	return nil
}

// FindWindow returns the index of the window containing ts.
func FindWindow(windows []*types.BlockWindow, ts time.Time) (int, bool) {
	for _, w := range windows {
		if w.Contains(ts) {
			return w.Index, true
		}
	}
	return 0, false
}

// SamplesIn filters samples to those inside the window, bounds inclusive.
func SamplesIn(samples []types.Event, w *types.BlockWindow) []types.Event {
	var out []types.Event
	for _, s := range samples {
		if w.Contains(s.Time) {
			out = append(out, s)
		}
	}
	return out
}

// Stats summarizes the samples inside one window. The throughput rate is
// delta proofs_processed over elapsed seconds; with fewer than two samples
// or zero elapsed time both figures report zero rather than a fabricated
// value.
func Stats(samples []types.Event, w *types.BlockWindow) types.WindowStats {
	in := SamplesIn(samples, w)
	stats := types.WindowStats{Samples: len(in)}
	if len(in) < 2 {
		return stats
	}
	elapsed := in[len(in)-1].Time.Sub(in[0].Time)
	stats.DurationMS = types.Milliseconds(elapsed)
	if elapsed > 0 {
		delta := int64(in[len(in)-1].ProofsProcessed) - int64(in[0].ProofsProcessed)
		stats.Rate = float64(delta) / elapsed.Seconds()
	}
	return stats
}
